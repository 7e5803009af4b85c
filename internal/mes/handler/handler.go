package handler

import (
	"errors"
	"strconv"

	"github.com/bitfantasy/nimo-mes/internal/mes/defect"
	"github.com/bitfantasy/nimo-mes/internal/mes/engine"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/bitfantasy/nimo-mes/internal/mes/sse"
	"github.com/gin-gonic/gin"
)

// Handlers 处理器集合
type Handlers struct {
	Inspection *InspectionHandler
	Defect     *DefectHandler
	SSE        *SSEHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services, hub *sse.Hub, maxPhotoBytes int64) *Handlers {
	return &Handlers{
		Inspection: NewInspectionHandler(svc.Inspection, svc.Export, maxPhotoBytes),
		Defect:     NewDefectHandler(svc.Defect),
		SSE:        NewSSEHandler(hub),
	}
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ListResponse 列表响应结构
type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

// Pagination 分页信息
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func newPagination(page, pageSize int, total int64) *Pagination {
	return &Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      int(total),
		TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
	}
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// 检验业务错误码
const (
	CodeInvalidSampleIndex = 40001
	CodeInvalidMeasurement = 40002
	CodePhotoNotRequired   = 40003
	CodeKindMismatch       = 40004
	CodeInvalidDefect      = 40005
	CodeResultDerived      = 40006
	CodeNoPendingSelection = 40007
	CodeTaskCompleted      = 40901
	CodeMandatoryPending   = 40902
	CodeStorageUnavailable = 50300
)

// handleError maps service and engine errors onto the response envelope.
func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, engine.ErrNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, engine.ErrInvalidSampleIndex):
		Error(c, CodeInvalidSampleIndex, err.Error())
	case errors.Is(err, engine.ErrInvalidMeasurement):
		Error(c, CodeInvalidMeasurement, err.Error())
	case errors.Is(err, engine.ErrPhotoNotRequired):
		Error(c, CodePhotoNotRequired, err.Error())
	case errors.Is(err, engine.ErrKindMismatch):
		Error(c, CodeKindMismatch, err.Error())
	case errors.Is(err, engine.ErrInvalidDefectCount), errors.Is(err, defect.ErrUnknownDefect):
		Error(c, CodeInvalidDefect, err.Error())
	case errors.Is(err, engine.ErrResultDerived):
		Error(c, CodeResultDerived, err.Error())
	case errors.Is(err, engine.ErrNoPendingSelection):
		Error(c, CodeNoPendingSelection, err.Error())
	case errors.Is(err, engine.ErrInvalidResult), errors.Is(err, service.ErrUnsupportedFormat):
		BadRequest(c, err.Error())
	case errors.Is(err, service.ErrTaskCompleted):
		Error(c, CodeTaskCompleted, err.Error())
	case errors.Is(err, service.ErrMandatoryPending):
		Error(c, CodeMandatoryPending, err.Error())
	case errors.Is(err, service.ErrStorageUnavailable):
		Error(c, CodeStorageUnavailable, err.Error())
	default:
		InternalError(c, err.Error())
	}
}

// GetUserID 从上下文获取用户ID
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// GetPagination 从请求获取分页参数
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}
