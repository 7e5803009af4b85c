package handler

import (
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/bitfantasy/nimo-mes/internal/mes/defect"
	"github.com/bitfantasy/nimo-mes/internal/mes/engine"
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/gin-gonic/gin"
)

var photoExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".heic": true,
}

// InspectionHandler FQC检验处理器
type InspectionHandler struct {
	svc           *service.InspectionService
	exportSvc     *service.ExportService
	maxPhotoBytes int64
}

// NewInspectionHandler 创建检验处理器
func NewInspectionHandler(svc *service.InspectionService, exportSvc *service.ExportService, maxPhotoBytes int64) *InspectionHandler {
	if maxPhotoBytes <= 0 {
		maxPhotoBytes = 20 << 20
	}
	return &InspectionHandler{svc: svc, exportSvc: exportSvc, maxPhotoBytes: maxPhotoBytes}
}

// ListTasks GET /mes/tasks
func (h *InspectionHandler) ListTasks(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"status":        c.Query("status"),
		"result":        c.Query("result"),
		"work_order_no": c.Query("work_order_no"),
		"keyword":       c.Query("keyword"),
	}

	tasks, total, err := h.svc.ListTasks(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		InternalError(c, "获取检验任务失败: "+err.Error())
		return
	}
	Success(c, ListResponse{Items: tasks, Pagination: newPagination(page, pageSize, total)})
}

// GetTask GET /mes/tasks/:id
func (h *InspectionHandler) GetTask(c *gin.Context) {
	view, err := h.svc.OpenTask(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, view)
}

// ListItems GET /mes/tasks/:id/groups/:groupId/items?tab=
func (h *InspectionHandler) ListItems(c *gin.Context) {
	items, err := h.svc.ListItems(c.Request.Context(), c.Param("id"), c.Param("groupId"), engine.Kind(c.Query("tab")))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"items": items})
}

// SetResultRequest 判定请求
type SetResultRequest struct {
	Result engine.Result `json:"result" binding:"required"`
}

// SetResult PUT /mes/tasks/:id/items/:itemId/result
func (h *InspectionHandler) SetResult(c *gin.Context) {
	var req SetResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	out, err := h.svc.SetResult(c.Request.Context(), c.Param("id"), c.Param("itemId"), req.Result, GetUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, out)
}

// ConfirmDefectsRequest 确认缺陷请求
type ConfirmDefectsRequest struct {
	Defects []defect.Selection `json:"defects" binding:"dive"`
}

// ConfirmDefects POST /mes/tasks/:id/items/:itemId/defects
func (h *InspectionHandler) ConfirmDefects(c *gin.Context) {
	var req ConfirmDefectsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	snap, err := h.svc.ConfirmDefects(c.Request.Context(), c.Param("id"), c.Param("itemId"), req.Defects, GetUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"inspection": snap})
}

// CancelDefectSelection DELETE /mes/tasks/:id/items/:itemId/defect-selection
func (h *InspectionHandler) CancelDefectSelection(c *gin.Context) {
	snap, err := h.svc.CancelDefectSelection(c.Request.Context(), c.Param("id"), c.Param("itemId"))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"inspection": snap})
}

// MeasurementRequest 实测值录入请求，空字符串表示清空
type MeasurementRequest struct {
	Value string `json:"value"`
}

// RecordMeasurement PUT /mes/tasks/:id/items/:itemId/measurements/:index
func (h *InspectionHandler) RecordMeasurement(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		BadRequest(c, "样本序号无效")
		return
	}
	var req MeasurementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	snap, err := h.svc.RecordMeasurement(c.Request.Context(), c.Param("id"), c.Param("itemId"), index, req.Value, GetUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"inspection": snap})
}

// UploadPhoto POST /mes/tasks/:id/items/:itemId/photos
func (h *InspectionHandler) UploadPhoto(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		BadRequest(c, "请上传照片")
		return
	}
	defer file.Close()

	if header.Size > h.maxPhotoBytes {
		BadRequest(c, "照片过大")
		return
	}
	if !photoExtensions[strings.ToLower(path.Ext(header.Filename))] {
		BadRequest(c, "不支持的照片格式")
		return
	}

	out, err := h.svc.AttachPhoto(c.Request.Context(), c.Param("id"), c.Param("itemId"),
		header.Filename, file, header.Size, header.Header.Get("Content-Type"), GetUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	Created(c, out)
}

// DeletePhoto DELETE /mes/tasks/:id/items/:itemId/photos/:photoId
func (h *InspectionHandler) DeletePhoto(c *gin.Context) {
	snap, err := h.svc.RemovePhoto(c.Request.Context(), c.Param("id"), c.Param("itemId"), c.Param("photoId"), GetUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, gin.H{"inspection": snap})
}

// Submit POST /mes/tasks/:id/submit
func (h *InspectionHandler) Submit(c *gin.Context) {
	var req service.SubmitRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, "参数错误: "+err.Error())
			return
		}
	}
	view, err := h.svc.Submit(c.Request.Context(), c.Param("id"), GetUserID(c), req)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, view)
}

// Activities GET /mes/tasks/:id/activities?item_id=
func (h *InspectionHandler) Activities(c *gin.Context) {
	page, pageSize := GetPagination(c)
	logs, total, err := h.svc.Activities(c.Request.Context(), c.Param("id"), c.Query("item_id"), page, pageSize)
	if err != nil {
		handleError(c, err)
		return
	}
	Success(c, ListResponse{Items: logs, Pagination: newPagination(page, pageSize, total)})
}

func attachment(c *gin.Context, filename string) {
	escaped := url.PathEscape(filename)
	c.Header("Content-Disposition", "attachment; filename=\""+escaped+"\"; filename*=UTF-8''"+escaped)
}

// Export GET /mes/tasks/:id/export?format=xlsx|csv
func (h *InspectionHandler) Export(c *gin.Context) {
	taskID := c.Param("id")
	switch format := c.DefaultQuery("format", "xlsx"); format {
	case "xlsx":
		f, filename, err := h.exportSvc.ExportXLSX(c.Request.Context(), taskID)
		if err != nil {
			handleError(c, err)
			return
		}
		defer f.Close()

		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		attachment(c, filename)
		c.Header("Content-Transfer-Encoding", "binary")
		if err := f.Write(c.Writer); err != nil {
			InternalError(c, "write excel: "+err.Error())
		}
	case "csv":
		data, filename, err := h.exportSvc.ExportCSV(c.Request.Context(), taskID)
		if err != nil {
			handleError(c, err)
			return
		}
		attachment(c, filename)
		c.Data(200, "text/csv; charset=GBK", data)
	default:
		handleError(c, service.ErrUnsupportedFormat)
	}
}
