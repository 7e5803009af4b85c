package handler

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/gin-gonic/gin"
)

// DefectHandler 缺陷代码处理器
type DefectHandler struct {
	svc *service.DefectService
}

func NewDefectHandler(svc *service.DefectService) *DefectHandler {
	return &DefectHandler{svc: svc}
}

// List GET /mes/defects?category=&keyword=
func (h *DefectHandler) List(c *gin.Context) {
	codes, err := h.svc.Search(c.Request.Context(), c.Query("category"), c.Query("keyword"))
	if err != nil {
		InternalError(c, "获取缺陷代码失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": codes})
}

// Categories GET /mes/defects/categories
func (h *DefectHandler) Categories(c *gin.Context) {
	cats, err := h.svc.Categories(c.Request.Context())
	if err != nil {
		InternalError(c, "获取缺陷分类失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": cats})
}
