package handler

import (
	"github.com/bitfantasy/nimo-mes/internal/middleware"
	"github.com/gin-gonic/gin"
)

// PermissionInspect 执行检验（判定、录入、拍照、提交）所需权限
const PermissionInspect = "mes:inspect"

// RegisterRoutes mounts the MES API under v1. Reads need a valid token;
// writes also need the inspect permission.
func RegisterRoutes(v1 *gin.RouterGroup, h *Handlers, jwtSecret string) {
	mes := v1.Group("/mes")
	mes.Use(middleware.JWTAuth(jwtSecret))

	write := middleware.RequirePermission(PermissionInspect)

	tasks := mes.Group("/tasks")
	{
		tasks.GET("", h.Inspection.ListTasks)
		tasks.GET("/:id", h.Inspection.GetTask)
		tasks.GET("/:id/groups/:groupId/items", h.Inspection.ListItems)
		tasks.GET("/:id/activities", h.Inspection.Activities)
		tasks.GET("/:id/export", h.Inspection.Export)

		tasks.PUT("/:id/items/:itemId/result", write, h.Inspection.SetResult)
		tasks.POST("/:id/items/:itemId/defects", write, h.Inspection.ConfirmDefects)
		tasks.DELETE("/:id/items/:itemId/defect-selection", write, h.Inspection.CancelDefectSelection)
		tasks.PUT("/:id/items/:itemId/measurements/:index", write, h.Inspection.RecordMeasurement)
		tasks.POST("/:id/items/:itemId/photos", write, h.Inspection.UploadPhoto)
		tasks.DELETE("/:id/items/:itemId/photos/:photoId", write, h.Inspection.DeletePhoto)
		tasks.POST("/:id/submit", write, h.Inspection.Submit)
	}

	defects := mes.Group("/defects")
	{
		defects.GET("", h.Defect.List)
		defects.GET("/categories", h.Defect.Categories)
	}

	mes.GET("/sse/events", h.SSE.Stream)
}
