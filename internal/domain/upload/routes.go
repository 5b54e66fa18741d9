package upload

import (
	"github.com/gin-gonic/gin"

	"properforms/internal/domain/auth"
	"properforms/internal/middleware"
)

// RegisterRoutes mounts the public upload endpoint and the protected file viewer.
func RegisterRoutes(public *gin.RouterGroup, protected *gin.RouterGroup, h *Handler) {
	public.POST("/uploads", h.Upload)

	files := protected.Group("/files")
	files.Use(middleware.RequireCapability(auth.CapEditPosts, auth.CapReadFiles))
	{
		files.GET("/:id", h.View)
		files.GET("/:id/download", h.Download)
	}
}
