package form

import (
	"github.com/gin-gonic/gin"

	"properforms/internal/domain/auth"
	"properforms/internal/middleware"
)

// RegisterRoutes mounts the public form endpoints on public and the form
// admin on protected, which must already authenticate the caller.
func (h *Handler) RegisterRoutes(public *gin.RouterGroup, protected *gin.RouterGroup) {
	forms := public.Group("/forms")
	{
		forms.POST("/submit", h.Submit)
		forms.GET("/:id", h.View)
		forms.POST("/:id/upload-nonce", h.UploadNonce)
	}

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireCapability(auth.CapEditPosts))
	{
		admin.GET("/forms", h.List)
		admin.POST("/forms", h.Create)
		admin.GET("/forms/:id", h.Get)
		admin.PUT("/forms/:id", h.Update)
		admin.DELETE("/forms/:id", h.Delete)
		admin.GET("/forms/:id/submissions", h.Submissions)
		admin.DELETE("/submissions/:id", h.DeleteSubmission)
	}
}
