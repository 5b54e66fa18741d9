package export

import (
	"github.com/gin-gonic/gin"

	"properforms/internal/domain/auth"
	"properforms/internal/middleware"
)

// RegisterRoutes mounts the CSV export on protected, which must already
// authenticate the caller.
func RegisterRoutes(protected *gin.RouterGroup, h *Handler) {
	admin := protected.Group("/admin")
	admin.Use(middleware.RequireCapability(auth.CapExportSubmissions))
	{
		admin.GET("/forms/:id/export.csv", h.CSV)
	}
}
