package feed

import "github.com/gin-gonic/gin"

func RegisterRoutes(r gin.IRoutes, h *Handler) {
	r.GET("/ws/submissions", h.Submissions)
}
