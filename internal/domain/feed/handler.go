package feed

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"properforms/internal/domain/auth"
	"properforms/internal/pkg/jwt"
	"properforms/internal/pkg/response"
)

type Handler struct {
	hub      *Hub
	tokens   *jwt.Service
	log      *zap.Logger
	upgrader websocket.Upgrader
}

// NewHandler accepts upgrades from the given origins. Requests without an
// Origin header, or any origin when the list is empty, are accepted.
func NewHandler(hub *Hub, tokens *jwt.Service, log *zap.Logger, origins []string) *Handler {
	return &Handler{
		hub:    hub,
		tokens: tokens,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(origins) == 0 || slices.Contains(origins, origin)
			},
		},
	}
}

// Submissions streams submission events to an admin.
//
// Endpoint: GET /ws/submissions?token=JWT
//
// Browsers cannot set headers on a websocket handshake, so the token comes
// from the query string.
func (h *Handler) Submissions(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Token is required")
		return
	}
	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		return
	}
	if !claims.Can(auth.CapEditPosts) {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Insufficient permissions")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("feed upgrade failed", zap.Error(err))
		return
	}
	h.hub.ServeWS(conn, claims.UserID)
}
