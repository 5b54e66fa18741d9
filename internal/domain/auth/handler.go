package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"properforms/internal/pkg/response"
	"properforms/internal/pkg/validator"
)

// Handler manages HTTP interactions for authentication
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Login godoc
// @Summary		Log in
// @Description	Exchanges email and password for an access token.
// @Tags		Auth
// @Accept		json
// @Produce		json
// @Param		body	body	LoginRequest	true	"credentials"
// @Success		200	{object}	map[string]interface{}
// @Failure		400,401,423	{object}	map[string]interface{}
// @Router		/auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", errs)
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
		case errors.Is(err, ErrAccountLocked):
			response.Error(c, http.StatusLocked, "ACCOUNT_LOCKED", "Too many failed attempts, try again later")
		default:
			_ = c.Error(err)
			response.Error(c, http.StatusInternalServerError, "LOGIN_FAILED", "Login failed")
		}
		return
	}

	response.Success(c, http.StatusOK, res)
}

func (h *Handler) RegisterRoutes(v1 *gin.RouterGroup) {
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/login", h.Login)
	}
}
