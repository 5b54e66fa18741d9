package export

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"properforms/internal/domain/form"
	"properforms/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// CSV godoc
// @Summary		Export submissions as CSV
// @Description	One row per submission, oldest first. Columns are the union of labels across all rows.
// @Tags		Admin Submissions
// @Produce		text/csv
// @Security	BearerAuth
// @Param		id			path	int	true	"Form ID"
// @Param		max_pages	query	int	false	"Stop after this many pages of 100"
// @Success		200	{file}		file
// @Failure		403,404	{object}	map[string]interface{}
// @Router		/admin/forms/{id}/export.csv [get]
func (h *Handler) CSV(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid form id")
		return
	}
	maxPages, _ := strconv.Atoi(c.DefaultQuery("max_pages", "0"))

	rows, err := h.svc.Collect(c.Request.Context(), id, DefaultPageSize, maxPages)
	if err != nil {
		if errors.Is(err, form.ErrFormNotFound) {
			response.Error(c, http.StatusNotFound, "FORM_NOT_FOUND", "Form not found")
			return
		}
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "EXPORT_FAILED", "Failed to export submissions")
		return
	}

	cols, table := NormalizeColumns(rows)
	filename := fmt.Sprintf("form-%d-submissions-%s.csv", id, time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)
	if err := WriteCSV(c.Writer, cols, table); err != nil {
		_ = c.Error(err)
	}
}
