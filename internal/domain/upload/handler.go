package upload

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"properforms/internal/domain/field"
	"properforms/internal/middleware"
	"properforms/internal/pkg/response"
)

// multipartOverhead is the slack allowed on top of the file itself.
const multipartOverhead = 64 << 10

// Handler serves the public upload endpoint and the admin file viewer.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Upload godoc
// @Summary		Upload a file for a form field
// @Description	Stores the file encrypted as a draft. The returned id goes into the submission.
// @Tags		Uploads
// @Accept		multipart/form-data
// @Produce		json
// @Param		form_id	formData	int		true	"Form ID"
// @Param		field_id	formData	string	true	"Upload field ID"
// @Param		nonce	formData	string	true	"Upload nonce"
// @Param		file	formData	file	true	"File"
// @Success		201	{object}	map[string]interface{}
// @Failure		400,403,413,500	{object}	map[string]interface{}
// @Router		/uploads [post]
func (h *Handler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, field.MaxUploadBytes+multipartOverhead)

	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.reject(c, reject(FileTooLarge, err))
			return
		}
		h.reject(c, reject(TransportError, err))
		return
	}

	req := Request{
		FieldID: c.PostForm("field_id"),
		Nonce:   c.PostForm("nonce"),
	}
	req.FormID, _ = field.ParseID(c.PostForm("form_id"))

	if fh, err := c.FormFile("file"); err == nil {
		req.Filename = fh.Filename
		req.MimeType = fh.Header.Get("Content-Type")
		req.Size = fh.Size
		src, err := fh.Open()
		if err != nil {
			h.reject(c, reject(TransportError, err))
			return
		}
		req.Content, err = io.ReadAll(io.LimitReader(src, field.MaxUploadBytes+1))
		_ = src.Close()
		if err != nil {
			h.reject(c, reject(TransportError, err))
			return
		}
	}

	f, err := h.service.Upload(c.Request.Context(), req)
	if err != nil {
		var uerr *UploadError
		if errors.As(err, &uerr) {
			h.reject(c, uerr)
			return
		}
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "UPLOAD_FAILED", "Upload failed")
		return
	}

	response.Success(c, http.StatusCreated, f.Descriptor())
}

func (h *Handler) reject(c *gin.Context, err *UploadError) {
	status := http.StatusBadRequest
	switch err.Reason {
	case FileTooLarge:
		status = http.StatusRequestEntityTooLarge
	case NonceInvalid:
		status = http.StatusForbidden
	}
	response.Failure(c, status, gin.H{
		"code":    string(err.Reason),
		"message": err.Message(),
	})
}

// View godoc
// @Summary		Show a stored file inline
// @Tags		Files
// @Security	BearerAuth
// @Param		id	path	int	true	"File ID"
// @Success		200	{file}	binary
// @Failure		401,403,404,500	{object}	map[string]interface{}
// @Router		/files/{id} [get]
func (h *Handler) View(c *gin.Context) {
	content, ok := h.open(c)
	if !ok {
		return
	}
	c.Header("Content-Disposition", disposition("inline", content.Filename))
	c.Data(http.StatusOK, content.MimeType, content.Data)
}

// Download godoc
// @Summary		Download a stored file
// @Tags		Files
// @Security	BearerAuth
// @Param		id	path	int	true	"File ID"
// @Success		200	{file}	binary
// @Failure		401,403,404,500	{object}	map[string]interface{}
// @Router		/files/{id}/download [get]
func (h *Handler) Download(c *gin.Context) {
	content, ok := h.open(c)
	if !ok {
		return
	}
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", disposition("attachment", content.Filename))
	c.Header("Expires", "0")
	c.Header("Cache-Control", "must-revalidate")
	c.Header("Pragma", "public")
	c.Header("Content-Length", strconv.Itoa(len(content.Data)))
	c.Data(http.StatusOK, "application/octet-stream", content.Data)
}

func (h *Handler) open(c *gin.Context) (*Content, bool) {
	id, ok := field.ParseID(c.Param("id"))
	if !ok {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid file id")
		return nil, false
	}

	var principal Principal
	if claims, ok := middleware.ClaimsFrom(c); ok {
		principal = claims
	}

	content, err := h.service.Open(c.Request.Context(), id, principal)
	if err != nil {
		switch {
		case errors.Is(err, ErrForbidden):
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "You are not allowed to read files")
		case errors.Is(err, ErrFileNotFound):
			response.Error(c, http.StatusNotFound, "FILE_NOT_FOUND", "File not found")
		case errors.Is(err, ErrCorrupt):
			response.Error(c, http.StatusInternalServerError, "FILE_CORRUPT", "File cannot be decrypted")
		default:
			_ = c.Error(err)
			response.Error(c, http.StatusInternalServerError, "FILE_READ_FAILED", "Failed to read file")
		}
		return nil, false
	}
	if content.MimeType == "" {
		content.MimeType = "application/octet-stream"
	}
	return content, true
}

func disposition(kind, filename string) string {
	if filename == "" {
		return kind
	}
	return mime.FormatMediaType(kind, map[string]string{"filename": filename})
}
