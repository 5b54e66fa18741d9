package form

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"properforms/internal/domain/field"
	"properforms/internal/domain/submission"
	"properforms/internal/pkg/response"
	"properforms/internal/pkg/validator"
)

// UploadNonces issues the per-field nonces an upload must carry.
type UploadNonces interface {
	IssueNonce(formID int64, fieldID string) (string, error)
	DefaultExtensions() []string
}

// SubmissionAdmin lists and removes stored submissions.
type SubmissionAdmin interface {
	ListByForm(ctx context.Context, formID int64, page, size int) ([]*submission.Submission, int64, error)
	Delete(ctx context.Context, id int64) error
}

// Handler serves the public form endpoints and the form admin.
type Handler struct {
	forms     *Service
	submitter *Submitter
	uploads   UploadNonces
	subs      SubmissionAdmin
}

func NewHandler(forms *Service, submitter *Submitter, uploads UploadNonces, subs SubmissionAdmin) *Handler {
	return &Handler{forms: forms, submitter: submitter, uploads: uploads, subs: subs}
}

// View godoc
// @Summary		Get a published form
// @Description	Returns the fields to render plus the submission and upload nonces.
// @Tags		Forms
// @Produce		json
// @Param		id	path	int	true	"Form ID"
// @Success		200	{object}	map[string]interface{}
// @Failure		404	{object}	map[string]interface{}
// @Router		/forms/{id} [get]
func (h *Handler) View(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	l, err := h.forms.Load(c.Request.Context(), id)
	if err != nil || !l.Published() {
		h.formError(c, err)
		return
	}

	nonce, err := h.submitter.IssueNonce(l.ID)
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "NONCE_FAILED", "Failed to issue nonce")
		return
	}

	view := PublicView{
		ID:            l.ID,
		Title:         l.Title,
		Fields:        make([]field.View, 0, len(l.Fields)),
		SubmitNonce:   nonce,
		UploadNonces:  map[string]string{},
		ErrorMessages: map[string]string{},
		Captcha:       h.submitter.CaptchaRequired(),
	}
	for _, f := range l.Fields {
		cfg := f.Config()
		view.Fields = append(view.Fields, field.Describe(f, h.uploads.DefaultExtensions()))
		if cfg.ErrorMsg != "" {
			view.ErrorMessages[cfg.ID] = cfg.ErrorMsg
		}
		if cfg.Type != field.KindFileUpload {
			continue
		}
		token, err := h.uploads.IssueNonce(l.ID, cfg.ID)
		if err != nil {
			_ = c.Error(err)
			response.Error(c, http.StatusInternalServerError, "NONCE_FAILED", "Failed to issue nonce")
			return
		}
		view.UploadNonces[cfg.ID] = token
	}

	response.Success(c, http.StatusOK, view)
}

// UploadNonce godoc
// @Summary		Issue an upload nonce
// @Description	Upload nonces are single use; the browser asks for a new one after each upload.
// @Tags		Forms
// @Accept		json
// @Produce		json
// @Param		id		path	int					true	"Form ID"
// @Param		body	body	UploadNonceRequest	true	"Upload field"
// @Success		200	{object}	map[string]interface{}
// @Failure		400,404	{object}	map[string]interface{}
// @Router		/forms/{id}/upload-nonce [post]
func (h *Handler) UploadNonce(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req UploadNonceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", errs)
		return
	}

	l, err := h.forms.Load(c.Request.Context(), id)
	if err != nil || !l.Published() {
		h.formError(c, err)
		return
	}
	if _, err := h.forms.UploadField(c.Request.Context(), id, req.FieldID); err != nil {
		response.Error(c, http.StatusNotFound, "FIELD_NOT_FOUND", "Upload field not found")
		return
	}

	token, err := h.uploads.IssueNonce(id, req.FieldID)
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "NONCE_FAILED", "Failed to issue nonce")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"field_id": req.FieldID, "nonce": token})
}

// Submit godoc
// @Summary		Submit a form
// @Description	Validates and stores a submission. On validation failure data lists one error per field.
// @Tags		Forms
// @Accept		json
// @Produce		json
// @Param		body	body	SubmitRequest	true	"Submission"
// @Success		201	{object}	map[string]interface{}
// @Failure		400,403,404,409,422,500	{object}	map[string]interface{}
// @Router		/forms/submit [post]
func (h *Handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", errs)
		return
	}

	res, err := h.submitter.Handle(c.Request.Context(), req, c.ClientIP())
	if err != nil {
		var verrs field.ValidationErrors
		switch {
		case errors.As(err, &verrs):
			response.Failure(c, http.StatusUnprocessableEntity, verrs)
		case errors.Is(err, ErrSubmitNonce):
			response.Error(c, http.StatusForbidden, "NONCE_INVALID", "Security check failed, reload the page and try again")
		case errors.Is(err, ErrInvalidSubmission):
			response.Error(c, http.StatusBadRequest, "INVALID_FORM_DATA", "Form data must be a JSON object")
		case errors.Is(err, ErrCaptchaFailed):
			response.Error(c, http.StatusConflict, "CAPTCHA_FAILED", "Invalid or missing recaptcha response")
		case errors.Is(err, ErrFormNotFound):
			response.Error(c, http.StatusNotFound, "FORM_NOT_FOUND", "Form not found")
		default:
			_ = c.Error(err)
			response.Error(c, http.StatusInternalServerError, "SUBMISSION_FAILED", "Submission could not be saved")
		}
		return
	}

	response.Success(c, http.StatusCreated, res)
}

// List godoc
// @Summary		List forms
// @Tags		Admin Forms
// @Produce		json
// @Security	BearerAuth
// @Param		page	query	int	false	"Page"	default(1)
// @Param		size	query	int	false	"Page size"	default(20)
// @Success		200	{object}	map[string]interface{}
// @Router		/admin/forms [get]
func (h *Handler) List(c *gin.Context) {
	page, size := pageParams(c)
	res, err := h.forms.List(c.Request.Context(), page, size)
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list forms")
		return
	}
	response.Success(c, http.StatusOK, res)
}

// Get godoc
// @Summary		Get a form definition
// @Tags		Admin Forms
// @Produce		json
// @Security	BearerAuth
// @Param		id	path	int	true	"Form ID"
// @Success		200	{object}	map[string]interface{}
// @Failure		404	{object}	map[string]interface{}
// @Router		/admin/forms/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	view, err := h.forms.Get(c.Request.Context(), id)
	if err != nil {
		h.formError(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// Create godoc
// @Summary		Create a form
// @Tags		Admin Forms
// @Accept		json
// @Produce		json
// @Security	BearerAuth
// @Param		body	body	SaveRequest	true	"Form definition"
// @Success		201	{object}	map[string]interface{}
// @Failure		400,422	{object}	map[string]interface{}
// @Router		/admin/forms [post]
func (h *Handler) Create(c *gin.Context) {
	req, ok := bindSave(c)
	if !ok {
		return
	}
	res, err := h.forms.Create(c.Request.Context(), req)
	if err != nil {
		h.saveError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, res)
}

// Update godoc
// @Summary		Replace a form definition
// @Tags		Admin Forms
// @Accept		json
// @Produce		json
// @Security	BearerAuth
// @Param		id		path	int			true	"Form ID"
// @Param		body	body	SaveRequest	true	"Form definition"
// @Success		200	{object}	map[string]interface{}
// @Failure		400,404,422	{object}	map[string]interface{}
// @Router		/admin/forms/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	req, ok := bindSave(c)
	if !ok {
		return
	}
	res, err := h.forms.Update(c.Request.Context(), id, req)
	if err != nil {
		h.saveError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// Delete godoc
// @Summary		Delete a form and its submissions
// @Tags		Admin Forms
// @Security	BearerAuth
// @Param		id	path	int	true	"Form ID"
// @Success		200	{object}	map[string]interface{}
// @Failure		404	{object}	map[string]interface{}
// @Router		/admin/forms/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.forms.Delete(c.Request.Context(), id); err != nil {
		h.formError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": id})
}

// Submissions godoc
// @Summary		List submissions of a form
// @Tags		Admin Submissions
// @Produce		json
// @Security	BearerAuth
// @Param		id		path	int	true	"Form ID"
// @Param		page	query	int	false	"Page"	default(1)
// @Param		size	query	int	false	"Page size"	default(20)
// @Success		200	{object}	map[string]interface{}
// @Router		/admin/forms/{id}/submissions [get]
func (h *Handler) Submissions(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	page, size := pageParams(c)

	subs, total, err := h.subs.ListByForm(ctx, id, page, size)
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list submissions")
		return
	}

	out := SubmissionList{Submissions: make([]SubmissionView, 0, len(subs)), Total: total, Page: page, Size: size}
	for _, sub := range subs {
		view, err := h.submissionView(ctx, sub)
		if err != nil {
			_ = c.Error(err)
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to read submission")
			return
		}
		out.Submissions = append(out.Submissions, view)
	}
	response.Success(c, http.StatusOK, out)
}

// submissionView lists values in current form order, then values of fields
// that were removed from the form since.
func (h *Handler) submissionView(ctx context.Context, sub *submission.Submission) (SubmissionView, error) {
	view := SubmissionView{ID: sub.ID, FormID: sub.FormID, Title: sub.Title, CreatedAt: sub.CreatedAt, Values: []ValueView{}}
	values, err := sub.Values()
	if err != nil {
		return view, err
	}
	seen := map[string]bool{}
	if bound, err := sub.Fields(ctx, h.forms); err == nil {
		for _, b := range bound {
			cfg := b.Config()
			if b.Value == nil {
				continue
			}
			seen[cfg.ID] = true
			view.Values = append(view.Values, ValueView{FieldID: cfg.ID, Label: cfg.Label, Value: b.Value})
		}
	}
	var rest []string
	for id := range values {
		if !seen[id] {
			rest = append(rest, id)
		}
	}
	sort.Strings(rest)
	for _, id := range rest {
		label, err := sub.Label(id)
		if err != nil {
			return view, err
		}
		view.Values = append(view.Values, ValueView{FieldID: id, Label: label, Value: values[id]})
	}
	return view, nil
}

// DeleteSubmission godoc
// @Summary		Delete a submission and its files
// @Tags		Admin Submissions
// @Security	BearerAuth
// @Param		id	path	int	true	"Submission ID"
// @Success		200	{object}	map[string]interface{}
// @Failure		404	{object}	map[string]interface{}
// @Router		/admin/submissions/{id} [delete]
func (h *Handler) DeleteSubmission(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.subs.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, submission.ErrSubmissionNotFound) {
			response.Error(c, http.StatusNotFound, "SUBMISSION_NOT_FOUND", "Submission not found")
			return
		}
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete submission")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) formError(c *gin.Context, err error) {
	if err == nil || errors.Is(err, ErrFormNotFound) {
		response.Error(c, http.StatusNotFound, "FORM_NOT_FOUND", "Form not found")
		return
	}
	_ = c.Error(err)
	response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load form")
}

func (h *Handler) saveError(c *gin.Context, err error) {
	var ferr *FieldListError
	switch {
	case errors.As(err, &ferr):
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "INVALID_FIELDS", "Field list is invalid", ferr.Problems)
	case errors.Is(err, ErrFormNotFound):
		response.Error(c, http.StatusNotFound, "FORM_NOT_FOUND", "Form not found")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save form")
	}
}

func bindSave(c *gin.Context) (SaveRequest, bool) {
	var req SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return req, false
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", errs)
		return req, false
	}
	return req, true
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid id")
		return 0, false
	}
	return id, true
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}
