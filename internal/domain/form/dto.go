package form

import (
	"encoding/json"
	"time"

	"properforms/internal/domain/field"
)

// SaveRequest creates or replaces a form definition.
type SaveRequest struct {
	Title       string          `json:"title" validate:"required,max=255"`
	Status      string          `json:"status" validate:"omitempty,oneof=publish draft"`
	Fields      json.RawMessage `json:"fields"`
	Notify      bool            `json:"notify"`
	NotifyEmail string          `json:"notify_email" validate:"required_if=Notify true,omitempty,email"`
	PostEnabled bool            `json:"post_enabled"`
	PostURL     string          `json:"post_url" validate:"required_if=PostEnabled true,omitempty,url"`
	ThankYou    string          `json:"thank_you" validate:"max=10000"`
	RedirectURL string          `json:"redirect_url" validate:"omitempty,url"`
}

// NoticeNonUniqueTitle is raised when a published form was demoted to draft
// because another published form has the same title.
const NoticeNonUniqueTitle = "non_unique_title"

// SaveResult is the stored form plus any notices raised while saving.
type SaveResult struct {
	Form    *AdminView `json:"form"`
	Notices []string   `json:"notices,omitempty"`
}

// AdminView is the full definition including integration settings.
type AdminView struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	Status      string         `json:"status"`
	Fields      []field.Config `json:"fields"`
	Notify      bool           `json:"notify"`
	NotifyEmail string         `json:"notify_email,omitempty"`
	PostEnabled bool           `json:"post_enabled"`
	PostURL     string         `json:"post_url,omitempty"`
	ThankYou    string         `json:"thank_you,omitempty"`
	RedirectURL string         `json:"redirect_url,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func NewAdminView(f *Form, configs []field.Config) *AdminView {
	if configs == nil {
		configs = []field.Config{}
	}
	return &AdminView{
		ID:          f.ID,
		Title:       f.Title,
		Status:      f.Status,
		Fields:      configs,
		Notify:      f.Notify,
		NotifyEmail: f.NotifyEmail,
		PostEnabled: f.PostEnabled,
		PostURL:     f.PostURL,
		ThankYou:    f.ThankYou,
		RedirectURL: f.RedirectURL,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
	}
}

// Summary is one row of the admin form list.
type Summary struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ListResponse struct {
	Forms []Summary `json:"forms"`
	Total int64     `json:"total"`
	Page  int       `json:"page"`
	Size  int       `json:"size"`
}

// PublicView is what a visitor's browser needs to render and submit a form.
type PublicView struct {
	ID           int64             `json:"id"`
	Title        string            `json:"title"`
	Fields       []field.View      `json:"fields"`
	SubmitNonce  string            `json:"nonce"`
	UploadNonces map[string]string `json:"upload_nonces,omitempty"`
	// ErrorMessages maps field id to its custom message.
	ErrorMessages map[string]string `json:"error_messages,omitempty"`
	Captcha       bool              `json:"captcha"`
}

// SubmitRequest is the public submission payload. FormData is either a JSON
// object or a string holding one.
type SubmitRequest struct {
	Nonce             string          `json:"nonce" validate:"required"`
	FormData          json.RawMessage `json:"form_data" validate:"required"`
	RecaptchaResponse string          `json:"recaptcha_response"`
}

// UploadNonceRequest asks for a fresh nonce for one upload field.
type UploadNonceRequest struct {
	FieldID string `json:"field_id" validate:"required"`
}

// Result is returned to the browser after a successful submission.
type Result struct {
	SubmissionID int64  `json:"submission_id"`
	Message      string `json:"message"`
	Redirect     string `json:"redirect,omitempty"`
}

// SubmissionView is one stored submission as listed in the admin.
type SubmissionView struct {
	ID        int64       `json:"id"`
	FormID    int64       `json:"form_id"`
	Title     string      `json:"title"`
	CreatedAt time.Time   `json:"created_at"`
	Values    []ValueView `json:"values"`
}

type ValueView struct {
	FieldID string `json:"field_id"`
	Label   string `json:"label"`
	Value   any    `json:"value"`
}

type SubmissionList struct {
	Submissions []SubmissionView `json:"submissions"`
	Total       int64            `json:"total"`
	Page        int              `json:"page"`
	Size        int              `json:"size"`
}
