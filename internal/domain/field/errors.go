package field

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownKind = errors.New("field type is not registered")
	ErrMissingID   = errors.New("field id is empty")
	ErrDuplicateID = errors.New("field id is used more than once")
	ErrNotAnUpload = errors.New("field is not a file upload")
)

// ErrorKind classifies a validation failure.
type ErrorKind string

const (
	MissingRequired      ErrorKind = "missing_required_field"
	InvalidFormat        ErrorKind = "invalid_format"
	InvalidFileReference ErrorKind = "invalid_file_reference"
	MissingFormID        ErrorKind = "missing_form_id"
)

var defaultMessages = map[ErrorKind]string{
	MissingRequired:      "This field is required.",
	InvalidFormat:        "The value has an invalid format.",
	InvalidFileReference: "The uploaded file could not be found.",
	MissingFormID:        "Form id is missing.",
}

// ValidationError is a per-field failure returned to the submitter.
type ValidationError struct {
	FieldID string    `json:"field_id"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.FieldID == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.FieldID, e.Kind)
}

func newValidationError(cfg Config, kind ErrorKind) *ValidationError {
	msg := cfg.ErrorMsg
	if msg == "" || kind == InvalidFileReference {
		msg = defaultMessages[kind]
	}
	return &ValidationError{FieldID: cfg.ID, Kind: kind, Message: msg}
}

// NewValidationError builds an error not tied to a configured field.
func NewValidationError(fieldID string, kind ErrorKind) *ValidationError {
	return &ValidationError{FieldID: fieldID, Kind: kind, Message: defaultMessages[kind]}
}

// ReferenceError reports an invalid file reference for cfg.
func ReferenceError(cfg Config) *ValidationError {
	return newValidationError(cfg, InvalidFileReference)
}

// ValidationErrors aggregates every failure of one submission.
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Error())
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// ByField indexes the errors by field id.
func (v ValidationErrors) ByField() map[string]*ValidationError {
	out := make(map[string]*ValidationError, len(v))
	for _, e := range v {
		out[e.FieldID] = e
	}
	return out
}
