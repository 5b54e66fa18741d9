package upload

import (
	"errors"
	"fmt"
)

var (
	ErrFileNotFound     = errors.New("file not found")
	ErrForbidden        = errors.New("not allowed to read files")
	ErrCorrupt          = errors.New("file contents cannot be decrypted")
	ErrAlreadyPublished = errors.New("file is already linked to a submission")
	ErrFieldMismatch    = errors.New("file was uploaded for another field")
	ErrNonceReplayed    = errors.New("upload nonce already used")
)

// Reason classifies a rejected upload.
type Reason string

const (
	NonceInvalid       Reason = "nonce_invalid"
	FormIDMissing      Reason = "form_id_missing"
	FileDataMissing    Reason = "file_data_missing"
	FieldConfigMissing Reason = "field_config_missing"
	FiletypeNotAllowed Reason = "filetype_not_allowed"
	FileTooLarge       Reason = "file_too_large"
	TransportError     Reason = "transport_error"
)

var reasonMessages = map[Reason]string{
	NonceInvalid:       "Security check failed, reload the page and try again.",
	FormIDMissing:      "Form id is missing.",
	FileDataMissing:    "No file was received.",
	FieldConfigMissing: "This upload field does not exist.",
	FiletypeNotAllowed: "This file type is not allowed.",
	FileTooLarge:       "The file is too large.",
	TransportError:     "The file could not be received.",
}

// UploadError is returned for every rejected upload. Nothing is stored.
type UploadError struct {
	Reason Reason
	Err    error
}

func reject(reason Reason, err error) *UploadError {
	return &UploadError{Reason: reason, Err: err}
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upload rejected (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("upload rejected (%s)", e.Reason)
}

func (e *UploadError) Unwrap() error { return e.Err }

// Message is the text shown next to the upload input.
func (e *UploadError) Message() string {
	return reasonMessages[e.Reason]
}
