package form

import "errors"

var (
	ErrFormNotFound      = errors.New("form not found")
	ErrFieldNotFound     = errors.New("field not found on form")
	ErrInvalidFields     = errors.New("invalid field list")
	ErrSubmitNonce       = errors.New("invalid submission nonce")
	ErrCaptchaFailed     = errors.New("invalid or missing recaptcha response")
	ErrInvalidSubmission = errors.New("form data is not a JSON object")
)

// FieldListError carries one message per rejected field block.
type FieldListError struct {
	Problems []string
}

func (e *FieldListError) Error() string {
	return ErrInvalidFields.Error()
}

func (e *FieldListError) Unwrap() error { return ErrInvalidFields }
