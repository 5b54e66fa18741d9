package submission

import (
	"context"

	"properforms/internal/domain/field"
)

// FormReader resolves the current field set of a form.
type FormReader interface {
	FormFields(ctx context.Context, formID int64) ([]field.Field, error)
}

// FileLinker is the view of the encrypted file store used by submissions.
type FileLinker interface {
	// CheckReference returns an error unless fileID is a draft uploaded for
	// fieldID of formID.
	CheckReference(ctx context.Context, fileID, formID int64, fieldID string) error
	Promote(ctx context.Context, fileID, submissionID int64, fieldID string) (bool, error)
	DeleteForSubmission(ctx context.Context, submissionID int64) error
}
