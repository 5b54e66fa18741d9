package submission

import "errors"

var (
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrPersistence        = errors.New("submission could not be stored")
)
