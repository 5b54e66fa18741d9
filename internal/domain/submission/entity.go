package submission

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"properforms/internal/domain/field"
)

const StatusPublish = "publish"

// Submission is one persisted, validated set of values for a form.
type Submission struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	FormID    int64     `gorm:"index;not null" json:"form_id"`
	Title     string    `gorm:"size:255" json:"title"`
	Status    string    `gorm:"size:20;index;not null;default:publish" json:"status"`
	Data      string    `gorm:"type:text" json:"-"`
	Labels    string    `gorm:"type:text" json:"-"`
	CreatedAt time.Time `json:"created_at"`

	values map[string]any
	labels map[string]string
	bound  []field.Bound
}

func (Submission) TableName() string { return "submissions" }

// Values decodes the stored field id to value map. The result is memoized.
func (s *Submission) Values() (map[string]any, error) {
	if s.values != nil {
		return s.values, nil
	}
	values := map[string]any{}
	if s.Data != "" {
		if err := json.Unmarshal([]byte(s.Data), &values); err != nil {
			return nil, fmt.Errorf("decode submission %d data: %w", s.ID, err)
		}
	}
	s.values = values
	return values, nil
}

// Label returns the label a field had when this submission was stored.
// A corrupt snapshot is reported rather than read as empty.
func (s *Submission) Label(fieldID string) (string, error) {
	if s.labels == nil {
		labels := map[string]string{}
		if s.Labels != "" {
			if err := json.Unmarshal([]byte(s.Labels), &labels); err != nil {
				return "", fmt.Errorf("decode submission %d labels: %w", s.ID, err)
			}
		}
		s.labels = labels
	}
	return s.labels[fieldID], nil
}

// Fields binds the current form fields to this submission's values, in form
// order. The result is memoized, so an instance should not outlive a request.
func (s *Submission) Fields(ctx context.Context, forms FormReader) ([]field.Bound, error) {
	if s.bound != nil {
		return s.bound, nil
	}
	values, err := s.Values()
	if err != nil {
		return nil, err
	}
	fields, err := forms.FormFields(ctx, s.FormID)
	if err != nil {
		return nil, err
	}
	bound := make([]field.Bound, 0, len(fields))
	for _, f := range fields {
		bound = append(bound, field.Bound{Field: f, Value: values[f.Config().ID]})
	}
	s.bound = bound
	return bound, nil
}

// Clean is the validated form of a raw submission.
type Clean struct {
	FormID int64
	Values map[string]any
	Fields []field.Field
}

// Created is the payload of the submission.created event.
type Created struct {
	SubmissionID int64     `json:"submission_id"`
	FormID       int64     `json:"form_id"`
	FormTitle    string    `json:"form_title"`
	CreatedAt    time.Time `json:"created_at"`
}
