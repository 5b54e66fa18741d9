package feed

import (
	"context"

	"properforms/internal/domain/submission"
	"properforms/internal/pkg/hooks"
)

// Server event types.
const (
	EventSubmissionCreated = "submission_created"
	EventSubmissionDeleted = "submission_deleted"
	EventFormDeleted       = "form_deleted"
	EventPong              = "pong"
	EventError             = "error"
)

// ClientMessage is what a connected admin may send.
type ClientMessage struct {
	Type   string `json:"type"`
	FormID int64  `json:"form_id,omitempty"`
}

// Event is pushed to connected admins.
type Event struct {
	Type         string              `json:"type"`
	FormID       int64               `json:"form_id,omitempty"`
	SubmissionID int64               `json:"submission_id,omitempty"`
	Submission   *submission.Created `json:"submission,omitempty"`
	Code         string              `json:"code,omitempty"`
	Message      string              `json:"message,omitempty"`
}

// Subscribe forwards submission and form lifecycle events to the hub.
func (h *Hub) Subscribe(events *hooks.Dispatcher) {
	events.On(hooks.SubmissionCreated, hooks.DefaultPriority+10, func(_ context.Context, payload any) {
		created, ok := payload.(submission.Created)
		if !ok {
			return
		}
		h.Broadcast(&Event{
			Type:         EventSubmissionCreated,
			FormID:       created.FormID,
			SubmissionID: created.SubmissionID,
			Submission:   &created,
		})
	})
	events.On(hooks.SubmissionDeleted, hooks.DefaultPriority+10, func(_ context.Context, payload any) {
		if id, ok := payload.(int64); ok {
			h.Broadcast(&Event{Type: EventSubmissionDeleted, SubmissionID: id})
		}
	})
	events.On(hooks.FormDeleted, hooks.DefaultPriority+10, func(_ context.Context, payload any) {
		if id, ok := payload.(int64); ok {
			h.Broadcast(&Event{Type: EventFormDeleted, FormID: id})
		}
	})
}
