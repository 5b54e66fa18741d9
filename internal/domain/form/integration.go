package form

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"properforms/internal/domain/field"
	"properforms/internal/pkg/hooks"
)

// IntegrationFailure is the payload of the integration.post_failed event.
type IntegrationFailure struct {
	FormID       int64
	SubmissionID int64
	Body         url.Values
	Status       int
	Err          error
}

// newIntegrationClient never follows redirects, so a redirecting handler counts as a failure.
func newIntegrationClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// postIntegration sends every field with a handler name to the form's
// external handler. Failures never affect the stored submission.
func (s *Submitter) postIntegration(ctx context.Context, l *Loaded, subID int64, bound []field.Bound) bool {
	if !l.PostEnabled || l.PostURL == "" || len(bound) == 0 {
		return false
	}

	body := url.Values{}
	for _, b := range bound {
		handler := b.Config().Handler
		if handler == "" {
			continue
		}
		body.Set(handler, joined(b.Value, ";"))
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.IntegrationTimeout)
	defer cancel()

	status, err := s.post(ctx, l.PostURL, body)
	if err == nil && status == http.StatusOK {
		s.log.Info("integration post sent", zap.Int64("form_id", l.ID), zap.Int64("submission_id", subID))
		return true
	}

	s.log.Warn("integration post failed",
		zap.Int64("form_id", l.ID),
		zap.Int64("submission_id", subID),
		zap.Int("status", status),
		zap.Error(err),
	)
	s.events.Fire(ctx, hooks.IntegrationPostFail, IntegrationFailure{
		FormID:       l.ID,
		SubmissionID: subID,
		Body:         body,
		Status:       status,
		Err:          err,
	})
	return false
}

func (s *Submitter) post(ctx context.Context, target string, body url.Values) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(body.Encode()))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	return resp.StatusCode, nil
}
