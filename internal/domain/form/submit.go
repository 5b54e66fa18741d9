package form

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"properforms/internal/domain/field"
	"properforms/internal/domain/submission"
	"properforms/internal/pkg/hooks"
	"properforms/internal/pkg/jwt"
	"properforms/internal/pkg/mailer"
)

// SubmitNonceAction is the action form submission nonces are issued for.
const SubmitNonceAction = "form-submission"

// SubmissionStore validates and persists submissions.
type SubmissionStore interface {
	Prepare(ctx context.Context, input map[string]any) (*submission.Clean, error)
	Insert(ctx context.Context, clean *submission.Clean) (int64, error)
}

type nonceService interface {
	IssueNonce(action string, formID int64, ttl time.Duration) (string, string, error)
	VerifyNonce(token, action string) (*jwt.NonceClaims, error)
}

// CaptchaVerifier checks a reCAPTCHA response token.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) (bool, error)
}

type SubmitOptions struct {
	// PublicBaseURL prefixes file links in notification emails.
	PublicBaseURL      string
	IntegrationTimeout time.Duration
	NonceTTL           time.Duration
	// CaptchaRequired rejects submissions without a verified captcha response.
	CaptchaRequired bool
	ReplyTo         string
}

// Submitter runs a public submission end to end: nonce and captcha checks,
// validation, storage and the best-effort side effects.
type Submitter struct {
	forms   *Service
	subs    SubmissionStore
	nonces  nonceService
	captcha CaptchaVerifier
	mail    mailer.Mailer
	client  *http.Client
	events  *hooks.Dispatcher
	log     *zap.Logger
	opts    SubmitOptions
}

func NewSubmitter(forms *Service, subs SubmissionStore, nonces nonceService, captcha CaptchaVerifier, mail mailer.Mailer, events *hooks.Dispatcher, log *zap.Logger, opts SubmitOptions) *Submitter {
	if opts.IntegrationTimeout <= 0 {
		opts.IntegrationTimeout = 10 * time.Second
	}
	if opts.NonceTTL <= 0 {
		opts.NonceTTL = 12 * time.Hour
	}
	return &Submitter{
		forms:   forms,
		subs:    subs,
		nonces:  nonces,
		captcha: captcha,
		mail:    mail,
		client:  newIntegrationClient(),
		events:  events,
		log:     log,
		opts:    opts,
	}
}

// IssueNonce returns a submission nonce bound to formID.
func (s *Submitter) IssueNonce(formID int64) (string, error) {
	token, _, err := s.nonces.IssueNonce(SubmitNonceAction, formID, s.opts.NonceTTL)
	return token, err
}

// CaptchaRequired reports whether submissions must carry a captcha response.
func (s *Submitter) CaptchaRequired() bool {
	return s.opts.CaptchaRequired
}

// Handle checks the request envelope and submits its form data.
func (s *Submitter) Handle(ctx context.Context, req SubmitRequest, remoteIP string) (*Result, error) {
	claims, err := s.nonces.VerifyNonce(req.Nonce, SubmitNonceAction)
	if err != nil {
		return nil, ErrSubmitNonce
	}

	raw, err := DecodeFormData(req.FormData)
	if err != nil {
		return nil, err
	}

	if s.opts.CaptchaRequired {
		ok := false
		if s.captcha != nil {
			ok, err = s.captcha.Verify(ctx, req.RecaptchaResponse, remoteIP)
			if err != nil {
				s.log.Warn("captcha verification failed", zap.Error(err))
			}
		}
		if !ok {
			return nil, ErrCaptchaFailed
		}
	}

	if id, ok := field.ParseID(raw["form_id"]); ok && claims.FormID != 0 && claims.FormID != id {
		return nil, ErrSubmitNonce
	}
	return s.Submit(ctx, raw)
}

// DecodeFormData accepts a JSON object or a JSON string that holds one.
func DecodeFormData(data json.RawMessage) (map[string]any, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return nil, ErrInvalidSubmission
		}
		data = []byte(inner)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil || raw == nil {
		return nil, ErrInvalidSubmission
	}
	return raw, nil
}

// Submit validates and stores raw, then posts to the integration handler,
// sends the notification and fires submission.created. Validation failures
// are field.ValidationErrors; storage failures wrap submission.ErrPersistence.
func (s *Submitter) Submit(ctx context.Context, raw map[string]any) (*Result, error) {
	if id, ok := field.ParseID(raw["form_id"]); ok {
		l, err := s.forms.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if !l.Published() {
			return nil, ErrFormNotFound
		}
	}

	clean, err := s.subs.Prepare(ctx, raw)
	if err != nil {
		return nil, err
	}
	l, err := s.forms.Load(ctx, clean.FormID)
	if err != nil {
		return nil, err
	}

	subID, err := s.subs.Insert(ctx, clean)
	if err != nil {
		s.log.Error("submission not stored", zap.Int64("form_id", clean.FormID), zap.Error(err))
		return nil, err
	}

	bound := bind(clean)
	s.postIntegration(ctx, l, subID, bound)
	s.notify(ctx, l, subID, bound)
	s.events.Fire(ctx, hooks.SubmissionCreated, submission.Created{
		SubmissionID: subID,
		FormID:       l.ID,
		FormTitle:    l.Title,
		CreatedAt:    time.Now(),
	})

	return &Result{
		SubmissionID: subID,
		Message:      ThankYou(l, raw),
		Redirect:     l.RedirectURL,
	}, nil
}

func bind(clean *submission.Clean) []field.Bound {
	out := make([]field.Bound, 0, len(clean.Fields))
	for _, f := range clean.Fields {
		out = append(out, field.Bound{Field: f, Value: clean.Values[f.Config().ID]})
	}
	return out
}

// joined renders a saved value for outbound channels, lists joined with sep.
func joined(v any, sep string) string {
	if id, ok := v.(int64); ok {
		if id == 0 {
			return ""
		}
		return strconv.FormatInt(id, 10)
	}
	return strings.Join(field.Strings(v), sep)
}
