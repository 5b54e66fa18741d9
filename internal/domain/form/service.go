package form

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"properforms/internal/domain/field"
	"properforms/internal/pkg/hooks"
)

// Service loads form definitions and administers them.
type Service struct {
	repo     Repository
	registry *field.Registry
	events   *hooks.Dispatcher
	cache    *cache
	log      *zap.Logger
	now      func() time.Time
}

func NewService(repo Repository, registry *field.Registry, events *hooks.Dispatcher, log *zap.Logger, cacheTTL time.Duration) *Service {
	s := &Service{
		repo:     repo,
		registry: registry,
		events:   events,
		cache:    newCache(cacheTTL),
		log:      log,
		now:      time.Now,
	}
	s.cache.subscribe(events)
	return s
}

// Load returns the form with its fields built, from cache when possible.
// Stored fields that cannot be built are dropped and logged.
func (s *Service) Load(ctx context.Context, id int64) (*Loaded, error) {
	if l, ok := s.cache.get(id); ok {
		return l, nil
	}
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	l := &Loaded{Form: *f, Fields: s.build(f)}
	s.cache.set(l)
	return l, nil
}

func (s *Service) build(f *Form) []field.Field {
	configs, errs := field.DecodeConfigs([]byte(f.FieldsJSON))
	for _, err := range errs {
		s.log.Warn("stored field dropped", zap.Int64("form_id", f.ID), zap.Error(err))
	}
	fields := make([]field.Field, 0, len(configs))
	seen := make(map[string]bool, len(configs))
	for _, cfg := range configs {
		if seen[cfg.ID] {
			s.log.Warn("duplicate field id dropped", zap.Int64("form_id", f.ID), zap.String("field_id", cfg.ID))
			continue
		}
		built, err := s.registry.Build(cfg)
		if err != nil {
			s.log.Warn("stored field dropped",
				zap.Int64("form_id", f.ID),
				zap.String("field_id", cfg.ID),
				zap.String("type", string(cfg.Type)),
				zap.Error(err),
			)
			continue
		}
		seen[cfg.ID] = true
		fields = append(fields, built)
	}
	return fields
}

// FormFields returns the ordered fields of a form.
func (s *Service) FormFields(ctx context.Context, id int64) ([]field.Field, error) {
	l, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return l.Fields, nil
}

// UploadField returns the file upload field fieldID of a form.
func (s *Service) UploadField(ctx context.Context, formID int64, fieldID string) (*field.FileUpload, error) {
	l, err := s.Load(ctx, formID)
	if err != nil {
		return nil, err
	}
	f, ok := l.Field(fieldID)
	if !ok {
		return nil, ErrFieldNotFound
	}
	fu, ok := f.(*field.FileUpload)
	if !ok {
		return nil, ErrFieldNotFound
	}
	return fu, nil
}

// Get returns the admin view of a form, drafts included.
func (s *Service) Get(ctx context.Context, id int64) (*AdminView, error) {
	l, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewAdminView(&l.Form, l.Configs()), nil
}

func (s *Service) List(ctx context.Context, page, size int) (*ListResponse, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	forms, total, err := s.repo.List(ctx, (page-1)*size, size)
	if err != nil {
		return nil, err
	}
	out := &ListResponse{Forms: make([]Summary, 0, len(forms)), Total: total, Page: page, Size: size}
	for _, f := range forms {
		out.Forms = append(out.Forms, Summary{ID: f.ID, Title: f.Title, Status: f.Status, UpdatedAt: f.UpdatedAt})
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, req SaveRequest) (*SaveResult, error) {
	f := &Form{CreatedAt: s.now()}
	return s.save(ctx, f, req, true)
}

func (s *Service) Update(ctx context.Context, id int64, req SaveRequest) (*SaveResult, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, existing, req, false)
}

func (s *Service) save(ctx context.Context, f *Form, req SaveRequest, create bool) (*SaveResult, error) {
	configs, err := s.normalizeFields(req.Fields)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(configs)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}

	f.Title = strings.TrimSpace(req.Title)
	f.Status = req.Status
	if f.Status == "" {
		f.Status = StatusPublish
	}
	f.FieldsJSON = string(data)
	f.Notify = req.Notify
	f.NotifyEmail = strings.TrimSpace(req.NotifyEmail)
	f.PostEnabled = req.PostEnabled
	f.PostURL = strings.TrimSpace(req.PostURL)
	f.ThankYou = req.ThankYou
	f.RedirectURL = strings.TrimSpace(req.RedirectURL)
	f.UpdatedAt = s.now()

	var notices []string
	if f.Status == StatusPublish {
		taken, err := s.repo.TitleTaken(ctx, f.Title, f.ID)
		if err != nil {
			return nil, err
		}
		if taken {
			f.Status = StatusDraft
			notices = append(notices, NoticeNonUniqueTitle)
			s.log.Info("form forced to draft, title in use", zap.Int64("form_id", f.ID), zap.String("title", f.Title))
		}
	}

	if create {
		err = s.repo.Create(ctx, f)
	} else {
		err = s.repo.Update(ctx, f)
	}
	if err != nil {
		return nil, err
	}

	s.cache.invalidate(f.ID)
	s.events.Fire(ctx, hooks.FormSaved, f.ID)
	s.log.Info("form saved", zap.Int64("form_id", f.ID), zap.String("status", f.Status), zap.Int("fields", len(configs)))
	return &SaveResult{Form: NewAdminView(f, configs), Notices: notices}, nil
}

// normalizeFields decodes the submitted field list strictly, assigns ids to
// new fields and rejects unknown types and duplicate ids.
func (s *Service) normalizeFields(raw json.RawMessage) ([]field.Config, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return []field.Config{}, nil
	}
	configs, errs := field.DecodeConfigs(raw)
	var problems []string
	for _, err := range errs {
		problems = append(problems, err.Error())
	}

	seen := make(map[string]bool, len(configs))
	for i := range configs {
		cfg := &configs[i]
		if cfg.ID == "" {
			cfg.ID = newFieldID(seen)
		}
		if seen[cfg.ID] {
			problems = append(problems, fmt.Sprintf("%s: %v", cfg.ID, field.ErrDuplicateID))
			continue
		}
		seen[cfg.ID] = true
		if _, ok := s.registry.Resolve(cfg.Type); !ok {
			problems = append(problems, fmt.Sprintf("%s: %v %q", cfg.ID, field.ErrUnknownKind, cfg.Type))
		}
	}
	if len(problems) > 0 {
		return nil, &FieldListError{Problems: problems}
	}
	return configs, nil
}

func newFieldID(seen map[string]bool) string {
	for {
		id := "field_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
		if !seen[id] {
			return id
		}
	}
}

// Delete removes a form. Listeners of form.deleted remove its submissions.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.invalidate(id)
	s.events.Fire(ctx, hooks.FormDeleted, id)
	s.log.Info("form deleted", zap.Int64("form_id", id))
	return nil
}
