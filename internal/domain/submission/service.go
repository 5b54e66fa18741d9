package submission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/erni27/imcache"
	"go.uber.org/zap"

	"properforms/internal/domain/field"
	"properforms/internal/pkg/hooks"
)

// Service runs the validation pipeline and stores submissions.
type Service struct {
	repo     Repository
	forms    FormReader
	files    FileLinker
	events   *hooks.Dispatcher
	log      *zap.Logger
	cache    *imcache.Cache[int64, Submission]
	cacheTTL time.Duration
	now      func() time.Time
}

func NewService(repo Repository, forms FormReader, files FileLinker, events *hooks.Dispatcher, log *zap.Logger, cacheTTL time.Duration) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &Service{
		repo:     repo,
		forms:    forms,
		files:    files,
		events:   events,
		log:      log,
		cache:    imcache.New[int64, Submission](),
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

// Prepare validates raw input against the form's current fields. Every
// failing field is reported; unknown keys are ignored. On failure the error
// is a field.ValidationErrors.
func (s *Service) Prepare(ctx context.Context, input map[string]any) (*Clean, error) {
	formID, ok := field.ParseID(input["form_id"])
	if !ok {
		return nil, field.ValidationErrors{field.NewValidationError("form_id", field.MissingFormID)}
	}

	fields, err := s.forms.FormFields(ctx, formID)
	if err != nil {
		return nil, err
	}

	clean := &Clean{
		FormID: formID,
		Values: map[string]any{"form_id": formID},
		Fields: fields,
	}
	var errs field.ValidationErrors
	for _, f := range fields {
		cfg := f.Config()
		raw, submitted := input[cfg.ID]
		if !submitted && !cfg.Required {
			continue
		}
		value, err := f.Validate(raw)
		if err != nil {
			var verr *field.ValidationError
			if errors.As(err, &verr) {
				errs = append(errs, verr)
				continue
			}
			return nil, err
		}
		if cfg.Type == field.KindFileUpload {
			id, _ := value.(int64)
			if id == 0 {
				continue
			}
			if s.files != nil {
				if err := s.files.CheckReference(ctx, id, formID, cfg.ID); err != nil {
					s.log.Debug("file reference rejected", zap.Int64("file_id", id), zap.String("field_id", cfg.ID), zap.Error(err))
					errs = append(errs, field.ReferenceError(cfg))
					continue
				}
			}
		}
		clean.Values[cfg.ID] = value
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return clean, nil
}

// Insert stores clean as one record and promotes the files it references.
func (s *Service) Insert(ctx context.Context, clean *Clean) (int64, error) {
	values := make(map[string]any, len(clean.Values))
	labels := make(map[string]string, len(clean.Fields))
	for _, f := range clean.Fields {
		cfg := f.Config()
		if v, ok := clean.Values[cfg.ID]; ok {
			values[cfg.ID] = v
			labels[cfg.ID] = cfg.Label
		}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	labelData, err := json.Marshal(labels)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	sub := &Submission{
		FormID:    clean.FormID,
		Title:     fmt.Sprintf("sub_%d_%d", clean.FormID, s.now().Unix()),
		Status:    StatusPublish,
		Data:      string(data),
		Labels:    string(labelData),
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if sub.ID == 0 {
		return 0, ErrPersistence
	}

	s.attachFiles(ctx, sub.ID, clean)
	s.log.Info("submission stored", zap.Int64("submission_id", sub.ID), zap.Int64("form_id", sub.FormID))
	return sub.ID, nil
}

func (s *Service) attachFiles(ctx context.Context, subID int64, clean *Clean) {
	if s.files == nil {
		return
	}
	for _, f := range clean.Fields {
		cfg := f.Config()
		if cfg.Type != field.KindFileUpload {
			continue
		}
		fileID, ok := field.ParseID(clean.Values[cfg.ID])
		if !ok {
			continue
		}
		promoted, err := s.files.Promote(ctx, fileID, subID, cfg.ID)
		if err != nil || !promoted {
			s.log.Warn("file not promoted",
				zap.Int64("file_id", fileID),
				zap.Int64("submission_id", subID),
				zap.Bool("promoted", promoted),
				zap.Error(err),
			)
		}
	}
}

func (s *Service) Get(ctx context.Context, id int64) (*Submission, error) {
	if cached, ok := s.cache.Get(id); ok {
		return &cached, nil
	}
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(id, *sub, imcache.WithExpiration(s.cacheTTL))
	return sub, nil
}

// Delete removes the submission and the files linked to it.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Remove(id)
	if s.files != nil {
		if err := s.files.DeleteForSubmission(ctx, id); err != nil {
			s.log.Warn("files of deleted submission kept", zap.Int64("submission_id", id), zap.Error(err))
		}
	}
	s.events.Fire(ctx, hooks.SubmissionDeleted, id)
	return nil
}

// ListByForm returns one page (1-based) of a form's submissions and the total count.
func (s *Service) ListByForm(ctx context.Context, formID int64, page, size int) ([]*Submission, int64, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	total, err := s.repo.CountByForm(ctx, formID)
	if err != nil {
		return nil, 0, err
	}
	subs, err := s.repo.ListByForm(ctx, formID, (page-1)*size, size)
	if err != nil {
		return nil, 0, err
	}
	return subs, total, nil
}

// Page returns raw rows for export, starting at offset.
func (s *Service) Page(ctx context.Context, formID int64, offset, limit int) ([]*Submission, error) {
	return s.repo.ListByForm(ctx, formID, offset, limit)
}

// DeleteByForm removes every submission of a deleted form.
func (s *Service) DeleteByForm(ctx context.Context, formID int64) error {
	if err := s.repo.DeleteByForm(ctx, formID); err != nil {
		return err
	}
	s.cache.RemoveAll()
	s.log.Info("submissions deleted with form", zap.Int64("form_id", formID))
	return nil
}
