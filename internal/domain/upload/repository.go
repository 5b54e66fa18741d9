package upload

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"properforms/internal/database"
)

type Repository interface {
	// CreateDraft consumes nonceID and stores f in one transaction.
	CreateDraft(ctx context.Context, nonceID string, f *File) error
	GetByID(ctx context.Context, id int64) (*File, error)
	GetMeta(ctx context.Context, id int64) (*File, error)
	Promote(ctx context.Context, id, submissionID int64, fieldID string) (bool, error)
	DeleteBySubmission(ctx context.Context, submissionID int64) (int64, error)
	DeleteByForm(ctx context.Context, formID int64) (int64, error)
	DeleteDraftsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteNoncesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateDraft(ctx context.Context, nonceID string, f *File) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&UsedNonce{ID: nonceID, FieldID: f.FieldID, UsedAt: time.Now()}).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return ErrNonceReplayed
			}
			return err
		}
		return tx.Create(f).Error
	})
}

func (r *repository) GetByID(ctx context.Context, id int64) (*File, error) {
	var f File
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// GetMeta loads a file without its ciphertext.
func (r *repository) GetMeta(ctx context.Context, id int64) (*File, error) {
	var f File
	err := r.db.WithContext(ctx).
		Omit("ciphertext", "nonce").
		Where("id = ?", id).
		First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Promote publishes a draft of fieldID. It reports false when no draft matched.
func (r *repository) Promote(ctx context.Context, id, submissionID int64, fieldID string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&File{}).
		Where("id = ? AND status = ? AND field_id = ?", id, StatusDraft, fieldID).
		Updates(map[string]any{
			"status":        StatusPublish,
			"submission_id": submissionID,
			"title":         gorm.Expr("filename"),
			"updated_at":    time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) DeleteBySubmission(ctx context.Context, submissionID int64) (int64, error) {
	res := r.db.WithContext(ctx).Where("submission_id = ?", submissionID).Delete(&File{})
	return res.RowsAffected, res.Error
}

func (r *repository) DeleteByForm(ctx context.Context, formID int64) (int64, error) {
	res := r.db.WithContext(ctx).Where("form_id = ?", formID).Delete(&File{})
	return res.RowsAffected, res.Error
}

func (r *repository) DeleteDraftsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", StatusDraft, cutoff).
		Delete(&File{})
	return res.RowsAffected, res.Error
}

func (r *repository) DeleteNoncesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("used_at < ?", cutoff).Delete(&UsedNonce{})
	return res.RowsAffected, res.Error
}
