package submission

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, s *Submission) error
	GetByID(ctx context.Context, id int64) (*Submission, error)
	Delete(ctx context.Context, id int64) error
	ListByForm(ctx context.Context, formID int64, offset, limit int) ([]*Submission, error)
	CountByForm(ctx context.Context, formID int64) (int64, error)
	DeleteByForm(ctx context.Context, formID int64) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, s *Submission) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Submission, error) {
	var s Submission
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSubmissionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Submission{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSubmissionNotFound
	}
	return nil
}

// ListByForm returns published submissions oldest first.
func (r *repository) ListByForm(ctx context.Context, formID int64, offset, limit int) ([]*Submission, error) {
	var out []*Submission
	err := r.db.WithContext(ctx).
		Where("form_id = ? AND status = ?", formID, StatusPublish).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (r *repository) CountByForm(ctx context.Context, formID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Submission{}).
		Where("form_id = ? AND status = ?", formID, StatusPublish).
		Count(&n).Error
	return n, err
}

func (r *repository) DeleteByForm(ctx context.Context, formID int64) error {
	return r.db.WithContext(ctx).Where("form_id = ?", formID).Delete(&Submission{}).Error
}
