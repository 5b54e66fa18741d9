package form

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, f *Form) error
	Update(ctx context.Context, f *Form) error
	GetByID(ctx context.Context, id int64) (*Form, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, offset, limit int) ([]*Form, int64, error)
	// TitleTaken reports whether another published form already uses title.
	TitleTaken(ctx context.Context, title string, excludeID int64) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, f *Form) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *repository) Update(ctx context.Context, f *Form) error {
	res := r.db.WithContext(ctx).Model(&Form{}).
		Where("id = ?", f.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(f)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrFormNotFound
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Form, error) {
	var f Form
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&f).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFormNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Form{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrFormNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, offset, limit int) ([]*Form, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&Form{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var out []*Form
	err := r.db.WithContext(ctx).
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, total, err
}

func (r *repository) TitleTaken(ctx context.Context, title string, excludeID int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Form{}).
		Where("title = ? AND status = ? AND id <> ?", title, StatusPublish, excludeID).
		Count(&n).Error
	return n > 0, err
}
