package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/iliyamo/bookstore-api/internal/model"
	"github.com/iliyamo/bookstore-api/internal/utils"
)

type ActivityRepo struct{ DB *gorm.DB }

func NewActivityRepo(db *gorm.DB) *ActivityRepo { return &ActivityRepo{DB: db} }

// Create appends one activity row.
func (r *ActivityRepo) Create(ctx context.Context, a *model.ActivityLog) error {
	return translate(r.DB.WithContext(ctx).Create(a).Error)
}

// ActivityFilter narrows List. Zero values do not filter.
type ActivityFilter struct {
	UserID string
	Action string
}

// List returns one page of activity rows, newest first.
func (r *ActivityRepo) List(ctx context.Context, f ActivityFilter, p utils.Page) ([]model.ActivityLog, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.ActivityLog{})
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	var logs []model.ActivityLog
	err := q.Order("created_at DESC").Order("id ASC").Offset(p.Offset()).Limit(p.Size).Find(&logs).Error
	return logs, total, translate(err)
}
