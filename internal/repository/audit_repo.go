package repository

import (
	"context"

	"gorm.io/gorm"

	"groupmanager/internal/model"
	"groupmanager/pkg/pagination"
)

// AuditFilter narrows List. Zero values are ignored.
type AuditFilter struct {
	Action   string
	EntityID string
	UserID   string
}

type AuditRepository interface {
	Log(ctx context.Context, entry *model.AuditLog) error
	List(ctx context.Context, filter AuditFilter, page, limit int) ([]model.AuditLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Log(ctx context.Context, entry *model.AuditLog) error {
	return GetDB(ctx, r.db).Omit("User").Create(entry).Error
}

func (r *auditRepository) List(ctx context.Context, filter AuditFilter, page, limit int) ([]model.AuditLog, int64, error) {
	var logs []model.AuditLog
	var total int64

	q := GetDB(ctx, r.db).Model(&model.AuditLog{})
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if filter.EntityID != "" {
		q = q.Where("entity_id = ?", filter.EntityID)
	}
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}

	q = q.Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// soft-deleted actors still show up in the trail
	err := q.Preload("User", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Order("created_at desc").Scopes(pagination.Paginate(page, limit)).Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
