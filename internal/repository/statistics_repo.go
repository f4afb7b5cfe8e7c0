package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"groupmanager/internal/model"
)

// RoleCount is the number of active users holding one role.
type RoleCount struct {
	TypeUserID uint
	Total      int64
}

// StatusCount is the number of groups in one status.
type StatusCount struct {
	Status string
	Total  int64
}

type StatisticsRepository interface {
	UsersByRole(ctx context.Context) ([]RoleCount, error)
	GroupsByStatus(ctx context.Context) ([]StatusCount, error)
	CountGroupsCreated(ctx context.Context, start, end time.Time) (int64, error)
	CountMembersCreated(ctx context.Context, start, end time.Time) (int64, error)
	CountActiveMembers(ctx context.Context, at time.Time) (int64, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) UsersByRole(ctx context.Context) ([]RoleCount, error) {
	var rows []RoleCount
	if err := GetDB(ctx, r.db).Model(&model.User{}).
		Select("type_user_id, COUNT(*) AS total").
		Group("type_user_id").
		Order("type_user_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count users by role: %w", err)
	}
	return rows, nil
}

func (r *statisticsRepository) GroupsByStatus(ctx context.Context) ([]StatusCount, error) {
	var rows []StatusCount
	if err := GetDB(ctx, r.db).Model(&model.Group{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Order("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count groups by status: %w", err)
	}
	return rows, nil
}

func (r *statisticsRepository) CountGroupsCreated(ctx context.Context, start, end time.Time) (int64, error) {
	var total int64
	if err := GetDB(ctx, r.db).Model(&model.Group{}).
		Where("created_at >= ? AND created_at <= ?", start, end).
		Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count groups: %w", err)
	}
	return total, nil
}

func (r *statisticsRepository) CountMembersCreated(ctx context.Context, start, end time.Time) (int64, error) {
	var total int64
	if err := GetDB(ctx, r.db).Model(&model.Member{}).
		Where("created_at >= ? AND created_at <= ?", start, end).
		Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return total, nil
}

// CountActiveMembers counts members without a departure date or leaving
// after at. Soft-deleted members are excluded by gorm.
func (r *statisticsRepository) CountActiveMembers(ctx context.Context, at time.Time) (int64, error) {
	var total int64
	if err := GetDB(ctx, r.db).Model(&model.Member{}).
		Where("departure_date IS NULL OR departure_date > ?", at).
		Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count active members: %w", err)
	}
	return total, nil
}
