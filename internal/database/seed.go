package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"groupmanager/internal/model"
)

// SeedTypeUsers makes sure the type_users table carries one row per role.
// Running it twice is harmless.
func SeedTypeUsers(ctx context.Context, db *gorm.DB) error {
	rows := make([]model.TypeUser, 0, len(model.Roles))
	for _, r := range model.Roles {
		rows = append(rows, model.TypeUser{ID: uint(r), Name: r.DisplayName()})
	}

	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name"}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("seed type users: %w", err)
	}
	return nil
}
