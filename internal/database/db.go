package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"groupmanager/internal/model"
)

// NewConnection opens the postgres pool used by the API.
func NewConnection(dsn string, log zerolog.Logger) (*gorm.DB, error) {
	return Open(postgres.Open(dsn), log)
}

// Open builds a *gorm.DB on any dialector with the settings every caller
// relies on: translated driver errors and zerolog query logging.
func Open(dialector gorm.Dialector, log zerolog.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         NewGormLogger(log),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// Models lists every table owned by the service, parents first.
func Models() []interface{} {
	return []interface{}{
		&model.TypeUser{},
		&model.User{},
		&model.TypeGroup{},
		&model.Representative{},
		&model.Group{},
		&model.Member{},
		&model.MemberHasGroup{},
		&model.AuditLog{},
	}
}

// Migrate creates or updates the schema.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}
