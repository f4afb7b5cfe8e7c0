package repository

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"groupmanager/internal/apperror"
)

// notFound maps gorm's missing-row error to the entity's NotFoundError and
// passes everything else through.
func notFound(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(entity)
	}
	return err
}

// parseID treats a malformed identifier as a missing row so postgres never
// sees an invalid uuid literal.
func parseID(id, entity string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, apperror.NotFound(entity)
	}
	return parsed, nil
}

func duplicate(err error, format string, args ...interface{}) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.Conflict(format, args...)
	}
	return err
}
