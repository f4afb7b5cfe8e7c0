package repository

import (
	"context"

	"gorm.io/gorm"

	"groupmanager/internal/apperror"
	"groupmanager/internal/model"
)

// TypeUserRepository reads the role lookup table.
type TypeUserRepository interface {
	FindByID(ctx context.Context, id uint) (*model.TypeUser, error)
	ListAll(ctx context.Context) ([]model.TypeUser, error)
}

type typeUserRepository struct {
	db *gorm.DB
}

func NewTypeUserRepository(db *gorm.DB) TypeUserRepository {
	return &typeUserRepository{db: db}
}

func (r *typeUserRepository) FindByID(ctx context.Context, id uint) (*model.TypeUser, error) {
	var tu model.TypeUser
	if err := GetDB(ctx, r.db).First(&tu, "id = ?", id).Error; err != nil {
		return nil, notFound(err, apperror.EntityRole)
	}
	return &tu, nil
}

func (r *typeUserRepository) ListAll(ctx context.Context) ([]model.TypeUser, error) {
	var rows []model.TypeUser
	if err := GetDB(ctx, r.db).Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
