package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"groupmanager/internal/apperror"
	"groupmanager/internal/model"
	"groupmanager/pkg/pagination"
)

// UserFilter narrows List. Zero values are ignored.
type UserFilter struct {
	Name       string
	Email      string
	TypeUserID uint
}

// UserRepository defines the interface for data access of User entities
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetTrashedByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	EmailTaken(ctx context.Context, email, excludeID string) (bool, error)
	List(ctx context.Context, filter UserFilter, page, limit int) ([]model.User, int64, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	if err := GetDB(ctx, r.db).Omit("TypeUser").Create(user).Error; err != nil {
		return duplicate(err, "Esse e-mail ja esta cadastrado")
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	uid, err := parseID(id, apperror.EntityUser)
	if err != nil {
		return nil, err
	}
	var user model.User
	if err := GetDB(ctx, r.db).Preload("TypeUser").First(&user, "id = ?", uid).Error; err != nil {
		return nil, notFound(err, apperror.EntityUser)
	}
	return &user, nil
}

// GetTrashedByID only finds soft-deleted users.
func (r *userRepository) GetTrashedByID(ctx context.Context, id string) (*model.User, error) {
	uid, err := parseID(id, apperror.EntityUser)
	if err != nil {
		return nil, err
	}
	var user model.User
	err = GetDB(ctx, r.db).Unscoped().Preload("TypeUser").
		Where("deleted_at IS NOT NULL").
		First(&user, "id = ?", uid).Error
	if err != nil {
		return nil, notFound(err, apperror.EntityUser)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := GetDB(ctx, r.db).Preload("TypeUser").First(&user, "email = ?", email).Error; err != nil {
		return nil, notFound(err, apperror.EntityUser)
	}
	return &user, nil
}

// EmailTaken also counts soft-deleted rows since they still hold the unique index.
func (r *userRepository) EmailTaken(ctx context.Context, email, excludeID string) (bool, error) {
	q := GetDB(ctx, r.db).Unscoped().Model(&model.User{}).Where("LOWER(email) = ?", strings.ToLower(email))
	if excludeID != "" {
		if uid, err := parseID(excludeID, apperror.EntityUser); err == nil {
			q = q.Where("id <> ?", uid)
		}
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter, page, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	q := GetDB(ctx, r.db).Model(&model.User{})
	if filter.Name != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.Name)+"%")
	}
	if filter.Email != "" {
		q = q.Where("LOWER(email) LIKE ?", "%"+strings.ToLower(filter.Email)+"%")
	}
	if filter.TypeUserID != 0 {
		q = q.Where("type_user_id = ?", filter.TypeUserID)
	}

	q = q.Session(&gorm.Session{})
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := q.Preload("TypeUser").Order("name asc").Scopes(pagination.Paginate(page, limit)).Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Update writes only the given columns so absent fields keep their values.
func (r *userRepository) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	uid, err := parseID(id, apperror.EntityUser)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}
	res := GetDB(ctx, r.db).Model(&model.User{}).Where("id = ?", uid).Updates(fields)
	if res.Error != nil {
		return duplicate(res.Error, "Esse e-mail ja esta cadastrado")
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound(apperror.EntityUser)
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	uid, err := parseID(id, apperror.EntityUser)
	if err != nil {
		return err
	}
	res := GetDB(ctx, r.db).Where("id = ?", uid).Delete(&model.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound(apperror.EntityUser)
	}
	return nil
}

func (r *userRepository) Restore(ctx context.Context, id string) error {
	uid, err := parseID(id, apperror.EntityUser)
	if err != nil {
		return err
	}
	res := GetDB(ctx, r.db).Unscoped().Model(&model.User{}).
		Where("id = ? AND deleted_at IS NOT NULL", uid).
		Update("deleted_at", nil)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound(apperror.EntityUser)
	}
	return nil
}
