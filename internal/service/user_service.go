package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"groupmanager/internal/apperror"
	"groupmanager/internal/mail"
	"groupmanager/internal/model"
	"groupmanager/internal/policy"
	"groupmanager/internal/repository"
	"groupmanager/internal/validation"
)

// UserResponse is a User without sensitive data (e.g. password)
type UserResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	TypeUserID uint   `json:"type_user_id"`
	TypeUser   string `json:"type_user"`
	Role       string `json:"role"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

// UserListQuery carries the list filters accepted on GET /api/users.
type UserListQuery struct {
	Name       string
	Email      string
	TypeUserID uint
	Page       int
	Limit      int
}

// UserService defines the business logic for users. Every method that acts
// on behalf of a caller receives the caller's Principal explicitly.
type UserService interface {
	ListUsers(ctx context.Context, p policy.Principal, q UserListQuery) ([]UserResponse, int64, error)
	GetUser(ctx context.Context, p policy.Principal, id string) (*UserResponse, error)
	CreateUser(ctx context.Context, p policy.Principal, payload map[string]interface{}) (*UserResponse, error)
	UpdateUser(ctx context.Context, p policy.Principal, id string, payload map[string]interface{}) (*UserResponse, error)
	DeleteUser(ctx context.Context, p policy.Principal, id string) error
	RestoreUser(ctx context.Context, p policy.Principal, id string) (*UserResponse, error)

	// CreateAdmin provisions an administrator outside any request, for the
	// create-admin command.
	CreateAdmin(ctx context.Context, name, email, password string) (*UserResponse, error)
}

type userService struct {
	repo      repository.UserRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	validator *validation.UserValidator
	authz     Authorizer
	invites   *Invites
	events    EventPublisher
}

// NewUserService returns a new instance of UserService
func NewUserService(
	repo repository.UserRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	validator *validation.UserValidator,
	authz Authorizer,
	invites *Invites,
	events EventPublisher,
) UserService {
	if events == nil {
		events = NopPublisher{}
	}
	return &userService{
		repo:      repo,
		auditRepo: auditRepo,
		txManager: txManager,
		validator: validator,
		authz:     authz,
		invites:   invites,
		events:    events,
	}
}

func mapUser(u *model.User) *UserResponse {
	return &UserResponse{
		ID:         u.ID.String(),
		Name:       u.Name,
		Email:      u.Email,
		TypeUserID: u.TypeUserID,
		TypeUser:   u.TypeUser.Name,
		Role:       u.Role().String(),
		CreatedAt:  formatTime(u.CreatedAt),
		UpdatedAt:  formatTime(u.UpdatedAt),
	}
}

func (s *userService) ListUsers(ctx context.Context, p policy.Principal, q UserListQuery) ([]UserResponse, int64, error) {
	if err := authorize(ctx, s.authz, p, policy.ActionView, policy.Users("")); err != nil {
		return nil, 0, err
	}

	users, total, err := s.repo.List(ctx, repository.UserFilter{
		Name:       q.Name,
		Email:      q.Email,
		TypeUserID: q.TypeUserID,
	}, q.Page, q.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	res := make([]UserResponse, 0, len(users))
	for i := range users {
		res = append(res, *mapUser(&users[i]))
	}
	return res, total, nil
}

// GetUser only requires an authenticated caller.
func (s *userService) GetUser(ctx context.Context, _ policy.Principal, id string) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapUser(user), nil
}

func (s *userService) CreateUser(ctx context.Context, p policy.Principal, payload map[string]interface{}) (*UserResponse, error) {
	fields, err := s.validator.Validate(ctx, payload, validation.ModeCreate, "")
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.authz, p, policy.ActionCreate, policy.Users("")); err != nil {
		return nil, err
	}

	password, _ := fields[validation.FieldPassword].(string)
	generated := password == ""
	if generated {
		if password, err = temporaryPassword(); err != nil {
			return nil, err
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}

	user := &model.User{
		Name:       fields[validation.FieldName].(string),
		Email:      fields[validation.FieldEmail].(string),
		Password:   string(hash),
		TypeUserID: fields[validation.FieldTypeUserID].(uint),
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, user); err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, p, model.ActionCreateUser, user.ID.String(), user.Name,
			map[string]interface{}{"email": user.Email, "type_user_id": user.TypeUserID})
	})
	if err != nil {
		return nil, err
	}

	if generated {
		s.invites.send(ctx, []mail.Registration{{Name: user.Name, Email: user.Email, Password: password}})
	}
	return s.reload(ctx, user.ID.String())
}

func (s *userService) UpdateUser(ctx context.Context, p policy.Principal, id string, payload map[string]interface{}) (*UserResponse, error) {
	fields, err := s.validator.Validate(ctx, payload, validation.ModeUpdate, id)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.authz, p, policy.ActionUpdate, policy.Users(user.ID.String())); err != nil {
		return nil, err
	}

	if pw, ok := fields[validation.FieldPassword].(string); ok {
		hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
		if err != nil {
			return nil, errors.New("failed to hash password")
		}
		fields[validation.FieldPassword] = string(hash)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, id, fields); err != nil {
			return err
		}
		changed := make([]string, 0, len(fields))
		for k := range fields {
			changed = append(changed, k)
		}
		return writeAudit(txCtx, s.auditRepo, p, model.ActionUpdateUser, id, user.Name,
			map[string]interface{}{"fields": changed})
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, id)
}

func (s *userService) DeleteUser(ctx context.Context, p policy.Principal, id string) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authorize(ctx, s.authz, p, policy.ActionDelete, policy.Users(user.ID.String())); err != nil {
		return err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Delete(txCtx, id); err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, p, model.ActionDeleteUser, id, user.Name, nil)
	})
	if err != nil {
		return err
	}
	s.events.Publish(EventUserDeleted, map[string]string{"id": id})
	return nil
}

func (s *userService) RestoreUser(ctx context.Context, p policy.Principal, id string) (*UserResponse, error) {
	user, err := s.repo.GetTrashedByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.authz, p, policy.ActionRestore, policy.Users(user.ID.String())); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Restore(txCtx, id); err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, p, model.ActionRestoreUser, id, user.Name, nil)
	})
	if err != nil {
		return nil, err
	}
	s.events.Publish(EventUserRestored, map[string]string{"id": id})
	return s.reload(ctx, id)
}

func (s *userService) CreateAdmin(ctx context.Context, name, email, password string) (*UserResponse, error) {
	payload := map[string]interface{}{
		validation.FieldName:       name,
		validation.FieldEmail:      email,
		validation.FieldTypeUserID: uint(model.RoleAdmin),
		validation.FieldPassword:   password,
	}
	if password == "" {
		return nil, &apperror.ValidationError{Errors: map[string][]string{
			validation.FieldPassword: {"O campo senha é obrigatório."},
		}}
	}
	fields, err := s.validator.Validate(ctx, payload, validation.ModeCreate, "")
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}
	user := &model.User{
		Name:       fields[validation.FieldName].(string),
		Email:      fields[validation.FieldEmail].(string),
		Password:   string(hash),
		TypeUserID: uint(model.RoleAdmin),
	}
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, user); err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, policy.Principal{}, model.ActionCreateUser, user.ID.String(), user.Name,
			map[string]interface{}{"email": user.Email, "source": "cli"})
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, user.ID.String())
}

func (s *userService) reload(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapUser(user), nil
}
