package service

import (
	"context"
	"fmt"

	"groupmanager/internal/apperror"
	"groupmanager/internal/model"
	"groupmanager/internal/repository"
)

// RoleResponse is one entry of the type_users lookup table.
type RoleResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}

// RoleService exposes the fixed role table to clients building user forms.
type RoleService interface {
	ListRoles(ctx context.Context) ([]RoleResponse, error)
	GetRole(ctx context.Context, id uint) (*RoleResponse, error)
}

type roleService struct {
	repo repository.TypeUserRepository
}

func NewRoleService(repo repository.TypeUserRepository) RoleService {
	return &roleService{repo: repo}
}

func mapRole(tu *model.TypeUser) *RoleResponse {
	return &RoleResponse{ID: tu.ID, Name: tu.Name, Code: tu.Role().String()}
}

func (s *roleService) ListRoles(ctx context.Context) ([]RoleResponse, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	res := make([]RoleResponse, 0, len(rows))
	for i := range rows {
		res = append(res, *mapRole(&rows[i]))
	}
	return res, nil
}

func (s *roleService) GetRole(ctx context.Context, id uint) (*RoleResponse, error) {
	if !model.Role(id).Valid() {
		return nil, apperror.NotFound(apperror.EntityRole)
	}
	tu, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapRole(tu), nil
}
