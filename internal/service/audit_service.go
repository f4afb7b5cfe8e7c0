package service

import (
	"context"
	"fmt"

	"groupmanager/internal/policy"
	"groupmanager/internal/repository"
)

type AuditLogResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	UserName   string `json:"user_name"`
	Action     string `json:"action"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name"`
	Details    string `json:"details"`
	CreatedAt  string `json:"created_at"`
}

type AuditListQuery struct {
	Action   string
	EntityID string
	UserID   string
	Page     int
	Limit    int
}

type AuditService interface {
	GetAuditLogs(ctx context.Context, p policy.Principal, q AuditListQuery) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	repo  repository.AuditRepository
	authz Authorizer
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository, authz Authorizer) AuditService {
	return &auditService{repo: repo, authz: authz}
}

// GetAuditLogs returns the newest entries first, with actors pre-loaded.
func (s *auditService) GetAuditLogs(ctx context.Context, p policy.Principal, q AuditListQuery) ([]AuditLogResponse, int64, error) {
	if err := authorize(ctx, s.authz, p, policy.ActionView, policy.AuditLogs()); err != nil {
		return nil, 0, err
	}

	logs, total, err := s.repo.List(ctx, repository.AuditFilter{
		Action:   q.Action,
		EntityID: q.EntityID,
		UserID:   q.UserID,
	}, q.Page, q.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		userName := "Sistema"
		userID := ""
		if l.User != nil {
			userName = l.User.Name
		}
		if l.UserID != nil {
			userID = l.UserID.String()
		}

		res = append(res, AuditLogResponse{
			ID:         l.ID.String(),
			UserID:     userID,
			UserName:   userName,
			Action:     l.Action,
			EntityID:   l.EntityID,
			EntityName: l.EntityName,
			Details:    l.Details,
			CreatedAt:  l.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return res, total, nil
}
