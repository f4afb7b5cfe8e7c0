package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"groupmanager/internal/apperror"
	"groupmanager/internal/mail"
	"groupmanager/internal/model"
	"groupmanager/internal/policy"
	"groupmanager/internal/repository"
)

type RepresentativeRequest struct {
	Name  string `json:"name" binding:"omitempty,max=255"`
	Email string `json:"email" binding:"required,email,max=255"`
}

// GroupRequest is the body of POST and PUT /api/group. Name and TypeGroup
// describe the group's type row.
type GroupRequest struct {
	Entity            string                 `json:"entity" binding:"required,max=255"`
	Organ             string                 `json:"organ" binding:"omitempty,max=255"`
	Council           string                 `json:"council" binding:"omitempty,max=255"`
	Acronym           string                 `json:"acronym" binding:"omitempty,max=50"`
	Team              string                 `json:"team" binding:"omitempty,max=255"`
	Unit              string                 `json:"unit" binding:"omitempty,max=255"`
	Email             string                 `json:"email" binding:"omitempty,email,max=255"`
	OfficeRequested   string                 `json:"office_requested" binding:"omitempty,max=255"`
	OfficeIndicated   string                 `json:"office_indicated" binding:"omitempty,max=255"`
	InternalConcierge string                 `json:"internal_concierge" binding:"omitempty,max=255"`
	Observations      string                 `json:"observations"`
	Status            string                 `json:"status" binding:"omitempty,oneof='EM ANDAMENTO' FINALIZADO"`
	Name              string                 `json:"name" binding:"required,max=255"`
	TypeGroup         string                 `json:"type_group" binding:"required,oneof=INTERNO EXTERNO"`
	Representative    *RepresentativeRequest `json:"representative"`
}

type UserSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	TypeUserID uint   `json:"type_user_id"`
}

type TypeGroupResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	TypeGroup string `json:"type_group"`
}

type RepresentativeResponse struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	UserID *string `json:"user_id"`
}

type GroupResponse struct {
	ID                string                  `json:"id"`
	Entity            string                  `json:"entity"`
	Organ             string                  `json:"organ"`
	Council           string                  `json:"council"`
	Acronym           string                  `json:"acronym"`
	Team              string                  `json:"team"`
	Unit              string                  `json:"unit"`
	Email             string                  `json:"email"`
	OfficeRequested   string                  `json:"office_requested"`
	OfficeIndicated   string                  `json:"office_indicated"`
	InternalConcierge string                  `json:"internal_concierge"`
	Observations      string                  `json:"observations"`
	Status            string                  `json:"status"`
	CreatedBy         *UserSummary            `json:"created_by"`
	TypeGroup         *TypeGroupResponse      `json:"type_group"`
	Representative    *RepresentativeResponse `json:"representative"`
	CreatedAt         string                  `json:"created_at"`
	UpdatedAt         string                  `json:"updated_at"`
}

type GroupListQuery struct {
	CreatorUserID string
	Status        string
	Page          int
	Limit         int
}

type GroupService interface {
	ListGroups(ctx context.Context, p policy.Principal, q GroupListQuery) ([]GroupResponse, int64, error)
	GetGroup(ctx context.Context, p policy.Principal, id string) (*GroupResponse, error)
	CreateGroup(ctx context.Context, p policy.Principal, req GroupRequest) (*GroupResponse, error)
	UpdateGroup(ctx context.Context, p policy.Principal, id string, req GroupRequest) (*GroupResponse, error)
	DeleteGroup(ctx context.Context, p policy.Principal, id string) error
}

type groupService struct {
	groups    repository.GroupRepository
	users     repository.UserRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	authz     Authorizer
	invites   *Invites
	events    EventPublisher
}

func NewGroupService(
	groups repository.GroupRepository,
	users repository.UserRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	authz Authorizer,
	invites *Invites,
	events EventPublisher,
) GroupService {
	if events == nil {
		events = NopPublisher{}
	}
	return &groupService{
		groups:    groups,
		users:     users,
		auditRepo: auditRepo,
		txManager: txManager,
		authz:     authz,
		invites:   invites,
		events:    events,
	}
}

func mapGroup(g *model.Group) *GroupResponse {
	res := &GroupResponse{
		ID:                g.ID.String(),
		Entity:            g.Entity,
		Organ:             g.Organ,
		Council:           g.Council,
		Acronym:           g.Acronym,
		Team:              g.Team,
		Unit:              g.Unit,
		Email:             g.Email,
		OfficeRequested:   g.OfficeRequested,
		OfficeIndicated:   g.OfficeIndicated,
		InternalConcierge: g.InternalConcierge,
		Observations:      g.Observations,
		Status:            g.Status,
		CreatedAt:         formatTime(g.CreatedAt),
		UpdatedAt:         formatTime(g.UpdatedAt),
	}
	if g.Creator.ID != uuid.Nil {
		res.CreatedBy = &UserSummary{
			ID:         g.Creator.ID.String(),
			Name:       g.Creator.Name,
			Email:      g.Creator.Email,
			TypeUserID: g.Creator.TypeUserID,
		}
	}
	if g.TypeGroup.ID != uuid.Nil {
		res.TypeGroup = &TypeGroupResponse{
			ID:        g.TypeGroup.ID.String(),
			Name:      g.TypeGroup.Name,
			TypeGroup: g.TypeGroup.TypeGroup,
		}
	}
	if g.Representative != nil {
		rep := &RepresentativeResponse{
			ID:    g.Representative.ID.String(),
			Name:  g.Representative.Name,
			Email: g.Representative.Email,
		}
		if g.Representative.UserID != nil {
			uid := g.Representative.UserID.String()
			rep.UserID = &uid
		}
		res.Representative = rep
	}
	return res
}

func (s *groupService) ListGroups(ctx context.Context, p policy.Principal, q GroupListQuery) ([]GroupResponse, int64, error) {
	if err := authorize(ctx, s.authz, p, policy.ActionView, policy.Groups("")); err != nil {
		return nil, 0, err
	}
	groups, total, err := s.groups.List(ctx, repository.GroupFilter{
		CreatorUserID: q.CreatorUserID,
		Status:        q.Status,
	}, q.Page, q.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list groups: %w", err)
	}

	res := make([]GroupResponse, 0, len(groups))
	for i := range groups {
		res = append(res, *mapGroup(&groups[i]))
	}
	return res, total, nil
}

func (s *groupService) GetGroup(ctx context.Context, p policy.Principal, id string) (*GroupResponse, error) {
	group, err := s.groups.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.authz, p, policy.ActionView, policy.Groups(group.ID.String())); err != nil {
		return nil, err
	}
	return mapGroup(group), nil
}

func (s *groupService) CreateGroup(ctx context.Context, p policy.Principal, req GroupRequest) (*GroupResponse, error) {
	if err := authorize(ctx, s.authz, p, policy.ActionCreate, policy.Groups("")); err != nil {
		return nil, err
	}
	creatorID, err := uuid.Parse(p.ID)
	if err != nil {
		return nil, apperror.Unauthenticated(MsgInvalidToken)
	}

	group := &model.Group{CreatorUserID: creatorID}
	applyGroupFields(group, req)
	if group.Status == "" {
		group.Status = model.GroupStatusInProgress
	}

	var invites []mail.Registration
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		tg := &model.TypeGroup{Name: req.Name, TypeGroup: req.TypeGroup}
		if err := s.groups.CreateTypeGroup(txCtx, tg); err != nil {
			return fmt.Errorf("create type group: %w", err)
		}
		group.TypeGroupID = tg.ID

		if req.Representative != nil {
			rep, invite, err := s.newRepresentative(txCtx, req.Representative, group.Acronym)
			if err != nil {
				return err
			}
			group.RepresentativeID = &rep.ID
			if invite != nil {
				invites = append(invites, *invite)
			}
		}

		if err := s.groups.Create(txCtx, group); err != nil {
			return fmt.Errorf("create group: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, p, model.ActionCreateGroup, group.ID.String(), group.Entity, req)
	})
	if err != nil {
		return nil, err
	}

	s.invites.send(ctx, invites)
	res, err := s.reload(ctx, group.ID.String())
	if err != nil {
		return nil, err
	}
	s.events.Publish(EventGroupCreated, res)
	return res, nil
}

func (s *groupService) UpdateGroup(ctx context.Context, p policy.Principal, id string, req GroupRequest) (*GroupResponse, error) {
	group, err := s.groups.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.authz, p, policy.ActionUpdate, policy.Groups(group.ID.String())); err != nil {
		return nil, err
	}

	applyGroupFields(group, req)

	var invites []mail.Registration
	var oldRepID *uuid.UUID
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		tg := group.TypeGroup
		tg.Name, tg.TypeGroup = req.Name, req.TypeGroup
		if err := s.groups.UpdateTypeGroup(txCtx, &tg); err != nil {
			return fmt.Errorf("update type group: %w", err)
		}

		if representativeChanged(group.Representative, req.Representative) {
			oldRepID = group.RepresentativeID
			group.RepresentativeID = nil
			if req.Representative != nil {
				rep, invite, err := s.newRepresentative(txCtx, req.Representative, group.Acronym)
				if err != nil {
					return err
				}
				group.RepresentativeID = &rep.ID
				if invite != nil {
					invites = append(invites, *invite)
				}
			}
		}

		if err := s.groups.Update(txCtx, group); err != nil {
			return fmt.Errorf("update group: %w", err)
		}
		if oldRepID != nil {
			if err := s.groups.DeleteRepresentative(txCtx, oldRepID.String()); err != nil {
				return fmt.Errorf("delete representative: %w", err)
			}
		}
		return writeAudit(txCtx, s.auditRepo, p, model.ActionUpdateGroup, group.ID.String(), group.Entity, req)
	})
	if err != nil {
		return nil, err
	}

	s.invites.send(ctx, invites)
	res, err := s.reload(ctx, group.ID.String())
	if err != nil {
		return nil, err
	}
	s.events.Publish(EventGroupUpdated, res)
	return res, nil
}

func (s *groupService) DeleteGroup(ctx context.Context, p policy.Principal, id string) error {
	group, err := s.groups.GetByID(ctx, id)
	if err != nil {
		return err
	}
	gid := group.ID.String()
	if err := authorize(ctx, s.authz, p, policy.ActionDelete, policy.Groups(gid)); err != nil {
		return err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.groups.Delete(txCtx, gid); err != nil {
			return err
		}
		if group.RepresentativeID != nil {
			if err := s.groups.DeleteRepresentative(txCtx, group.RepresentativeID.String()); err != nil {
				return fmt.Errorf("delete representative: %w", err)
			}
		}
		if err := s.groups.DeleteTypeGroup(txCtx, group.TypeGroupID.String()); err != nil {
			return fmt.Errorf("delete type group: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, p, model.ActionDeleteGroup, gid, group.Entity, nil)
	})
	if err != nil {
		return err
	}
	s.events.Publish(EventGroupDeleted, map[string]string{"id": gid})
	return nil
}

// newRepresentative stores the representative, linking it to the registered
// user that owns the e-mail. Unknown e-mails get an invite.
func (s *groupService) newRepresentative(ctx context.Context, req *RepresentativeRequest, acronym string) (*model.Representative, *mail.Registration, error) {
	email := strings.TrimSpace(req.Email)
	rep := &model.Representative{Name: req.Name, Email: email}

	var invite *mail.Registration
	user, err := s.users.GetByEmail(ctx, email)
	var nf *apperror.NotFoundError
	switch {
	case err == nil:
		rep.UserID = &user.ID
		if rep.Name == "" {
			rep.Name = user.Name
		}
	case errors.As(err, &nf):
		invite = &mail.Registration{Name: rep.Name, Email: email, Context: groupContext("representante", acronym)}
	default:
		return nil, nil, fmt.Errorf("lookup representative: %w", err)
	}

	if err := s.groups.CreateRepresentative(ctx, rep); err != nil {
		return nil, nil, fmt.Errorf("create representative: %w", err)
	}
	return rep, invite, nil
}

func (s *groupService) reload(ctx context.Context, id string) (*GroupResponse, error) {
	group, err := s.groups.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapGroup(group), nil
}

func applyGroupFields(g *model.Group, req GroupRequest) {
	g.Entity = req.Entity
	g.Organ = req.Organ
	g.Council = req.Council
	g.Acronym = req.Acronym
	g.Team = req.Team
	g.Unit = req.Unit
	g.Email = req.Email
	g.OfficeRequested = req.OfficeRequested
	g.OfficeIndicated = req.OfficeIndicated
	g.InternalConcierge = req.InternalConcierge
	g.Observations = req.Observations
	if req.Status != "" {
		g.Status = req.Status
	}
}

func representativeChanged(current *model.Representative, req *RepresentativeRequest) bool {
	switch {
	case current == nil && req == nil:
		return false
	case current == nil || req == nil:
		return true
	default:
		return !strings.EqualFold(current.Email, strings.TrimSpace(req.Email)) || (req.Name != "" && req.Name != current.Name)
	}
}

func groupContext(role, acronym string) string {
	if acronym == "" {
		return "como " + role + " de um grupo"
	}
	return "como " + role + " do grupo " + acronym
}
