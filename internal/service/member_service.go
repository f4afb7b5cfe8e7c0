package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"groupmanager/internal/apperror"
	"groupmanager/internal/mail"
	"groupmanager/internal/model"
	"groupmanager/internal/policy"
	"groupmanager/internal/repository"
)

const dateLayout = "2006-01-02"

type MemberRequest struct {
	Name          string `json:"name" binding:"required,min=3,max=255"`
	Email         string `json:"email" binding:"required,email,max=255"`
	Role          string `json:"role" binding:"required,max=100"`
	Phone         string `json:"phone" binding:"omitempty,max=30"`
	EntryDate     string `json:"entry_date" binding:"omitempty,datetime=2006-01-02"`
	DepartureDate string `json:"departure_date" binding:"omitempty,datetime=2006-01-02"`
}

// CreateMembersRequest adds several members to a group at once. The batch is
// all-or-nothing.
type CreateMembersRequest struct {
	Members []MemberRequest `json:"members" binding:"required,min=1,dive"`
}

// UpdateMemberRequest only touches role, phone and the two dates. An empty
// date string clears the date.
type UpdateMemberRequest struct {
	Role          *string `json:"role" binding:"omitempty,max=100"`
	Phone         *string `json:"phone" binding:"omitempty,max=30"`
	EntryDate     *string `json:"entry_date" binding:"omitempty,datetime=2006-01-02"`
	DepartureDate *string `json:"departure_date" binding:"omitempty,datetime=2006-01-02"`
}

type MemberResponse struct {
	ID            string  `json:"id"`
	UserID        *string `json:"user_id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Role          string  `json:"role"`
	Phone         string  `json:"phone"`
	EntryDate     *string `json:"entry_date"`
	DepartureDate *string `json:"departure_date"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

type MemberService interface {
	ListMembers(ctx context.Context, p policy.Principal, groupID string, page, limit int) ([]MemberResponse, int64, error)
	CreateMembers(ctx context.Context, p policy.Principal, groupID string, req CreateMembersRequest) ([]MemberResponse, error)
	UpdateMember(ctx context.Context, p policy.Principal, groupID, memberID string, req UpdateMemberRequest) (*MemberResponse, error)
	DeleteMember(ctx context.Context, p policy.Principal, groupID, memberID string) error
}

type memberService struct {
	members   repository.MemberRepository
	groups    repository.GroupRepository
	users     repository.UserRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
	authz     Authorizer
	invites   *Invites
	events    EventPublisher
}

func NewMemberService(
	members repository.MemberRepository,
	groups repository.GroupRepository,
	users repository.UserRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	authz Authorizer,
	invites *Invites,
	events EventPublisher,
) MemberService {
	if events == nil {
		events = NopPublisher{}
	}
	return &memberService{
		members:   members,
		groups:    groups,
		users:     users,
		auditRepo: auditRepo,
		txManager: txManager,
		authz:     authz,
		invites:   invites,
		events:    events,
	}
}

func mapMember(m *model.Member) *MemberResponse {
	res := &MemberResponse{
		ID:            m.ID.String(),
		Name:          m.Name,
		Email:         m.Email,
		Role:          m.Role,
		Phone:         m.Phone,
		EntryDate:     formatDate(m.EntryDate),
		DepartureDate: formatDate(m.DepartureDate),
		CreatedAt:     formatTime(m.CreatedAt),
		UpdatedAt:     formatTime(m.UpdatedAt),
	}
	if m.UserID != nil {
		uid := m.UserID.String()
		res.UserID = &uid
	}
	return res
}

func (s *memberService) ListMembers(ctx context.Context, p policy.Principal, groupID string, page, limit int) ([]MemberResponse, int64, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, 0, err
	}
	if err := authorize(ctx, s.authz, p, policy.ActionView, policy.MembersOf(group.ID.String())); err != nil {
		return nil, 0, err
	}

	members, total, err := s.members.ListByGroup(ctx, group.ID.String(), page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list members: %w", err)
	}
	res := make([]MemberResponse, 0, len(members))
	for i := range members {
		res = append(res, *mapMember(&members[i]))
	}
	return res, total, nil
}

func (s *memberService) CreateMembers(ctx context.Context, p policy.Principal, groupID string, req CreateMembersRequest) ([]MemberResponse, error) {
	entries, err := parseMemberBatch(req)
	if err != nil {
		return nil, err
	}
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.authz, p, policy.ActionCreate, policy.MembersOf(group.ID.String())); err != nil {
		return nil, err
	}

	var invites []mail.Registration
	created := make([]*model.Member, 0, len(entries))
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for _, m := range entries {
			user, err := s.users.GetByEmail(txCtx, m.Email)
			var nf *apperror.NotFoundError
			switch {
			case err == nil:
				m.UserID = &user.ID
			case errors.As(err, &nf):
				invites = append(invites, mail.Registration{
					Name:    m.Name,
					Email:   m.Email,
					Context: groupContext("membro", group.Acronym),
				})
			default:
				return fmt.Errorf("lookup member user: %w", err)
			}

			if err := s.members.Create(txCtx, m); err != nil {
				return fmt.Errorf("create member: %w", err)
			}
			if err := s.members.Attach(txCtx, m.ID, group.ID); err != nil {
				return err
			}
			created = append(created, m)
		}

		emails := make([]string, 0, len(created))
		for _, m := range created {
			emails = append(emails, m.Email)
		}
		return writeAudit(txCtx, s.auditRepo, p, model.ActionCreateMembers, group.ID.String(), group.Entity,
			map[string]interface{}{"members": emails})
	})
	if err != nil {
		return nil, err
	}

	s.invites.send(ctx, invites)
	res := make([]MemberResponse, 0, len(created))
	for _, m := range created {
		res = append(res, *mapMember(m))
	}
	s.events.Publish(EventMembersCreated, map[string]interface{}{"group_id": group.ID.String(), "members": res})
	return res, nil
}

func (s *memberService) UpdateMember(ctx context.Context, p policy.Principal, groupID, memberID string, req UpdateMemberRequest) (*MemberResponse, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	member, err := s.members.GetInGroup(ctx, group.ID.String(), memberID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.authz, p, policy.ActionUpdate, policy.MembersOf(group.ID.String())); err != nil {
		return nil, err
	}

	fields, err := memberUpdateFields(member, req)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.members.Update(txCtx, member.ID.String(), fields); err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, p, model.ActionUpdateMember, member.ID.String(), member.Name, req)
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.members.GetInGroup(ctx, group.ID.String(), member.ID.String())
	if err != nil {
		return nil, err
	}
	res := mapMember(updated)
	s.events.Publish(EventMemberUpdated, map[string]interface{}{"group_id": group.ID.String(), "member": res})
	return res, nil
}

func (s *memberService) DeleteMember(ctx context.Context, p policy.Principal, groupID, memberID string) error {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	member, err := s.members.GetInGroup(ctx, group.ID.String(), memberID)
	if err != nil {
		return err
	}
	if err := authorize(ctx, s.authz, p, policy.ActionDelete, policy.MembersOf(group.ID.String())); err != nil {
		return err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.members.DeleteFromGroup(txCtx, group.ID.String(), member.ID.String()); err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, p, model.ActionDeleteMember, member.ID.String(), member.Name,
			map[string]string{"group_id": group.ID.String()})
	})
	if err != nil {
		return err
	}
	s.events.Publish(EventMemberDeleted, map[string]string{"group_id": group.ID.String(), "id": member.ID.String()})
	return nil
}

// parseMemberBatch turns the request into models, rejecting repeated e-mails
// and inverted date ranges before anything is written.
func parseMemberBatch(req CreateMembersRequest) ([]*model.Member, error) {
	verr := apperror.NewValidationError()
	seen := make(map[string]int, len(req.Members))
	out := make([]*model.Member, 0, len(req.Members))

	for i, r := range req.Members {
		prefix := "members." + strconv.Itoa(i) + "."
		email := strings.ToLower(strings.TrimSpace(r.Email))
		if _, dup := seen[email]; dup {
			verr.Add(prefix+"email", "E-mail repetido na lista de membros.")
		}
		seen[email] = i

		m := &model.Member{
			ID:    uuid.New(),
			Name:  strings.TrimSpace(r.Name),
			Email: email,
			Role:  r.Role,
			Phone: r.Phone,
		}
		entry, errEntry := parseDate(r.EntryDate)
		departure, errDeparture := parseDate(r.DepartureDate)
		if errEntry != nil {
			verr.Add(prefix+"entry_date", "O campo entry_date deve ser uma data no formato AAAA-MM-DD.")
		}
		if errDeparture != nil {
			verr.Add(prefix+"departure_date", "O campo departure_date deve ser uma data no formato AAAA-MM-DD.")
		}
		if entry != nil && departure != nil && departure.Before(*entry) {
			verr.Add(prefix+"departure_date", "A data de saída deve ser igual ou posterior à data de entrada.")
		}
		m.EntryDate, m.DepartureDate = entry, departure
		out = append(out, m)
	}

	if !verr.Empty() {
		return nil, verr
	}
	return out, nil
}

func memberUpdateFields(current *model.Member, req UpdateMemberRequest) (map[string]interface{}, error) {
	fields := make(map[string]interface{})
	verr := apperror.NewValidationError()

	if req.Role != nil {
		if strings.TrimSpace(*req.Role) == "" {
			verr.Add("role", "O campo role é obrigatório.")
		} else {
			fields["role"] = *req.Role
		}
	}
	if req.Phone != nil {
		fields["phone"] = *req.Phone
	}

	entry, departure := current.EntryDate, current.DepartureDate
	if req.EntryDate != nil {
		d, err := parseDate(*req.EntryDate)
		if err != nil {
			verr.Add("entry_date", "O campo entry_date deve ser uma data no formato AAAA-MM-DD.")
		}
		entry = d
		fields["entry_date"] = d
	}
	if req.DepartureDate != nil {
		d, err := parseDate(*req.DepartureDate)
		if err != nil {
			verr.Add("departure_date", "O campo departure_date deve ser uma data no formato AAAA-MM-DD.")
		}
		departure = d
		fields["departure_date"] = d
	}
	if entry != nil && departure != nil && departure.Before(*entry) {
		verr.Add("departure_date", "A data de saída deve ser igual ou posterior à data de entrada.")
	}

	if !verr.Empty() {
		return nil, verr
	}
	return fields, nil
}

func parseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
