package service

import (
	"context"
	"fmt"
	"time"

	"groupmanager/internal/apperror"
	"groupmanager/internal/model"
	"groupmanager/internal/policy"
	"groupmanager/internal/repository"
)

// RoleTotal is the number of active users holding a role.
type RoleTotal struct {
	TypeUserID uint   `json:"type_user_id"`
	Name       string `json:"name"`
	Total      int64  `json:"total"`
}

// StatisticsResponse is the dashboard summary. Totals are current; the New*
// counters cover [StartDate, EndDate].
type StatisticsResponse struct {
	StartDate      string           `json:"start_date"`
	EndDate        string           `json:"end_date"`
	UsersByRole    []RoleTotal      `json:"users_by_role"`
	GroupsByStatus map[string]int64 `json:"groups_by_status"`
	TotalGroups    int64            `json:"total_groups"`
	ActiveMembers  int64            `json:"active_members"`
	NewGroups      int64            `json:"new_groups"`
	NewMembers     int64            `json:"new_members"`
}

// StatisticsQuery carries the raw YYYY-MM-DD bounds; both are optional.
type StatisticsQuery struct {
	StartDate string
	EndDate   string
}

type StatisticsService interface {
	GetStatistics(ctx context.Context, p policy.Principal, q StatisticsQuery) (*StatisticsResponse, error)
}

type statisticsService struct {
	repo  repository.StatisticsRepository
	authz Authorizer
	now   func() time.Time
}

func NewStatisticsService(repo repository.StatisticsRepository, authz Authorizer) StatisticsService {
	return &statisticsService{repo: repo, authz: authz, now: time.Now}
}

// statisticsWindow defaults to the current month up to now. The end date is
// inclusive of its whole day.
func (s *statisticsService) statisticsWindow(q StatisticsQuery) (time.Time, time.Time, error) {
	now := s.now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := now

	verr := apperror.NewValidationError()
	if q.StartDate != "" {
		t, err := time.ParseInLocation(dateLayout, q.StartDate, now.Location())
		if err != nil {
			verr.Add("start_date", "O campo start_date deve ser uma data no formato AAAA-MM-DD.")
		} else {
			start = t
		}
	}
	if q.EndDate != "" {
		t, err := time.ParseInLocation(dateLayout, q.EndDate, now.Location())
		if err != nil {
			verr.Add("end_date", "O campo end_date deve ser uma data no formato AAAA-MM-DD.")
		} else {
			end = t.Add(24*time.Hour - time.Nanosecond)
		}
	}
	if verr.Empty() && end.Before(start) {
		verr.Add("end_date", "O campo end_date deve ser uma data posterior ou igual a start_date.")
	}
	if !verr.Empty() {
		return time.Time{}, time.Time{}, verr
	}
	return start, end, nil
}

func (s *statisticsService) GetStatistics(ctx context.Context, p policy.Principal, q StatisticsQuery) (*StatisticsResponse, error) {
	start, end, err := s.statisticsWindow(q)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, s.authz, p, policy.ActionView, policy.Statistics()); err != nil {
		return nil, err
	}

	res := &StatisticsResponse{
		StartDate:      start.Format(dateLayout),
		EndDate:        end.Format(dateLayout),
		UsersByRole:    []RoleTotal{},
		GroupsByStatus: map[string]int64{model.GroupStatusInProgress: 0, model.GroupStatusFinished: 0},
	}

	roles, err := s.repo.UsersByRole(ctx)
	if err != nil {
		return nil, fmt.Errorf("statistics: %w", err)
	}
	for _, r := range roles {
		res.UsersByRole = append(res.UsersByRole, RoleTotal{
			TypeUserID: r.TypeUserID,
			Name:       model.Role(r.TypeUserID).DisplayName(),
			Total:      r.Total,
		})
	}

	statuses, err := s.repo.GroupsByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("statistics: %w", err)
	}
	for _, st := range statuses {
		res.GroupsByStatus[st.Status] = st.Total
		res.TotalGroups += st.Total
	}

	if res.ActiveMembers, err = s.repo.CountActiveMembers(ctx, s.now()); err != nil {
		return nil, fmt.Errorf("statistics: %w", err)
	}
	if res.NewGroups, err = s.repo.CountGroupsCreated(ctx, start, end); err != nil {
		return nil, fmt.Errorf("statistics: %w", err)
	}
	if res.NewMembers, err = s.repo.CountMembersCreated(ctx, start, end); err != nil {
		return nil, fmt.Errorf("statistics: %w", err)
	}
	return res, nil
}
