package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupmanager/internal/apperror"
	"groupmanager/internal/model"
	"groupmanager/internal/policy"
	"groupmanager/internal/repository"
	"groupmanager/internal/testutil"
)

func TestGetStatistics(t *testing.T) {
	f := newFixture(t)
	svc := NewStatisticsService(repository.NewStatisticsRepository(f.db), f.authz)

	_, ap := f.user(t, "Administrador", "admin@example.com", model.RoleAdmin)
	manager, mp := f.user(t, "Gerente Um", "manager@example.com", model.RoleManager)
	_, vp := f.user(t, "Visualizador", "viewer@example.com", model.RoleViewer)
	f.user(t, "Outro Visualizador", "viewer2@example.com", model.RoleViewer)

	testutil.CreateGroup(t, f.db, manager, nil)
	done := testutil.CreateGroup(t, f.db, manager, nil)
	require.NoError(t, f.db.Model(done).Update("status", model.GroupStatusFinished).Error)

	past := time.Now().AddDate(0, -1, 0)
	require.NoError(t, f.db.Create(&model.Member{Name: "Ativo", Email: "ativo@example.com", Role: "Titular"}).Error)
	require.NoError(t, f.db.Create(&model.Member{Name: "Saiu", Email: "saiu@example.com", Role: "Titular", DepartureDate: &past}).Error)
	gone := &model.Member{Name: "Removido", Email: "removido@example.com", Role: "Suplente"}
	require.NoError(t, f.db.Create(gone).Error)
	require.NoError(t, f.db.Delete(gone).Error)

	today := time.Now()
	window := StatisticsQuery{
		StartDate: today.AddDate(0, 0, -1).Format("2006-01-02"),
		EndDate:   today.AddDate(0, 0, 1).Format("2006-01-02"),
	}

	stats, err := svc.GetStatistics(bg, ap, window)
	require.NoError(t, err)
	assert.Equal(t, window.StartDate, stats.StartDate)
	assert.Equal(t, window.EndDate, stats.EndDate)
	assert.Equal(t, []RoleTotal{
		{TypeUserID: uint(model.RoleAdmin), Name: "Administrador", Total: 1},
		{TypeUserID: uint(model.RoleManager), Name: "Gerente", Total: 1},
		{TypeUserID: uint(model.RoleViewer), Name: "Visualizador", Total: 2},
	}, stats.UsersByRole)
	assert.Equal(t, map[string]int64{model.GroupStatusInProgress: 1, model.GroupStatusFinished: 1}, stats.GroupsByStatus)
	assert.EqualValues(t, 2, stats.TotalGroups)
	assert.EqualValues(t, 1, stats.ActiveMembers)
	assert.EqualValues(t, 2, stats.NewGroups)
	assert.EqualValues(t, 2, stats.NewMembers)

	old, err := svc.GetStatistics(bg, mp, StatisticsQuery{StartDate: "2020-01-01", EndDate: "2020-12-31"})
	require.NoError(t, err)
	assert.Zero(t, old.NewGroups)
	assert.Zero(t, old.NewMembers)
	assert.EqualValues(t, 2, old.TotalGroups)

	_, err = svc.GetStatistics(bg, vp, window)
	assert.True(t, policy.IsUnauthorized(err))
}

func TestGetStatisticsWindowValidation(t *testing.T) {
	f := newFixture(t)
	svc := NewStatisticsService(repository.NewStatisticsRepository(f.db), f.authz)
	_, vp := f.user(t, "Visualizador", "viewer@example.com", model.RoleViewer)

	// validation runs before the policy check
	_, err := svc.GetStatistics(bg, vp, StatisticsQuery{StartDate: "18/10/2026"})
	var verr *apperror.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("start_date"))

	_, err = svc.GetStatistics(bg, vp, StatisticsQuery{StartDate: "2026-02-01", EndDate: "2026-01-01"})
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.Has("end_date"))
}

func TestStatisticsWindowDefaultsToCurrentMonth(t *testing.T) {
	s := &statisticsService{now: func() time.Time { return time.Date(2026, 10, 18, 15, 30, 0, 0, time.UTC) }}

	start, end, err := s.statisticsWindow(StatisticsQuery{})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 10, 18, 15, 30, 0, 0, time.UTC), end)

	_, end, err = s.statisticsWindow(StatisticsQuery{StartDate: "2026-10-01", EndDate: "2026-10-05"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 5, 23, 59, 59, 999999999, time.UTC), end)
}

func TestActiveMembersDropAfterGroupDelete(t *testing.T) {
	f := newFixture(t)
	svc := NewStatisticsService(repository.NewStatisticsRepository(f.db), f.authz)
	manager, mp := f.user(t, "Gerente Um", "manager@example.com", model.RoleManager)

	g := testutil.CreateGroup(t, f.db, manager, nil)
	members := repository.NewMemberRepository(f.db)
	member := &model.Member{Name: "Joana", Email: "joana@example.com", Role: "Titular"}
	require.NoError(t, members.Create(bg, member))
	require.NoError(t, members.Attach(bg, member.ID, g.ID))

	stats, err := svc.GetStatistics(bg, mp, StatisticsQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.ActiveMembers)

	require.NoError(t, f.groups.DeleteGroup(bg, mp, g.ID.String()))

	stats, err = svc.GetStatistics(bg, mp, StatisticsQuery{})
	require.NoError(t, err)
	assert.Zero(t, stats.ActiveMembers)
	assert.Zero(t, stats.TotalGroups)
}
