package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"groupmanager/internal/apperror"
	"groupmanager/internal/mail"
	"groupmanager/internal/model"
	"groupmanager/internal/policy"
	"groupmanager/internal/repository"
	"groupmanager/internal/testutil"
)

// failingAttach breaks the nth Attach call.
type failingAttach struct {
	repository.MemberRepository
	failOn int
	calls  int
}

func (f *failingAttach) Attach(ctx context.Context, memberID, groupID uuid.UUID) error {
	f.calls++
	if f.calls == f.failOn {
		return errors.New("disk full")
	}
	return f.MemberRepository.Attach(ctx, memberID, groupID)
}

func memberCount(t *testing.T, f *fixture) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&model.Member{}).Count(&n).Error)
	return n
}

func TestCreateMembersRejectsDuplicateEmails(t *testing.T) {
	f := newFixture(t)
	creator, mp := f.user(t, "Gerente Um", "manager@example.com", model.RoleManager)
	group := testutil.CreateGroup(t, f.db, creator, nil)

	_, err := f.members.CreateMembers(bg, mp, group.ID.String(), CreateMembersRequest{Members: []MemberRequest{
		{Name: "Joana", Email: "joana@example.com", Role: "Titular"},
		{Name: "Joana Silva", Email: "JOANA@example.com ", Role: "Suplente"},
	}})

	var ve *apperror.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Errors, "members.1.email")
	assert.Zero(t, memberCount(t, f))
}

func TestCreateMembersDateRange(t *testing.T) {
	f := newFixture(t)
	creator, mp := f.user(t, "Gerente Um", "manager@example.com", model.RoleManager)
	group := testutil.CreateGroup(t, f.db, creator, nil)

	_, err := f.members.CreateMembers(bg, mp, group.ID.String(), CreateMembersRequest{Members: []MemberRequest{
		{Name: "Joana", Email: "joana@example.com", Role: "Titular", EntryDate: "2024-05-10", DepartureDate: "2024-01-01"},
	}})

	var ve *apperror.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"A data de saída deve ser igual ou posterior à data de entrada."}, ve.Errors["members.0.departure_date"])
}

func TestCreateMembersOneBadEntryStoresNothing(t *testing.T) {
	f := newFixture(t)
	creator, mp := f.user(t, "Gerente Um", "manager@example.com", model.RoleManager)
	group := testutil.CreateGroup(t, f.db, creator, nil)

	_, err := f.members.CreateMembers(bg, mp, group.ID.String(), CreateMembersRequest{Members: []MemberRequest{
		{Name: "Joana", Email: "joana@example.com", Role: "Titular"},
		{Name: "Marcos", Email: "marcos@example.com", Role: "Suplente"},
		{Name: "Paula", Email: "paula@example.com", Role: "Titular"},
		{Name: "Ricardo", Email: "ricardo@example.com", Role: "Suplente", EntryDate: "31/12/2024"},
	}})

	var ve *apperror.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Len(t, ve.Errors, 1)
	assert.Contains(t, ve.Errors, "members.3.entry_date")
	assert.Zero(t, memberCount(t, f))
	assert.Zero(t, f.auditCount(t, model.ActionCreateMembers))
	assert.Empty(t, f.events.names())
}

func TestCreateMembersValidationBeforeLookup(t *testing.T) {
	f := newFixture(t)
	_, mp := f.user(t, "Gerente Um", "manager@example.com", model.RoleManager)

	_, err := f.members.CreateMembers(bg, mp, missingID, CreateMembersRequest{Members: []MemberRequest{
		{Name: "Joana", Email: "joana@example.com", Role: "Titular", EntryDate: "10/05/2024"},
	}})

	var ve *apperror.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestRepresentativeCreatesMembers(t *testing.T) {
	f := newFixture(t)
	creator, _ := f.user(t, "Gerente Um", "manager@example.com", model.RoleManager)
	repUser, rp := f.user(t, "Rita Representante", "rita@example.com", model.RoleRepresentative)
	registered, _ := f.user(t, "Marcos Membro", "marcos@example.com", model.RoleMember)
	group := testutil.CreateGroup(t, f.db, creator, repUser)

	f.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ interface{}, msg mail.Message) error {
		assert.Equal(t, "joana@example.com", msg.To)
		assert.Contains(t, msg.Body, "como membro do grupo ENT")
		return nil
	}).Times(1)

	res, err := f.members.CreateMembers(bg, rp, group.ID.String(), CreateMembersRequest{Members: []MemberRequest{
		{Name: "Joana", Email: "joana@example.com", Role: "Titular", EntryDate: "2024-01-01"},
		{Name: "Marcos", Email: "marcos@example.com", Role: "Suplente"},
	}})
	require.NoError(t, err)
	require.Len(t, res, 2)

	assert.Nil(t, res[0].UserID)
	require.NotNil(t, res[0].EntryDate)
	assert.Equal(t, "2024-01-01", *res[0].EntryDate)
	require.NotNil(t, res[1].UserID)
	assert.Equal(t, registered.ID.String(), *res[1].UserID)

	list, total, err := f.members.ListMembers(bg, rp, group.ID.String(), 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, "Joana", list[0].Name)

	assert.EqualValues(t, 1, f.auditCount(t, model.ActionCreateMembers))
	assert.Equal(t, []string{EventMembersCreated}, f.events.names())
}

func TestCreateMembersRollsBackWholeBatch(t *testing.T) {
	f := newFixture(t)
	creator, mp := f.user(t, "Gerente Um", "manager@example.com", model.RoleManager)
	group := testutil.CreateGroup(t, f.db, creator, nil)

	broken := &failingAttach{MemberRepository: f.memberRepo, failOn: 2}
	svc := NewMemberService(broken, f.groupRepo, f.userRepo, f.auditRepo, f.tx, f.authz, f.invites, f.events)

	// no invite goes out for a batch that never committed
	f.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).Times(0)

	_, err := svc.CreateMembers(bg, mp, group.ID.String(), CreateMembersRequest{Members: []MemberRequest{
		{Name: "Joana", Email: "joana@example.com", Role: "Titular"},
		{Name: "Pedro", Email: "pedro@example.com", Role: "Suplente"},
		{Name: "Lucas", Email: "lucas@example.com", Role: "Suplente"},
	}})
	require.Error(t, err)

	assert.Zero(t, memberCount(t, f))
	var links int64
	require.NoError(t, f.db.Model(&model.MemberHasGroup{}).Count(&links).Error)
	assert.Zero(t, links)
	assert.Zero(t, f.auditCount(t, model.ActionCreateMembers))
	assert.Empty(t, f.events.names())
}

func TestMembersManagedOnlyByOwners(t *testing.T) {
	f := newFixture(t)
	creator, _ := f.user(t, "Gerente Um", "m1@example.com", model.RoleManager)
	_, other := f.user(t, "Gerente Dois", "m2@example.com", model.RoleManager)
	_, admin := f.user(t, "Administrador", "admin@example.com", model.RoleAdmin)
	group := testutil.CreateGroup(t, f.db, creator, nil)

	req := CreateMembersRequest{Members: []MemberRequest{{Name: "Joana", Email: "joana@example.com", Role: "Titular"}}}
	for _, p := range []policy.Principal{other, admin} {
		_, err := f.members.CreateMembers(bg, p, group.ID.String(), req)
		assert.True(t, policy.IsUnauthorized(err))
	}
	assert.Zero(t, memberCount(t, f))

	// viewing is open to every known role
	_, _, err := f.members.ListMembers(bg, admin, group.ID.String(), 1, 10)
	assert.NoError(t, err)
}

func TestUpdateAndDeleteMember(t *testing.T) {
	f := newFixture(t)
	creator, mp := f.user(t, "Gerente Um", "manager@example.com", model.RoleManager)
	_, other := f.user(t, "Gerente Dois", "m2@example.com", model.RoleManager)
	group := testutil.CreateGroup(t, f.db, creator, nil)

	f.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil)
	created, err := f.members.CreateMembers(bg, mp, group.ID.String(), CreateMembersRequest{Members: []MemberRequest{
		{Name: "Joana", Email: "joana@example.com", Role: "Titular", EntryDate: "2024-01-01"},
	}})
	require.NoError(t, err)
	memberID := created[0].ID

	role := "Suplente"
	bad := "2023-01-01"
	_, err = f.members.UpdateMember(bg, mp, group.ID.String(), memberID, UpdateMemberRequest{DepartureDate: &bad})
	var ve *apperror.ValidationError
	assert.True(t, errors.As(err, &ve))

	_, err = f.members.UpdateMember(bg, other, group.ID.String(), memberID, UpdateMemberRequest{Role: &role})
	assert.True(t, policy.IsUnauthorized(err))

	departure := "2024-12-31"
	updated, err := f.members.UpdateMember(bg, mp, group.ID.String(), memberID, UpdateMemberRequest{Role: &role, DepartureDate: &departure})
	require.NoError(t, err)
	assert.Equal(t, "Suplente", updated.Role)
	require.NotNil(t, updated.DepartureDate)
	assert.Equal(t, "2024-12-31", *updated.DepartureDate)

	_, err = f.members.UpdateMember(bg, mp, group.ID.String(), missingID, UpdateMemberRequest{Role: &role})
	var nf *apperror.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "Membro não encontrado", err.Error())

	assert.True(t, policy.IsUnauthorized(f.members.DeleteMember(bg, other, group.ID.String(), memberID)))
	require.NoError(t, f.members.DeleteMember(bg, mp, group.ID.String(), memberID))
	assert.Zero(t, memberCount(t, f))

	err = f.members.DeleteMember(bg, mp, group.ID.String(), memberID)
	assert.True(t, errors.As(err, &nf))

	assert.EqualValues(t, 1, f.auditCount(t, model.ActionUpdateMember))
	assert.EqualValues(t, 1, f.auditCount(t, model.ActionDeleteMember))
}
