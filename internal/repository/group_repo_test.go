package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupmanager/internal/apperror"
	"groupmanager/internal/model"
	"groupmanager/internal/testutil"
)

func TestGroupOwnership(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGroupRepository(db)
	ctx := context.Background()

	manager := testutil.CreateUser(t, db, "Gerente Um", "manager@example.com", model.RoleManager)
	rep := testutil.CreateUser(t, db, "Representante", "rep@example.com", model.RoleRepresentative)

	withRep := testutil.CreateGroup(t, db, manager, rep)
	withoutRep := testutil.CreateGroup(t, db, manager, nil)

	owner, err := repo.GroupOwnership(ctx, withRep.ID.String())
	require.NoError(t, err)
	assert.Equal(t, manager.ID.String(), owner.CreatorUserID)
	assert.Equal(t, rep.ID.String(), owner.RepresentativeUserID)

	owner, err = repo.GroupOwnership(ctx, withoutRep.ID.String())
	require.NoError(t, err)
	assert.Equal(t, manager.ID.String(), owner.CreatorUserID)
	assert.Empty(t, owner.RepresentativeUserID)

	_, err = repo.GroupOwnership(ctx, "9f1c1b5e-4a4e-4f55-9d59-2f4f7f3d8c11")
	var nf *apperror.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "Grupo não encontrado", err.Error())
}

func TestGroupGetAndList(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewGroupRepository(db)
	ctx := context.Background()

	m1 := testutil.CreateUser(t, db, "Gerente Um", "m1@example.com", model.RoleManager)
	m2 := testutil.CreateUser(t, db, "Gerente Dois", "m2@example.com", model.RoleManager)
	g := testutil.CreateGroup(t, db, m1, nil)
	testutil.CreateGroup(t, db, m2, nil)

	got, err := repo.GetByID(ctx, g.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Gerente Um", got.Creator.Name)
	assert.Equal(t, "Comissão", got.TypeGroup.Name)
	assert.Nil(t, got.Representative)

	groups, total, err := repo.List(ctx, GroupFilter{CreatorUserID: m1.ID.String()}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, groups, 1)
	assert.Equal(t, g.ID, groups[0].ID)

	_, total, err = repo.List(ctx, GroupFilter{Status: model.GroupStatusFinished}, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestGroupDeleteRemovesMemberLinksAndOrphans(t *testing.T) {
	db := testutil.NewDB(t)
	groups := NewGroupRepository(db)
	members := NewMemberRepository(db)
	ctx := context.Background()

	m := testutil.CreateUser(t, db, "Gerente Um", "m1@example.com", model.RoleManager)
	g := testutil.CreateGroup(t, db, m, nil)

	other := testutil.CreateGroup(t, db, m, nil)

	member := &model.Member{Name: "Joana", Email: "joana@example.com", Role: "Titular"}
	require.NoError(t, members.Create(ctx, member))
	require.NoError(t, members.Attach(ctx, member.ID, g.ID))

	shared := &model.Member{Name: "Paulo", Email: "paulo@example.com", Role: "Suplente"}
	require.NoError(t, members.Create(ctx, shared))
	require.NoError(t, members.Attach(ctx, shared.ID, g.ID))
	require.NoError(t, members.Attach(ctx, shared.ID, other.ID))

	require.NoError(t, groups.Delete(ctx, g.ID.String()))

	var links int64
	require.NoError(t, db.Model(&model.MemberHasGroup{}).Where("group_id = ?", g.ID).Count(&links).Error)
	assert.Zero(t, links)
	require.NoError(t, db.Model(&model.MemberHasGroup{}).Where("group_id = ?", other.ID).Count(&links).Error)
	assert.EqualValues(t, 1, links)

	// only the member without another group is soft-deleted
	var live []model.Member
	require.NoError(t, db.Find(&live).Error)
	require.Len(t, live, 1)
	assert.Equal(t, shared.ID, live[0].ID)

	var gone model.Member
	require.NoError(t, db.Unscoped().Take(&gone, "id = ?", member.ID).Error)
	assert.True(t, gone.DeletedAt.Valid)

	err := groups.Delete(ctx, g.ID.String())
	var nf *apperror.NotFoundError
	assert.True(t, errors.As(err, &nf))
}
