package policy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupmanager/internal/apperror"
	"groupmanager/internal/model"
)

type stubGroupLookup struct {
	groups map[string]GroupOwnership
	calls  int
}

func (s *stubGroupLookup) GroupOwnership(_ context.Context, groupID string) (GroupOwnership, error) {
	s.calls++
	g, ok := s.groups[groupID]
	if !ok {
		return GroupOwnership{}, apperror.NotFound(apperror.EntityGroup)
	}
	return g, nil
}

var allRoles = append([]model.Role{model.RoleUnknown, model.Role(42)}, model.Roles...)

func newEvaluator() (*Evaluator, *stubGroupLookup) {
	lookup := &stubGroupLookup{groups: map[string]GroupOwnership{
		"g1": {CreatorUserID: "manager-1", RepresentativeUserID: "rep-1"},
		"g2": {CreatorUserID: "manager-2"},
	}}
	return NewEvaluator(lookup), lookup
}

func TestViewUsersOnlyAdminManagerRepresentative(t *testing.T) {
	ev, _ := newEvaluator()
	allowed := map[model.Role]bool{
		model.RoleAdmin:          true,
		model.RoleManager:        true,
		model.RoleRepresentative: true,
	}

	for _, role := range allRoles {
		err := ev.Authorize(context.Background(), Principal{ID: "u", Role: role}, ActionView, Users(""))
		if allowed[role] {
			assert.NoError(t, err, "role %s", role)
		} else {
			require.Error(t, err, "role %s", role)
			assert.True(t, IsUnauthorized(err))
		}
	}
}

func TestUpdateUserIsSelfServiceOnly(t *testing.T) {
	ev, _ := newEvaluator()
	ids := []string{"a", "b", "c"}

	for _, role := range model.Roles {
		for _, pid := range ids {
			for _, uid := range ids {
				err := ev.Authorize(context.Background(), Principal{ID: pid, Role: role}, ActionUpdate, Users(uid))
				if pid == uid {
					assert.NoError(t, err, "role %s self update", role)
				} else {
					assert.True(t, IsUnauthorized(err), "role %s updating %s as %s", role, uid, pid)
				}
			}
		}
	}
}

func TestUpdateUserRoleGateRunsFirst(t *testing.T) {
	ev, _ := newEvaluator()
	err := ev.Authorize(context.Background(), Principal{ID: "a", Role: model.RoleUnknown}, ActionUpdate, Users("a"))
	require.Error(t, err)

	var ue *UnauthorizedError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "unrecognised role", ue.Internal())
}

func TestUpdateUserEmptyPrincipalID(t *testing.T) {
	ev, _ := newEvaluator()
	err := ev.Authorize(context.Background(), Principal{Role: model.RoleAdmin}, ActionUpdate, Users(""))
	assert.True(t, IsUnauthorized(err))
}

func TestDeleteAndRestoreUsersAdminOnly(t *testing.T) {
	ev, _ := newEvaluator()
	for _, action := range []Action{ActionDelete, ActionRestore, ActionCreate} {
		for _, role := range allRoles {
			err := ev.Authorize(context.Background(), Principal{ID: "x", Role: role}, action, Users("y"))
			if role == model.RoleAdmin {
				assert.NoError(t, err, "%s by %s", action, role)
			} else {
				assert.True(t, IsUnauthorized(err), "%s by %s", action, role)
			}
		}
	}
}

func TestCreateGroupManagerOnly(t *testing.T) {
	ev, lookup := newEvaluator()
	for _, role := range allRoles {
		err := ev.Authorize(context.Background(), Principal{ID: "x", Role: role}, ActionCreate, Groups(""))
		if role == model.RoleManager {
			assert.NoError(t, err)
		} else {
			assert.True(t, IsUnauthorized(err), "role %s", role)
		}
	}
	assert.Zero(t, lookup.calls)
}

func TestUpdateDeleteGroupRequiresCreatorManager(t *testing.T) {
	ev, _ := newEvaluator()
	ctx := context.Background()

	for _, action := range []Action{ActionUpdate, ActionDelete} {
		assert.NoError(t, ev.Authorize(ctx, Principal{ID: "manager-1", Role: model.RoleManager}, action, Groups("g1")))
		assert.NoError(t, ev.Authorize(ctx, Principal{ID: "manager-2", Role: model.RoleManager}, action, Groups("g2")))

		// two managers cannot touch each other's groups
		assert.True(t, IsUnauthorized(ev.Authorize(ctx, Principal{ID: "manager-2", Role: model.RoleManager}, action, Groups("g1"))))
		assert.True(t, IsUnauthorized(ev.Authorize(ctx, Principal{ID: "manager-1", Role: model.RoleManager}, action, Groups("g2"))))

		// right identity, wrong role
		assert.True(t, IsUnauthorized(ev.Authorize(ctx, Principal{ID: "manager-1", Role: model.RoleAdmin}, action, Groups("g1"))))
	}
}

func TestGroupRoleGateBeforeLookup(t *testing.T) {
	ev, lookup := newEvaluator()
	err := ev.Authorize(context.Background(), Principal{ID: "rep-1", Role: model.RoleRepresentative}, ActionUpdate, Groups("g1"))
	assert.True(t, IsUnauthorized(err))
	assert.Zero(t, lookup.calls)
}

func TestMissingGroupSurfacesNotFound(t *testing.T) {
	ev, _ := newEvaluator()
	err := ev.Authorize(context.Background(), Principal{ID: "manager-1", Role: model.RoleManager}, ActionDelete, Groups("missing"))

	var nf *apperror.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.False(t, IsUnauthorized(err))
}

func TestMembersManagedByCreatorOrRepresentative(t *testing.T) {
	ev, _ := newEvaluator()
	ctx := context.Background()

	for _, action := range []Action{ActionCreate, ActionUpdate, ActionDelete} {
		assert.NoError(t, ev.Authorize(ctx, Principal{ID: "manager-1", Role: model.RoleManager}, action, MembersOf("g1")))
		assert.NoError(t, ev.Authorize(ctx, Principal{ID: "rep-1", Role: model.RoleRepresentative}, action, MembersOf("g1")))

		assert.True(t, IsUnauthorized(ev.Authorize(ctx, Principal{ID: "rep-1", Role: model.RoleRepresentative}, action, MembersOf("g2"))))
		assert.True(t, IsUnauthorized(ev.Authorize(ctx, Principal{ID: "rep-1", Role: model.RoleManager}, action, MembersOf("g1"))))
		assert.True(t, IsUnauthorized(ev.Authorize(ctx, Principal{ID: "manager-1", Role: model.RoleRepresentative}, action, MembersOf("g1"))))
		assert.True(t, IsUnauthorized(ev.Authorize(ctx, Principal{ID: "x", Role: model.RoleAdmin}, action, MembersOf("g1"))))
	}
}

func TestViewGroupsAndMembersAnyKnownRole(t *testing.T) {
	ev, _ := newEvaluator()
	for _, role := range allRoles {
		for _, res := range []Resource{Groups(""), Groups("g1"), MembersOf("g1")} {
			err := ev.Authorize(context.Background(), Principal{ID: "x", Role: role}, ActionView, res)
			if role.Valid() {
				assert.NoError(t, err)
			} else {
				assert.True(t, IsUnauthorized(err))
			}
		}
	}
}

func TestDefaultDeny(t *testing.T) {
	ev, _ := newEvaluator()
	admin := Principal{ID: "a", Role: model.RoleAdmin}
	ctx := context.Background()

	assert.True(t, IsUnauthorized(ev.Authorize(ctx, admin, ActionRestore, Groups("g1"))))
	assert.True(t, IsUnauthorized(ev.Authorize(ctx, admin, ActionRestore, MembersOf("g1"))))
	assert.True(t, IsUnauthorized(ev.Authorize(ctx, admin, ActionDelete, AuditLogs())))
	assert.True(t, IsUnauthorized(ev.Authorize(ctx, admin, ActionView, Resource{Type: "reports"})))
	assert.True(t, IsUnauthorized(ev.Authorize(ctx, admin, Action("approve"), Users("a"))))
	assert.NoError(t, ev.Authorize(ctx, admin, ActionView, AuditLogs()))
}

func TestDenyMessageIsOpaque(t *testing.T) {
	ev, _ := newEvaluator()
	err := ev.Authorize(context.Background(), Principal{ID: "v", Role: model.RoleViewer}, ActionView, Users(""))
	require.Error(t, err)
	assert.Equal(t, "This action is unauthorized.", err.Error())

	var ue *UnauthorizedError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, ActionView, ue.Action())
	assert.Equal(t, ResourceUsers, ue.Resource().Type)
	assert.NotEqual(t, err.Error(), ue.Internal())
}

func TestRoleOf(t *testing.T) {
	assert.Equal(t, model.RoleManager, RoleOf(Principal{Role: model.RoleManager}))
	assert.Equal(t, model.RoleUnknown, RoleOf(Principal{Role: model.Role(9)}))
}

func TestViewStatisticsAdminAndManager(t *testing.T) {
	ev, _ := newEvaluator()
	allowed := map[model.Role]bool{model.RoleAdmin: true, model.RoleManager: true}
	for _, role := range allRoles {
		err := ev.Authorize(context.Background(), Principal{ID: "u", Role: role}, ActionView, Statistics())
		if allowed[role] {
			assert.NoError(t, err, role.String())
		} else {
			assert.True(t, IsUnauthorized(err), role.String())
		}
	}
	assert.True(t, IsUnauthorized(ev.Authorize(context.Background(), Principal{ID: "u", Role: model.RoleAdmin}, ActionCreate, Statistics())))
}
