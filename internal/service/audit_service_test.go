package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupmanager/internal/model"
	"groupmanager/internal/policy"
)

func TestGetAuditLogsAdminOnly(t *testing.T) {
	f := newFixture(t)
	admin, ap := f.user(t, "Administrador", "admin@example.com", model.RoleAdmin)
	target, _ := f.user(t, "Maria Souza", "maria@example.com", model.RoleMember)
	_, mp := f.user(t, "Gerente Um", "manager@example.com", model.RoleManager)

	require.NoError(t, f.users.DeleteUser(bg, ap, target.ID.String()))
	require.NoError(t, writeAudit(bg, f.auditRepo, policy.Principal{}, model.ActionCreateUser, "cli", "Seed", nil))

	logs, total, err := f.audit.GetAuditLogs(bg, ap, AuditListQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, logs, 2)

	byAction := map[string]AuditLogResponse{}
	for _, l := range logs {
		byAction[l.Action] = l
	}
	assert.Equal(t, admin.Name, byAction[model.ActionDeleteUser].UserName)
	assert.Equal(t, target.ID.String(), byAction[model.ActionDeleteUser].EntityID)
	assert.Equal(t, "Sistema", byAction[model.ActionCreateUser].UserName)
	assert.Empty(t, byAction[model.ActionCreateUser].UserID)

	filtered, total, err := f.audit.GetAuditLogs(bg, ap, AuditListQuery{Action: model.ActionDeleteUser, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, filtered, 1)

	_, _, err = f.audit.GetAuditLogs(bg, mp, AuditListQuery{Page: 1, Limit: 10})
	assert.True(t, policy.IsUnauthorized(err))
}
