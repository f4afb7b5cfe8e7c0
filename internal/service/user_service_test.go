package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"groupmanager/internal/apperror"
	"groupmanager/internal/mail"
	"groupmanager/internal/model"
	"groupmanager/internal/policy"
)

func TestCreateUserSendsInviteWithoutPassword(t *testing.T) {
	f := newFixture(t)
	_, admin := f.user(t, "Administrador", "admin@example.com", model.RoleAdmin)

	f.mailer.EXPECT().Send(gomock.Any(), gomock.Any()).DoAndReturn(func(_ interface{}, msg mail.Message) error {
		assert.Equal(t, "anna@example.com", msg.To)
		assert.Contains(t, msg.Body, "Senha provisória")
		return nil
	})

	res, err := f.users.CreateUser(bg, admin, map[string]interface{}{
		"name":         "Anna",
		"email":        "anna@example.com",
		"type_user_id": float64(model.RoleMember),
	})
	require.NoError(t, err)
	assert.Equal(t, "Anna", res.Name)
	assert.Equal(t, "MEMBER", res.Role)
	assert.Equal(t, "Membro", res.TypeUser)
	assert.EqualValues(t, 1, f.auditCount(t, model.ActionCreateUser))
}

func TestCreateUserWithPasswordSkipsInvite(t *testing.T) {
	f := newFixture(t)
	_, admin := f.user(t, "Administrador", "admin@example.com", model.RoleAdmin)

	res, err := f.users.CreateUser(bg, admin, map[string]interface{}{
		"name":         "Bruno",
		"email":        "bruno@example.com",
		"type_user_id": "2",
		"password":     "s3cret!",
	})
	require.NoError(t, err)

	stored, err := f.userRepo.GetByID(bg, res.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("s3cret!")))
}

func TestCreateUserValidationRunsBeforePolicy(t *testing.T) {
	f := newFixture(t)
	_, manager := f.user(t, "Gerente", "manager@example.com", model.RoleManager)

	_, err := f.users.CreateUser(bg, manager, map[string]interface{}{"name": "Ana"})
	var ve *apperror.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"O campo nome deve ter no mínimo 4 caracteres."}, ve.Errors["name"])

	_, err = f.users.CreateUser(bg, manager, map[string]interface{}{
		"name":         "Anna",
		"email":        "anna@example.com",
		"type_user_id": 4,
	})
	assert.True(t, policy.IsUnauthorized(err))
}

func TestListUsersGate(t *testing.T) {
	f := newFixture(t)
	_, admin := f.user(t, "Administrador", "admin@example.com", model.RoleAdmin)
	_, rep := f.user(t, "Representante", "rep@example.com", model.RoleRepresentative)
	_, member := f.user(t, "Membro", "member@example.com", model.RoleMember)

	users, total, err := f.users.ListUsers(bg, admin, UserListQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, users, 3)

	_, _, err = f.users.ListUsers(bg, rep, UserListQuery{Page: 1, Limit: 10, TypeUserID: uint(model.RoleMember)})
	assert.NoError(t, err)

	_, _, err = f.users.ListUsers(bg, member, UserListQuery{Page: 1, Limit: 10})
	assert.True(t, policy.IsUnauthorized(err))
}

func TestUpdateUserSelfOnly(t *testing.T) {
	f := newFixture(t)
	self, p := f.user(t, "Maria Silva", "maria@example.com", model.RoleMember)
	other, _ := f.user(t, "João Souza", "joao@example.com", model.RoleMember)
	_, admin := f.user(t, "Administrador", "admin@example.com", model.RoleAdmin)

	res, err := f.users.UpdateUser(bg, p, self.ID.String(), map[string]interface{}{
		"name":  "Maria Souza",
		"email": "maria@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "Maria Souza", res.Name)
	assert.Equal(t, "maria@example.com", res.Email)

	_, err = f.users.UpdateUser(bg, p, other.ID.String(), map[string]interface{}{"name": "Hacked"})
	assert.True(t, policy.IsUnauthorized(err))

	_, err = f.users.UpdateUser(bg, admin, other.ID.String(), map[string]interface{}{"name": "Admin Edit"})
	assert.True(t, policy.IsUnauthorized(err), "admins get no blanket update")

	got, err := f.userRepo.GetByID(bg, other.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "João Souza", got.Name)
}

func TestUpdateUserOrdering(t *testing.T) {
	f := newFixture(t)
	_, p := f.user(t, "Maria Silva", "maria@example.com", model.RoleMember)

	// invalid payload on a missing user: validation wins
	_, err := f.users.UpdateUser(bg, p, missingID, map[string]interface{}{"type_user_id": 1})
	var ve *apperror.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"Esse campo não pode ser atualizado"}, ve.Errors["type_user_id"])

	// valid payload on a missing user: not found before policy
	_, err = f.users.UpdateUser(bg, p, missingID, map[string]interface{}{"name": "Maria Souza"})
	var nf *apperror.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "Usuário não encontrado", err.Error())
}

func TestUpdateUserTakenEmail(t *testing.T) {
	f := newFixture(t)
	self, p := f.user(t, "Maria Silva", "maria@example.com", model.RoleMember)
	f.user(t, "João Souza", "joao@example.com", model.RoleMember)

	_, err := f.users.UpdateUser(bg, p, self.ID.String(), map[string]interface{}{"email": "joao@example.com"})
	var ve *apperror.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"Esse e-mail ja esta cadastrado"}, ve.Errors["email"])
}

func TestDeleteAndRestoreUser(t *testing.T) {
	f := newFixture(t)
	_, admin := f.user(t, "Administrador", "admin@example.com", model.RoleAdmin)
	_, manager := f.user(t, "Gerente", "manager@example.com", model.RoleManager)
	target, _ := f.user(t, "Maria Silva", "maria@example.com", model.RoleMember)
	id := target.ID.String()

	err := f.users.DeleteUser(bg, manager, id)
	assert.True(t, policy.IsUnauthorized(err))

	require.NoError(t, f.users.DeleteUser(bg, admin, id))
	_, err = f.users.GetUser(bg, admin, id)
	var nf *apperror.NotFoundError
	assert.True(t, errors.As(err, &nf))

	_, err = f.users.RestoreUser(bg, manager, id)
	assert.True(t, policy.IsUnauthorized(err))

	res, err := f.users.RestoreUser(bg, admin, id)
	require.NoError(t, err)
	assert.Equal(t, "maria@example.com", res.Email)

	_, err = f.users.RestoreUser(bg, admin, id)
	assert.True(t, errors.As(err, &nf), "an active user cannot be restored")

	assert.EqualValues(t, 1, f.auditCount(t, model.ActionDeleteUser))
	assert.EqualValues(t, 1, f.auditCount(t, model.ActionRestoreUser))
	assert.Equal(t, []string{EventUserDeleted, EventUserRestored}, f.events.names())
}

func TestCreateAdmin(t *testing.T) {
	f := newFixture(t)

	res, err := f.users.CreateAdmin(bg, "Administrador", "root@example.com", "s3cret!")
	require.NoError(t, err)
	assert.Equal(t, "ADMIN", res.Role)

	_, err = f.users.CreateAdmin(bg, "Administrador", "root@example.com", "s3cret!")
	var ve *apperror.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Errors, "email")

	_, err = f.users.CreateAdmin(bg, "Administrador", "other@example.com", "")
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Errors, "password")
}
