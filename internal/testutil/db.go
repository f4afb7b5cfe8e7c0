// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"groupmanager/internal/database"
	"groupmanager/internal/model"
)

// NewDB returns a migrated and seeded in-memory SQLite database private to t.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=1", uuid.NewString())
	db, err := database.Open(sqlite.Open(dsn), zerolog.Nop())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a single connection keeps the shared-cache database free of lock contention
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	ctx := context.Background()
	require.NoError(t, database.Migrate(ctx, db))
	require.NoError(t, database.SeedTypeUsers(ctx, db))
	return db
}

// CreateUser inserts a user with the given role and password "secret123".
func CreateUser(t *testing.T, db *gorm.DB, name, email string, role model.Role) *model.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	u := &model.User{Name: name, Email: email, Password: string(hash), TypeUserID: uint(role)}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateGroup inserts a group created by creator. When representative is set a
// representative linked to that user is attached.
func CreateGroup(t *testing.T, db *gorm.DB, creator *model.User, representative *model.User) *model.Group {
	t.Helper()

	tg := &model.TypeGroup{Name: "Comissão", TypeGroup: model.TypeGroupInternal}
	require.NoError(t, db.Create(tg).Error)

	g := &model.Group{
		Entity:        "Entidade",
		Organ:         "Órgão",
		Acronym:       "ENT",
		Status:        model.GroupStatusInProgress,
		CreatorUserID: creator.ID,
		TypeGroupID:   tg.ID,
	}
	if representative != nil {
		rep := &model.Representative{Name: representative.Name, Email: representative.Email, UserID: &representative.ID}
		require.NoError(t, db.Create(rep).Error)
		g.RepresentativeID = &rep.ID
	}
	require.NoError(t, db.Omit("Creator", "TypeGroup", "Representative").Create(g).Error)
	return g
}
