package service

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupmanager/internal/model"
	"groupmanager/internal/policy"
	"groupmanager/pkg/logger"
)

func TestAuthorizeLogsDenial(t *testing.T) {
	f := newFixture(t)
	viewer, vp := f.user(t, "Visualizador", "viewer@example.com", model.RoleViewer)

	prev := zerolog.GlobalLevel()
	logger.Reset()
	t.Cleanup(func() {
		logger.Reset()
		zerolog.SetGlobalLevel(prev)
	})
	var buf bytes.Buffer
	logger.Init(logger.Options{Level: "debug", Output: &buf})

	err := authorize(bg, f.authz, vp, policy.ActionView, policy.Statistics())
	require.True(t, policy.IsUnauthorized(err))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "authorization denied", line["message"])
	assert.Equal(t, viewer.ID.String(), line["principal"])
	assert.Equal(t, string(policy.ActionView), line["action"])
	assert.Equal(t, string(policy.Statistics().Type), line["resource"])
	assert.NotEmpty(t, line["reason"])

	// allowed decisions are not logged
	buf.Reset()
	_, ap := f.user(t, "Administrador", "admin@example.com", model.RoleAdmin)
	require.NoError(t, authorize(bg, f.authz, ap, policy.ActionView, policy.Statistics()))
	assert.Zero(t, buf.Len())
}
