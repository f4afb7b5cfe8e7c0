package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 5, cfg.Auth.LoginBurst)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.NotEmpty(t, cfg.Auth.JWTSecret)
	assert.False(t, cfg.SMTP.Enabled())
	assert.True(t, cfg.SMTP.StartTLS)
	assert.Equal(t, []string{"http://localhost:5173", "http://127.0.0.1:5173"}, cfg.Origins())
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"PORT":          "9090",
		"JWT_SECRET":    "s3cret",
		"TOKEN_TTL":     "15m",
		"SMTP_HOST":     "mail.local",
		"SMTP_PORT":     "2525",
		"SMTP_STARTTLS": "false",
		"CORS_ORIGINS":  " https://a.example , ,https://b.example",
	}))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, 15*time.Minute, cfg.Auth.TokenTTL)
	assert.Equal(t, "mail.local:2525", cfg.SMTP.Addr())
	assert.True(t, cfg.SMTP.Enabled())
	assert.False(t, cfg.SMTP.StartTLS)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Origins())
}

func TestProductionRequiresSecret(t *testing.T) {
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{"ENV": "production"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: "5432", User: "app", Password: "p@ss", Name: "groups", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss@db:5432/groups?sslmode=disable", d.DSN())
}

func TestInvalidDuration(t *testing.T) {
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{"TOKEN_TTL": "soon"}))
	assert.Error(t, err)
}
