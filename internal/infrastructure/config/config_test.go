package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "gestao-backend", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "gestao", cfg.Database.DBName)
	assert.Equal(t, 8*time.Hour, cfg.JWT.AccessTokenExpiration)
	assert.Equal(t, "MOCK", cfg.Boleto.Provider)
	assert.Equal(t, 30*time.Second, cfg.Boleto.RequestTimeout)
	assert.Equal(t, "https://sandbox.api.pagseguro.com", cfg.Boleto.BaseURL)
	assert.NotEmpty(t, cfg.Boleto.DefaultCity)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("GESTAO_APP_PORT", "9999")
	t.Setenv("GESTAO_BOLETO_PROVIDER", "PAGBANK")
	t.Setenv("GESTAO_BOLETO_TOKEN", "sandbox-token")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.App.Port)
	assert.Equal(t, "PAGBANK", cfg.Boleto.Provider)
	assert.Equal(t, "sandbox-token", cfg.Boleto.Token)
}

func TestValidateRejectsBadProvider(t *testing.T) {
	t.Setenv("GESTAO_BOLETO_PROVIDER", "STRIPE")
	_, err := Load()
	assert.Error(t, err)
}

func TestProductionValidation(t *testing.T) {
	t.Setenv("GESTAO_APP_ENV", "production")

	t.Run("missing jwt secret", func(t *testing.T) {
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("valid production config", func(t *testing.T) {
		t.Setenv("GESTAO_JWT_SECRET", "0123456789abcdef0123456789abcdef")
		t.Setenv("GESTAO_DATABASE_PASSWORD", "secret")
		t.Setenv("GESTAO_DATABASE_SSLMODE", "require")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "db.local",
		Port:     5432,
		User:     "app",
		Password: "p@ss word",
		DBName:   "gestao",
		SSLMode:  "require",
	}
	dsn := d.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "db.local:5432")
	assert.Contains(t, dsn, "sslmode=require")
	// Password special characters must be escaped
	assert.NotContains(t, dsn, "p@ss word")
}
