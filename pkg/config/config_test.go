package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/materiales-api/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "materiales-api", cfg.App.Name)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 3, cfg.Ledger.MaxRetries)
	assert.Equal(t, 20*time.Millisecond, cfg.Ledger.RetryBackoff)
	assert.Equal(t, "America/Lima", cfg.App.Location().String())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("LEDGER_MAX_RETRIES", "5")
	t.Setenv("APP_TIMEZONE", "UTC")
	t.Setenv("DB_AUTO_MIGRATE", "true")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 5, cfg.Ledger.MaxRetries)
	assert.Equal(t, time.UTC, cfg.App.Location())
	assert.True(t, cfg.DB.AutoMigrate)
}

func TestLoad_TimezoneInvalida(t *testing.T) {
	t.Setenv("APP_TIMEZONE", "Marte/Olympus")
	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_ProduccionSinSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	_, err := config.Load()
	assert.Error(t, err)
}

func TestDBConfig_DSN_Escapa(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:w/rd", DBName: "materiales", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aw%2Frd@db:5432/materiales?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://x@y/z"
	assert.Equal(t, "postgres://x@y/z", c.ConnectionString())
}
