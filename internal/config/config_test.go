package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutConfigFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.IdleTimeout)
	assert.Equal(t, 50.0, cfg.Server.RateLimitRPS)
	assert.Equal(t, 100, cfg.Server.RateLimitBurst)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "auditgate", cfg.Database.DBName)
	assert.Equal(t, int32(10), cfg.Database.MaxConns)

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("AUDITGATE_DATABASE_HOST", "db.internal")
	t.Setenv("AUDITGATE_SERVER_PORT", "9090")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestServerConfigAddr(t *testing.T) {
	c := ServerConfig{Host: "127.0.0.1", Port: 8081}
	assert.Equal(t, "127.0.0.1:8081", c.Addr())
}

func TestBuildLogger(t *testing.T) {
	logger, err := LoggerConfig{Level: "debug", Format: "console"}.BuildLogger()
	require.NoError(t, err)
	require.NotNil(t, logger)

	_, err = LoggerConfig{Level: "nope", Format: "json"}.BuildLogger()
	assert.Error(t, err)
}
