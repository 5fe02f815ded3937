package config_test

import (
	"testing"

	"github.com/lectoria/lectoria/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "lectoria_dev", cfg.MongoDBName)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 60, cfg.AccessTokenTTLMin)
	assert.Equal(t, 720, cfg.RefreshTokenTTLHour)
	assert.True(t, cfg.UpdateLastLogin)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123456:test-token")
	t.Setenv("UPDATE_LAST_LOGIN", "false")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, "123456:test-token", cfg.TelegramBotToken)
	assert.False(t, cfg.UpdateLastLogin)
}
