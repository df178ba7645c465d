package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultHTTPAddr, cfg.Server.Addr)
	assert.Equal(t, DefaultChatModel, cfg.Chat.DefaultModel)
	assert.Equal(t, DefaultLocale, cfg.Chat.DefaultLocale)
	assert.Equal(t, [2]int64{10, 1000}, cfg.Quota.Tiers["default_list"])
	assert.Equal(t, [2]int64{9999, 999999}, cfg.Quota.Tiers["white_list"])
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[server]
addr = ":9090"
form_base_url = "https://bot.example.com"

[telegram]
bot_token = "123:abc"
poll_timeout = 15

[chat]
default_model = "gpt-4o"
max_tokens = 500

[auth]
jwt_secret = "s3cret"
jwt_expires_in = "30m"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "https://bot.example.com", cfg.Server.FormBaseURL)
	assert.Equal(t, "123:abc", cfg.Telegram.BotToken)
	assert.Equal(t, 15, cfg.Telegram.PollTimeout)
	assert.Equal(t, "gpt-4o", cfg.Chat.DefaultModel)
	assert.Equal(t, 500, cfg.Chat.MaxTokens)
	assert.Equal(t, 30*time.Minute, cfg.Auth.ExpiresIn())

	// Untouched sections keep defaults.
	assert.Equal(t, DefaultPGHost, cfg.Postgres.Host)
}

func TestExpiresInFallsBack(t *testing.T) {
	def, err := time.ParseDuration(DefaultJWTExpiresIn)
	require.NoError(t, err)

	assert.Equal(t, def, AuthConfig{JWTExpiresIn: "bogus"}.ExpiresIn())
	assert.Equal(t, def, AuthConfig{JWTExpiresIn: "-5m"}.ExpiresIn())
	assert.Equal(t, 2*time.Hour, AuthConfig{JWTExpiresIn: "2h"}.ExpiresIn())
}
