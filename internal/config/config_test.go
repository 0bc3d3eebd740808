package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ST10258766/Wordleandroidclient/internal/game"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "5175", cfg.Server.Port)
	assert.Equal(t, 14, cfg.Server.JWTExpiresDays)
	assert.Equal(t, 10*time.Second, cfg.Server.HintPenalty)
	assert.True(t, cfg.Server.ExposeAnswer)
	assert.Equal(t, "en", cfg.Client.Lang)
	assert.Equal(t, 10*time.Second, cfg.Client.HTTPTimeout)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("PORT", "9000")
	t.Setenv("SPEEDLE_HINT_PENALTY", "15s")
	t.Setenv("WORD_LANG", "af")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("LOG_PRETTY", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.HintPenalty)
	assert.Equal(t, "af", cfg.Client.Lang)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.True(t, cfg.Log.Pretty)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("USER_ID", "unset-below")
	require.NoError(t, os.Unsetenv("USER_ID"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("USER_ID=device-42\n"), 0o600))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "device-42", cfg.Client.UserID)
}

func TestLoadYAMLFile(t *testing.T) {
	dir := chdirTemp(t)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"7000\"\nclient:\n  data_path: /tmp/x.db\n"), 0o600))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, "/tmp/x.db", cfg.Client.DataPath)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"expiry", func(c *Config) { c.Server.JWTExpiresDays = 0 }},
		{"timeout", func(c *Config) { c.Client.HTTPTimeout = 0 }},
		{"probe", func(c *Config) { c.Client.NetProbeInterval = -time.Second }},
		{"base url", func(c *Config) { c.Client.APIBaseURL = "localhost:5175" }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), game.ErrInvalidInput)
		})
	}
	cfg := valid()
	require.NoError(t, cfg.Validate())
}

func valid() Config {
	return Config{
		Server: ServerConfig{JWTExpiresDays: 14, HintPenalty: 10 * time.Second},
		Client: ClientConfig{APIBaseURL: "http://localhost:5175", HTTPTimeout: time.Second, NetProbeInterval: time.Second},
		Log:    LogConfig{Level: "debug"},
	}
}
