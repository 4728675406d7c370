package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envNames = []string{
	"API_KEY", "CONTRACTBOT_TELEGRAM_TOKEN", "ADMIN_ID", "CONTRACTBOT_ADMIN_CHAT_ID",
	"CONTRACTBOT_REDIS_ADDR", "CONTRACTBOT_SEQUENCE_DB", "SUPABASE_URL", "SUPABASE_KEY",
	"CONTRACTBOT_TEMPLATE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range envNames {
		t.Setenv(name, "")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.NoError(t, cfg.ValidateOffline())
	assert.Error(t, cfg.Validate())
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
telegram:
  token: "123:abc"
  admin_chat_id: -100500
session:
  driver: redis
  redis_addr: "localhost:6379"
sequence:
  driver: sqlite
  path: /var/lib/contractbot/seq.db
  start: 40
latex:
  timeout: 45s
logging:
  level: debug
  format: console
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "123:abc", cfg.Telegram.Token)
	assert.Equal(t, int64(-100500), cfg.Telegram.AdminChatID)
	assert.Equal(t, 60, cfg.Telegram.PollTimeout, "unset keys keep defaults")
	assert.Equal(t, "redis", cfg.Session.Driver)
	assert.Equal(t, 40, cfg.Sequence.Start)
	assert.Equal(t, 45*time.Second, cfg.GetLatexTimeout())
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("telegram: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("legacy names", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("API_KEY", "legacy-token")
		t.Setenv("ADMIN_ID", "777")

		cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "legacy-token", cfg.Telegram.Token)
		assert.Equal(t, int64(777), cfg.Telegram.AdminChatID)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("prefixed names win", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("API_KEY", "legacy-token")
		t.Setenv("CONTRACTBOT_TELEGRAM_TOKEN", "new-token")
		t.Setenv("ADMIN_ID", "777")
		t.Setenv("CONTRACTBOT_ADMIN_CHAT_ID", "-42")

		cfg := DefaultConfig()
		require.NoError(t, cfg.applyEnvOverrides())
		assert.Equal(t, "new-token", cfg.Telegram.Token)
		assert.Equal(t, int64(-42), cfg.Telegram.AdminChatID)
	})

	t.Run("invalid admin id", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ADMIN_ID", "admin")

		cfg := DefaultConfig()
		assert.Error(t, cfg.applyEnvOverrides())
	})

	t.Run("storage drivers", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("CONTRACTBOT_REDIS_ADDR", "redis:6379")
		t.Setenv("CONTRACTBOT_SEQUENCE_DB", "/data/seq.db")
		t.Setenv("CONTRACTBOT_TEMPLATE", "/etc/contractbot/contract.tex")

		cfg := DefaultConfig()
		require.NoError(t, cfg.applyEnvOverrides())
		assert.Equal(t, "redis", cfg.Session.Driver)
		assert.Equal(t, "redis:6379", cfg.Session.RedisAddr)
		assert.Equal(t, "sqlite", cfg.Sequence.Driver)
		assert.Equal(t, "/data/seq.db", cfg.Sequence.Path)
		assert.Equal(t, "/etc/contractbot/contract.tex", cfg.Document.TemplatePath)
	})

	t.Run("registry", func(t *testing.T) {
		clearEnv(t)
		cfg := DefaultConfig()
		assert.False(t, cfg.IsRegistryEnabled())

		t.Setenv("SUPABASE_URL", "https://x.supabase.co")
		require.NoError(t, cfg.applyEnvOverrides())
		assert.False(t, cfg.IsRegistryEnabled(), "key missing")

		t.Setenv("SUPABASE_KEY", "service")
		require.NoError(t, cfg.applyEnvOverrides())
		assert.True(t, cfg.IsRegistryEnabled())
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.Telegram.Token = "t"
		cfg.Telegram.AdminChatID = 1
		return cfg
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing token", func(c *Config) { c.Telegram.Token = "" }},
		{"missing admin", func(c *Config) { c.Telegram.AdminChatID = 0 }},
		{"unknown session driver", func(c *Config) { c.Session.Driver = "etcd" }},
		{"redis without addr", func(c *Config) { c.Session.Driver = "redis" }},
		{"unknown sequence driver", func(c *Config) { c.Sequence.Driver = "postgres" }},
		{"sqlite without path", func(c *Config) { c.Sequence.Driver = "sqlite"; c.Sequence.Path = "" }},
		{"zero start", func(c *Config) { c.Sequence.Start = 0 }},
		{"no template", func(c *Config) { c.Document.TemplatePath = "" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDurationFallbacks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Latex.Timeout = "soon"
	cfg.Session.TTL = "-1h"
	cfg.Registry.CacheTTL = ""

	assert.Equal(t, 120*time.Second, cfg.GetLatexTimeout())
	assert.Equal(t, 24*time.Hour, cfg.GetSessionTTL())
	assert.Equal(t, 5*time.Minute, cfg.GetRegistryCacheTTL())
}

// unsetEnv removes names for the duration of the test.
func unsetEnv(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	unsetEnv(t, "API_KEY", "ADMIN_ID")
	t.Setenv("SUPABASE_URL", "https://from-env.supabase.co")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(`
API_KEY=123:from-file
ADMIN_ID=-100500
SUPABASE_URL=https://from-file.supabase.co
`), 0o600))

	require.NoError(t, LoadDotEnv(path))
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "123:from-file", cfg.Telegram.Token)
	assert.Equal(t, int64(-100500), cfg.Telegram.AdminChatID)
	// The process environment wins over the file.
	assert.Equal(t, "https://from-env.supabase.co", cfg.Registry.SupabaseURL)
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")))
	assert.NoError(t, LoadDotEnv(""))
}

func TestLoadDotEnvMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("API_KEY='unterminated\n"), 0o600))

	assert.Error(t, LoadDotEnv(path))
}
