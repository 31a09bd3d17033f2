package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("GEMINI_API_KEY", "gem-key")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultServerAddr, cfg.ServerAddr)
	assert.Equal(t, int64(16<<20), cfg.MaxUploadBytes)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "gem-key", cfg.LLM.APIKey)
	assert.Equal(t, "memory", cfg.Session.Backend)
	assert.Zero(t, cfg.LLM.Timeout)
}

func TestLoad_YAML(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("UPLOAD_FOLDER", "")
	t.Setenv("MY_KEY", "secret")
	path := writeConfig(t, "config.yaml", `
server_addr: ":9090"
upload_dir: /tmp/ailo-uploads
llm:
  provider: openai
  model: gpt-4o-mini
  api_key_env: MY_KEY
  timeout: 90s
session:
  backend: sqlite
  path: /tmp/ailo/sessions.db
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.ServerAddr)
	assert.Equal(t, "/tmp/ailo-uploads", cfg.UploadDir)
	assert.Equal(t, "secret", cfg.LLM.APIKey)
	assert.Equal(t, 90*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "sqlite", cfg.Session.Backend)
	assert.Equal(t, DefaultCookieName, cfg.Session.CookieName)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_JSONIsAccepted(t *testing.T) {
	t.Setenv("PORT", "")
	path := writeConfig(t, "config.json", `{"llm": {"provider": "mock"}, "server_addr": ":7000"}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mock", cfg.LLM.Provider)
	assert.Equal(t, ":7000", cfg.ServerAddr)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "5000")
	t.Setenv("UPLOAD_FOLDER", "/srv/uploads")
	path := writeConfig(t, "config.yaml", "llm:\n  provider: mock\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":5000", cfg.ServerAddr)
	assert.Equal(t, "/srv/uploads", cfg.UploadDir)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "claude" }, false},
		{"empty provider", func(c *Config) { c.LLM.Provider = "" }, false},
		{"deepseek without base url", func(c *Config) { c.LLM.Provider = "deepseek" }, false},
		{"deepseek with base url", func(c *Config) {
			c.LLM.Provider = "deepseek"
			c.LLM.BaseURL = "https://api.deepseek.com"
		}, true},
		{"unknown backend", func(c *Config) { c.Session.Backend = "redis" }, false},
		{"sqlite without path", func(c *Config) {
			c.Session.Backend = "sqlite"
			c.Session.Path = ""
		}, false},
		{"zero upload limit", func(c *Config) { c.MaxUploadBytes = 0 }, false},
		{"negative timeout", func(c *Config) { c.LLM.Timeout = -time.Second }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
