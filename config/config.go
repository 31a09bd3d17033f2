// Package config loads the service configuration from a YAML or JSON file
// with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultServerAddr     = ":8080"
	DefaultUploadDir      = "uploads"
	DefaultMaxUploadBytes = 16 << 20
	DefaultCookieName     = "ailo_session"
)

// Config is the whole service configuration.
type Config struct {
	ServerAddr     string        `yaml:"server_addr"`
	UploadDir      string        `yaml:"upload_dir"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	LLM            LLMConfig     `yaml:"llm"`
	Session        SessionConfig `yaml:"session"`
	Log            LogConfig     `yaml:"log"`
}

// LLMConfig selects and configures the text-completion provider.
type LLMConfig struct {
	Provider  string `yaml:"provider"` // gemini, openai, deepseek, mock
	Model     string `yaml:"model"`
	APIKey    string `yaml:"api_key"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`
	// Timeout bounds each oracle call. Zero means no timeout.
	Timeout time.Duration `yaml:"timeout"`
}

// SessionConfig selects the session store.
type SessionConfig struct {
	Backend    string `yaml:"backend"` // memory or sqlite
	Path       string `yaml:"path"`
	CookieName string `yaml:"cookie_name"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		ServerAddr:     DefaultServerAddr,
		UploadDir:      DefaultUploadDir,
		MaxUploadBytes: DefaultMaxUploadBytes,
		LLM: LLMConfig{
			Provider: "gemini",
			Model:    "gemini-2.0-flash",
		},
		Session: SessionConfig{
			Backend:    "memory",
			Path:       "data/sessions.db",
			CookieName: DefaultCookieName,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if port := getenv("PORT"); port != "" {
		c.ServerAddr = ":" + strings.TrimPrefix(port, ":")
	}
	if dir := getenv("UPLOAD_FOLDER"); dir != "" {
		c.UploadDir = dir
	}
	if c.LLM.APIKey == "" {
		env := c.LLM.APIKeyEnv
		if env == "" {
			env = defaultKeyEnv(c.LLM.Provider)
		}
		if env != "" {
			c.LLM.APIKey = getenv(env)
		}
	}
}

func defaultKeyEnv(provider string) string {
	switch provider {
	case "gemini":
		return "GEMINI_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "deepseek":
		return "DEEPSEEK_API_KEY"
	}
	return ""
}

// Validate checks enumerated fields and limits.
func (c Config) Validate() error {
	switch c.LLM.Provider {
	case "gemini", "openai", "deepseek", "mock":
	case "":
		return errors.New("llm.provider is required")
	default:
		return fmt.Errorf("llm provider %s not supported", c.LLM.Provider)
	}
	if c.LLM.Provider == "deepseek" && c.LLM.BaseURL == "" {
		// DeepSeek is reached through its OpenAI-compatible endpoint
		return errors.New("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
	}
	switch c.Session.Backend {
	case "memory":
	case "sqlite":
		if c.Session.Path == "" {
			return errors.New("session.path is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("session backend %q not supported", c.Session.Backend)
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("max_upload_bytes must be positive")
	}
	if c.UploadDir == "" {
		return errors.New("upload_dir is required")
	}
	if c.LLM.Timeout < 0 {
		return errors.New("llm.timeout must not be negative")
	}
	return nil
}
