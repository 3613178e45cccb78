package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Config struct {
	Server   ServerConfig
	Ollama   OllamaConfig
	Storage  StorageConfig
	Log      LogConfig
	Classify ClassifyConfig
	Gifts    GiftsConfig
}

type ServerConfig struct {
	Port int
	// APIToken enables bearer auth on /v1 when non-empty.
	APIToken string
}

type OllamaConfig struct {
	BaseURL string
	Model   string
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level  string
	Format string
}

type ClassifyConfig struct {
	CacheEnabled bool
	Concurrency  int
	Timeout      string
}

type GiftsConfig struct {
	// RulesFile replaces the built-in rule table when set.
	RulesFile string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4100,
		},
		Ollama: OllamaConfig{
			BaseURL: "http://localhost:11434",
			Model:   "phi3.5",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Classify: ClassifyConfig{
			CacheEnabled: true,
			Concurrency:  1,
			Timeout:      "15s",
		},
	}
}

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return "giftwise-data"
		}
	}
	return filepath.Join(dir, "giftwise")
}

// Load reads configuration from the JSON file backend at
// $XDG_CONFIG_HOME/giftwise/config.json and applies GIFTWISE_* environment
// overrides on top. Secrets are only read from the environment.
func Load() (Config, error) {
	return loadWith(newFileBackend(configFilePath()))
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Classify.Concurrency < 1 {
		return fmt.Errorf("invalid classify.concurrency %d: must be at least 1", c.Classify.Concurrency)
	}
	if _, err := c.ClassifyTimeout(); err != nil {
		return err
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log.format %q: want text or json", c.Log.Format)
	}
	return nil
}

// ClassifyTimeout parses classify.timeout. Zero disables the per-call timeout.
func (c Config) ClassifyTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Classify.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid classify.timeout %q: %w", c.Classify.Timeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid classify.timeout %q: must not be negative", c.Classify.Timeout)
	}
	return d, nil
}

// SlogLevel maps log.level onto a slog.Level.
func (c Config) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid log.level %q: want debug, info, warn or error", c.Log.Level)
}
