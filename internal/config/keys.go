package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kBool
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "GIFTWISE_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.api_token", typ: kString, env: "GIFTWISE_API_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Server.APIToken = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.APIToken },
	},
	{
		key: "ollama.base_url", typ: kString, env: "GIFTWISE_OLLAMA_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Ollama.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Ollama.BaseURL },
	},
	{
		key: "ollama.model", typ: kString, env: "GIFTWISE_OLLAMA_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Ollama.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Ollama.Model },
	},
	{
		key: "storage.data_dir", typ: kString, env: "GIFTWISE_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "log.level", typ: kString, env: "GIFTWISE_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
	{
		key: "log.format", typ: kString, env: "GIFTWISE_LOG_FORMAT",
		apply:   func(cfg *Config, v any) { cfg.Log.Format = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Format },
	},
	{
		key: "classify.cache_enabled", typ: kBool, env: "GIFTWISE_CLASSIFY_CACHE_ENABLED",
		apply:   func(cfg *Config, v any) { cfg.Classify.CacheEnabled = v.(bool) },
		extract: func(cfg Config) any { return cfg.Classify.CacheEnabled },
	},
	{
		key: "classify.concurrency", typ: kInt, env: "GIFTWISE_CLASSIFY_CONCURRENCY",
		apply:   func(cfg *Config, v any) { cfg.Classify.Concurrency = v.(int) },
		extract: func(cfg Config) any { return cfg.Classify.Concurrency },
	},
	{
		key: "classify.timeout", typ: kString, env: "GIFTWISE_CLASSIFY_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Classify.Timeout = v.(string) },
		extract: func(cfg Config) any { return cfg.Classify.Timeout },
	},
	{
		key: "gifts.rules_file", typ: kString, env: "GIFTWISE_GIFTS_RULES_FILE",
		apply:   func(cfg *Config, v any) { cfg.Gifts.RulesFile = v.(string) },
		extract: func(cfg Config) any { return cfg.Gifts.RulesFile },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kBool:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				if bv, err := strconv.ParseBool(v); err == nil {
					s.apply(cfg, bv)
				} else {
					slog.Warn("could not parse bool config value, using default", "key", s.key, "value", v, "error", err)
				}
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				slog.Warn("could not parse integer env var, using default", "env", s.env, "value", raw, "error", err)
			}
		case kBool:
			if b, err := strconv.ParseBool(raw); err == nil {
				s.apply(cfg, b)
			} else {
				slog.Warn("could not parse bool env var, using default", "env", s.env, "value", raw, "error", err)
			}
		}
	}
}
