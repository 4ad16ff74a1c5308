package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment names read by Load.
const (
	EnvPrefix  = "STORY_"
	EnvConfig  = "STORY_CONFIG"
	EnvDotFile = "STORY_ENV_FILE"
)

// Load builds a Config by layering defaults, optional files, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New)
//  2. .env file (STORY_ENV_FILE, default ".env"); never overrides real env
//  3. file (YAML) if STORY_CONFIG is set
//  4. env (prefix STORY_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	dotenv := os.Getenv(EnvDotFile)
	if dotenv == "" {
		dotenv = ".env"
	}
	if err := godotenv.Load(dotenv); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, dotenv, err)
	}

	k := koanf.New(".")

	if path := os.Getenv(EnvConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// STORY_QUEUE_SIZE -> queue_size; underscores are kept to match the koanf tags.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
