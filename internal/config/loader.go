package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variable names and prefix.
const (
	EnvPrefix     = "TALENTFLOW_"
	EnvConfigFile = "TALENTFLOW_CONFIG"
	EnvDotenvFile = "TALENTFLOW_DOTENV"
	defaultDotenv = ".env"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  0. a .env file (TALENTFLOW_DOTENV, default ./.env) is read into the
//     process environment without overriding variables already set
//  1. defaults (New())
//  2. file (YAML) if TALENTFLOW_CONFIG is set
//  3. env (prefix TALENTFLOW_)
func Load(_ context.Context) (*Config, error) {
	if err := loadDotenv(); err != nil {
		return nil, err
	}

	base := New()
	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// TALENTFLOW_QUEUE_SIZE -> queue_size (flat keys, underscores kept).
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

// loadDotenv reads the optional .env file. A missing file is not an error.
func loadDotenv() error {
	path := os.Getenv(EnvDotenvFile)
	if path == "" {
		path = defaultDotenv
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: dotenv %s: %w", ErrLoadConfig, path, err)
	}
	return nil
}
