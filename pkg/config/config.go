// Package config loads habitual's settings from a YAML file, a .env file
// and HABITUAL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/stefanpenner/habitual/pkg/store"
)

const envPrefix = "HABITUAL_"

const (
	StorageFiles  = "files"
	StorageSQLite = "sqlite"
)

// Config is the full application configuration.
type Config struct {
	DataDir    string           `koanf:"data_dir"`
	Storage    string           `koanf:"storage" validate:"oneof=files sqlite"`
	Log        LogConfig        `koanf:"log"`
	Reflection ReflectionConfig `koanf:"reflection"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// ReflectionConfig controls the generated-reflection cache.
type ReflectionConfig struct {
	CacheTTL  time.Duration `koanf:"cache_ttl" validate:"gte=0"`
	CacheSize int           `koanf:"cache_size" validate:"gte=0"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Storage: StorageFiles,
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
		Reflection: ReflectionConfig{
			CacheTTL:  30 * time.Minute,
			CacheSize: 64,
		},
	}
}

// DefaultPath returns ~/.config/habitual/config.yaml (or the OS equivalent).
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "habitual", "config.yaml")
}

var validate = validator.New()

// Load reads configuration with the precedence (highest first):
//  1. HABITUAL_* environment variables (a .env file in the working
//     directory is loaded into the environment first)
//  2. the YAML file at path, when it exists (DefaultPath() if path is empty)
//  3. Default()
//
// Environment names map onto keys by section:
//
//	HABITUAL_DATA_DIR            -> data_dir
//	HABITUAL_LOG_LEVEL           -> log.level
//	HABITUAL_REFLECTION_CACHE_TTL -> reflection.cache_ttl
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	k := koanf.New(".")

	if path == "" {
		path = DefaultPath()
	}
	if path != "" {
		content, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("loading config file %s: %w", path, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.DataDir = store.ResolveDataDir(cfg.DataDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// envKey maps HABITUAL_LOG_LEVEL to log.level. Keys outside a known
// section keep their underscores (HABITUAL_DATA_DIR -> data_dir).
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	for _, section := range []string{"log", "reflection"} {
		if rest, ok := strings.CutPrefix(key, section+"_"); ok {
			return section + "." + rest
		}
	}
	return key
}
