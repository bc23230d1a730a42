package config

import (
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds runtime settings, read from config.yaml in the library
// directory with PROMPTPACK_* environment overrides
type Config struct {
	LibraryDir      string `yaml:"library_dir" env:"PROMPTPACK_DIR"`
	Port            int    `yaml:"port" env:"PROMPTPACK_PORT" env-default:"8093"`
	GitSync         bool   `yaml:"git_sync" env:"PROMPTPACK_GIT_SYNC" env-default:"false"`
	SyncInterval    int    `yaml:"sync_interval_minutes" env:"PROMPTPACK_SYNC_INTERVAL" env-default:"5"`
	DefaultLanguage string `yaml:"default_language" env:"PROMPTPACK_LANGUAGE" env-default:"pt-br"`
	RecordRenders   bool   `yaml:"record_renders" env:"PROMPTPACK_RECORD_RENDERS" env-default:"true"`
	Verbose         bool   `yaml:"verbose" env:"PROMPTPACK_VERBOSE" env-default:"false"`
}

// Load reads configuration for the library at dir. An empty dir resolves the
// same way storage does: $PROMPTPACK_DIR, then ~/.promptpack.
func Load(dir string) (*Config, error) {
	if dir == "" {
		dir = os.Getenv("PROMPTPACK_DIR")
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, ".promptpack")
	}

	cfg := &Config{}
	configPath := filepath.Join(dir, "config.yaml")

	if _, err := os.Stat(configPath); err == nil {
		if err := cleanenv.ReadConfig(configPath, cfg); err != nil {
			return nil, err
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.LibraryDir == "" {
		cfg.LibraryDir = dir
	}

	return cfg, nil
}
