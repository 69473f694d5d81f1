// Package config loads server and CLI settings from defaults, a YAML file,
// a .env file and ETH_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendDisk  = "disk"
	BackendMinio = "minio"
)

// Config holds all runtime settings.
type Config struct {
	DBPath          string        `yaml:"db_path,omitempty"`
	MediaDir        string        `yaml:"media_dir,omitempty"`
	BaseURL         string        `yaml:"base_url,omitempty"`
	Port            int           `yaml:"port,omitempty"`
	DevMode         bool          `yaml:"dev_mode,omitempty"`
	CleanupSchedule string        `yaml:"cleanup_schedule,omitempty"`
	Storage         StorageConfig `yaml:"storage,omitempty"`
}

// StorageConfig selects where uploaded files live.
type StorageConfig struct {
	Backend string      `yaml:"backend,omitempty"`
	Minio   MinioConfig `yaml:"minio,omitempty"`
}

// MinioConfig holds S3-compatible bucket settings.
type MinioConfig struct {
	Endpoint  string `yaml:"endpoint,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	Bucket    string `yaml:"bucket,omitempty"`
	UseSSL    bool   `yaml:"use_ssl,omitempty"`
}

// Defaults returns the built-in settings. Paths are resolved under home.
func Defaults(home string) Config {
	return Config{
		DBPath:          filepath.Join(home, ".emptytohome", "eth.db"),
		MediaDir:        filepath.Join(home, ".emptytohome", "media"),
		BaseURL:         "http://localhost:8080",
		Port:            8080,
		CleanupSchedule: "@hourly",
		Storage: StorageConfig{
			Backend: BackendDisk,
			Minio:   MinioConfig{Bucket: "emptytohome"},
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "eth", "config.yaml"), nil
}

// Load builds the configuration. An empty path means DefaultPath, which
// may be absent; an explicit path must exist. envFile is loaded with
// godotenv when present and never overrides variables already set.
func Load(path, envFile string) (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("finding home directory: %w", err)
	}
	cfg := Defaults(home)

	explicit := path != ""
	if !explicit {
		if path, err = DefaultPath(); err != nil {
			return Config{}, err
		}
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("reading config: %w", err)
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) error {
		v, ok := os.LookupEnv(key)
		if !ok {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = b
		return nil
	}

	str("ETH_DB_PATH", &cfg.DBPath)
	str("ETH_MEDIA_DIR", &cfg.MediaDir)
	str("ETH_BASE_URL", &cfg.BaseURL)
	str("ETH_CLEANUP_SCHEDULE", &cfg.CleanupSchedule)
	str("ETH_STORAGE_BACKEND", &cfg.Storage.Backend)
	str("ETH_MINIO_ENDPOINT", &cfg.Storage.Minio.Endpoint)
	str("ETH_MINIO_ACCESS_KEY", &cfg.Storage.Minio.AccessKey)
	str("ETH_MINIO_SECRET_KEY", &cfg.Storage.Minio.SecretKey)
	str("ETH_MINIO_BUCKET", &cfg.Storage.Minio.Bucket)

	if v, ok := os.LookupEnv("ETH_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ETH_PORT: %w", err)
		}
		cfg.Port = port
	}
	if err := boolean("ETH_DEV_MODE", &cfg.DevMode); err != nil {
		return err
	}
	return boolean("ETH_MINIO_USE_SSL", &cfg.Storage.Minio.UseSSL)
}

// Validate checks settings that would otherwise fail later at startup.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("db_path is required")
	}
	switch c.Storage.Backend {
	case BackendDisk:
		if strings.TrimSpace(c.MediaDir) == "" {
			return fmt.Errorf("media_dir is required for disk storage")
		}
	case BackendMinio:
		if c.Storage.Minio.Endpoint == "" || c.Storage.Minio.Bucket == "" {
			return fmt.Errorf("minio storage needs an endpoint and a bucket")
		}
	default:
		return fmt.Errorf("unknown storage backend %q (want %s or %s)", c.Storage.Backend, BackendDisk, BackendMinio)
	}
	return nil
}

// Save writes cfg as YAML to path, creating parent directories.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
