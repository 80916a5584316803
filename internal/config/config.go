// Package config loads the layered configuration: defaults, then an optional
// bigbook.yaml, then BIGBOOK_* environment variables, then command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment variable, e.g. BIGBOOK_STORAGE_BACKEND
	EnvPrefix = "BIGBOOK"
	// FileName is the config file name searched for, without extension
	FileName = "bigbook"
	// DefaultDataDir holds the default SQLite database
	DefaultDataDir = "~/.bigbook"
)

// Config is the resolved configuration
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Content ContentConfig `mapstructure:"content"`
	Search  SearchConfig  `mapstructure:"search"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Log     LogConfig     `mapstructure:"log"`
}

// StorageConfig selects the annotation store
type StorageConfig struct {
	Backend string `mapstructure:"backend"` // sqlite, postgres, memory
	Path    string `mapstructure:"path"`
	DSN     string `mapstructure:"dsn"`
}

// ContentConfig selects the book content pack
type ContentConfig struct {
	Path    string `mapstructure:"path"` // empty uses the embedded pack
	Workers int    `mapstructure:"workers"`
}

// SearchConfig tunes the searcher
type SearchConfig struct {
	CacheSize int `mapstructure:"cache_size"`
}

// HTTPConfig configures the HTTP API
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig configures logging
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// New returns a viper instance with defaults and environment binding. Flags
// can be bound to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("storage.path", filepath.Join(DefaultDataDir, "bigbook.db"))
	v.SetDefault("storage.dsn", "")
	v.SetDefault("content.path", "")
	v.SetDefault("content.workers", 4)
	v.SetDefault("search.cache_size", 256)
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	return v
}

// Load reads configFile, or the first bigbook.yaml found in the search path
// when configFile is empty, and decodes the result
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(FileName)
		for _, dir := range searchPaths() {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	path, err := expandHome(cfg.Storage.Path)
	if err != nil {
		return nil, err
	}
	cfg.Storage.Path = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "sqlite":
		if c.Storage.Path == "" {
			return errors.New("storage.path is required for the sqlite backend")
		}
	case "postgres":
		if c.Storage.DSN == "" {
			return errors.New("storage.dsn is required for the postgres backend")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown storage.backend %q (supported: sqlite, postgres, memory)", c.Storage.Backend)
	}
	if c.Content.Workers < 1 {
		return fmt.Errorf("content.workers must be >= 1, got %d", c.Content.Workers)
	}
	if c.Search.CacheSize < 1 {
		return fmt.Errorf("search.cache_size must be >= 1, got %d", c.Search.CacheSize)
	}
	return nil
}

// searchPaths lists config directories in precedence order
func searchPaths() []string {
	paths := []string{"."}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "bigbook"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".bigbook"))
	}
	return paths
}

// expandHome replaces a leading ~ with the user's home directory
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
