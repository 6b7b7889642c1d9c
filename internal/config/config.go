// Package config loads neomestre settings from defaults, an optional config
// file, a .env file and NEOMESTRE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/neomestre/neomestre/internal/unimestre"
)

// EnvPrefix is the prefix of every environment variable read.
const EnvPrefix = "NEOMESTRE"

// Config holds all client configuration.
type Config struct {
	// BaseURL is the portal API root.
	BaseURL string `mapstructure:"base_url"`

	// DBPath is the SQLite file. Empty means the default data directory.
	DBPath string `mapstructure:"db_path"`

	// HTTPTimeout bounds a single portal request. Default: 30s.
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`

	Log LogConfig `mapstructure:"log"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	// Level is a zap level name: debug, info, warn, error.
	Level string `mapstructure:"level"`

	// Format is "console" or "json".
	Format string `mapstructure:"format"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:     unimestre.DefaultBaseURL,
		HTTPTimeout: 30 * time.Second,
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// Load reads configuration. path names a config file; when empty,
// neomestre.yaml is looked up in the working directory and the user config
// directory, and its absence is not an error. A .env file in the working
// directory is loaded first if present; variables already set win.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	def := DefaultConfig()
	v := viper.New()
	v.SetDefault("base_url", def.BaseURL)
	v.SetDefault("db_path", def.DBPath)
	v.SetDefault("http_timeout", def.HTTPTimeout)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("neomestre")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(dir + string(os.PathSeparator) + "neomestre")
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("config: base_url must not be empty")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("config: http_timeout must be positive, got %s", c.HTTPTimeout)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("config: log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
