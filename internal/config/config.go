// Package config resolves keymap settings from defaults, a YAML file,
// KEYMAP_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/psantana5/keymap/internal/keymap"
	"github.com/psantana5/keymap/pkg/logging"
)

// EnvPrefix prefixes every environment variable read by keymap
const EnvPrefix = "KEYMAP"

// Config is the resolved keymap configuration
type Config struct {
	LogLevel    string      `yaml:"log_level" mapstructure:"log_level"`
	LogJSON     bool        `yaml:"log_json" mapstructure:"log_json"`
	Store       string      `yaml:"store" mapstructure:"store"`
	DBPath      string      `yaml:"db_path" mapstructure:"db_path"`
	MetricsFile string      `yaml:"metrics_file,omitempty" mapstructure:"metrics_file"`
	Serve       ServeConfig `yaml:"serve" mapstructure:"serve"`
}

// ServeConfig configures the read-only HTTP view
type ServeConfig struct {
	Addr       string  `yaml:"addr" mapstructure:"addr"`
	RateLimit  float64 `yaml:"rate_limit" mapstructure:"rate_limit"` // requests per second per client
	Burst      int     `yaml:"burst" mapstructure:"burst"`
	LogDir     string  `yaml:"log_dir,omitempty" mapstructure:"log_dir"`
	MaxLogSize int64   `yaml:"max_log_size" mapstructure:"max_log_size"` // bytes
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Store:    keymap.StoreMemory,
		DBPath:   "keymap.db",
		Serve: ServeConfig{
			Addr:       "127.0.0.1:8080",
			RateLimit:  10,
			Burst:      20,
			MaxLogSize: 10 * 1024 * 1024,
		},
	}
}

// SetDefaults registers every key with its default so that environment
// variables are honoured by Unmarshal even when no file sets the key.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_json", d.LogJSON)
	v.SetDefault("store", d.Store)
	v.SetDefault("db_path", d.DBPath)
	v.SetDefault("metrics_file", d.MetricsFile)
	v.SetDefault("serve.addr", d.Serve.Addr)
	v.SetDefault("serve.rate_limit", d.Serve.RateLimit)
	v.SetDefault("serve.burst", d.Serve.Burst)
	v.SetDefault("serve.log_dir", d.Serve.LogDir)
	v.SetDefault("serve.max_log_size", d.Serve.MaxLogSize)
}

// NewViper builds a viper instance reading cfgFile, or
// $HOME/.keymap/config.yaml when cfgFile is empty. A missing default
// file is not an error; a missing explicit file is.
func NewViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".keymap"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return v, nil
}

// Load decodes and validates the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that every setting is usable
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}

	switch c.Store {
	case keymap.StoreMemory:
	case keymap.StoreSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("invalid db_path: required for the %s store", keymap.StoreSQLite)
		}
	default:
		return fmt.Errorf("invalid store %q: expected %s or %s", c.Store, keymap.StoreMemory, keymap.StoreSQLite)
	}

	if c.Serve.Addr == "" {
		return fmt.Errorf("invalid serve.addr: must not be empty")
	}
	if c.Serve.RateLimit <= 0 {
		return fmt.Errorf("invalid serve.rate_limit %v: must be positive", c.Serve.RateLimit)
	}
	if c.Serve.Burst < 1 {
		return fmt.Errorf("invalid serve.burst %d: must be at least 1", c.Serve.Burst)
	}
	return nil
}

// YAML renders the configuration as a config file
func (c *Config) YAML() (string, error) {
	var b strings.Builder
	encoder := yaml.NewEncoder(&b)
	encoder.SetIndent(2)
	if err := encoder.Encode(c); err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	return b.String(), nil
}
