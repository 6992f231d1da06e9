package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Color modes accepted by the color setting.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config holds all runtime configuration for a planz invocation.
// Values are populated from .planz.yaml, PLANZ_* env vars, and CLI flags.
type Config struct {
	DBPath   string `mapstructure:"db"`
	Plan     string `mapstructure:"plan"`
	Project  string `mapstructure:"project"`
	Format   string `mapstructure:"format"`
	Color    string `mapstructure:"color"`
	LogLevel string `mapstructure:"log_level"`
	Verbose  bool   `mapstructure:"verbose"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	viper.SetDefault("db", DefaultDBPath())
	viper.SetDefault("plan", "")
	viper.SetDefault("project", "")
	viper.SetDefault("format", "text")
	viper.SetDefault("color", ColorAuto)
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("verbose", false)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.Format = strings.ToLower(strings.TrimSpace(cfg.Format))
	if cfg.Format == "md" {
		cfg.Format = "markdown"
	}
	cfg.Color = strings.ToLower(strings.TrimSpace(cfg.Color))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings that cannot be used.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("config: db path is empty")
	}
	switch c.Format {
	case "text", "json", "markdown":
	default:
		return fmt.Errorf("config: unknown format %q (want text, json or markdown)", c.Format)
	}
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("config: unknown color mode %q (want auto, always or never)", c.Color)
	}
	return nil
}

// LockPath is the advisory lock file guarding writes to DBPath.
func (c Config) LockPath() string {
	return c.DBPath + ".lock"
}

// DefaultDBPath returns the per-user store location, honouring XDG_DATA_HOME.
func DefaultDBPath() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "planz", "planz.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".planz", "planz.db")
	}
	return filepath.Join(home, ".local", "share", "planz", "planz.db")
}
