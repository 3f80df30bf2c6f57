// Copyright (c) 2025 The grokchat Authors
// SPDX-License-Identifier: MIT

// Package config provides configuration loading for grokchat.
//
// Configuration is resolved once at process start and passed into every
// component as an immutable value. Sources, in order of precedence:
//   - Environment variables
//   - ~/.grokchat/config.toml (optional)
//   - Built-in defaults
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Defaults applied when neither environment nor file supplies a value.
const (
	DefaultDatabasePath = "grok_chat.db"
	DefaultHost         = "127.0.0.1"
	DefaultPort         = 3000
	DefaultModel        = "grok-4-0709"
)

// =============================================================================
// ERRORS
// =============================================================================

// ConfigError describes invalid or missing startup configuration.
// It is fatal: the process must not start without a valid configuration.
type ConfigError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config: " + e.Field + ": " + e.Reason
}

// Is allows errors.Is comparison between config errors.
func (e *ConfigError) Is(target error) bool {
	t, ok := target.(*ConfigError)
	if !ok {
		return false
	}
	return e.Field == t.Field
}

// IsConfigError reports whether err is a configuration error.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// =============================================================================
// CONFIG
// =============================================================================

// Config holds the resolved process configuration.
type Config struct {
	// APIKey is the xAI API bearer credential. Required.
	APIKey string `toml:"api_key"`

	// DatabasePath is the SQLite database file location.
	DatabasePath string `toml:"database_path"`

	// Host and Port are the HTTP API bind address.
	Host string `toml:"host"`
	Port int    `toml:"port"`

	// DefaultModel is used when a request names no model.
	DefaultModel string `toml:"default_model"`
}

// fileConfig mirrors Config for the optional TOML file, with everything
// optional so absent keys fall through to defaults.
type fileConfig struct {
	APIKey       *string `toml:"api_key"`
	DatabasePath *string `toml:"database_path"`
	Host         *string `toml:"host"`
	Port         *int    `toml:"port"`
	DefaultModel *string `toml:"default_model"`
}

// Load resolves the configuration from the config file and environment.
// The XAI_API_KEY credential is required; its absence is a startup-fatal
// ConfigError.
func Load() (*Config, error) {
	cfg := &Config{
		DatabasePath: DefaultDatabasePath,
		Host:         DefaultHost,
		Port:         DefaultPort,
		DefaultModel: DefaultModel,
	}

	if path, err := ConfigFile(); err == nil {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if cfg.APIKey == "" {
		return nil, &ConfigError{Field: "XAI_API_KEY", Reason: "environment variable is required"}
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, &ConfigError{Field: "SERVER_PORT", Reason: fmt.Sprintf("port %d out of range", cfg.Port)}
	}

	return cfg, nil
}

// applyFile overlays values from the TOML config file, if it exists.
func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return &ConfigError{Field: path, Reason: err.Error()}
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return &ConfigError{Field: path, Reason: "invalid TOML: " + err.Error()}
	}

	if fc.APIKey != nil {
		cfg.APIKey = *fc.APIKey
	}
	if fc.DatabasePath != nil {
		cfg.DatabasePath = *fc.DatabasePath
	}
	if fc.Host != nil {
		cfg.Host = *fc.Host
	}
	if fc.Port != nil {
		cfg.Port = *fc.Port
	}
	if fc.DefaultModel != nil {
		cfg.DefaultModel = *fc.DefaultModel
	}
	return nil
}

// applyEnv overlays values from environment variables.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("XAI_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return &ConfigError{Field: "SERVER_PORT", Reason: "invalid value: " + v}
		}
		cfg.Port = port
	}
	if v := os.Getenv("DEFAULT_MODEL"); v != "" {
		cfg.DefaultModel = v
	}
	return nil
}

// Addr returns the host:port bind address for the HTTP server.
func (c *Config) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// APIKeyMasked returns a redacted form of the credential for logs.
// The key itself is never logged.
func (c *Config) APIKeyMasked() string {
	if c.APIKey == "" {
		return "[not set]"
	}
	return fmt.Sprintf("[set, length=%d]", len(c.APIKey))
}

// =============================================================================
// CONFIG DIRECTORY
// =============================================================================

// ConfigDir returns the grokchat configuration directory (~/.grokchat).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".grokchat"), nil
}

// ConfigFile returns the path of the optional TOML config file.
func ConfigFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir creates the configuration directory if needed.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}
