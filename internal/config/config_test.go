// Copyright (c) 2025 The grokchat Authors
// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir()) // keep any real ~/.grokchat/config.toml out
	t.Setenv("XAI_API_KEY", "test-key")
	t.Setenv("DATABASE_PATH", "test.db")
	t.Setenv("SERVER_HOST", "localhost")
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("DEFAULT_MODEL", "grok-3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.APIKey)
	assert.Equal(t, "test.db", cfg.DatabasePath)
	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "grok-3", cfg.DefaultModel)
	assert.Equal(t, "localhost:8080", cfg.Addr())
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XAI_API_KEY", "test-key")
	t.Setenv("DATABASE_PATH", "")
	t.Setenv("SERVER_HOST", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("DEFAULT_MODEL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultDatabasePath, cfg.DatabasePath)
	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultModel, cfg.DefaultModel)
}

func TestLoad_MissingAPIKeyIsFatal(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XAI_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
	assert.Contains(t, err.Error(), "XAI_API_KEY")
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XAI_API_KEY", "test-key")
	t.Setenv("SERVER_PORT", "not-a-port")

	_, err := Load()
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestLoad_FileThenEnvPrecedence(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XAI_API_KEY", "")
	t.Setenv("DATABASE_PATH", "")
	t.Setenv("SERVER_HOST", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("DEFAULT_MODEL", "from-env")

	dir := filepath.Join(home, ".grokchat")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(
		"api_key = \"from-file\"\nport = 4000\ndefault_model = \"from-file\"\n"), 0o600))

	cfg, err := Load()
	require.NoError(t, err)

	// File supplies values env leaves unset; env wins where both are set.
	assert.Equal(t, "from-file", cfg.APIKey)
	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, "from-env", cfg.DefaultModel)
}

func TestAPIKeyMasked(t *testing.T) {
	cfg := &Config{APIKey: "secret-key-value"}
	masked := cfg.APIKeyMasked()
	assert.NotContains(t, masked, "secret")
	assert.Contains(t, masked, "length=16")

	empty := &Config{}
	assert.Equal(t, "[not set]", empty.APIKeyMasked())
}
