// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// CONFIG TESTS
// =============================================================================

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "http://localhost:15597", cfg.Server.URL)
	assert.Equal(t, 300, cfg.Server.StreamTimeoutSecs)
	assert.Equal(t, 50, cfg.Chat.PageSize)
	assert.Equal(t, 20, cfg.UI.TypingIntervalMs)
	assert.True(t, cfg.UI.ShowThinking)
	assert.NoError(t, cfg.Validate())
}

func TestSaveAndLoadTOMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Server.URL = "http://example.com:9000"
	cfg.Chat.PageSize = 25
	cfg.UI.Theme = "light"

	require.NoError(t, SaveTOML(cfg, path))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "http://example.com:9000", loaded.Server.URL)
	assert.Equal(t, 25, loaded.Chat.PageSize)
	assert.Equal(t, "light", loaded.UI.Theme)
}

func TestLoadFillsMissingValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	partial := "[server]\nurl = \"http://example.com:1234\"\n"
	require.NoError(t, os.WriteFile(path, []byte(partial), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "http://example.com:1234", cfg.Server.URL)
	assert.Equal(t, 50, cfg.Chat.PageSize, "missing values get defaults")
	assert.Equal(t, "dark", cfg.UI.Theme)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("KURISU_SERVER_URL", "http://envhost:1111")
	t.Setenv("KURISU_MODEL", "llama3")
	t.Setenv("KURISU_PAGE_SIZE", "10")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "http://envhost:1111", cfg.Server.URL)
	assert.Equal(t, "llama3", cfg.Chat.DefaultModel)
	assert.Equal(t, 10, cfg.Chat.PageSize)
}

func TestEnvOverrideIgnoresBadNumbers(t *testing.T) {
	t.Setenv("KURISU_PAGE_SIZE", "not-a-number")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, 50, cfg.Chat.PageSize)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad url", func(c *Config) { c.Server.URL = "not a url" }},
		{"bad scheme", func(c *Config) { c.Server.URL = "ftp://host" }},
		{"zero page size", func(c *Config) { c.Chat.PageSize = 0 }},
		{"huge page size", func(c *Config) { c.Chat.PageSize = 1000 }},
		{"bad theme", func(c *Config) { c.UI.Theme = "solarized" }},
		{"zero typing interval", func(c *Config) { c.UI.TypingIntervalMs = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadFromPathRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	bad := "[ui]\ntheme = \"solarized\"\n"
	require.NoError(t, os.WriteFile(path, []byte(bad), 0600))

	_, err := LoadFromPath(path)
	assert.Error(t, err)
}

func TestSaveTOMLRestrictsPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, SaveTOML(Default(), path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
