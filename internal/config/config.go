// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for the
// kurisu terminal client.
//
// Supports both TOML and JSON configuration formats, with sensible
// defaults, environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.kurisu/config.toml
//   - ~/.kurisu/config.json
//   - Built-in defaults
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/kurisu-assistant/kurisu-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete client configuration.
// Note that per-user state (token, selected model) lives in the settings
// database, not here; config is for things a human edits.
type Config struct {
	// Server settings
	Server ServerConfig `toml:"server" json:"server"`

	// Chat behavior
	Chat ChatConfig `toml:"chat" json:"chat"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`

	// Text-to-speech playback
	TTS TTSConfig `toml:"tts" json:"tts"`
}

// ServerConfig contains backend connection configuration.
type ServerConfig struct {
	// URL is the KurisuAssistant backend base URL
	URL string `toml:"url" json:"url"`
	// TimeoutSecs for non-streaming requests
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// StreamTimeoutSecs is the overall budget for one chat stream
	StreamTimeoutSecs int `toml:"stream_timeout_secs" json:"stream_timeout_secs"`
}

// ChatConfig contains chat behavior configuration.
type ChatConfig struct {
	// PageSize is how many messages one history page fetches
	PageSize int `toml:"page_size" json:"page_size"`
	// DefaultModel requested when no model has been selected yet
	DefaultModel string `toml:"default_model" json:"default_model"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme"`
	// TypingIntervalMs is the typewriter tick interval in milliseconds
	TypingIntervalMs int `toml:"typing_interval_ms" json:"typing_interval_ms"`
	// TypingCharsPerTick is how many characters each tick reveals
	TypingCharsPerTick int `toml:"typing_chars_per_tick" json:"typing_chars_per_tick"`
	// ShowThinking controls whether the thinking channel is rendered
	ShowThinking bool `toml:"show_thinking" json:"show_thinking"`
	// CompactMode uses a more compact UI layout
	CompactMode bool `toml:"compact_mode" json:"compact_mode"`
}

// TTSConfig contains text-to-speech playback configuration.
type TTSConfig struct {
	// Enabled turns on speaking of assistant replies
	Enabled bool `toml:"enabled" json:"enabled"`
	// PlayerCommand is the external command audio bytes are piped to
	// (e.g. "mpv -" or "ffplay -nodisp -autoexit -"). The client does
	// not decode audio itself.
	PlayerCommand string `toml:"player_command" json:"player_command"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL:               "http://localhost:15597",
			TimeoutSecs:       30,
			StreamTimeoutSecs: 300,
		},
		Chat: ChatConfig{
			PageSize:     50,
			DefaultModel: "",
		},
		UI: UIConfig{
			Theme:              "dark",
			TypingIntervalMs:   20,
			TypingCharsPerTick: 2,
			ShowThinking:       true,
			CompactMode:        false,
		},
		TTS: TTSConfig{
			Enabled:       false,
			PlayerCommand: "mpv --no-terminal -",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the kurisu configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".kurisu"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// SettingsPath returns the path to the settings database.
func SettingsPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "settings.db"), nil
}

// LogPath returns the path to the client log file.
func LogPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "client.log"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// SECURITY: Config files should be 0600 (owner read/write only).
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = fmt.Errorf("failed to load JSON config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	cfg, err = finishLoad(cfg)
	if err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// LoadFromPath loads configuration from a specific file path with full
// validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	return finishLoad(cfg)
}

// finishLoad applies env overrides, defaults and validation.
func finishLoad(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
// SECURITY: Checks and fixes file permissions on load.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON loads configuration from a JSON file.
// SECURITY: Checks and fixes file permissions on load.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// fillDefaults fills in any missing values with defaults.
func (c *Config) fillDefaults() {
	defaults := Default()

	if c.Server.URL == "" {
		c.Server.URL = defaults.Server.URL
	}
	if c.Server.TimeoutSecs == 0 {
		c.Server.TimeoutSecs = defaults.Server.TimeoutSecs
	}
	if c.Server.StreamTimeoutSecs == 0 {
		c.Server.StreamTimeoutSecs = defaults.Server.StreamTimeoutSecs
	}
	if c.Chat.PageSize == 0 {
		c.Chat.PageSize = defaults.Chat.PageSize
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.UI.TypingIntervalMs == 0 {
		c.UI.TypingIntervalMs = defaults.UI.TypingIntervalMs
	}
	if c.UI.TypingCharsPerTick == 0 {
		c.UI.TypingCharsPerTick = defaults.UI.TypingCharsPerTick
	}
	if c.TTS.PlayerCommand == "" {
		c.TTS.PlayerCommand = defaults.TTS.PlayerCommand
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies KURISU_* environment variables on top of the
// loaded configuration.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("KURISU_SERVER_URL"); v != "" {
		c.Server.URL = v
	}
	if v := os.Getenv("KURISU_MODEL"); v != "" {
		c.Chat.DefaultModel = v
	}
	if v := os.Getenv("KURISU_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("KURISU_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Chat.PageSize = n
		}
	}
	if v := os.Getenv("KURISU_STREAM_TIMEOUT_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Server.StreamTimeoutSecs = n
		}
	}
	if v := os.Getenv("KURISU_TTS_PLAYER"); v != "" {
		c.TTS.PlayerCommand = v
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	parsed, err := url.Parse(c.Server.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return ValidationError{Field: "server.url", Message: "must be a valid http(s) URL"}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ValidationError{Field: "server.url", Message: "scheme must be http or https"}
	}
	if c.Server.TimeoutSecs < 0 {
		return ValidationError{Field: "server.timeout_secs", Message: "must not be negative"}
	}
	if c.Server.StreamTimeoutSecs < 0 {
		return ValidationError{Field: "server.stream_timeout_secs", Message: "must not be negative"}
	}
	if c.Chat.PageSize < 1 {
		return ValidationError{Field: "chat.page_size", Message: "must be at least 1"}
	}
	if c.Chat.PageSize > 500 {
		return ValidationError{Field: "chat.page_size", Message: "must be at most 500"}
	}
	switch c.UI.Theme {
	case "dark", "light", "auto":
	default:
		return ValidationError{Field: "ui.theme", Message: "must be dark, light, or auto"}
	}
	if c.UI.TypingIntervalMs < 1 || c.UI.TypingIntervalMs > 1000 {
		return ValidationError{Field: "ui.typing_interval_ms", Message: "must be between 1 and 1000"}
	}
	if c.UI.TypingCharsPerTick < 1 {
		return ValidationError{Field: "ui.typing_chars_per_tick", Message: "must be at least 1"}
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// SECURITY: Creates config files with 0600 permissions (owner read/write only).
// RELIABILITY: The write is atomic so a crash mid-save never leaves a
// truncated config behind.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# kurisu client configuration file")
	fmt.Fprintln(&buf, "# Edit with care; the client reloads this file when it changes")
	fmt.Fprintln(&buf, "")

	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
