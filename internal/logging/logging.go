// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging sets up the file-backed application logger. The TUI owns
// the terminal, so logs always go to a file rather than stderr.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kurisu-assistant/kurisu-tui/internal/config"
)

// =============================================================================
// LOGGER SETUP
// =============================================================================

// Open creates the application logger writing to ~/.kurisu/client.log.
// The returned closer must be called on shutdown to flush the file.
func Open() (zerolog.Logger, io.Closer, error) {
	if err := config.EnsureConfigDir(); err != nil {
		return zerolog.Nop(), nil, err
	}

	path, err := config.LogPath()
	if err != nil {
		return zerolog.Nop(), nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return zerolog.Nop(), nil, err
	}

	logger := zerolog.New(f).With().Timestamp().Logger().Level(levelFromEnv())
	return logger, f, nil
}

// levelFromEnv reads KURISU_LOG_LEVEL, defaulting to info.
func levelFromEnv() zerolog.Level {
	switch strings.ToLower(os.Getenv("KURISU_LOG_LEVEL")) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
