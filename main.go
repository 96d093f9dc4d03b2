// kurisu TUI - terminal client for the KurisuAssistant server.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kurisu-assistant/kurisu-tui/internal/api"
	"github.com/kurisu-assistant/kurisu-tui/internal/config"
	"github.com/kurisu-assistant/kurisu-tui/internal/logging"
	"github.com/kurisu-assistant/kurisu-tui/internal/settings"
	"github.com/kurisu-assistant/kurisu-tui/internal/store"
	"github.com/kurisu-assistant/kurisu-tui/internal/tts"
	"github.com/kurisu-assistant/kurisu-tui/internal/ui/app"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "kurisu: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-v" {
			fmt.Printf("kurisu %s (%s)\n", Version, GitCommit)
			return nil
		}
	}

	logger, logCloser, err := logging.Open()
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logCloser.Close()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	settingsPath, err := config.SettingsPath()
	if err != nil {
		return err
	}
	settingsStore, err := settings.Open(settingsPath)
	if err != nil {
		return fmt.Errorf("open settings: %w", err)
	}
	defer settingsStore.Close()

	client := api.NewClientWithConfig(&api.ClientConfig{
		BaseURL:       cfg.Server.URL,
		Timeout:       time.Duration(cfg.Server.TimeoutSecs) * time.Second,
		StreamTimeout: time.Duration(cfg.Server.StreamTimeoutSecs) * time.Second,
		PageSize:      cfg.Chat.PageSize,
		Logger:        logger,
	})

	authStore := store.NewAuthStore()
	convStore := store.NewConversationStore(cfg.Chat.PageSize)
	player := tts.NewPlayer(cfg.TTS.PlayerCommand, logger)
	defer player.Stop()

	root := app.New(app.Deps{
		Config:   cfg,
		Client:   client,
		Settings: settingsStore,
		Auth:     authStore,
		Conv:     convStore,
		Player:   player,
		Logger:   logger,
	})

	program := tea.NewProgram(root, tea.WithAltScreen())

	// Live config reload: edits to ~/.kurisu/config.toml reach the UI
	// without a restart.
	if configPath, err := config.ConfigPathTOML(); err == nil {
		watcher, err := config.NewWatcher(configPath, 500*time.Millisecond, func(next *config.Config) {
			program.Send(app.ConfigReloadedMsg{Config: next})
		})
		if err != nil {
			logger.Warn().Err(err).Msg("config watcher disabled")
		} else if err := watcher.Watch(); err != nil {
			logger.Warn().Err(err).Msg("config watcher disabled")
		} else {
			defer watcher.Close()
		}
	}

	logger.Info().Str("version", Version).Str("server", cfg.Server.URL).Msg("starting")

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run program: %w", err)
	}
	return nil
}
