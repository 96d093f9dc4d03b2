// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tts plays synthesized speech through an external audio player.
package tts

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// =============================================================================
// AUDIO PLAYER
// =============================================================================

// Player pipes raw audio bytes to an external player command on stdin.
// Only one clip plays at a time; starting a new clip stops the previous one.
type Player struct {
	mu      sync.Mutex
	command string
	logger  zerolog.Logger
	cancel  context.CancelFunc
}

// NewPlayer creates a player around the given command line, e.g.
// "mpv --no-terminal -". The command is split on whitespace.
func NewPlayer(command string, logger zerolog.Logger) *Player {
	return &Player{command: command, logger: logger}
}

// Play starts playback of the audio bytes, stopping any clip in progress.
// It returns once playback has started; the process runs in the background.
func (p *Player) Play(ctx context.Context, audio []byte) error {
	parts := strings.Fields(p.command)
	if len(parts) == 0 {
		return fmt.Errorf("tts: empty player command")
	}

	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	playCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.mu.Unlock()

	cmd := exec.CommandContext(playCtx, parts[0], parts[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("tts: open player stdin: %w", err)
	}

	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("tts: start player %q: %w", parts[0], err)
	}

	go func() {
		defer cancel()
		if _, err := stdin.Write(audio); err != nil {
			p.logger.Warn().Err(err).Msg("tts: write to player failed")
		}
		_ = stdin.Close()
		if err := cmd.Wait(); err != nil && playCtx.Err() == nil {
			p.logger.Warn().Err(err).Str("command", parts[0]).Msg("tts: player exited with error")
		}
	}()

	return nil
}

// Stop terminates any clip currently playing.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}
