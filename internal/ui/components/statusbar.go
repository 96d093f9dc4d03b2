// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/kurisu-assistant/kurisu-tui/internal/ui/styles"
	"github.com/kurisu-assistant/kurisu-tui/internal/util"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Status represents the current application activity.
type Status int

const (
	StatusReady Status = iota
	StatusStreaming
	StatusThinking
	StatusLoading
	StatusComplete
	StatusError
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusStreaming:
		return "Streaming..."
	case StatusThinking:
		return "Thinking..."
	case StatusLoading:
		return "Loading..."
	case StatusComplete:
		return "✓ response complete"
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// StatusBar is the bottom status line: connection, user, model, activity,
// and keyboard shortcuts when space allows.
type StatusBar struct {
	Connected  bool
	Username   string
	ModelName  string
	TTSEnabled bool
	Status     Status
	Width      int

	theme *styles.Theme
}

// NewStatusBar creates a status bar bound to the theme.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		Status: StatusReady,
		Width:  80,
		theme:  theme,
	}
}

// SetWidth updates the available width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// View renders the status bar.
func (s *StatusBar) View() string {
	var left []string

	if s.Connected {
		left = append(left, s.theme.StatusConnOK.Render("● online"))
	} else {
		left = append(left, s.theme.StatusConnBad.Render("○ offline"))
	}

	if s.Username != "" {
		left = append(left, s.Username)
	}

	if s.ModelName != "" {
		left = append(left, s.theme.StatusModel.Render(s.ModelName))
	}

	if s.TTSEnabled {
		left = append(left, "tts")
	}

	switch s.Status {
	case StatusComplete:
		left = append(left, s.theme.StatusComplete.Render(s.Status.String()))
	case StatusError:
		left = append(left, s.theme.StatusConnBad.Render(s.Status.String()))
	default:
		left = append(left, s.Status.String())
	}

	leftText := strings.Join(left, "  │  ")

	rightText := ""
	if s.Width >= 100 {
		rightText = s.shortcuts()
	}

	gap := s.Width - util.StringWidth(leftText) - util.StringWidth(rightText) - 2
	if gap < 1 {
		gap = 1
		rightText = ""
	}

	line := leftText + strings.Repeat(" ", gap) + rightText
	return s.theme.StatusBar.Width(s.Width).Render(util.TruncateWidth(line, s.Width-2))
}

func (s *StatusBar) shortcuts() string {
	pairs := []struct{ key, desc string }{
		{"ctrl+n", "new"},
		{"ctrl+p", "model"},
		{"tab", "sidebar"},
		{"ctrl+c", "quit"},
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts,
			s.theme.ShortcutKey.Render(p.key)+" "+s.theme.ShortcutDesc.Render(p.desc))
	}
	return strings.Join(parts, "  ")
}
