// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"github.com/kurisu-assistant/kurisu-tui/internal/api"
	"github.com/kurisu-assistant/kurisu-tui/internal/config"
	"github.com/kurisu-assistant/kurisu-tui/internal/model"
)

// =============================================================================
// APP MESSAGES
// =============================================================================

// HealthCheckedMsg reports the startup reachability probe.
type HealthCheckedMsg struct {
	Err error
}

// AuthSucceededMsg reports a completed login, register, or silent
// re-auth. Token is empty for silent re-auth (the client already has it).
type AuthSucceededMsg struct {
	Token      string
	User       *api.User
	RememberMe bool
}

// AuthFailedMsg reports a failed authentication attempt.
type AuthFailedMsg struct {
	Err error
	// FromStoredToken marks a silent re-auth failure, which purges the
	// persisted token instead of showing a form error.
	FromStoredToken bool
}

// LoggedOutMsg reports an explicit logout.
type LoggedOutMsg struct{}

// ConversationsLoadedMsg delivers the sidebar summaries.
type ConversationsLoadedMsg struct {
	Summaries []model.Summary
}

// ConversationsFailedMsg reports a failed summary fetch.
type ConversationsFailedMsg struct {
	Err error
}

// ModelsLoadedMsg delivers the model names for the picker.
type ModelsLoadedMsg struct {
	Models []string
}

// ConversationDeletedMsg reports a completed deletion.
type ConversationDeletedMsg struct {
	ID int64
}

// DeleteFailedMsg reports a failed deletion.
type DeleteFailedMsg struct {
	Err error
}

// ConfigReloadedMsg delivers a config picked up by the live watcher.
type ConfigReloadedMsg struct {
	Config *config.Config
}
