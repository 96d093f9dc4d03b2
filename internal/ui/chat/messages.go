// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/kurisu-assistant/kurisu-tui/internal/api"
	"github.com/kurisu-assistant/kurisu-tui/internal/model"
)

// =============================================================================
// CHAT MESSAGES - tea.Msg values flowing through the chat view
// =============================================================================

// TickMsg drives the typing presenter and the mailbox drain. It fires at
// the configured typing interval while a stream or animation is active.
type TickMsg struct {
	Time time.Time
}

// StreamStartedMsg reports that image uploads finished and the fragment
// stream goroutine is running.
type StreamStartedMsg struct{}

// SendFailedMsg reports that the send pipeline failed before the stream
// opened, e.g. an image upload error.
type SendFailedMsg struct {
	Err error
}

// ConversationAssignedMsg bubbles up to the app when the server names a
// conversation that was pending, so the sidebar can refresh.
type ConversationAssignedMsg struct {
	ConversationID int64
}

// StreamFinishedMsg reports that the done marker arrived and the sealed
// display has been held for the post-stream beat.
type StreamFinishedMsg struct{}

// CompleteClearMsg clears the "response complete" indicator.
type CompleteClearMsg struct{}

// ConversationOpenedMsg delivers a conversation selected in the sidebar
// together with its newest message page.
type ConversationOpenedMsg struct {
	Summary model.Summary
	Page    *api.ConversationPage
}

// OpenFailedMsg reports that fetching a selected conversation failed.
type OpenFailedMsg struct {
	Err error
}

// PageLoadedMsg delivers an older message page for the open conversation.
type PageLoadedMsg struct {
	Page *api.ConversationPage
}

// PageFailedMsg reports a failed older-page fetch; the cursor is rolled
// back so scrolling up can retry.
type PageFailedMsg struct {
	Err error
}

// SpeakFailedMsg reports a TTS synthesis or playback startup failure.
type SpeakFailedMsg struct {
	Err error
}
