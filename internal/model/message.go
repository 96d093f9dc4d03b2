// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role identifies the sender of a message. The server is free to introduce
// roles this client has never seen ("tool", future agent roles), so Role is
// an open string type: unknown values flow through untouched and render
// with a generic label.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	case RoleTool:
		return "Tool"
	default:
		return string(r)
	}
}

// IsKnown reports whether the role is one the client has dedicated
// rendering for.
func (r Role) IsKnown() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem, RoleTool:
		return true
	}
	return false
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single message in a conversation window.
//
// While a response streams in, the open message accumulates content and
// thinking deltas through builders. Sealing merges the builders into the
// final fields; a sealed message is never written again.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content. Thinking is the model's reasoning channel, kept separate
	// from the answer text.
	Content  string `json:"content"`
	Thinking string `json:"thinking,omitempty"`

	// Streaming state (not persisted)
	// PERFORMANCE: strings.Builder avoids quadratic allocations during streaming
	IsStreaming     bool            `json:"-"`
	streamContent   strings.Builder `json:"-"`
	streamThinking  strings.Builder `json:"-"`

	// Set when a transport failure cut the stream short. The partial
	// content is kept; this carries the annotation shown after it.
	StreamError string `json:"stream_error,omitempty"`

	// Attachments uploaded alongside a user message, by server image UUID.
	ImageIDs []string `json:"image_ids,omitempty"`
}

// NewMessage creates a sealed message with a generated ID.
func NewMessage(role Role, content string) *Message {
	return &Message{
		ID:        generateID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) *Message {
	return NewMessage(RoleUser, content)
}

// NewStreamingMessage creates an open message for the given role.
// Content arrives through AppendContent/AppendThinking until Seal is called.
func NewStreamingMessage(role Role) *Message {
	return &Message{
		ID:          generateID(),
		Role:        role,
		Timestamp:   time.Now(),
		IsStreaming: true,
	}
}

// NewPlaceholderMessage creates an empty open assistant message. The chat
// view appends one of these when a send begins so the reply has somewhere
// to land; the first stream fragment adopts it.
func NewPlaceholderMessage() *Message {
	return NewStreamingMessage(RoleAssistant)
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// AppendContent appends a content delta to an open message.
func (m *Message) AppendContent(delta string) {
	if m.IsStreaming {
		m.streamContent.WriteString(delta)
	}
}

// AppendThinking appends a thinking delta to an open message.
func (m *Message) AppendThinking(delta string) {
	if m.IsStreaming {
		m.streamThinking.WriteString(delta)
	}
}

// Seal finalizes an open message. After sealing, Content and Thinking hold
// everything that accumulated and the message is immutable.
func (m *Message) Seal() {
	if !m.IsStreaming {
		return
	}
	m.Content = m.streamContent.String()
	m.Thinking = m.streamThinking.String()
	m.streamContent.Reset()
	m.streamThinking.Reset()
	m.IsStreaming = false
}

// SealWithError finalizes an open message after a transport failure,
// keeping whatever accumulated and recording the annotation.
func (m *Message) SealWithError(annotation string) {
	m.Seal()
	m.StreamError = annotation
}

// DisplayContent returns the content to display (streaming or final).
func (m *Message) DisplayContent() string {
	if m.IsStreaming {
		return m.streamContent.String()
	}
	return m.Content
}

// DisplayThinking returns the thinking to display (streaming or final).
func (m *Message) DisplayThinking() string {
	if m.IsStreaming {
		return m.streamThinking.String()
	}
	return m.Thinking
}

// IsPlaceholder reports whether the message is still an open placeholder
// with nothing accumulated. Only such messages may be adopted by a stream.
func (m *Message) IsPlaceholder() bool {
	return m.IsStreaming && m.streamContent.Len() == 0 && m.streamThinking.Len() == 0
}

// IsEmpty returns true if the message has no content.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0 && m.streamContent.Len() == 0
}

// Preview returns a truncated preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	content := m.DisplayContent()
	runes := []rune(content)
	if len(runes) <= maxLen {
		return content
	}
	return string(runes[:maxLen-3]) + "..."
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateID creates a unique client-side message ID. Server-assigned
// messages keep the ID the server gave them; only optimistic local
// messages need one minted here.
func generateID() string {
	return "msg_" + uuid.NewString()
}
