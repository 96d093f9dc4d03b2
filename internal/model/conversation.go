// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"time"
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// PendingConversationID marks a conversation that has no server identity
// yet. The real ID arrives with the first streamed response.
const PendingConversationID = 0

// Conversation holds the loaded window of a chat conversation plus its
// metadata. Messages is a window, not necessarily the full history: older
// pages are prepended by the store as the user scrolls back.
type Conversation struct {
	// Identity. ID is server-assigned; PendingConversationID until the
	// first response round-trip names the conversation.
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Messages currently loaded, oldest first.
	Messages []*Message `json:"messages"`

	// ChunkCount is the server's total message count, which may exceed
	// len(Messages) when older pages have not been loaded.
	ChunkCount int `json:"chunk_count"`
}

// NewConversation creates an empty pending conversation.
func NewConversation() *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        PendingConversationID,
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  make([]*Message, 0),
	}
}

// IsPending reports whether the conversation still lacks a server ID.
func (c *Conversation) IsPending() bool {
	return c.ID == PendingConversationID
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddMessage appends a message to the window.
func (c *Conversation) AddMessage(msg *Message) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
	c.updateTitle()
}

// AddUserMessage creates and appends a user message.
func (c *Conversation) AddUserMessage(content string) *Message {
	msg := NewUserMessage(content)
	c.AddMessage(msg)
	return msg
}

// AddPlaceholder creates and appends an empty open assistant message.
func (c *Conversation) AddPlaceholder() *Message {
	msg := NewPlaceholderMessage()
	c.AddMessage(msg)
	return msg
}

// PrependMessages inserts an older page before the current window.
func (c *Conversation) PrependMessages(msgs []*Message) {
	if len(msgs) == 0 {
		return
	}
	merged := make([]*Message, 0, len(msgs)+len(c.Messages))
	merged = append(merged, msgs...)
	merged = append(merged, c.Messages...)
	c.Messages = merged
}

// LastMessage returns the most recent message, or nil if empty.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// OpenMessage returns the trailing open message, or nil when the last
// message is sealed.
func (c *Conversation) OpenMessage() *Message {
	last := c.LastMessage()
	if last != nil && last.IsStreaming {
		return last
	}
	return nil
}

// DropTrailingPlaceholder removes the last message if it is still an
// untouched placeholder. Used when a send fails before any fragment lands.
func (c *Conversation) DropTrailingPlaceholder() bool {
	last := c.LastMessage()
	if last == nil || !last.IsPlaceholder() {
		return false
	}
	c.Messages = c.Messages[:len(c.Messages)-1]
	return true
}

// MessageCount returns the number of loaded messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if no messages are loaded.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// =============================================================================
// TITLE MANAGEMENT
// =============================================================================

// updateTitle auto-generates a title from the first user message if not set.
func (c *Conversation) updateTitle() {
	if c.Title != "" {
		return
	}
	for _, msg := range c.Messages {
		if msg.Role == RoleUser {
			c.Title = msg.Preview(50)
			return
		}
	}
}

// SetTitle manually sets the conversation title.
func (c *Conversation) SetTitle(title string) {
	c.Title = title
	c.UpdatedAt = time.Now()
}

// DisplayTitle returns the conversation title or a default.
func (c *Conversation) DisplayTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return "New Conversation"
}

// =============================================================================
// SUMMARY TYPE
// =============================================================================

// Summary is the lightweight listing entry the server returns for the
// conversation sidebar.
type Summary struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DisplayTitle returns the summary title or a default.
func (s Summary) DisplayTitle() string {
	if s.Title != "" {
		return s.Title
	}
	return "New Conversation"
}
