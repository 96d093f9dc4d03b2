// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store holds client-side session state: the loaded conversation
// window with its pagination cursor, and the authentication lifecycle.
// Stores are plain state machines; network fetches happen in the UI's
// command layer and their results are applied here.
package store

import (
	"strconv"

	"github.com/kurisu-assistant/kurisu-tui/internal/api"
	"github.com/kurisu-assistant/kurisu-tui/internal/model"
)

// =============================================================================
// CONVERSATION STORE
// =============================================================================

// ConversationStore owns the active conversation window and its backward
// pagination cursor. The window holds the newest messages; scrolling back
// prepends older pages. Offset counts loaded messages from the tail, so
// it is also the next page's fetch offset.
type ConversationStore struct {
	pageSize int

	conv    *model.Conversation
	offset  int
	total   int
	hasMore bool
	loading bool
}

// NewConversationStore creates a store with an empty pending conversation.
func NewConversationStore(pageSize int) *ConversationStore {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &ConversationStore{
		pageSize: pageSize,
		conv:     model.NewConversation(),
	}
}

// Conversation returns the active conversation window.
func (s *ConversationStore) Conversation() *model.Conversation {
	return s.conv
}

// PageSize returns the configured page size.
func (s *ConversationStore) PageSize() int {
	return s.pageSize
}

// HasMore reports whether older history remains on the server.
func (s *ConversationStore) HasMore() bool {
	return s.hasMore
}

// Total returns the server's total message count for the conversation.
func (s *ConversationStore) Total() int {
	return s.total
}

// IsLoading reports whether a page fetch is in flight.
func (s *ConversationStore) IsLoading() bool {
	return s.loading
}

// LoadedCount returns how many messages the window holds.
func (s *ConversationStore) LoadedCount() int {
	return s.conv.MessageCount()
}

// =============================================================================
// CONVERSATION SWITCHING
// =============================================================================

// StartNew replaces the window with an empty pending conversation and
// resets the cursor.
func (s *ConversationStore) StartNew() {
	s.conv = model.NewConversation()
	s.offset = 0
	s.total = 0
	s.hasMore = false
	s.loading = false
}

// OpenFromPage replaces the window with the newest page of an existing
// conversation. The page is the offset-0 fetch; the cursor advances past
// the messages it delivered.
func (s *ConversationStore) OpenFromPage(summary model.Summary, page *api.ConversationPage) {
	s.conv = &model.Conversation{
		ID:         summary.ID,
		Title:      summary.Title,
		CreatedAt:  summary.CreatedAt,
		UpdatedAt:  summary.UpdatedAt,
		ChunkCount: summary.ChunkCount,
		Messages:   MessagesFromChunks(page.Messages),
	}
	s.offset = len(page.Messages)
	s.total = page.Total
	s.hasMore = pageHasMore(page, s.pageSize, s.offset)
	s.loading = false
}

// =============================================================================
// BACKWARD PAGINATION
// =============================================================================

// BeginLoadOlder claims the next older page. Returns the conversation ID,
// fetch offset and limit, and whether a fetch should actually happen.
// The in-flight flag stays set until ApplyOlderPage or FailLoadOlder, so
// repeated scroll events cannot double-fetch.
func (s *ConversationStore) BeginLoadOlder() (id int64, offset, limit int, ok bool) {
	if s.loading || !s.hasMore || s.conv.IsPending() {
		return 0, 0, 0, false
	}
	s.loading = true
	return s.conv.ID, s.offset, s.pageSize, true
}

// ApplyOlderPage prepends a fetched page and advances the cursor by the
// page's actual length. A short page means the history is exhausted.
func (s *ConversationStore) ApplyOlderPage(page *api.ConversationPage) {
	s.loading = false
	if page == nil {
		return
	}

	s.conv.PrependMessages(MessagesFromChunks(page.Messages))
	s.offset += len(page.Messages)
	if page.Total > 0 {
		s.total = page.Total
	}
	s.hasMore = pageHasMore(page, s.pageSize, s.offset)
}

// FailLoadOlder releases the in-flight flag after a failed fetch. The
// cursor is untouched so the same page can be retried by scrolling again.
func (s *ConversationStore) FailLoadOlder() {
	s.loading = false
}

// pageHasMore decides whether older history remains after a fetch.
// A page shorter than requested always means exhaustion, whatever the
// server's flag said; otherwise the flag decides, bounded by total.
func pageHasMore(page *api.ConversationPage, limit, loaded int) bool {
	if len(page.Messages) < limit {
		return false
	}
	if page.Total > 0 && loaded >= page.Total {
		return false
	}
	return page.HasMore
}

// =============================================================================
// CONVERSION
// =============================================================================

// MessagesFromChunks converts stored server messages into sealed window
// messages, preserving order.
func MessagesFromChunks(chunks []api.ChunkMessage) []*model.Message {
	msgs := make([]*model.Message, 0, len(chunks))
	for _, chunk := range chunks {
		msg := &model.Message{
			ID:        "srv_" + strconv.FormatInt(chunk.ID, 10),
			Role:      model.Role(chunk.Role),
			Content:   chunk.Content,
			Thinking:  chunk.Thinking,
			ImageIDs:  chunk.ImageIDs,
			Timestamp: chunk.CreatedAt,
		}
		msgs = append(msgs, msg)
	}
	return msgs
}
