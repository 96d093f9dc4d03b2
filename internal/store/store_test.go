// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurisu-assistant/kurisu-tui/internal/api"
	"github.com/kurisu-assistant/kurisu-tui/internal/model"
)

// =============================================================================
// CONVERSATION STORE TESTS
// =============================================================================

func makeChunks(start, count int) []api.ChunkMessage {
	chunks := make([]api.ChunkMessage, 0, count)
	for i := 0; i < count; i++ {
		chunks = append(chunks, api.ChunkMessage{
			ID:        int64(start + i),
			Role:      "user",
			Content:   "message",
			CreatedAt: time.Now(),
		})
	}
	return chunks
}

func TestOpenFromPageSetsWindowAndCursor(t *testing.T) {
	s := NewConversationStore(50)
	summary := model.Summary{ID: 7, Title: "greetings", ChunkCount: 120}
	page := &api.ConversationPage{
		Messages: makeChunks(70, 50),
		Total:    120,
		HasMore:  true,
	}

	s.OpenFromPage(summary, page)

	assert.Equal(t, int64(7), s.Conversation().ID)
	assert.Equal(t, 50, s.LoadedCount())
	assert.Equal(t, 120, s.Total())
	assert.True(t, s.HasMore())
}

func TestBeginLoadOlderGuards(t *testing.T) {
	s := NewConversationStore(50)

	// Pending conversation: nothing to page
	_, _, _, ok := s.BeginLoadOlder()
	assert.False(t, ok, "pending conversation must not page")

	s.OpenFromPage(model.Summary{ID: 3}, &api.ConversationPage{
		Messages: makeChunks(0, 50), Total: 120, HasMore: true,
	})

	id, offset, limit, ok := s.BeginLoadOlder()
	require.True(t, ok)
	assert.Equal(t, int64(3), id)
	assert.Equal(t, 50, offset)
	assert.Equal(t, 50, limit)

	// In-flight guard: a second begin is refused until the first settles
	_, _, _, ok = s.BeginLoadOlder()
	assert.False(t, ok, "double fetch while in flight")
	assert.True(t, s.IsLoading())
}

func TestApplyOlderPagePrependsAndAdvances(t *testing.T) {
	s := NewConversationStore(50)
	s.OpenFromPage(model.Summary{ID: 3}, &api.ConversationPage{
		Messages: makeChunks(50, 50), Total: 120, HasMore: true,
	})

	_, _, _, ok := s.BeginLoadOlder()
	require.True(t, ok)

	older := &api.ConversationPage{Messages: makeChunks(0, 50), Total: 120, HasMore: true}
	s.ApplyOlderPage(older)

	assert.Equal(t, 100, s.LoadedCount())
	assert.False(t, s.IsLoading())
	assert.True(t, s.HasMore())

	// Older page sits before the newer window
	assert.Equal(t, "srv_0", s.Conversation().Messages[0].ID)

	// Next begin uses the advanced cursor
	_, offset, _, ok := s.BeginLoadOlder()
	require.True(t, ok)
	assert.Equal(t, 100, offset)
}

func TestShortPageExhaustsHistory(t *testing.T) {
	s := NewConversationStore(50)
	s.OpenFromPage(model.Summary{ID: 3}, &api.ConversationPage{
		Messages: makeChunks(20, 50), Total: 70, HasMore: true,
	})

	_, _, _, ok := s.BeginLoadOlder()
	require.True(t, ok)

	// Final page is shorter than requested: hasMore goes false even if
	// the server forgot to clear its flag.
	s.ApplyOlderPage(&api.ConversationPage{Messages: makeChunks(0, 20), Total: 70, HasMore: true})

	assert.False(t, s.HasMore())
	_, _, _, ok = s.BeginLoadOlder()
	assert.False(t, ok, "exhausted history must not page")
}

func TestFailLoadOlderAllowsRetry(t *testing.T) {
	s := NewConversationStore(50)
	s.OpenFromPage(model.Summary{ID: 3}, &api.ConversationPage{
		Messages: makeChunks(50, 50), Total: 120, HasMore: true,
	})

	_, firstOffset, _, ok := s.BeginLoadOlder()
	require.True(t, ok)
	s.FailLoadOlder()

	// Cursor untouched: same page on retry
	_, retryOffset, _, ok := s.BeginLoadOlder()
	require.True(t, ok)
	assert.Equal(t, firstOffset, retryOffset)
}

func TestStartNewResetsEverything(t *testing.T) {
	s := NewConversationStore(50)
	s.OpenFromPage(model.Summary{ID: 3}, &api.ConversationPage{
		Messages: makeChunks(0, 50), Total: 120, HasMore: true,
	})

	s.StartNew()

	assert.True(t, s.Conversation().IsPending())
	assert.Equal(t, 0, s.LoadedCount())
	assert.False(t, s.HasMore())
	assert.False(t, s.IsLoading())
}

// =============================================================================
// AUTH STORE TESTS
// =============================================================================

func TestAuthHappyPath(t *testing.T) {
	a := NewAuthStore()
	assert.Equal(t, AuthAnonymous, a.State())

	a.BeginAuth()
	assert.Equal(t, AuthAuthenticating, a.State())

	a.CompleteAuth("tok", &api.User{Username: "kurisu"})
	assert.Equal(t, AuthAuthenticated, a.State())
	assert.Equal(t, "tok", a.Token())
	assert.Equal(t, "kurisu", a.User().Username)
	assert.True(t, a.IsAuthenticated())
}

func TestAuthRejectedStoredTokenPurges(t *testing.T) {
	a := NewAuthStore()
	a.BeginAuth()
	a.FailAuth(true)

	assert.Equal(t, AuthInvalidToken, a.State())
	assert.Empty(t, a.Token(), "rejected persisted token must be purged")
	assert.Nil(t, a.User())
}

func TestAuthRejectedCredentialsReturnToAnonymous(t *testing.T) {
	a := NewAuthStore()
	a.BeginAuth()
	a.FailAuth(false)

	assert.Equal(t, AuthAnonymous, a.State())
}

func TestAuthLogout(t *testing.T) {
	a := NewAuthStore()
	a.BeginAuth()
	a.CompleteAuth("tok", &api.User{Username: "kurisu"})

	a.Logout()
	assert.Equal(t, AuthAnonymous, a.State())
	assert.Empty(t, a.Token())
}

func TestAuthOnChangeCallback(t *testing.T) {
	a := NewAuthStore()
	var seen []AuthState
	a.SetOnChange(func(s AuthState) { seen = append(seen, s) })

	a.BeginAuth()
	a.CompleteAuth("tok", nil)
	a.Logout()

	require.Len(t, seen, 3)
	assert.Equal(t, []AuthState{AuthAuthenticating, AuthAuthenticated, AuthAnonymous}, seen)
}

func TestAuthStateString(t *testing.T) {
	assert.Equal(t, "anonymous", AuthAnonymous.String())
	assert.Equal(t, "invalid-token", AuthInvalidToken.String())
}
