// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the KurisuAssistant backend.
package api

import "time"

// =============================================================================
// AUTH TYPES
// =============================================================================

// LoginRequest is the credential payload for /login and /register.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is returned by /login and /register on success.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// User is the profile returned by /users/me.
type User struct {
	Username   string `json:"username"`
	FullName   string `json:"full_name,omitempty"`
	Email      string `json:"email,omitempty"`
	AvatarUUID string `json:"avatar_uuid,omitempty"`
}

// UserUpdate is the mutable subset of the profile, sent to PUT /users/me.
type UserUpdate struct {
	FullName *string `json:"full_name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
}

// =============================================================================
// CONVERSATION TYPES
// =============================================================================

// ConversationSummary is a sidebar listing entry from GET /conversations.
type ConversationSummary struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ChunkMessage is one stored message inside a conversation page.
type ChunkMessage struct {
	ID        int64     `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Thinking  string    `json:"thinking,omitempty"`
	ImageIDs  []string  `json:"image_ids,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversationPage is one window of history from
// GET /conversations/{id}?limit=&offset=. Offsets count back from the
// newest message: offset 0 with limit 50 is the most recent 50.
type ConversationPage struct {
	Messages []ChunkMessage `json:"messages"`
	Total    int            `json:"total"`
	HasMore  bool           `json:"has_more"`
}

// =============================================================================
// STREAM FRAGMENT TYPES
// =============================================================================

// FragmentMessage is the message half of a stream fragment. Content and
// Thinking are deltas, not running totals.
type FragmentMessage struct {
	Role     string `json:"role"`
	Content  string `json:"content"`
	Thinking string `json:"thinking,omitempty"`
}

// StreamFragment is one NDJSON line from POST /chat. Exactly one of the
// payload shapes is populated per line:
//   - Message: a content/thinking delta for the named role
//   - ConversationID/ChunkID: identifier assignment for a new conversation
//   - Done: terminal marker
//   - Error: server-reported failure, also terminal
//
// Err is set by the transport layer (not the wire) when the stream itself
// failed partway.
type StreamFragment struct {
	Message        *FragmentMessage `json:"message,omitempty"`
	ConversationID *int64           `json:"conversation_id,omitempty"`
	ChunkID        *int64           `json:"chunk_id,omitempty"`
	Done           bool             `json:"done,omitempty"`
	Error          string           `json:"error,omitempty"`

	Err error `json:"-"`
}

// IsDelta reports whether the fragment carries message content.
func (f StreamFragment) IsDelta() bool {
	return f.Message != nil
}

// IsIdentity reports whether the fragment assigns conversation identity.
func (f StreamFragment) IsIdentity() bool {
	return f.ConversationID != nil
}

// IsTerminal reports whether no further fragments will follow.
func (f StreamFragment) IsTerminal() bool {
	return f.Done || f.Error != "" || f.Err != nil
}

// =============================================================================
// MODEL TYPES
// =============================================================================

// ModelsResponse is the payload of GET /models.
type ModelsResponse struct {
	Models []string `json:"models"`
}

// =============================================================================
// IMAGE TYPES
// =============================================================================

// ImageUploadResponse is returned by POST /images.
type ImageUploadResponse struct {
	UUID string `json:"uuid"`
}

// =============================================================================
// TTS TYPES
// =============================================================================

// TTSRequest asks the server to synthesize speech for a piece of text.
type TTSRequest struct {
	Text    string `json:"text"`
	Voice   string `json:"voice,omitempty"`
	Backend string `json:"backend,omitempty"`
}

// VoicesResponse is the payload of GET /tts/voices.
type VoicesResponse struct {
	Voices []string `json:"voices"`
}

// BackendsResponse is the payload of GET /tts/backends.
type BackendsResponse struct {
	Backends []string `json:"backends"`
}

// =============================================================================
// ERROR PAYLOAD
// =============================================================================

// serverError is the error body the backend returns on non-2xx responses.
type serverError struct {
	Detail string `json:"detail"`
}
