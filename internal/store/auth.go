// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store holds client-side session state.
package store

import (
	"sync"

	"github.com/kurisu-assistant/kurisu-tui/internal/api"
)

// =============================================================================
// AUTH STATE
// =============================================================================

// AuthState is the authentication lifecycle state.
type AuthState int

const (
	// AuthAnonymous: no token, login required.
	AuthAnonymous AuthState = iota
	// AuthAuthenticating: a login or silent re-auth is in flight.
	AuthAuthenticating
	// AuthAuthenticated: a token is installed and the profile is known.
	AuthAuthenticated
	// AuthInvalidToken: a persisted token was rejected; it has been
	// purged and the user must log in again. No automatic retry.
	AuthInvalidToken
)

// String returns a human-readable state name.
func (s AuthState) String() string {
	switch s {
	case AuthAnonymous:
		return "anonymous"
	case AuthAuthenticating:
		return "authenticating"
	case AuthAuthenticated:
		return "authenticated"
	case AuthInvalidToken:
		return "invalid-token"
	default:
		return "unknown"
	}
}

// =============================================================================
// AUTH STORE
// =============================================================================

// AuthStore tracks the authentication lifecycle. It is an explicit handle
// created at startup and passed to whoever needs it; there is no package
// global. The store is thread-safe: transitions come from the UI loop
// while commands read state from goroutines.
//
// Valid transitions:
//
//	anonymous      -> authenticating   (login submitted, or persisted token found)
//	authenticating -> authenticated    (credentials or token accepted)
//	authenticating -> anonymous        (login rejected with fresh credentials)
//	authenticating -> invalid-token    (persisted token rejected; token purged)
//	authenticated  -> anonymous        (logout)
//	invalid-token  -> authenticating   (user logs in again)
type AuthStore struct {
	mu    sync.RWMutex
	state AuthState
	token string
	user  *api.User

	// onChange, if set, runs after every transition with the new state.
	onChange func(AuthState)
}

// NewAuthStore creates an anonymous auth store.
func NewAuthStore() *AuthStore {
	return &AuthStore{state: AuthAnonymous}
}

// SetOnChange installs a transition callback.
func (a *AuthStore) SetOnChange(fn func(AuthState)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onChange = fn
}

// State returns the current lifecycle state.
func (a *AuthStore) State() AuthState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// Token returns the current bearer token, or "".
func (a *AuthStore) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

// User returns the authenticated profile, or nil.
func (a *AuthStore) User() *api.User {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.user
}

// IsAuthenticated reports whether the session is live.
func (a *AuthStore) IsAuthenticated() bool {
	return a.State() == AuthAuthenticated
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// BeginAuth marks a login or silent re-auth as in flight.
func (a *AuthStore) BeginAuth() {
	a.transition(func() {
		a.state = AuthAuthenticating
	})
}

// CompleteAuth installs the accepted token and profile.
func (a *AuthStore) CompleteAuth(token string, user *api.User) {
	a.transition(func() {
		a.state = AuthAuthenticated
		a.token = token
		a.user = user
	})
}

// FailAuth records a rejected authentication attempt. fromStoredToken
// distinguishes a rejected persisted token (invalid-token, token purged)
// from rejected fresh credentials (back to anonymous).
func (a *AuthStore) FailAuth(fromStoredToken bool) {
	a.transition(func() {
		a.token = ""
		a.user = nil
		if fromStoredToken {
			a.state = AuthInvalidToken
		} else {
			a.state = AuthAnonymous
		}
	})
}

// Logout drops the session and returns to anonymous.
func (a *AuthStore) Logout() {
	a.transition(func() {
		a.state = AuthAnonymous
		a.token = ""
		a.user = nil
	})
}

func (a *AuthStore) transition(apply func()) {
	a.mu.Lock()
	apply()
	state := a.state
	fn := a.onChange
	a.mu.Unlock()

	if fn != nil {
		fn(state)
	}
}
