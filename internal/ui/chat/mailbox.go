// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"

	"github.com/kurisu-assistant/kurisu-tui/internal/api"
)

// =============================================================================
// FRAGMENT MAILBOX
// =============================================================================

// Mailbox decouples the network rate from the presentation rate. It is a
// latest-value slot, not a queue: consecutive deltas for the same role are
// merged into one accumulated fragment, so when the UI tick takes the
// pending state it sees only the newest accumulated value, no matter how
// many fragments arrived since the last take. Role changes and identity,
// done, and error markers are the only things that force an additional
// entry, because their relative order matters.
//
// The stream goroutine owns Put; the update loop owns Take.
type Mailbox struct {
	mu      sync.Mutex
	pending []api.StreamFragment
	closed  bool
}

// NewMailbox creates an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{}
}

// Put merges a fragment into the pending state. Fragments put after Close
// are dropped.
func (m *Mailbox) Put(fragment api.StreamFragment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}

	if fragment.IsDelta() && len(m.pending) > 0 {
		last := &m.pending[len(m.pending)-1]
		if last.IsDelta() && last.Message.Role == fragment.Message.Role {
			// Same role run: coalesce into the accumulated value.
			last.Message.Content += fragment.Message.Content
			last.Message.Thinking += fragment.Message.Thinking
			return
		}
	}

	m.pending = append(m.pending, fragment)
}

// Take removes and returns the pending state, along with whether the
// producer has closed the mailbox and nothing remains. A nil slice means
// nothing arrived since the last take.
func (m *Mailbox) Take() (fragments []api.StreamFragment, done bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fragments = m.pending
	m.pending = nil
	return fragments, m.closed
}

// Close marks the stream as finished. Pending state remains takeable.
func (m *Mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

// Closed reports whether the producer has finished.
func (m *Mailbox) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
