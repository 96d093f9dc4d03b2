// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream reconciles the /chat fragment stream into conversation
// messages. It is a pure state machine: fragments go in one at a time,
// sealed messages and lifecycle notifications come out through hooks.
// Transport and rendering live elsewhere.
package stream

import (
	"errors"

	"github.com/kurisu-assistant/kurisu-tui/internal/api"
	"github.com/kurisu-assistant/kurisu-tui/internal/model"
)

// =============================================================================
// HOOKS
// =============================================================================

// Hooks receive reconciler lifecycle notifications. All hooks are optional
// and are called synchronously from Apply, in fragment order.
type Hooks struct {
	// ConversationAssigned fires when an identity fragment names the
	// conversation. isNew is true when the conversation had no server ID
	// before, which is the cue to refresh the sidebar.
	ConversationAssigned func(conversationID, chunkID int64, isNew bool)

	// MessageSealed fires when a message is finalized, either by a role
	// change, the done marker, or an error.
	MessageSealed func(msg *model.Message)

	// MessageUpdated fires after a delta lands on the active message.
	MessageUpdated func(msg *model.Message)

	// Finished fires once when the done marker arrives.
	Finished func()

	// Failed fires once when the stream ends in an error, after the
	// partial message has been sealed with its annotation.
	Failed func(err error)
}

// =============================================================================
// RECONCILER
// =============================================================================

// Reconciler applies stream fragments to a conversation window.
//
// The first delta adopts the trailing empty placeholder if the view left
// one, so the pending bubble becomes the real message instead of a
// duplicate. A role change seals the active message and opens a fresh one
// with fresh accumulators; sealed messages are never touched again.
// Content and thinking accumulate independently on the active message.
type Reconciler struct {
	conv    *model.Conversation
	current *model.Message
	hooks   Hooks

	chunkID  int64
	finished bool
}

// New creates a reconciler for one send over the given conversation.
// A reconciler is single-use: one instance per stream.
func New(conv *model.Conversation, hooks Hooks) *Reconciler {
	return &Reconciler{
		conv:  conv,
		hooks: hooks,
	}
}

// Apply feeds one fragment into the state machine. Fragments arriving
// after a terminal marker are ignored.
func (r *Reconciler) Apply(fragment api.StreamFragment) {
	if r.finished {
		return
	}

	switch {
	case fragment.Err != nil:
		r.fail(fragment.Err)
	case fragment.Error != "":
		r.fail(errors.New(fragment.Error))
	case fragment.IsIdentity():
		r.assignIdentity(fragment)
	case fragment.IsDelta():
		r.applyDelta(fragment.Message)
	case fragment.Done:
		r.finish()
	}
}

// Active returns the open message the stream is currently writing, or nil.
func (r *Reconciler) Active() *model.Message {
	return r.current
}

// Finished reports whether a terminal fragment has been applied.
func (r *Reconciler) Finished() bool {
	return r.finished
}

// ChunkID returns the server chunk ID for this send, or zero.
func (r *Reconciler) ChunkID() int64 {
	return r.chunkID
}

// =============================================================================
// FRAGMENT HANDLING
// =============================================================================

// assignIdentity records the server-assigned conversation identity.
// Assignment happens at most once; later identity fragments for an
// already-named conversation are ignored.
func (r *Reconciler) assignIdentity(fragment api.StreamFragment) {
	if fragment.ChunkID != nil {
		r.chunkID = *fragment.ChunkID
	}

	isNew := r.conv.IsPending()
	if isNew {
		r.conv.ID = *fragment.ConversationID
	}

	if r.hooks.ConversationAssigned != nil {
		r.hooks.ConversationAssigned(r.conv.ID, r.chunkID, isNew)
	}
}

// applyDelta routes a message fragment to the active message, sealing and
// reopening on role changes.
func (r *Reconciler) applyDelta(delta *api.FragmentMessage) {
	role := model.Role(delta.Role)

	if r.current == nil {
		// First delta: reuse the view's pending placeholder when there is
		// an untouched one, otherwise open a fresh message.
		if open := r.conv.OpenMessage(); open != nil && open.IsPlaceholder() {
			open.Role = role
			r.current = open
		} else {
			r.current = model.NewStreamingMessage(role)
			r.conv.AddMessage(r.current)
		}
	} else if r.current.Role != role {
		r.seal()
		r.current = model.NewStreamingMessage(role)
		r.conv.AddMessage(r.current)
	}

	if delta.Content != "" {
		r.current.AppendContent(delta.Content)
	}
	if delta.Thinking != "" {
		r.current.AppendThinking(delta.Thinking)
	}

	if r.hooks.MessageUpdated != nil {
		r.hooks.MessageUpdated(r.current)
	}
}

// finish handles the done marker: seal whatever is open, notify once.
func (r *Reconciler) finish() {
	r.seal()
	r.finished = true
	if r.hooks.Finished != nil {
		r.hooks.Finished()
	}
}

// fail seals the partial message with an error annotation and stops.
// There is no retry; the user sees what arrived plus the annotation.
func (r *Reconciler) fail(err error) {
	if r.current != nil {
		r.current.SealWithError(err.Error())
		if r.hooks.MessageSealed != nil {
			r.hooks.MessageSealed(r.current)
		}
		r.current = nil
	} else {
		// Nothing accumulated: drop the view's untouched placeholder so
		// an empty bubble does not linger.
		r.conv.DropTrailingPlaceholder()
	}

	r.finished = true
	if r.hooks.Failed != nil {
		r.hooks.Failed(err)
	}
}

// seal finalizes the active message and notifies.
func (r *Reconciler) seal() {
	if r.current == nil {
		return
	}
	r.current.Seal()
	if r.hooks.MessageSealed != nil {
		r.hooks.MessageSealed(r.current)
	}
	r.current = nil
}
