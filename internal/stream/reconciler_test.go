// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"testing"

	"github.com/kurisu-assistant/kurisu-tui/internal/api"
	"github.com/kurisu-assistant/kurisu-tui/internal/model"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func deltaFragment(role, content, thinking string) api.StreamFragment {
	return api.StreamFragment{
		Message: &api.FragmentMessage{Role: role, Content: content, Thinking: thinking},
	}
}

func identityFragment(convID, chunkID int64) api.StreamFragment {
	return api.StreamFragment{ConversationID: &convID, ChunkID: &chunkID}
}

func doneFragment() api.StreamFragment {
	return api.StreamFragment{Done: true}
}

// =============================================================================
// RECONCILER TESTS
// =============================================================================

func TestReconcilerAccumulatesSameRole(t *testing.T) {
	conv := model.NewConversation()
	r := New(conv, Hooks{})

	r.Apply(deltaFragment("assistant", "Hel", ""))
	r.Apply(deltaFragment("assistant", "lo", ""))
	r.Apply(doneFragment())

	if conv.MessageCount() != 1 {
		t.Fatalf("Expected 1 message, got %d", conv.MessageCount())
	}
	msg := conv.Messages[0]
	if msg.Content != "Hello" {
		t.Errorf("Expected concatenated content 'Hello', got %q", msg.Content)
	}
	if msg.IsStreaming {
		t.Error("Expected message sealed after done")
	}
}

func TestReconcilerRoleChangeSealsAndReopens(t *testing.T) {
	conv := model.NewConversation()
	var sealed []*model.Message
	r := New(conv, Hooks{
		MessageSealed: func(m *model.Message) { sealed = append(sealed, m) },
	})

	r.Apply(deltaFragment("assistant", "thinking about it", ""))
	r.Apply(deltaFragment("tool", "tool output", ""))
	r.Apply(deltaFragment("assistant", "final answer", ""))
	r.Apply(doneFragment())

	if conv.MessageCount() != 3 {
		t.Fatalf("Expected 3 messages for assistant/tool/assistant, got %d", conv.MessageCount())
	}
	if len(sealed) != 3 {
		t.Fatalf("Expected 3 seal notifications, got %d", len(sealed))
	}

	roles := []model.Role{model.RoleAssistant, model.RoleTool, model.RoleAssistant}
	contents := []string{"thinking about it", "tool output", "final answer"}
	for i, msg := range conv.Messages {
		if msg.Role != roles[i] {
			t.Errorf("Message %d: expected role %s, got %s", i, roles[i], msg.Role)
		}
		if msg.Content != contents[i] {
			t.Errorf("Message %d: expected content %q, got %q", i, contents[i], msg.Content)
		}
		if msg.IsStreaming {
			t.Errorf("Message %d should be sealed", i)
		}
	}
}

func TestReconcilerThinkingAccumulatesIndependently(t *testing.T) {
	conv := model.NewConversation()
	r := New(conv, Hooks{})

	r.Apply(deltaFragment("assistant", "", "step one. "))
	r.Apply(deltaFragment("assistant", "answer", "step two."))
	r.Apply(deltaFragment("assistant", " text", ""))
	r.Apply(doneFragment())

	msg := conv.Messages[0]
	if msg.Thinking != "step one. step two." {
		t.Errorf("Expected accumulated thinking, got %q", msg.Thinking)
	}
	if msg.Content != "answer text" {
		t.Errorf("Expected accumulated content, got %q", msg.Content)
	}
}

func TestReconcilerAdoptsPlaceholder(t *testing.T) {
	conv := model.NewConversation()
	conv.AddUserMessage("hi")
	placeholder := conv.AddPlaceholder()

	r := New(conv, Hooks{})
	r.Apply(deltaFragment("assistant", "hello", ""))

	if conv.MessageCount() != 2 {
		t.Fatalf("Expected placeholder reuse, got %d messages", conv.MessageCount())
	}
	if r.Active() != placeholder {
		t.Error("Expected the placeholder to become the active message")
	}
}

func TestReconcilerIgnoresUsedPlaceholder(t *testing.T) {
	conv := model.NewConversation()
	open := conv.AddPlaceholder()
	open.AppendContent("already has text")

	r := New(conv, Hooks{})
	r.Apply(deltaFragment("assistant", "new", ""))

	if conv.MessageCount() != 2 {
		t.Fatalf("Expected a fresh message alongside the used one, got %d", conv.MessageCount())
	}
}

func TestReconcilerAssignsConversationOnce(t *testing.T) {
	conv := model.NewConversation()
	var gotID int64
	var gotNew bool
	calls := 0
	r := New(conv, Hooks{
		ConversationAssigned: func(id, chunk int64, isNew bool) {
			gotID, gotNew = id, isNew
			calls++
		},
	})

	r.Apply(identityFragment(17, 204))
	if conv.ID != 17 {
		t.Errorf("Expected conversation ID 17, got %d", conv.ID)
	}
	if !gotNew || gotID != 17 {
		t.Errorf("Expected new-conversation notification for 17, got id=%d new=%v", gotID, gotNew)
	}
	if r.ChunkID() != 204 {
		t.Errorf("Expected chunk ID 204, got %d", r.ChunkID())
	}

	// A second identity fragment must not rename the conversation.
	r.Apply(identityFragment(99, 205))
	if conv.ID != 17 {
		t.Errorf("Conversation was renamed to %d", conv.ID)
	}
	if calls != 2 || gotNew {
		t.Errorf("Second assignment should notify with isNew=false, calls=%d new=%v", calls, gotNew)
	}
}

func TestReconcilerErrorSealsPartialWithAnnotation(t *testing.T) {
	conv := model.NewConversation()
	var failed error
	r := New(conv, Hooks{
		Failed: func(err error) { failed = err },
	})

	r.Apply(deltaFragment("assistant", "partial answ", ""))
	r.Apply(api.StreamFragment{Error: "backend exploded"})

	msg := conv.Messages[0]
	if msg.Content != "partial answ" {
		t.Errorf("Expected partial content kept, got %q", msg.Content)
	}
	if msg.StreamError != "backend exploded" {
		t.Errorf("Expected error annotation, got %q", msg.StreamError)
	}
	if failed == nil || failed.Error() != "backend exploded" {
		t.Errorf("Expected Failed hook, got %v", failed)
	}
	if !r.Finished() {
		t.Error("Expected reconciler finished after error")
	}
}

func TestReconcilerErrorBeforeAnyDeltaDropsPlaceholder(t *testing.T) {
	conv := model.NewConversation()
	conv.AddUserMessage("hi")
	conv.AddPlaceholder()

	r := New(conv, Hooks{})
	r.Apply(api.StreamFragment{Error: "connect refused"})

	if conv.MessageCount() != 1 {
		t.Errorf("Expected empty placeholder dropped, got %d messages", conv.MessageCount())
	}
}

func TestReconcilerIgnoresFragmentsAfterDone(t *testing.T) {
	conv := model.NewConversation()
	finishes := 0
	r := New(conv, Hooks{Finished: func() { finishes++ }})

	r.Apply(deltaFragment("assistant", "done deal", ""))
	r.Apply(doneFragment())
	r.Apply(deltaFragment("assistant", " extra", ""))
	r.Apply(doneFragment())

	if conv.Messages[0].Content != "done deal" {
		t.Errorf("Fragments after done must be ignored, got %q", conv.Messages[0].Content)
	}
	if finishes != 1 {
		t.Errorf("Expected exactly one finish, got %d", finishes)
	}
}

func TestReconcilerUnknownRolePassesThrough(t *testing.T) {
	conv := model.NewConversation()
	r := New(conv, Hooks{})

	r.Apply(deltaFragment("planner", "plan step", ""))
	r.Apply(doneFragment())

	if conv.Messages[0].Role != model.Role("planner") {
		t.Errorf("Expected unknown role preserved, got %s", conv.Messages[0].Role)
	}
}
