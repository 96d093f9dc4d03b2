// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kurisu-assistant/kurisu-tui/internal/api"
	"github.com/kurisu-assistant/kurisu-tui/internal/config"
	"github.com/kurisu-assistant/kurisu-tui/internal/model"
	"github.com/kurisu-assistant/kurisu-tui/internal/store"
	"github.com/kurisu-assistant/kurisu-tui/internal/typing"
	"github.com/kurisu-assistant/kurisu-tui/internal/ui/styles"
)

func newTestModel(pageSize int) *Model {
	cfg := config.Default()
	theme := styles.NewTheme(cfg.UI.Theme)
	conv := store.NewConversationStore(pageSize)
	return New(theme, api.NewClient(), conv, nil, cfg, zerolog.Nop())
}

func historyPage(firstID int64, count, total int, hasMore bool) *api.ConversationPage {
	page := &api.ConversationPage{Total: total, HasMore: hasMore}
	for i := 0; i < count; i++ {
		id := firstID + int64(i)
		page.Messages = append(page.Messages, api.ChunkMessage{
			ID:        id,
			Role:      "user",
			Content:   "message " + strconv.FormatInt(id, 10),
			CreatedAt: time.Now(),
		})
	}
	return page
}

func TestTypingRestartsAfterRoleChange(t *testing.T) {
	m := newTestModel(4)
	_ = m.startSend("inspect this file")

	m.mailbox.Put(delta("assistant", "", "let me inspect the file"))
	for i := 0; i < 30; i++ {
		m.handleTick()
	}
	if thinking, _ := m.presenter.Visible(); thinking != "let me inspect the file" {
		t.Fatalf("Expected first message fully revealed, got %q", thinking)
	}

	// Role change: the assistant hands off to a tool. The sealed message
	// keeps its text; the tool message must type from zero, not appear
	// whole.
	m.mailbox.Put(delta("tool", "tool output line", ""))
	m.handleTick()

	thinking, content := m.presenter.Visible()
	if thinking != "" {
		t.Errorf("Expected no thinking for tool message, got %q", thinking)
	}
	if content == "tool output line" {
		t.Error("Expected tool content to animate, got the full text at once")
	}
	if !strings.HasPrefix("tool output line", content) {
		t.Errorf("Expected a prefix of the tool content, got %q", content)
	}
	if n := len([]rune(content)); n > typing.DefaultCharsPerTick {
		t.Errorf("Expected at most %d runes after one tick, got %d", typing.DefaultCharsPerTick, n)
	}

	msgs := m.conv.Conversation().Messages
	sealed := msgs[len(msgs)-2]
	if sealed.Role != model.RoleAssistant || sealed.IsStreaming {
		t.Fatalf("Expected sealed assistant message before the tool message, got role %q streaming=%v", sealed.Role, sealed.IsStreaming)
	}
	if got := sealed.DisplayThinking(); got != "let me inspect the file" {
		t.Errorf("Expected sealed message to keep its thinking, got %q", got)
	}

	// Back to the assistant: thinking reveals before any content.
	m.mailbox.Put(delta("assistant", "sure thing", "weighing the result"))
	m.handleTick()

	thinking, content = m.presenter.Visible()
	if content != "" {
		t.Errorf("Expected no content while thinking is incomplete, got %q", content)
	}
	if !strings.HasPrefix("weighing the result", thinking) || thinking == "" {
		t.Errorf("Expected thinking to start revealing, got %q", thinking)
	}
}

func TestStreamEOFWithoutTerminalSealsMessage(t *testing.T) {
	m := newTestModel(4)
	_ = m.startSend("hello")
	m.Update(StreamStartedMsg{})

	m.mailbox.Put(delta("assistant", "partial answer", ""))
	m.mailbox.Close()
	m.handleTick()

	if m.streaming {
		t.Error("Expected streaming to end when the mailbox closes")
	}
	if !m.reconciler.Finished() {
		t.Error("Expected reconciler to finalize on EOF without a done marker")
	}
	if m.reconciler.Active() != nil {
		t.Error("Expected no active message after finalization")
	}

	last := m.conv.Conversation().LastMessage()
	if last == nil || last.IsStreaming {
		t.Fatal("Expected the open message to be sealed")
	}
	if got := last.DisplayContent(); got != "partial answer" {
		t.Errorf("Expected sealed content %q, got %q", "partial answer", got)
	}
	if last.StreamError != "" {
		t.Errorf("Expected clean seal, got error annotation %q", last.StreamError)
	}
}

func TestOlderPagePreservesScrollPosition(t *testing.T) {
	m := newTestModel(4)
	m.SetSize(80, 12)

	m.Update(ConversationOpenedMsg{
		Summary: model.Summary{ID: 1, Title: "history"},
		Page:    historyPage(5, 4, 8, true),
	})

	// Scrolled to the top, reading the oldest loaded message.
	m.viewport.SetYOffset(0)
	if cmd := m.beginLoadOlder(); cmd == nil {
		t.Fatal("Expected a load command when older history remains")
	}

	before := m.viewport.TotalLineCount()
	m.Update(PageLoadedMsg{Page: historyPage(1, 4, 8, false)})

	added := m.viewport.TotalLineCount() - before
	if added <= 0 {
		t.Fatalf("Expected prepended page to grow the content, delta %d", added)
	}
	if m.viewport.YOffset != added {
		t.Errorf("Expected offset shifted by %d prepended lines, got %d", added, m.viewport.YOffset)
	}
}
