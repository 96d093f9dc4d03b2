// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sidebar renders the conversation list: selection, a "new
// conversation" entry, and a confirm-before-delete step.
package sidebar

import (
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kurisu-assistant/kurisu-tui/internal/model"
	"github.com/kurisu-assistant/kurisu-tui/internal/ui/styles"
	"github.com/kurisu-assistant/kurisu-tui/internal/util"
)

// =============================================================================
// SIDEBAR MESSAGES
// =============================================================================

// SelectedMsg reports a conversation chosen from the list.
type SelectedMsg struct {
	Summary model.Summary
}

// NewConversationMsg reports that the "new conversation" entry was chosen.
type NewConversationMsg struct{}

// DeleteRequestedMsg reports a confirmed deletion.
type DeleteRequestedMsg struct {
	ID int64
}

// =============================================================================
// SIDEBAR MODEL
// =============================================================================

// Model is the sidebar state.
type Model struct {
	theme *styles.Theme

	summaries []model.Summary
	cursor    int
	activeID  int64

	// confirmDelete holds the id awaiting a second keypress, 0 when idle.
	confirmDelete int64

	width  int
	height int
}

// New creates an empty sidebar.
func New(theme *styles.Theme) *Model {
	return &Model{theme: theme}
}

// SetSummaries replaces the conversation list, keeping the cursor in
// bounds. Summaries arrive newest first from the server.
func (m *Model) SetSummaries(summaries []model.Summary) {
	m.summaries = summaries
	if m.cursor > len(summaries) {
		m.cursor = len(summaries)
	}
	m.confirmDelete = 0
}

// SetActive marks the conversation currently open in the chat view.
func (m *Model) SetActive(id int64) {
	m.activeID = id
}

// SetSize lays out the sidebar.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Update handles navigation keys. The sidebar only sees key messages
// while it has focus.
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		m.confirmDelete = 0

	case "down", "j":
		if m.cursor < len(m.summaries) {
			m.cursor++
		}
		m.confirmDelete = 0

	case "enter":
		m.confirmDelete = 0
		if m.cursor == 0 {
			return m, func() tea.Msg { return NewConversationMsg{} }
		}
		selected := m.summaries[m.cursor-1]
		return m, func() tea.Msg { return SelectedMsg{Summary: selected} }

	case "d", "delete":
		if m.cursor == 0 {
			return m, nil
		}
		target := m.summaries[m.cursor-1]
		if m.confirmDelete == target.ID {
			// Second press confirms.
			m.confirmDelete = 0
			return m, func() tea.Msg { return DeleteRequestedMsg{ID: target.ID} }
		}
		m.confirmDelete = target.ID

	case "esc":
		m.confirmDelete = 0
	}

	return m, nil
}

// =============================================================================
// SIDEBAR RENDERING
// =============================================================================

// View renders the sidebar.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.theme.SidebarTitle.Render("Conversations"))
	b.WriteString("\n\n")

	itemWidth := m.width - 4
	if itemWidth < 10 {
		itemWidth = 10
	}

	b.WriteString(m.renderItem("+ new conversation", m.cursor == 0, false))
	b.WriteString("\n")

	visible := m.height - 4
	for i, s := range m.summaries {
		if visible > 0 && i >= visible {
			break
		}
		// Original sidebar format: "title (N chunks)".
		line := util.TruncateWidth(s.DisplayTitle(), itemWidth-8) +
			" " + m.theme.SidebarMeta.Render("("+strconv.Itoa(s.ChunkCount)+")")

		selected := m.cursor == i+1
		if selected && m.confirmDelete == s.ID {
			b.WriteString(m.theme.SidebarConfirmDelete.Render("delete? press d again"))
		} else {
			b.WriteString(m.renderItem(line, selected, s.ID == m.activeID))
		}
		b.WriteString("\n")
	}

	return m.theme.Sidebar.Width(m.width).Height(m.height).Render(b.String())
}

func (m *Model) renderItem(line string, selected, active bool) string {
	switch {
	case selected:
		return m.theme.SidebarItemSelected.Render(line)
	case active:
		return m.theme.SidebarItemActive.Render(line)
	default:
		return m.theme.SidebarItem.Render(line)
	}
}
