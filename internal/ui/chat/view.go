// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kurisu-assistant/kurisu-tui/internal/model"
	"github.com/kurisu-assistant/kurisu-tui/internal/util"
)

// =============================================================================
// CHAT RENDERING
// =============================================================================

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.renderInput())

	return b.String()
}

func (m *Model) renderHeader() string {
	title := m.conv.Conversation().DisplayTitle()
	header := m.theme.HeaderTitle.Render(util.TruncateWidth(title, m.width-20))
	if m.conv.HasMore() {
		header += "  " + m.theme.HeaderSubtitle.Render("pgup: older messages")
	}
	return header
}

func (m *Model) renderInput() string {
	var b strings.Builder
	if len(m.attachments) > 0 {
		badges := make([]string, 0, len(m.attachments))
		for _, att := range m.attachments {
			badges = append(badges, m.theme.AttachmentBadge.Render("img: "+filepath.Base(att.Path)))
		}
		b.WriteString(strings.Join(badges, " "))
		b.WriteString("\n")
	}
	b.WriteString(m.theme.InputContainer.Width(m.width - 2).Render(m.input.View()))
	return b.String()
}

// refreshViewport re-renders the message window into the viewport.
func (m *Model) refreshViewport(follow bool) {
	wasAtBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderMessages())
	if follow || wasAtBottom {
		m.viewport.GotoBottom()
	}
}

func (m *Model) renderMessages() string {
	conv := m.conv.Conversation()
	if conv.IsEmpty() {
		return m.theme.ThinkingText.Render("\n  Start a conversation. Enter sends; /attach <path> queues an image.")
	}

	active := m.activeMessage()

	blocks := make([]string, 0, conv.MessageCount())
	if m.conv.IsLoading() {
		blocks = append(blocks, m.theme.ThinkingText.Render(m.spin.View()+" loading older messages..."))
	}
	for _, msg := range conv.Messages {
		blocks = append(blocks, m.renderMessage(msg, msg == active))
	}
	return strings.Join(blocks, "\n\n")
}

// activeMessage returns the streaming message the presenter animates,
// or nil when nothing is streaming.
func (m *Model) activeMessage() *model.Message {
	if m.reconciler == nil {
		return nil
	}
	return m.reconciler.Active()
}

func (m *Model) renderMessage(msg *model.Message, isActive bool) string {
	label := m.roleLabel(msg.Role)

	if msg.IsPlaceholder() {
		return label + "\n" + m.theme.ThinkingText.Render(m.spin.View()+" thinking...")
	}

	thinking := msg.DisplayThinking()
	content := msg.DisplayContent()
	if isActive {
		// The presenter gates what is visible while streaming.
		thinking, content = m.presenter.Visible()
	}

	width := m.width - 4
	if width < 20 {
		width = 20
	}

	var b strings.Builder
	b.WriteString(label)
	b.WriteString(" ")
	b.WriteString(m.theme.Timestamp.Render(msg.Timestamp.Format("15:04")))

	if m.showThinking && thinking != "" {
		b.WriteString("\n")
		b.WriteString(m.theme.ThinkingMarker.Render("┄ thinking"))
		b.WriteString("\n")
		b.WriteString(m.theme.ThinkingBody.Width(width).Render(thinking))
	}

	if content != "" {
		b.WriteString("\n")
		body := m.theme.MessageBody.Width(width).Render(content)
		if isActive {
			body += m.theme.StreamCursor.Render("▌")
		}
		b.WriteString(body)
	}

	if len(msg.ImageIDs) > 0 {
		b.WriteString("\n")
		b.WriteString(m.theme.Timestamp.Render("attachments: " + strings.Join(msg.ImageIDs, ", ")))
	}

	if msg.StreamError != "" {
		b.WriteString("\n")
		b.WriteString(m.theme.MessageError.Render("⚠ " + msg.StreamError))
	}

	return b.String()
}

func (m *Model) roleLabel(role model.Role) string {
	name := role.DisplayName()
	switch role {
	case model.RoleUser:
		return m.theme.UserLabel.Render(name)
	case model.RoleAssistant:
		return m.theme.AssistantLabel.Render(name)
	case model.RoleSystem:
		return m.theme.SystemLabel.Render(name)
	case model.RoleTool:
		return m.theme.ToolLabel.Render(name)
	default:
		return lipgloss.NewStyle().Bold(true).Render(name)
	}
}
