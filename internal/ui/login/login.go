// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package login implements the login/register form shown while the
// session is anonymous.
package login

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kurisu-assistant/kurisu-tui/internal/ui/styles"
)

// =============================================================================
// LOGIN MESSAGES
// =============================================================================

// SubmitMsg carries the credentials when the form is submitted.
type SubmitMsg struct {
	Username   string
	Password   string
	Register   bool
	RememberMe bool
}

// =============================================================================
// LOGIN MODEL
// =============================================================================

const (
	fieldUsername = iota
	fieldPassword
	fieldRemember
	fieldCount
)

// Model is the login form state.
type Model struct {
	theme *styles.Theme

	username textinput.Model
	password textinput.Model

	registerTab bool
	rememberMe  bool
	focus       int

	// errText shows the last auth failure inline on the form.
	errText string
	busy    bool

	width  int
	height int
}

// New creates the form. rememberMe seeds the checkbox from settings.
func New(theme *styles.Theme, rememberMe bool) *Model {
	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 64
	username.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return &Model{
		theme:      theme,
		username:   username,
		password:   password,
		rememberMe: rememberMe,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// SetSize stores the area for centering.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SetError shows a failure message and unlocks the form.
func (m *Model) SetError(text string) {
	m.errText = text
	m.busy = false
}

// SetBusy locks the form while a login request is in flight.
func (m *Model) SetBusy(busy bool) {
	m.busy = busy
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m.updateInputs(msg)
	}

	if m.busy {
		return m, nil
	}

	switch key.String() {
	case "tab":
		m.cycleFocus(1)
		return m, nil
	case "shift+tab":
		m.cycleFocus(-1)
		return m, nil
	case "left", "right":
		if m.focus != fieldUsername && m.focus != fieldPassword {
			m.registerTab = !m.registerTab
			return m, nil
		}
	case "ctrl+r":
		m.registerTab = !m.registerTab
		return m, nil
	case " ":
		if m.focus == fieldRemember {
			m.rememberMe = !m.rememberMe
			return m, nil
		}
	case "enter":
		return m, m.submit()
	}

	return m.updateInputs(msg)
}

func (m *Model) updateInputs(msg tea.Msg) (*Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.username, cmd = m.username.Update(msg)
	cmds = append(cmds, cmd)
	m.password, cmd = m.password.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *Model) cycleFocus(dir int) {
	m.focus = (m.focus + dir + fieldCount) % fieldCount
	m.username.Blur()
	m.password.Blur()
	switch m.focus {
	case fieldUsername:
		m.username.Focus()
	case fieldPassword:
		m.password.Focus()
	}
}

func (m *Model) submit() tea.Cmd {
	username := strings.TrimSpace(m.username.Value())
	password := m.password.Value()
	if username == "" || password == "" {
		m.errText = "username and password are required"
		return nil
	}

	m.errText = ""
	m.busy = true
	register := m.registerTab
	remember := m.rememberMe
	return func() tea.Msg {
		return SubmitMsg{
			Username:   username,
			Password:   password,
			Register:   register,
			RememberMe: remember,
		}
	}
}

// =============================================================================
// LOGIN RENDERING
// =============================================================================

// View implements tea.Model.
func (m *Model) View() string {
	loginTab := m.theme.LoginTab.Render("Login")
	registerTab := m.theme.LoginTabActive.Render("Register")
	if !m.registerTab {
		loginTab = m.theme.LoginTabActive.Render("Login")
		registerTab = m.theme.LoginTab.Render("Register")
	}

	check := "[ ]"
	if m.rememberMe {
		check = "[x]"
	}
	remember := m.theme.LoginCheckbox.Render(check + " remember me")
	if m.focus == fieldRemember {
		remember = m.theme.LoginTabActive.Render(check + " remember me")
	}

	var b strings.Builder
	b.WriteString(m.theme.LoginTitle.Render("kurisu"))
	b.WriteString("\n\n")
	b.WriteString(loginTab + " " + registerTab)
	b.WriteString("\n\n")
	b.WriteString(m.theme.LoginLabel.Render("Username") + "\n" + m.username.View())
	b.WriteString("\n\n")
	b.WriteString(m.theme.LoginLabel.Render("Password") + "\n" + m.password.View())
	b.WriteString("\n\n")
	b.WriteString(remember)

	if m.busy {
		b.WriteString("\n\n")
		b.WriteString(m.theme.LoginHint.Render("signing in..."))
	} else if m.errText != "" {
		b.WriteString("\n\n")
		b.WriteString(m.theme.LoginError.Render(m.errText))
	}

	b.WriteString("\n\n")
	b.WriteString(m.theme.LoginHint.Render("tab: next field  ctrl+r: switch tab  enter: submit"))

	box := m.theme.LoginBox.Render(b.String())
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}
