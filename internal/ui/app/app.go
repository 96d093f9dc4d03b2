// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app composes the views into the running program: login until
// authenticated, then sidebar plus chat with a status bar and toasts.
package app

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/kurisu-assistant/kurisu-tui/internal/api"
	"github.com/kurisu-assistant/kurisu-tui/internal/config"
	"github.com/kurisu-assistant/kurisu-tui/internal/settings"
	"github.com/kurisu-assistant/kurisu-tui/internal/store"
	"github.com/kurisu-assistant/kurisu-tui/internal/tts"
	"github.com/kurisu-assistant/kurisu-tui/internal/ui/chat"
	"github.com/kurisu-assistant/kurisu-tui/internal/ui/components"
	"github.com/kurisu-assistant/kurisu-tui/internal/ui/login"
	"github.com/kurisu-assistant/kurisu-tui/internal/ui/sidebar"
	"github.com/kurisu-assistant/kurisu-tui/internal/ui/styles"
)

// =============================================================================
// APP MODEL
// =============================================================================

// Deps carries everything the app composes. All state handles are
// created in main and torn down there; nothing here is a singleton.
type Deps struct {
	Config   *config.Config
	Client   *api.Client
	Settings *settings.Store
	Auth     *store.AuthStore
	Conv     *store.ConversationStore
	Player   *tts.Player
	Logger   zerolog.Logger
}

// Model is the root program model.
type Model struct {
	deps  Deps
	theme *styles.Theme

	loginView *login.Model
	chatView  *chat.Model
	sideView  *sidebar.Model
	status    *components.StatusBar
	toasts    *components.ToastManager

	focusSidebar bool
	connected    bool

	// Model picker overlay state.
	pickerOpen   bool
	models       []string
	pickerCursor int

	width  int
	height int
}

// New builds the root model from its dependencies.
func New(deps Deps) *Model {
	theme := styles.NewTheme(deps.Config.UI.Theme)

	chatView := chat.New(theme, deps.Client, deps.Conv, deps.Player, deps.Config, deps.Logger)
	chatView.ModelName = deps.Settings.GetDefault(settings.KeySelectedModel, deps.Config.Chat.DefaultModel)
	chatView.SetTTS(
		deps.Settings.GetBool(settings.KeyTTSEnabled, deps.Config.TTS.Enabled),
		deps.Settings.GetDefault(settings.KeyTTSVoice, ""),
		deps.Settings.GetDefault(settings.KeyTTSBackend, ""),
	)

	remember := deps.Settings.GetBool(settings.KeyRememberMe, false)

	return &Model{
		deps:      deps,
		theme:     theme,
		loginView: login.New(theme, remember),
		chatView:  chatView,
		sideView:  sidebar.New(theme),
		status:    components.NewStatusBar(theme),
		toasts:    components.NewToastManager(),
	}
}

// Init implements tea.Model: health probe plus silent re-auth when a
// token was persisted.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.loginView.Init(),
		m.chatView.Init(),
		healthCmd(m.deps.Client),
	}

	if token, ok, _ := m.deps.Settings.Get(settings.KeyToken); ok && token != "" {
		m.deps.Auth.BeginAuth()
		m.deps.Client.SetToken(token)
		m.loginView.SetBusy(true)
		cmds = append(cmds, reauthCmd(m.deps.Client))
	}

	return tea.Batch(cmds...)
}

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout(msg.Width, msg.Height)

	case tea.KeyMsg:
		if newModel, cmd, handled := m.handleKey(msg); handled {
			return newModel, cmd
		}

	case components.ToastTickMsg:
		m.toasts.Prune()
		if m.toasts.HasToasts() {
			return m, components.ToastTickCmd()
		}
		return m, nil

	case HealthCheckedMsg:
		m.connected = msg.Err == nil
		if msg.Err != nil {
			return m, m.warn("server unreachable: " + msg.Err.Error())
		}

	case login.SubmitMsg:
		m.deps.Auth.BeginAuth()
		return m, loginCmd(m.deps.Client, msg.Username, msg.Password, msg.Register, msg.RememberMe)

	case AuthSucceededMsg:
		return m, m.completeAuth(msg)

	case AuthFailedMsg:
		return m, m.failAuth(msg)

	case LoggedOutMsg:
		m.logout()

	case ConversationsLoadedMsg:
		m.sideView.SetSummaries(msg.Summaries)

	case ConversationsFailedMsg:
		return m, m.warn(msg.Err.Error())

	case ModelsLoadedMsg:
		m.setModels(msg.Models)

	case ConversationDeletedMsg:
		if m.deps.Conv.Conversation().ID == msg.ID {
			m.chatView.StartNewConversation()
			m.sideView.SetActive(0)
		}
		return m, conversationsCmd(m.deps.Client)

	case DeleteFailedMsg:
		return m, m.warn("delete failed: " + msg.Err.Error())

	case ConfigReloadedMsg:
		m.deps.Config = msg.Config
		m.chatView.ApplyConfig(msg.Config)
		return m, m.info("configuration reloaded")

	case sidebar.SelectedMsg:
		m.focusSidebar = false
		m.sideView.SetActive(msg.Summary.ID)
		return m, m.chatView.OpenConversation(msg.Summary)

	case sidebar.NewConversationMsg:
		m.focusSidebar = false
		m.sideView.SetActive(0)
		m.chatView.StartNewConversation()

	case sidebar.DeleteRequestedMsg:
		return m, deleteConversationCmd(m.deps.Client, msg.ID)

	case chat.ConversationAssignedMsg:
		m.sideView.SetActive(msg.ConversationID)
		return m, conversationsCmd(m.deps.Client)

	case chat.SendFailedMsg:
		var chatCmd tea.Cmd
		m.chatView, chatCmd = m.chatView.Update(msg)
		return m, tea.Batch(chatCmd, m.warn("send failed: "+msg.Err.Error()))

	case chat.OpenFailedMsg:
		var chatCmd tea.Cmd
		m.chatView, chatCmd = m.chatView.Update(msg)
		return m, tea.Batch(chatCmd, m.warnAuthAware(msg.Err))

	case chat.PageFailedMsg:
		var chatCmd tea.Cmd
		m.chatView, chatCmd = m.chatView.Update(msg)
		return m, tea.Batch(chatCmd, m.warn("history load failed: "+msg.Err.Error()))

	case chat.SpeakFailedMsg:
		return m, m.warn("speech failed: " + msg.Err.Error())
	}

	return m, m.delegate(msg)
}

// delegate routes a message to the focused view.
func (m *Model) delegate(msg tea.Msg) tea.Cmd {
	if !m.deps.Auth.IsAuthenticated() {
		var cmd tea.Cmd
		m.loginView, cmd = m.loginView.Update(msg)
		return cmd
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		if m.focusSidebar {
			var cmd tea.Cmd
			m.sideView, cmd = m.sideView.Update(key)
			return cmd
		}
		var cmd tea.Cmd
		m.chatView, cmd = m.chatView.Update(key)
		return cmd
	}

	var cmd tea.Cmd
	m.chatView, cmd = m.chatView.Update(msg)
	return cmd
}

// handleKey intercepts global shortcuts before view delegation.
func (m *Model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch key.String() {
	case "ctrl+c":
		return m, tea.Quit, true

	case "esc":
		if m.pickerOpen {
			m.pickerOpen = false
			return m, nil, true
		}
		if m.toasts.HasToasts() {
			m.toasts.DismissNewest()
			return m, nil, true
		}
		return m, nil, false
	}

	if !m.deps.Auth.IsAuthenticated() {
		return m, nil, false
	}

	if m.pickerOpen {
		return m.handlePickerKey(key)
	}

	switch key.String() {
	case "tab":
		// The chat textarea wants tab too; sidebar focus wins globally.
		m.focusSidebar = !m.focusSidebar
		return m, nil, true

	case "ctrl+n":
		m.chatView.StartNewConversation()
		m.sideView.SetActive(0)
		return m, nil, true

	case "ctrl+p":
		if len(m.models) > 0 {
			m.pickerOpen = true
		}
		return m, nil, true

	case "ctrl+t":
		enabled := !m.deps.Settings.GetBool(settings.KeyTTSEnabled, false)
		_ = m.deps.Settings.SetBool(settings.KeyTTSEnabled, enabled)
		m.chatView.SetTTS(enabled,
			m.deps.Settings.GetDefault(settings.KeyTTSVoice, ""),
			m.deps.Settings.GetDefault(settings.KeyTTSBackend, ""))
		return m, nil, true

	case "ctrl+l":
		m.logout()
		return m, nil, true
	}

	return m, nil, false
}

func (m *Model) handlePickerKey(key tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch key.String() {
	case "up", "k":
		if m.pickerCursor > 0 {
			m.pickerCursor--
		}
	case "down", "j":
		if m.pickerCursor < len(m.models)-1 {
			m.pickerCursor++
		}
	case "enter":
		m.chatView.ModelName = m.models[m.pickerCursor]
		_ = m.deps.Settings.Set(settings.KeySelectedModel, m.chatView.ModelName)
		m.pickerOpen = false
	}
	return m, nil, true
}

// =============================================================================
// AUTH FLOW
// =============================================================================

func (m *Model) completeAuth(msg AuthSucceededMsg) tea.Cmd {
	token := msg.Token
	if token == "" {
		token = m.deps.Client.Token()
	} else {
		m.deps.Client.SetToken(token)
	}
	m.deps.Auth.CompleteAuth(token, msg.User)
	m.loginView.SetBusy(false)

	if msg.RememberMe {
		_ = m.deps.Settings.Set(settings.KeyToken, token)
		_ = m.deps.Settings.SetBool(settings.KeyRememberMe, true)
		_ = m.deps.Settings.Set(settings.KeyUsername, msg.User.Username)
	}

	m.deps.Logger.Info().Str("username", msg.User.Username).Msg("authenticated")
	return tea.Batch(conversationsCmd(m.deps.Client), modelsCmd(m.deps.Client))
}

func (m *Model) failAuth(msg AuthFailedMsg) tea.Cmd {
	m.deps.Auth.FailAuth(msg.FromStoredToken)
	if msg.FromStoredToken {
		// Stored token rejected: purge and fall back to the form.
		_ = m.deps.Settings.Delete(settings.KeyToken)
		m.deps.Client.SetToken("")
		m.loginView.SetBusy(false)
		return m.warn("saved session expired, please sign in")
	}

	m.loginView.SetError(authErrorText(msg.Err))
	return nil
}

func (m *Model) logout() {
	m.deps.Auth.Logout()
	m.deps.Client.SetToken("")
	_ = m.deps.Settings.Delete(settings.KeyToken)
	m.chatView.StartNewConversation()
	m.sideView.SetSummaries(nil)
	m.loginView.SetBusy(false)
}

// warnAuthAware downgrades the session when the server says the token
// went stale mid-session.
func (m *Model) warnAuthAware(err error) tea.Cmd {
	if api.IsUnauthorized(err) {
		m.deps.Auth.FailAuth(true)
		_ = m.deps.Settings.Delete(settings.KeyToken)
		m.deps.Client.SetToken("")
		return m.warn("session expired, please sign in")
	}
	return m.warn(err.Error())
}

func authErrorText(err error) string {
	switch {
	case api.IsUnauthorized(err):
		return "invalid username or password"
	case api.IsUnreachable(err):
		return "cannot reach the server"
	case api.IsTimeout(err):
		return "server timed out"
	default:
		return err.Error()
	}
}

func (m *Model) setModels(models []string) {
	m.models = models
	m.pickerCursor = 0
	if m.chatView.ModelName == "" && len(models) > 0 {
		m.chatView.ModelName = models[0]
	}
	for i, name := range models {
		if name == m.chatView.ModelName {
			m.pickerCursor = i
		}
	}
}

// =============================================================================
// TOAST HELPERS
// =============================================================================

func (m *Model) warn(text string) tea.Cmd {
	m.toasts.AddError(text)
	return components.ToastTickCmd()
}

func (m *Model) info(text string) tea.Cmd {
	m.toasts.AddInfo(text)
	return components.ToastTickCmd()
}

// =============================================================================
// LAYOUT AND RENDERING
// =============================================================================

const sidebarWidth = 32

func (m *Model) layout(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)
	m.loginView.SetSize(width, height)
	m.status.SetWidth(width)

	contentHeight := height - 1 // status bar
	if m.theme.GetLayoutMode() == styles.LayoutNarrow {
		m.sideView.SetSize(0, contentHeight)
		m.chatView.SetSize(width, contentHeight)
		return
	}
	m.sideView.SetSize(sidebarWidth, contentHeight)
	m.chatView.SetSize(width-sidebarWidth, contentHeight)
}

// View implements tea.Model.
func (m *Model) View() string {
	if !m.deps.Auth.IsAuthenticated() {
		view := m.loginView.View()
		if toasts := m.toasts.Active(); len(toasts) > 0 {
			view += "\n" + m.renderToastLines(toasts)
		}
		return view
	}

	var content string
	if m.theme.GetLayoutMode() == styles.LayoutNarrow || m.width == 0 {
		content = m.chatView.View()
	} else {
		content = lipgloss.JoinHorizontal(lipgloss.Top, m.sideView.View(), m.chatView.View())
	}

	m.status.Connected = m.connected
	if user := m.deps.Auth.User(); user != nil {
		m.status.Username = user.Username
	}
	m.status.ModelName = m.chatView.ModelName
	m.status.TTSEnabled = m.deps.Settings.GetBool(settings.KeyTTSEnabled, false)
	m.status.Status = m.chatView.Status

	sections := []string{content}
	if toasts := m.toasts.Active(); len(toasts) > 0 {
		sections = append(sections, m.renderToastLines(toasts))
	}
	if m.pickerOpen {
		sections = append(sections, m.renderPicker())
	}
	sections = append(sections, m.status.View())

	return strings.Join(sections, "\n")
}

func (m *Model) renderToastLines(toasts []components.Toast) string {
	lines := make([]string, 0, len(toasts))
	for _, t := range toasts {
		lines = append(lines, components.RenderToast(m.theme, t, m.width))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderPicker() string {
	var b strings.Builder
	b.WriteString(m.theme.SidebarTitle.Render("Select model"))
	b.WriteString("\n")
	for i, name := range m.models {
		if i == m.pickerCursor {
			b.WriteString(m.theme.PickerItemSelected.Render(name))
		} else {
			b.WriteString(m.theme.PickerItem.Render(name))
		}
		b.WriteString("\n")
	}
	return m.theme.PickerBox.Render(strings.TrimRight(b.String(), "\n"))
}
