// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the main chat view: message window, input area,
// streaming display with the sequential typing animation, and backward
// pagination when scrolling into history.
package chat

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/kurisu-assistant/kurisu-tui/internal/api"
	"github.com/kurisu-assistant/kurisu-tui/internal/config"
	"github.com/kurisu-assistant/kurisu-tui/internal/model"
	"github.com/kurisu-assistant/kurisu-tui/internal/store"
	"github.com/kurisu-assistant/kurisu-tui/internal/stream"
	"github.com/kurisu-assistant/kurisu-tui/internal/tts"
	"github.com/kurisu-assistant/kurisu-tui/internal/typing"
	"github.com/kurisu-assistant/kurisu-tui/internal/ui/components"
	"github.com/kurisu-assistant/kurisu-tui/internal/ui/styles"
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// attachmentCommand prefixes an input line that queues a local image.
const attachmentCommand = "/attach "

// Model is the chat view state.
type Model struct {
	theme  *styles.Theme
	client *api.Client
	conv   *store.ConversationStore
	player *tts.Player
	logger zerolog.Logger

	// Config-derived knobs, refreshed on config reload.
	tickInterval time.Duration
	showThinking bool
	ttsEnabled   bool
	ttsVoice     string
	ttsBackend   string

	// ModelName is the model used for sends, owned by the app's picker.
	ModelName string

	input    textarea.Model
	viewport viewport.Model
	spin     spinner.Model

	presenter *typing.Presenter

	// Per-stream state, rebuilt on every send.
	mailbox     *Mailbox
	reconciler  *stream.Reconciler
	streaming   bool
	ticking     bool
	assignedNew int64
	sealedTexts []string
	finished    bool
	failure     error

	// Status reflects stream lifecycle for the status bar.
	Status components.Status

	width  int
	height int

	attachments []Attachment
}

// New creates the chat view.
func New(theme *styles.Theme, client *api.Client, conv *store.ConversationStore, player *tts.Player, cfg *config.Config, logger zerolog.Logger) *Model {
	input := textarea.New()
	input.Placeholder = "Type a message... (/attach <path> to add an image)"
	input.CharLimit = 0
	input.SetHeight(3)
	input.ShowLineNumbers = false
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = theme.Spinner

	m := &Model{
		theme:     theme,
		client:    client,
		conv:      conv,
		player:    player,
		logger:    logger,
		input:     input,
		viewport:  viewport.New(80, 20),
		spin:      spin,
		presenter: typing.New(cfg.UI.TypingCharsPerTick),
		Status:    components.StatusReady,
	}
	m.ApplyConfig(cfg)
	return m
}

// ApplyConfig refreshes the knobs that come from the config file. Called
// at startup and again when the live reload watcher fires.
func (m *Model) ApplyConfig(cfg *config.Config) {
	m.tickInterval = time.Duration(cfg.UI.TypingIntervalMs) * time.Millisecond
	m.showThinking = cfg.UI.ShowThinking
}

// SetTTS updates the speech preferences, owned by the app's settings.
func (m *Model) SetTTS(enabled bool, voice, backend string) {
	m.ttsEnabled = enabled
	m.ttsVoice = voice
	m.ttsBackend = backend
}

// Streaming reports whether a send is in flight.
func (m *Model) Streaming() bool {
	return m.streaming
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textarea.Blink
}

// SetSize lays out the view inside the given area.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height

	inputHeight := m.input.Height() + 2
	viewHeight := height - inputHeight - 1
	if viewHeight < 3 {
		viewHeight = 3
	}
	m.viewport.Width = width
	m.viewport.Height = viewHeight
	m.input.SetWidth(width - 4)
	m.refreshViewport(false)
}

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if cmd := m.handleSubmit(); cmd != nil {
				return m, cmd
			}
		case "pgup", "ctrl+b":
			if m.viewport.AtTop() {
				if cmd := m.beginLoadOlder(); cmd != nil {
					return m, cmd
				}
			}
		case "ctrl+e":
			// Skip the typing animation for the active message.
			m.presenter.SkipToEnd()
			m.refreshViewport(true)
			return m, nil
		}

	case TickMsg:
		return m.handleTick()

	case StreamStartedMsg:
		m.streaming = true
		m.Status = components.StatusStreaming
		if !m.ticking {
			m.ticking = true
			cmds = append(cmds, tickCmd(m.tickInterval))
		}

	case SendFailedMsg:
		m.streaming = false
		m.Status = components.StatusError
		m.conv.Conversation().DropTrailingPlaceholder()
		m.reconciler = nil
		m.mailbox = nil
		m.refreshViewport(true)

	case StreamFinishedMsg:
		m.Status = components.StatusComplete
		m.refreshViewport(true)
		cmds = append(cmds, completeClearCmd())

	case CompleteClearMsg:
		if m.Status == components.StatusComplete {
			m.Status = components.StatusReady
		}

	case ConversationOpenedMsg:
		m.conv.OpenFromPage(msg.Summary, msg.Page)
		m.presenter.Reset()
		m.Status = components.StatusReady
		m.refreshViewport(true)
		m.viewport.GotoBottom()

	case PageLoadedMsg:
		// Prepending grows the content above the reading position; shift
		// the offset by the added height so the view does not jump to the
		// older messages.
		linesBefore := m.viewport.TotalLineCount()
		yOffset := m.viewport.YOffset
		m.conv.ApplyOlderPage(msg.Page)
		m.refreshViewport(false)
		if added := m.viewport.TotalLineCount() - linesBefore; added > 0 {
			m.viewport.SetYOffset(yOffset + added)
		}

	case OpenFailedMsg:
		m.Status = components.StatusError

	case PageFailedMsg:
		m.conv.FailLoadOlder()

	case spinner.TickMsg:
		// Keep the spinner chain alive only while something spins.
		if m.streaming || m.conv.IsLoading() || m.Status == components.StatusLoading {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			cmds = append(cmds, cmd)
			m.refreshViewport(false)
		}
	}

	if key, ok := msg.(tea.KeyMsg); !ok || !isSubmitKey(key) {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)

		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func isSubmitKey(key tea.KeyMsg) bool {
	return key.String() == "enter"
}

// handleSubmit interprets the input line: attachment command, or a send.
// Returns nil when the input should be treated as ordinary typing.
func (m *Model) handleSubmit() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return nil
	}

	if strings.HasPrefix(text, attachmentCommand) {
		path := strings.TrimSpace(strings.TrimPrefix(text, attachmentCommand))
		att, err := LoadAttachment(path)
		if err != nil {
			m.logger.Warn().Err(err).Str("path", path).Msg("attachment load failed")
			return func() tea.Msg { return SendFailedMsg{Err: err} }
		}
		m.attachments = append(m.attachments, att)
		m.input.Reset()
		return nil
	}

	// One in-flight send at a time.
	if m.streaming {
		return nil
	}

	return m.startSend(text)
}

// startSend seeds the conversation with the user message and a pending
// placeholder, builds the per-stream reconciler and mailbox, and kicks
// off the upload-then-stream pipeline.
func (m *Model) startSend(text string) tea.Cmd {
	conv := m.conv.Conversation()
	userMsg := conv.AddUserMessage(text)
	for _, att := range m.attachments {
		userMsg.ImageIDs = append(userMsg.ImageIDs, att.Path)
	}
	conv.AddPlaceholder()

	m.mailbox = NewMailbox()
	m.finished = false
	m.failure = nil
	m.sealedTexts = nil
	m.assignedNew = 0
	m.presenter.Reset()

	m.reconciler = stream.New(conv, stream.Hooks{
		ConversationAssigned: func(conversationID, chunkID int64, isNew bool) {
			if isNew {
				m.assignedNew = conversationID
			}
		},
		MessageSealed: func(msg *model.Message) {
			// A sealed message renders its full text directly; the cursors
			// must start from zero for whatever opens next.
			m.presenter.Reset()
			if msg.Role == model.RoleAssistant && msg.Content != "" {
				m.sealedTexts = append(m.sealedTexts, msg.Content)
			}
		},
		Finished: func() {
			m.finished = true
		},
		Failed: func(err error) {
			m.failure = err
		},
	})

	attachments := m.attachments
	m.attachments = nil
	m.input.Reset()
	m.Status = components.StatusThinking
	m.refreshViewport(true)

	return tea.Batch(
		sendCmd(m.client, m.mailbox, text, m.ModelName, conv.ID, 0, attachments),
		m.spin.Tick,
	)
}

// handleTick drains the mailbox into the reconciler, advances the typing
// presenter, and reschedules itself while there is work left.
func (m *Model) handleTick() (*Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.mailbox != nil && m.reconciler != nil {
		fragments, closed := m.mailbox.Take()
		for _, fragment := range fragments {
			m.reconciler.Apply(fragment)
		}

		if active := m.reconciler.Active(); active != nil {
			m.presenter.SetTargets(active.DisplayThinking(), active.DisplayContent())
		}

		if m.assignedNew != 0 {
			id := m.assignedNew
			m.assignedNew = 0
			cmds = append(cmds, func() tea.Msg {
				return ConversationAssignedMsg{ConversationID: id}
			})
		}

		if closed {
			m.streaming = false
			m.mailbox = nil
			if !m.finished && m.failure == nil {
				// The server closed the stream without a done or error
				// marker. Treat the EOF as the terminal marker so the open
				// message is sealed instead of streaming forever.
				m.reconciler.Apply(api.StreamFragment{Done: true})
			}
			if m.finished {
				cmds = append(cmds, holdCmd())
			} else if m.failure != nil {
				m.Status = components.StatusError
			}
			if m.ttsEnabled && m.player != nil {
				for _, text := range m.sealedTexts {
					cmds = append(cmds, speakCmd(m.client, m.player, text, m.ttsVoice, m.ttsBackend))
				}
				m.sealedTexts = nil
			}
		}
	}

	m.presenter.Tick()
	m.refreshViewport(true)

	if m.streaming || !m.presenter.CaughtUp() {
		cmds = append(cmds, tickCmd(m.tickInterval))
	} else {
		m.ticking = false
	}

	return m, tea.Batch(cmds...)
}

// beginLoadOlder asks the store for a page cursor; nil when exhausted,
// already loading, or the conversation has no server id yet.
func (m *Model) beginLoadOlder() tea.Cmd {
	id, offset, limit, ok := m.conv.BeginLoadOlder()
	if !ok {
		return nil
	}
	return tea.Batch(loadOlderCmd(m.client, id, limit, offset), m.spin.Tick)
}

// OpenConversation builds the command that fetches a sidebar selection.
func (m *Model) OpenConversation(summary model.Summary) tea.Cmd {
	m.Status = components.StatusLoading
	return tea.Batch(openConversationCmd(m.client, summary), m.spin.Tick)
}

// StartNewConversation resets the window to a fresh pending conversation.
func (m *Model) StartNewConversation() {
	m.conv.StartNew()
	m.presenter.Reset()
	m.Status = components.StatusReady
	m.refreshViewport(true)
}
