// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the kurisu TUI.
//
// Toasts are non-blocking corner notifications that auto-dismiss, so stream
// errors and health warnings never steal focus from the input.
package components

import (
	"strconv"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kurisu-assistant/kurisu-tui/internal/ui/styles"
)

// =============================================================================
// TOAST TYPES
// =============================================================================

// ToastKind represents the type of toast notification.
type ToastKind int

const (
	ToastInfo ToastKind = iota
	ToastError
	ToastWarning
	ToastSuccess
)

// Auto-dismiss durations. Errors stay longer so they can be read.
const (
	infoToastDuration    = 4 * time.Second
	errorToastDuration   = 8 * time.Second
	warningToastDuration = 6 * time.Second
)

// Toast is a single non-blocking notification.
type Toast struct {
	ID        int
	Message   string
	Kind      ToastKind
	CreatedAt time.Time
	Duration  time.Duration
}

// Expired returns true once the toast has outlived its duration.
func (t Toast) Expired() bool {
	return time.Since(t.CreatedAt) >= t.Duration
}

// =============================================================================
// TOAST MANAGER
// =============================================================================

// ToastManager holds the active toasts, newest first.
type ToastManager struct {
	mu     sync.Mutex
	toasts []Toast
	nextID int
	max    int
}

// NewToastManager creates an empty manager showing at most five toasts.
func NewToastManager() *ToastManager {
	return &ToastManager{nextID: 1, max: 5}
}

func (m *ToastManager) add(message string, kind ToastKind, d time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := Toast{
		ID:        m.nextID,
		Message:   message,
		Kind:      kind,
		CreatedAt: time.Now(),
		Duration:  d,
	}
	m.nextID++

	m.toasts = append([]Toast{t}, m.toasts...)
	if len(m.toasts) > m.max {
		m.toasts = m.toasts[:m.max]
	}
	return t.ID
}

// AddError adds an error toast.
func (m *ToastManager) AddError(message string) int {
	return m.add(message, ToastError, errorToastDuration)
}

// AddWarning adds a warning toast.
func (m *ToastManager) AddWarning(message string) int {
	return m.add(message, ToastWarning, warningToastDuration)
}

// AddInfo adds an informational toast.
func (m *ToastManager) AddInfo(message string) int {
	return m.add(message, ToastInfo, infoToastDuration)
}

// AddSuccess adds a success toast.
func (m *ToastManager) AddSuccess(message string) int {
	return m.add(message, ToastSuccess, infoToastDuration)
}

// Dismiss removes a toast by ID.
func (m *ToastManager) Dismiss(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.toasts {
		if t.ID == id {
			m.toasts = append(m.toasts[:i], m.toasts[i+1:]...)
			return
		}
	}
}

// DismissNewest removes the most recent toast, if any.
func (m *ToastManager) DismissNewest() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.toasts) > 0 {
		m.toasts = m.toasts[1:]
	}
}

// Prune drops expired toasts and returns the survivors.
func (m *ToastManager) Prune() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()

	active := m.toasts[:0]
	for _, t := range m.toasts {
		if !t.Expired() {
			active = append(active, t)
		}
	}
	m.toasts = active

	out := make([]Toast, len(m.toasts))
	copy(out, m.toasts)
	return out
}

// Active returns a copy of the current toasts.
func (m *ToastManager) Active() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Toast, len(m.toasts))
	copy(out, m.toasts)
	return out
}

// HasToasts reports whether any toast is visible.
func (m *ToastManager) HasToasts() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.toasts) > 0
}

// =============================================================================
// TOAST MESSAGES
// =============================================================================

// ToastTickMsg is sent periodically to expire stale toasts.
type ToastTickMsg struct {
	Time time.Time
}

// ToastTickCmd ticks the toast stack every 250ms while toasts are visible.
func ToastTickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return ToastTickMsg{Time: t}
	})
}

// =============================================================================
// TOAST RENDERING
// =============================================================================

// RenderToast renders a single toast box.
func RenderToast(theme *styles.Theme, t Toast, width int) string {
	maxWidth := 60
	if width > 0 && width-8 < maxWidth {
		maxWidth = width - 8
	}
	if maxWidth < 30 {
		maxWidth = 30
	}

	var box lipgloss.Style
	var icon string
	switch t.Kind {
	case ToastError:
		box = theme.ToastError
		icon = styles.StatusIndicators.Error
	case ToastWarning:
		box = theme.ToastWarning
		icon = styles.StatusIndicators.Warning
	case ToastSuccess:
		box = theme.ToastInfo.BorderForeground(styles.Emerald).Foreground(styles.Emerald)
		icon = styles.StatusIndicators.Success
	default:
		box = theme.ToastInfo
		icon = styles.StatusIndicators.Info
	}

	remaining := int((t.Duration - time.Since(t.CreatedAt)).Seconds())
	hint := ""
	if remaining > 0 {
		hint = "  " + theme.ShortcutDesc.Render("[esc] dismiss "+strconv.Itoa(remaining)+"s")
	}

	content := icon + " " + wrapText(t.Message, maxWidth-8) + hint
	return box.MaxWidth(maxWidth).Render(content)
}

// RenderToastStack renders the toasts stacked in the bottom-right corner.
func RenderToastStack(theme *styles.Theme, toasts []Toast, width, height int) string {
	if len(toasts) == 0 {
		return ""
	}

	rendered := make([]string, 0, len(toasts))
	for _, t := range toasts {
		rendered = append(rendered, RenderToast(theme, t, width))
	}

	stack := lipgloss.JoinVertical(lipgloss.Right, rendered...)
	positioned := lipgloss.NewStyle().MarginRight(2).MarginBottom(1).Render(stack)

	if width > 0 && height > 0 {
		return lipgloss.Place(width, height, lipgloss.Right, lipgloss.Bottom, positioned)
	}
	return positioned
}

// wrapText performs simple word wrapping, used by wide toast messages.
func wrapText(text string, maxWidth int) string {
	if maxWidth <= 0 {
		return text
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return text
	}

	var lines []string
	var line strings.Builder
	for _, word := range words {
		switch {
		case line.Len() == 0:
			line.WriteString(word)
		case line.Len()+1+len(word) <= maxWidth:
			line.WriteString(" ")
			line.WriteString(word)
		default:
			lines = append(lines, line.String())
			line.Reset()
			line.WriteString(word)
		}
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}
