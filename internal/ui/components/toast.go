// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jeranaias/quill/internal/ui/styles"
	"github.com/jeranaias/quill/internal/util"
)

// =============================================================================
// TOAST TYPES
// =============================================================================

// ToastKind represents the type of toast notification.
type ToastKind int

const (
	// ToastKindInfo is an informational toast (cyan)
	ToastKindInfo ToastKind = iota
	// ToastKindError is a destructive toast (rose)
	ToastKindError
	// ToastKindWarning is a warning toast (amber)
	ToastKindWarning
)

// DefaultToastDuration is the auto-dismiss duration for info toasts.
const DefaultToastDuration = 4 * time.Second

// ErrorToastDuration is longer so error text can be read.
const ErrorToastDuration = 8 * time.Second

// WarningToastDuration is the auto-dismiss duration for warnings.
const WarningToastDuration = 6 * time.Second

// Toast is a non-blocking notification shown in the bottom-right corner.
type Toast struct {
	ID        int
	Title     string
	Message   string
	Kind      ToastKind
	Hint      string // suggestion shown under error and warning messages
	CreatedAt time.Time
	Duration  time.Duration
}

// NewToast creates a toast with the default duration for kind. Errors and
// warnings get a hint when the message matches a known failure.
func NewToast(kind ToastKind, title, message string) Toast {
	d := DefaultToastDuration
	hint := ""
	switch kind {
	case ToastKindError:
		d = ErrorToastDuration
		hint = HintFor(message)
	case ToastKindWarning:
		d = WarningToastDuration
		hint = HintFor(message)
	}
	return Toast{
		Title:     title,
		Message:   message,
		Kind:      kind,
		Hint:      hint,
		CreatedAt: time.Now(),
		Duration:  d,
	}
}

// NewErrorToast is NewToast for a failure, with the hint chosen from err
// itself rather than its text.
func NewErrorToast(kind ToastKind, title string, err error) Toast {
	t := NewToast(kind, title, err.Error())
	if hint := HintForError(err); hint != "" {
		t.Hint = hint
	}
	return t
}

// IsExpired returns true if the toast should be dismissed at now.
func (t *Toast) IsExpired(now time.Time) bool {
	return now.Sub(t.CreatedAt) >= t.Duration
}

// =============================================================================
// TOAST MANAGER
// =============================================================================

// ToastManager keeps the visible toasts, newest first.
type ToastManager struct {
	mu        sync.Mutex
	toasts    []Toast
	nextID    int
	maxToasts int
}

// NewToastManager creates a new toast manager.
func NewToastManager() *ToastManager {
	return &ToastManager{nextID: 1, maxToasts: 5}
}

// Add adds a toast and returns its ID.
func (m *ToastManager) Add(toast Toast) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	toast.ID = m.nextID
	m.nextID++

	m.toasts = append([]Toast{toast}, m.toasts...)
	if len(m.toasts) > m.maxToasts {
		m.toasts = m.toasts[:m.maxToasts]
	}
	return toast.ID
}

// AddError adds a destructive toast.
func (m *ToastManager) AddError(title, message string) int {
	return m.Add(NewToast(ToastKindError, title, message))
}

// AddWarning adds a warning toast.
func (m *ToastManager) AddWarning(title, message string) int {
	return m.Add(NewToast(ToastKindWarning, title, message))
}

// AddInfo adds an informational toast.
func (m *ToastManager) AddInfo(message string) int {
	return m.Add(NewToast(ToastKindInfo, "", message))
}

// Dismiss removes a toast by ID.
func (m *ToastManager) Dismiss(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, toast := range m.toasts {
		if toast.ID == id {
			m.toasts = append(m.toasts[:i], m.toasts[i+1:]...)
			return
		}
	}
}

// DismissAll removes every toast.
func (m *ToastManager) DismissAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toasts = nil
}

// Tick drops toasts that have expired at now and reports whether any remain.
func (m *ToastManager) Tick(now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	active := m.toasts[:0]
	for _, toast := range m.toasts {
		if !toast.IsExpired(now) {
			active = append(active, toast)
		}
	}
	m.toasts = active
	return len(m.toasts) > 0
}

// Toasts returns a copy of the current toasts.
func (m *ToastManager) Toasts() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]Toast, len(m.toasts))
	copy(result, m.toasts)
	return result
}

// HasToasts returns true if there are any active toasts.
func (m *ToastManager) HasToasts() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.toasts) > 0
}

// =============================================================================
// TOAST MESSAGES
// =============================================================================

// ToastTickMsg is sent periodically to expire toasts.
type ToastTickMsg struct {
	Time time.Time
}

// ToastTickCmd ticks toasts every 250ms.
func ToastTickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return ToastTickMsg{Time: t}
	})
}

// =============================================================================
// TOAST RENDERING
// =============================================================================

// RenderToast renders a single toast no wider than width allows.
func RenderToast(theme *styles.Theme, toast Toast, width int) string {
	maxWidth := 60
	if width > 0 && width-8 < maxWidth {
		maxWidth = width - 8
	}
	if maxWidth < 24 {
		maxWidth = 24
	}

	box := theme.ToastInfo
	icon := theme.InfoStyle.Render(styles.StatusIndicators.Info)
	switch toast.Kind {
	case ToastKindError:
		box = theme.ToastError
		icon = theme.ErrorStyle.Render(styles.StatusIndicators.Error)
	case ToastKindWarning:
		box = theme.ToastWarning
		icon = theme.WarningStyle.Render(styles.StatusIndicators.Warning)
	}

	textWidth := maxWidth - 4
	var lines []string
	if toast.Title != "" {
		lines = append(lines, icon+" "+theme.ToastTitle.Render(util.TruncateWidth(toast.Title, textWidth-4)))
		if toast.Message != "" {
			lines = append(lines, wordwrap.String(toast.Message, textWidth))
		}
	} else {
		lines = append(lines, icon+" "+wordwrap.String(toast.Message, textWidth-4))
	}
	if toast.Hint != "" {
		lines = append(lines, theme.Timestamp.Render(wordwrap.String(toast.Hint, textWidth)))
	}

	return box.MaxWidth(maxWidth).Render(strings.Join(lines, "\n"))
}

// RenderToastStack renders toasts stacked vertically, newest on top.
func RenderToastStack(theme *styles.Theme, toasts []Toast, width int) string {
	if len(toasts) == 0 {
		return ""
	}
	rendered := make([]string, 0, len(toasts))
	for _, toast := range toasts {
		rendered = append(rendered, RenderToast(theme, toast, width))
	}
	return lipgloss.JoinVertical(lipgloss.Right, rendered...)
}
