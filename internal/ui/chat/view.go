// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jeranaias/quill/internal/model"
	"github.com/jeranaias/quill/internal/ui/components"
	"github.com/jeranaias/quill/internal/ui/styles"
	"github.com/jeranaias/quill/internal/util"
)

// View renders the chat screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	parts := []string{m.renderHeader()}
	if m.ctrl.CanClear() {
		parts = append(parts, m.viewport.View())
	} else {
		parts = append(parts, m.welcome.View(m.width, m.viewport.Height))
	}
	if toasts := m.renderToasts(); toasts != "" {
		parts = append(parts, toasts)
	}
	parts = append(parts, m.renderInput(), m.renderStatusBar())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("quill")
	sub := m.provider
	if m.model != "" {
		sub += " · " + m.model
	}
	right := ""
	if m.ctrl.Loading() {
		right = m.spinner.View() + m.theme.ThinkingText.Render(" streaming")
	}

	left := title + "  " + m.theme.HeaderSubtitle.Render(util.TruncateWidth(sub, m.width/2))
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

// renderTranscript renders every message. Finished assistant replies go
// through markdown and are cached by message ID; the message being revealed
// is wrapped plain text with a cursor.
func (m *Model) renderTranscript() string {
	snap := m.ctrl.Snapshot()
	width := m.theme.ContentWidth()
	if m.width > 0 && m.width-4 < width {
		width = m.width - 4
	}
	if width < 10 {
		width = 10
	}

	var sb strings.Builder
	for i, msg := range snap.Messages {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(m.renderMessage(msg, width, snap.State.Animating()))
		sb.WriteString("\n")
	}
	if snap.Typing() {
		sb.WriteString("\n")
		sb.WriteString(m.theme.AssistantLabel.Render(model.RoleAssistant.DisplayName()))
		sb.WriteString("\n")
		sb.WriteString(m.theme.AssistantBubble.Render(m.spinner.View() + m.theme.ThinkingText.Render(" thinking")))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m *Model) renderMessage(msg model.Message, width int, animating bool) string {
	stamp := m.theme.Timestamp.Render(msg.Timestamp.Format("15:04"))

	if msg.Role == model.RoleUser {
		label := m.theme.UserLabel.Render(msg.Role.DisplayName())
		body := m.theme.UserBubble.Render(wordwrap.String(msg.Content, width))
		return label + " " + stamp + "\n" + body
	}

	label := m.theme.AssistantLabel.Render(msg.Role.DisplayName())
	var body string
	if msg.InProgress {
		text := wordwrap.String(msg.DisplayContent(), width)
		if animating {
			text += m.theme.Cursor.Render(styles.TypingCursor)
		}
		body = text
	} else if cached, ok := m.rendered[msg.ID]; ok {
		body = cached
	} else {
		body = m.markdown.Render(msg.DisplayContent(), width)
		if !m.markdown.Enabled() {
			body = wordwrap.String(body, width)
		}
		m.rendered[msg.ID] = body
	}
	return label + " " + stamp + "\n" + m.theme.AssistantBubble.Render(body)
}

func (m Model) renderInput() string {
	box := m.theme.InputContainer
	if m.ctrl.Loading() {
		box = m.theme.InputContainerLoading
	}
	w := m.width - 2
	if w < 10 {
		w = 10
	}
	return box.Width(w).Render(m.input.View())
}

func (m Model) renderStatusBar() string {
	if m.showHelp {
		return m.renderHelp()
	}
	bindings := m.keys.ShortHelp(m.ctrl.Loading(), m.ctrl.CanClear())
	items := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		items = append(items, m.theme.ShortcutKey.Render(h.Key)+" "+m.theme.ShortcutDesc.Render(h.Desc))
	}
	return m.theme.StatusBar.MaxWidth(m.width).Render(strings.Join(items, "  "))
}

func (m Model) renderHelp() string {
	var lines []string
	for _, group := range m.keys.FullHelp() {
		items := make([]string, 0, len(group))
		for _, b := range group {
			h := b.Help()
			items = append(items, m.theme.ShortcutKey.Render(h.Key)+" "+m.theme.ShortcutDesc.Render(h.Desc))
		}
		lines = append(lines, strings.Join(items, "  "))
	}
	lines = append(lines, m.theme.ShortcutDesc.Render(commandSummary()))
	return m.theme.StatusBar.Render(strings.Join(lines, "\n"))
}

func (m Model) renderToasts() string {
	toasts := m.toasts.Toasts()
	if len(toasts) == 0 {
		return ""
	}
	stack := components.RenderToastStack(m.theme, toasts, m.width)
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Right, stack)
}
