// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/quill/internal/ui/components"
	"github.com/jeranaias/quill/internal/ui/styles"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		m.input.SetWidth(msg.Width - 4)
		m.rendered = make(map[string]string)

	case TaskMsg:
		msg()

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			m.refresh()
			return m, cmd
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case components.ToastTickMsg:
		m.toasts.Tick(msg.Time)
		cmds = append(cmds, components.ToastTickCmd())

	case HealthMsg:
		if msg.Err != nil {
			m.log.Warn().Err(msg.Err).Str("provider", m.provider).Msg("health check failed")
			m.toasts.Add(components.NewErrorToast(components.ToastKindWarning, m.provider+" unavailable", msg.Err))
		}

	case ConfigReloadedMsg:
		m.applyConfig(msg)

	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.refresh()
	return m, tea.Batch(cmds...)
}

// handleKey processes bindings owned by the chat screen. Keys it does not
// handle go to the input box.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit(), true

	case key.Matches(msg, m.keys.Stop):
		if m.ctrl.Loading() {
			m.ctrl.Stop()
			return nil, true
		}
		if m.showHelp {
			m.showHelp = false
			return nil, true
		}
		if msg.Type == tea.KeyCtrlC {
			if m.input.Value() != "" {
				m.input.Reset()
				return nil, true
			}
			return m.quit(), true
		}
		m.toasts.DismissAll()
		return nil, true

	case key.Matches(msg, m.keys.Newline):
		m.input.InsertString("\n")
		return nil, true

	case key.Matches(msg, m.keys.Submit):
		return m.submit(), true

	case key.Matches(msg, m.keys.Clear):
		m.clear()
		return nil, true

	case key.Matches(msg, m.keys.Copy):
		m.copyLastReply()
		return nil, true

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return nil, true

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return nil, true

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return nil, true
	}
	return nil, false
}

// submit sends the input or runs it as a slash command. Input that the
// controller refuses (blank, or a reply still loading) stays in the box.
func (m *Model) submit() tea.Cmd {
	text := m.input.Value()
	if strings.HasPrefix(strings.TrimSpace(text), "/") {
		m.input.Reset()
		return m.runCommand(strings.TrimSpace(text))
	}
	if m.ctrl.Send(text) {
		m.input.Reset()
		m.viewport.GotoBottom()
	}
	return nil
}

func (m *Model) clear() {
	if !m.ctrl.CanClear() {
		return
	}
	m.ctrl.Clear()
	m.rendered = make(map[string]string)
}

func (m *Model) copyLastReply() {
	reply, ok := m.ctrl.LastReply()
	if !ok {
		m.toasts.AddInfo("No reply to copy yet")
		return
	}
	if err := m.copy(reply); err != nil {
		m.toasts.AddError("Copy failed", err.Error())
		return
	}
	m.toasts.AddInfo("Reply copied to clipboard")
}

func (m *Model) quit() tea.Cmd {
	m.quitting = true
	m.ctrl.Close()
	return tea.Quit
}

// frameRater is implemented by schedulers with an adjustable frame rate.
type frameRater interface {
	SetFrameRate(frameRate int)
}

func (m *Model) applyConfig(msg ConfigReloadedMsg) {
	if msg.Err != nil {
		m.toasts.AddWarning("Config not reloaded", msg.Err.Error())
		return
	}
	cfg := msg.Config
	m.ctrl.SetTypewriter(cfg.Typewriter.MinStep, cfg.Typewriter.MaxStep)
	m.ctrl.SetGracePeriod(cfg.Typewriter.GracePeriod())
	m.ctrl.SetSystemPrompt(cfg.Chat.SystemPrompt)
	if fr, ok := m.sched.(frameRater); ok {
		fr.SetFrameRate(cfg.Typewriter.FrameRate)
	}

	m.theme = styles.NewTheme(cfg.UI.Theme)
	m.theme.SetSize(m.width, m.height)
	m.spinner.Style = m.theme.Spinner
	m.markdown = components.NewMarkdown(m.theme.GlamourStyle(), cfg.UI.Markdown)
	m.welcome = components.NewWelcome(m.theme, m.provider, m.model)
	m.rendered = make(map[string]string)

	m.log.Info().Int("min_step", cfg.Typewriter.MinStep).Int("max_step", cfg.Typewriter.MaxStep).Msg("config reloaded")
	m.toasts.AddInfo("Config reloaded")
}

// =============================================================================
// LAYOUT
// =============================================================================

// refresh resizes the input to its content, lays out the viewport and
// re-renders the transcript.
func (m *Model) refresh() {
	rows := m.input.LineCount()
	if rows < 1 {
		rows = 1
	}
	if rows > MaxInputRows {
		rows = MaxInputRows
	}
	m.input.SetHeight(rows)

	used := lipgloss.Height(m.renderHeader()) +
		lipgloss.Height(m.renderInput()) +
		lipgloss.Height(m.renderStatusBar())
	if toasts := m.renderToasts(); toasts != "" {
		used += lipgloss.Height(toasts)
	}
	h := m.height - used
	if h < 3 {
		h = 3
	}

	atBottom := m.viewport.AtBottom()
	m.viewport.Width = m.width
	m.viewport.Height = h
	m.viewport.SetContent(m.renderTranscript())
	if atBottom || m.ctrl.Loading() {
		m.viewport.GotoBottom()
	}
}
