// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/quill/internal/storage"
)

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// Command is a slash command typed into the input box.
type Command struct {
	Name        string
	Description string
	run         func(m *Model, args string) tea.Cmd
}

// Commands returns the slash commands in help order.
func Commands() []Command {
	return []Command{
		{Name: "/clear", Description: "clear the conversation", run: func(m *Model, _ string) tea.Cmd {
			m.clear()
			return nil
		}},
		{Name: "/stop", Description: "stop the current reply", run: func(m *Model, _ string) tea.Cmd {
			m.ctrl.Stop()
			return nil
		}},
		{Name: "/save", Description: "save the transcript", run: (*Model).saveTranscript},
		{Name: "/copy", Description: "copy the last reply", run: func(m *Model, _ string) tea.Cmd {
			m.copyLastReply()
			return nil
		}},
		{Name: "/help", Description: "toggle help", run: func(m *Model, _ string) tea.Cmd {
			m.showHelp = !m.showHelp
			return nil
		}},
		{Name: "/quit", Description: "exit quill", run: func(m *Model, _ string) tea.Cmd {
			return m.quit()
		}},
	}
}

// LookupCommand finds a command by name or unique prefix.
func LookupCommand(name string) (Command, bool) {
	name = strings.ToLower(name)
	var match Command
	found := 0
	for _, c := range Commands() {
		if c.Name == name {
			return c, true
		}
		if strings.HasPrefix(c.Name, name) {
			match = c
			found++
		}
	}
	return match, found == 1
}

func commandSummary() string {
	names := make([]string, 0, 6)
	for _, c := range Commands() {
		names = append(names, c.Name)
	}
	return "Commands: " + strings.Join(names, " ")
}

func (m *Model) runCommand(input string) tea.Cmd {
	name, args, _ := strings.Cut(input, " ")
	cmd, ok := LookupCommand(name)
	if !ok {
		m.toasts.AddInfo("Unknown command " + name + ". " + commandSummary())
		return nil
	}
	m.log.Debug().Str("command", cmd.Name).Msg("slash command")
	return cmd.run(m, strings.TrimSpace(args))
}

func (m *Model) saveTranscript(_ string) tea.Cmd {
	if m.store == nil {
		m.toasts.AddWarning("Save unavailable", "no transcript directory configured")
		return nil
	}
	id, err := m.store.Save(storage.FromConversation(m.ctrl.Export(), m.provider, m.model))
	if err != nil {
		if errors.Is(err, storage.ErrEmptyTranscript) {
			m.toasts.AddInfo("Nothing to save yet")
			return nil
		}
		m.log.Error().Err(err).Msg("transcript save failed")
		m.toasts.AddError("Save failed", err.Error())
		return nil
	}
	m.log.Info().Str("transcript", id).Msg("transcript saved")
	m.toasts.AddInfo("Saved transcript " + storage.ShortID(id))
	return nil
}
