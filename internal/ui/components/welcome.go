// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/quill/internal/ui/styles"
)

// Welcome is the empty-state panel shown before the first message.
type Welcome struct {
	theme    *styles.Theme
	provider string
	model    string
}

// NewWelcome creates the welcome panel.
func NewWelcome(theme *styles.Theme, provider, model string) Welcome {
	return Welcome{theme: theme, provider: provider, model: model}
}

// View renders the panel centered in width x height.
func (w Welcome) View(width, height int) string {
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 12
	}

	lines := []string{
		w.theme.WelcomeLogo.Render("quill"),
		"",
		w.theme.WelcomeInfo.Render("Hi! How can I help?"),
		w.theme.WelcomeHint.Render("Type a message to start. Replies appear as they stream in."),
	}
	if w.model != "" {
		lines = append(lines, "", w.theme.Timestamp.Render(w.provider+" · "+w.model))
	}

	boxWidth := 64
	if boxWidth > width-4 {
		boxWidth = width - 4
	}
	box := w.theme.WelcomeBox.Width(boxWidth).Render(strings.Join(lines, "\n"))

	if lipgloss.Height(box) >= height {
		return box
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
