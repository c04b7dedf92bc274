// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the Bubble Tea chat screen for quill.
//
// The screen is a thin shell over session.Controller: keys become Send,
// Stop and Clear intents, and every Update re-renders the controller's
// snapshot. Controller callbacks scheduled on a loop.Loop arrive as TaskMsg
// through a Bridge and run inside Update, so controller state is only ever
// touched on the Bubble Tea goroutine.
//
//	bridge := chat.NewBridge()
//	sched := loop.New(bridge.Dispatch, cfg.Typewriter.FrameRate)
//	m := chat.New(chat.Options{Scheduler: sched, Transport: tr})
//	p := tea.NewProgram(m, tea.WithAltScreen())
//	bridge.Attach(p)
//	_, err := p.Run()
//
// Key bindings:
//   - Enter: send
//   - Alt+Enter / Ctrl+J: newline
//   - Esc / Ctrl+C: stop the reply
//   - Ctrl+L: clear
//   - Ctrl+Y: copy the last reply
//   - F1: help, Ctrl+Q: quit
package chat
