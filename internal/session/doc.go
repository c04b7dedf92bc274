// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the chat session controller.
//
// The Controller owns the conversation and a typewriter coordinator. Send
// opens a transport stream on its own goroutine; deltas are posted back to
// the event loop and only grow the coordinator's buffer. The visible
// assistant message changes on animation frames, on flush, and nowhere else.
//
// # Lifecycle
//
//   - Send: user message appended, loading set, stream opened.
//   - Completion: coordinator drains; after the grace period it is flushed
//     and loading clears.
//   - Stop: stream cancelled, text flushed, loading cleared immediately.
//   - Error: text flushed, loading cleared, an "Error" notification raised.
//   - Clear: implies Stop, then the conversation is emptied.
//
// # Usage
//
//	ctrl := session.New(sched, ollama.NewClient(), session.Options{
//	    Notifier: session.NotifierFunc(showToast),
//	    OnChange: redraw,
//	})
//	ctrl.Send("hi")
package session
