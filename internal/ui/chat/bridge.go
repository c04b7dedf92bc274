// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// TaskMsg carries a scheduled callback into Update, which runs it. This is
// how loop.Loop callbacks reach the Bubble Tea event loop.
type TaskMsg func()

// Bridge is the dispatch function for a loop.Loop driving the TUI. Callbacks
// dispatched before Attach are held and delivered in order once a program is
// attached.
type Bridge struct {
	mu       sync.Mutex
	program  *tea.Program
	pending  []func()
	flushing bool
}

// NewBridge creates an unattached bridge.
func NewBridge() *Bridge {
	return &Bridge{}
}

// Attach sets the program that receives callbacks. It returns at once:
// Program.Send blocks until Run is reading messages, so held callbacks are
// delivered from a separate goroutine.
func (b *Bridge) Attach(p *tea.Program) {
	b.mu.Lock()
	b.program = p
	if len(b.pending) == 0 {
		b.mu.Unlock()
		return
	}
	b.flushing = true
	b.mu.Unlock()
	go b.flush(p)
}

// flush delivers held callbacks, including any dispatched while it runs.
func (b *Bridge) flush(p *tea.Program) {
	for {
		b.mu.Lock()
		batch := b.pending
		b.pending = nil
		if len(batch) == 0 {
			b.flushing = false
			b.mu.Unlock()
			return
		}
		b.mu.Unlock()
		for _, fn := range batch {
			p.Send(TaskMsg(fn))
		}
	}
}

// Dispatch delivers fn to the attached program.
func (b *Bridge) Dispatch(fn func()) {
	b.mu.Lock()
	p := b.program
	if p == nil || b.flushing {
		b.pending = append(b.pending, fn)
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()
	p.Send(TaskMsg(fn))
}
