// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package loop provides the scheduled-task abstraction the session controller
// runs on.
//
// Every callback handed to a Scheduler runs on the owner's single event loop,
// so the state those callbacks touch needs no locking. Two implementations
// exist:
//
//   - Loop dispatches onto a real event loop (Bubble Tea's Program.Send, or
//     its own task queue in line mode) and uses wall-clock timers.
//   - Manual queues everything and only runs it when the test steps it.
package loop

import (
	"sync/atomic"
	"time"
)

// DefaultFrameRate is the animation frame rate used when none is configured.
const DefaultFrameRate = 60

// Handle is a scheduled task that can be cancelled. Cancel is idempotent and
// safe to call after the task has already run.
type Handle interface {
	Cancel()
}

// Scheduler runs callbacks on the owner's event loop.
type Scheduler interface {
	// Post marshals fn onto the event loop. Safe to call from any goroutine
	// except the event loop itself.
	Post(fn func())

	// NextFrame runs fn once at the next animation frame.
	NextFrame(fn func()) Handle

	// After runs fn once after d has elapsed.
	After(d time.Duration, fn func()) Handle
}

// FrameInterval converts a frame rate to the delay between frames.
func FrameInterval(frameRate int) time.Duration {
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}
	return time.Second / time.Duration(frameRate)
}

// task is the Handle shared by both schedulers. A cancelled task is skipped
// even if it was already queued on the loop when Cancel ran.
type task struct {
	fn        func()
	cancelled atomic.Bool
	stop      func() bool
	at        time.Duration
}

func newTask(fn func()) *task {
	return &task{fn: fn}
}

// Cancel implements Handle.
func (t *task) Cancel() {
	if t.cancelled.Swap(true) {
		return
	}
	if t.stop != nil {
		t.stop()
	}
}

func (t *task) run() {
	if t.cancelled.Load() {
		return
	}
	t.cancelled.Store(true)
	t.fn()
}
