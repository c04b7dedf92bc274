// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package loop

import (
	"context"
	"time"
)

// Loop is a Scheduler backed by wall-clock timers. Callbacks are handed to a
// dispatch function which must deliver them to the event loop in order.
type Loop struct {
	dispatch func(func())
	frame    time.Duration
	tasks    chan func()
}

// New creates a Loop that delivers callbacks through dispatch. In the TUI
// dispatch wraps the callback in a message and calls Program.Send.
func New(dispatch func(func()), frameRate int) *Loop {
	return &Loop{
		dispatch: dispatch,
		frame:    FrameInterval(frameRate),
	}
}

// NewQueue creates a Loop with its own task queue. Callbacks only run while
// Run is executing.
func NewQueue(frameRate int) *Loop {
	l := &Loop{
		frame: FrameInterval(frameRate),
		tasks: make(chan func(), 256),
	}
	l.dispatch = func(fn func()) { l.tasks <- fn }
	return l
}

// Run executes queued callbacks until ctx is done. Only valid for loops
// created with NewQueue.
func (l *Loop) Run(ctx context.Context) error {
	if l.tasks == nil {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.tasks:
			fn()
		}
	}
}

// RunUntil executes queued callbacks until done returns true after a
// callback, or ctx is cancelled.
func (l *Loop) RunUntil(ctx context.Context, done func() bool) error {
	if l.tasks == nil {
		return nil
	}
	for !done() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.tasks:
			fn()
		}
	}
	return nil
}

// Post implements Scheduler.
func (l *Loop) Post(fn func()) {
	l.dispatch(fn)
}

// NextFrame implements Scheduler.
func (l *Loop) NextFrame(fn func()) Handle {
	return l.After(l.frame, fn)
}

// After implements Scheduler.
func (l *Loop) After(d time.Duration, fn func()) Handle {
	t := newTask(fn)
	timer := time.AfterFunc(d, func() {
		if t.cancelled.Load() {
			return
		}
		l.dispatch(t.run)
	})
	t.stop = timer.Stop
	return t
}

// FrameInterval returns the delay between animation frames.
func (l *Loop) FrameInterval() time.Duration {
	return l.frame
}

// SetFrameRate changes the frame interval for frames scheduled afterwards.
// Must be called on the event loop.
func (l *Loop) SetFrameRate(frameRate int) {
	l.frame = FrameInterval(frameRate)
}
