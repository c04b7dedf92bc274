// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package loop

import (
	"sort"
	"sync"
	"time"
)

// Manual is a deterministic Scheduler driven by a virtual clock. Nothing runs
// until the owner calls RunPosted, StepFrame or Advance, all of which must be
// called from the goroutine that plays the event loop.
type Manual struct {
	mu     sync.Mutex
	now    time.Duration
	posted []func()
	frames []*task
	timers []*task
}

// NewManual creates a Manual scheduler at virtual time zero.
func NewManual() *Manual {
	return &Manual{}
}

// Post implements Scheduler. Safe to call from any goroutine.
func (m *Manual) Post(fn func()) {
	m.mu.Lock()
	m.posted = append(m.posted, fn)
	m.mu.Unlock()
}

// NextFrame implements Scheduler.
func (m *Manual) NextFrame(fn func()) Handle {
	t := newTask(fn)
	m.mu.Lock()
	m.frames = append(m.frames, t)
	m.mu.Unlock()
	return t
}

// After implements Scheduler.
func (m *Manual) After(d time.Duration, fn func()) Handle {
	t := newTask(fn)
	m.mu.Lock()
	t.at = m.now + d
	m.timers = append(m.timers, t)
	m.mu.Unlock()
	return t
}

// RunPosted runs posted callbacks, including ones posted while running,
// until the queue is empty. Returns how many ran.
func (m *Manual) RunPosted() int {
	n := 0
	for {
		m.mu.Lock()
		if len(m.posted) == 0 {
			m.mu.Unlock()
			return n
		}
		fn := m.posted[0]
		m.posted = m.posted[1:]
		m.mu.Unlock()

		fn()
		n++
	}
}

// StepFrame runs the callbacks scheduled for the next frame. Frames requested
// while stepping run on the following StepFrame. Returns how many ran.
func (m *Manual) StepFrame() int {
	m.mu.Lock()
	frames := m.frames
	m.frames = nil
	m.mu.Unlock()

	n := 0
	for _, t := range frames {
		if t.cancelled.Load() {
			continue
		}
		t.run()
		n++
	}
	return n
}

// Advance moves the virtual clock forward by d and fires due timers in
// deadline order. Returns how many fired.
func (m *Manual) Advance(d time.Duration) int {
	m.mu.Lock()
	m.now += d
	now := m.now
	var due, rest []*task
	for _, t := range m.timers {
		switch {
		case t.cancelled.Load():
		case t.at <= now:
			due = append(due, t)
		default:
			rest = append(rest, t)
		}
	}
	m.timers = rest
	m.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at < due[j].at })
	n := 0
	for _, t := range due {
		if t.cancelled.Load() {
			continue
		}
		t.run()
		n++
	}
	return n
}

// Settle alternates RunPosted and StepFrame until neither has work left or
// maxRounds is reached. Returns the number of frames stepped.
func (m *Manual) Settle(maxRounds int) int {
	frames := 0
	for i := 0; i < maxRounds; i++ {
		ran := m.RunPosted()
		stepped := m.StepFrame()
		frames += stepped
		if ran == 0 && stepped == 0 {
			break
		}
	}
	return frames
}

// WaitPosts blocks until at least n callbacks are queued or timeout elapses.
// Reports whether the queue reached n.
func (m *Manual) WaitPosts(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if m.PendingPosts() >= n {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
}

// Now returns the virtual clock.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// PendingFrames returns the number of live frame callbacks.
func (m *Manual) PendingFrames() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return countLive(m.frames)
}

// PendingTimers returns the number of live timers.
func (m *Manual) PendingTimers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return countLive(m.timers)
}

// PendingPosts returns the number of posted callbacks not yet run.
func (m *Manual) PendingPosts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.posted)
}

func countLive(tasks []*task) int {
	n := 0
	for _, t := range tasks {
		if !t.cancelled.Load() {
			n++
		}
	}
	return n
}
