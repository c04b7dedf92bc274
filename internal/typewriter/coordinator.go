// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package typewriter decouples the rate at which streamed text arrives from
// the rate at which it is revealed on screen.
//
// The Coordinator keeps two buffers: the full text received so far and the
// displayed prefix. Deltas only ever grow the full text; the displayed prefix
// advances by a few runes per animation frame (Tick) or jumps to the end on
// Flush. Nothing in this package schedules frames - the owner calls Tick on
// its own cadence.
package typewriter

import (
	"math/rand/v2"
	"unicode/utf8"
)

// =============================================================================
// STATE
// =============================================================================

// State is the lifecycle state of a Coordinator.
type State int

const (
	StateIdle      State = iota // No stream; buffers empty
	StateRevealing              // Transport active, revealing toward full text
	StateDraining               // Transport finished, catching up
	StateFlushed                // Displayed == full, no further animation
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRevealing:
		return "revealing"
	case StateDraining:
		return "draining"
	case StateFlushed:
		return "flushed"
	default:
		return "unknown"
	}
}

// Animating reports whether the state still reveals text on ticks.
func (s State) Animating() bool {
	return s == StateRevealing || s == StateDraining
}

// =============================================================================
// OPTIONS
// =============================================================================

const (
	// DefaultMinStep is the smallest reveal increment per tick.
	DefaultMinStep = 1
	// DefaultMaxStep is the largest reveal increment per tick.
	DefaultMaxStep = 3
)

// Options configures a Coordinator.
type Options struct {
	// MinStep and MaxStep bound the uniformly random number of runes
	// revealed per tick (inclusive). Defaults: 1 and 3.
	MinStep int
	MaxStep int

	// Rand is the randomness source. Nil uses the global generator.
	Rand *rand.Rand
}

// =============================================================================
// COORDINATOR
// =============================================================================

// Coordinator reveals buffered text a few runes at a time.
//
// Not safe for concurrent use: it is owned by a single event loop.
type Coordinator struct {
	full      []rune
	displayed int    // number of runes of full currently displayed
	carry     []byte // incomplete UTF-8 sequence at the end of the last write
	state     State

	minStep int
	maxStep int
	rng     *rand.Rand
}

// New creates a Coordinator in the Idle state.
func New(opts Options) *Coordinator {
	c := &Coordinator{rng: opts.Rand}
	c.SetSteps(opts.MinStep, opts.MaxStep)
	return c
}

// SetSteps updates the reveal increment bounds. Invalid bounds fall back to
// the defaults.
func (c *Coordinator) SetSteps(minStep, maxStep int) {
	if minStep <= 0 {
		minStep = DefaultMinStep
	}
	if maxStep <= 0 {
		maxStep = DefaultMaxStep
	}
	if maxStep < minStep {
		maxStep = minStep
	}
	c.minStep = minStep
	c.maxStep = maxStep
}

// Start begins a new stream: buffers are cleared and the state becomes
// Revealing.
func (c *Coordinator) Start() {
	c.full = c.full[:0]
	c.carry = c.carry[:0]
	c.displayed = 0
	c.state = StateRevealing
}

// Reset clears the buffers and returns to Idle.
func (c *Coordinator) Reset() {
	c.full = nil
	c.carry = nil
	c.displayed = 0
	c.state = StateIdle
}

// Write appends a streamed delta to the full text. It never touches the
// displayed text. A multi-byte character split across writes is held back
// until its last byte arrives. Writes outside an active stream are ignored
// and reported as false.
func (c *Coordinator) Write(chunk string) bool {
	if !c.state.Animating() {
		return false
	}
	data := chunk
	if len(c.carry) > 0 {
		data = string(c.carry) + chunk
		c.carry = c.carry[:0]
	}
	cut := completePrefix(data)
	c.full = append(c.full, []rune(data[:cut])...)
	c.carry = append(c.carry, data[cut:]...)
	return true
}

// Finish records that the transport completed. Remaining text keeps being
// revealed by Tick until it catches up.
func (c *Coordinator) Finish() {
	if c.state == StateRevealing {
		c.flushCarry()
		c.state = StateDraining
	}
}

// flushCarry appends a dangling partial sequence as-is; it decodes to U+FFFD.
func (c *Coordinator) flushCarry() {
	if len(c.carry) > 0 {
		c.full = append(c.full, []rune(string(c.carry))...)
		c.carry = c.carry[:0]
	}
}

// completePrefix returns the length of the longest prefix of s that does not
// end inside a multi-byte sequence.
func completePrefix(s string) int {
	for i := len(s) - 1; i >= 0 && i >= len(s)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(s[i]) {
			continue
		}
		if utf8.FullRuneInString(s[i:]) {
			return len(s)
		}
		return i
	}
	return len(s)
}

// Tick reveals the next run of runes. It returns the displayed text and
// whether it changed. Once a draining coordinator has caught up it moves to
// Flushed.
func (c *Coordinator) Tick() (string, bool) {
	if !c.state.Animating() {
		return c.Displayed(), false
	}

	remaining := len(c.full) - c.displayed
	if remaining <= 0 {
		if c.state == StateDraining {
			c.state = StateFlushed
		}
		return c.Displayed(), false
	}

	step := c.nextStep()
	if step > remaining {
		step = remaining
	}
	c.displayed += step

	if c.state == StateDraining && c.displayed == len(c.full) {
		c.state = StateFlushed
	}
	return c.Displayed(), true
}

// Flush makes the displayed text equal to the full text immediately and
// moves to Flushed. It returns the final text and whether it differs from
// what was displayed before.
func (c *Coordinator) Flush() (string, bool) {
	if c.state == StateIdle {
		return "", false
	}
	c.flushCarry()
	changed := c.displayed < len(c.full)
	c.displayed = len(c.full)
	c.state = StateFlushed
	return c.Displayed(), changed
}

// NeedsFrame reports whether another animation frame should be scheduled:
// text is still pending, or the transport is still delivering.
func (c *Coordinator) NeedsFrame(transportActive bool) bool {
	if !c.state.Animating() {
		return false
	}
	return c.Pending() > 0 || transportActive
}

// =============================================================================
// ACCESSORS
// =============================================================================

// State returns the current state.
func (c *Coordinator) State() State {
	return c.state
}

// Displayed returns the revealed prefix.
func (c *Coordinator) Displayed() string {
	return string(c.full[:c.displayed])
}

// Full returns all text received so far.
func (c *Coordinator) Full() string {
	return string(c.full)
}

// Pending returns the number of runes received but not yet displayed.
func (c *Coordinator) Pending() int {
	return len(c.full) - c.displayed
}

func (c *Coordinator) nextStep() int {
	span := c.maxStep - c.minStep + 1
	if c.rng != nil {
		return c.minStep + c.rng.IntN(span)
	}
	return c.minStep + rand.IntN(span)
}
