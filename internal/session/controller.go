// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/quill/internal/loop"
	"github.com/jeranaias/quill/internal/model"
	"github.com/jeranaias/quill/internal/transport"
	"github.com/jeranaias/quill/internal/typewriter"
)

// DefaultGracePeriod is the delay between stream completion and clearing
// the loading flag.
const DefaultGracePeriod = 500 * time.Millisecond

// ErrorTitle is the title of notifications raised for transport errors.
const ErrorTitle = "Error"

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a Controller.
type Options struct {
	// Typewriter bounds the reveal increment per frame.
	Typewriter typewriter.Options

	// GracePeriod after completion before loading clears. Zero means
	// DefaultGracePeriod.
	GracePeriod time.Duration

	// SystemPrompt is prepended to every transport history when set.
	SystemPrompt string

	// Notifier receives error notifications. Nil discards them.
	Notifier Notifier

	// OnChange is called after every visible state change.
	OnChange func()

	Logger zerolog.Logger
}

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot is the read-only view handed to presentation.
type Snapshot struct {
	Messages []model.Message
	Loading  bool
	State    typewriter.State
	// Pending is the number of runes received but not yet revealed
	Pending int
}

// Typing reports whether the typing indicator should show: a reply is
// loading and nothing of it is visible yet.
func (s Snapshot) Typing() bool {
	if !s.Loading || len(s.Messages) == 0 {
		return false
	}
	return s.Messages[len(s.Messages)-1].Role == model.RoleUser
}

// Empty reports whether the conversation has no messages.
func (s Snapshot) Empty() bool {
	return len(s.Messages) == 0
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller sequences send, stop and clear against the typewriter and the
// transport. It owns the conversation, the coordinator and the loading flag.
//
// Every method must be called on the scheduler's event loop. Transport
// callbacks are marshalled onto that loop with Scheduler.Post and tagged with
// a stream generation; callbacks from a stream that was stopped, cleared or
// superseded are dropped.
type Controller struct {
	sched     loop.Scheduler
	transport transport.Transport
	notifier  Notifier
	onChange  func()
	log       zerolog.Logger

	conv *model.Conversation
	tw   *typewriter.Coordinator

	loading    bool
	active     bool // transport still delivering
	generation uint64
	cancelMgr  *cancelManager
	frame      loop.Handle
	grace      loop.Handle
	graceDelay time.Duration
	closed     bool
}

// New creates an idle controller with an empty conversation.
func New(sched loop.Scheduler, tr transport.Transport, opts Options) *Controller {
	c := &Controller{
		sched:      sched,
		transport:  tr,
		notifier:   opts.Notifier,
		onChange:   opts.OnChange,
		log:        opts.Logger,
		conv:       model.NewConversation(),
		tw:         typewriter.New(opts.Typewriter),
		cancelMgr:  newCancelManager(),
		graceDelay: opts.GracePeriod,
	}
	if c.notifier == nil {
		c.notifier = nopNotifier{}
	}
	if c.graceDelay <= 0 {
		c.graceDelay = DefaultGracePeriod
	}
	c.conv.SystemPrompt = opts.SystemPrompt
	return c
}

// =============================================================================
// INTENTS
// =============================================================================

// Send appends a user message and starts streaming the reply. It does
// nothing and returns false when text is blank or a reply is loading.
func (c *Controller) Send(text string) bool {
	text = strings.TrimSpace(norm.NFC.String(text))
	if text == "" || c.loading || c.closed {
		return false
	}

	c.conv.AddUserMessage(text)
	c.loading = true
	c.active = true
	c.tw.Start()
	c.generation++
	gen := c.generation

	ctx, cancel := context.WithCancel(context.Background())
	c.cancelMgr.set(cancel)
	history := c.conv.History()

	c.log.Info().
		Uint64("stream", gen).
		Int("history", len(history)).
		Msg("stream started")

	go c.run(ctx, c.transport, gen, history)
	c.scheduleFrame()
	c.changed()
	return true
}

// Stop cancels the in-flight stream and reveals everything received so far.
// It does nothing and returns false when nothing is loading.
func (c *Controller) Stop() bool {
	if !c.loading {
		return false
	}
	c.cancelMgr.cancel()
	c.generation++
	c.log.Info().
		Uint64("stream", c.generation-1).
		Int("chars", len([]rune(c.tw.Full()))).
		Msg("stream stopped")
	c.finish()
	return true
}

// Clear stops any in-flight stream, then empties the conversation.
func (c *Controller) Clear() {
	c.Stop()
	c.conv.Clear()
	c.tw.Reset()
	c.log.Debug().Msg("conversation cleared")
	c.changed()
}

// Close stops any in-flight stream and refuses further sends.
func (c *Controller) Close() {
	c.Stop()
	c.cancelTimers()
	c.closed = true
}

// =============================================================================
// STATE
// =============================================================================

// Snapshot returns a copy of the presentation state.
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		Messages: c.conv.Snapshot(),
		Loading:  c.loading,
		State:    c.tw.State(),
		Pending:  c.tw.Pending(),
	}
}

// Loading reports whether a reply is in flight or still in its grace period.
func (c *Controller) Loading() bool {
	return c.loading
}

// CanClear reports whether there is anything to clear.
func (c *Controller) CanClear() bool {
	return !c.conv.IsEmpty()
}

// LastReply returns the content of the most recent assistant message.
func (c *Controller) LastReply() (string, bool) {
	msg := c.conv.LastAssistantMessage()
	if msg == nil || msg.Content == "" {
		return "", false
	}
	return msg.Content, true
}

// Export returns a deep copy of the conversation for persistence.
func (c *Controller) Export() *model.Conversation {
	out := *c.conv
	out.Messages = make([]*model.Message, len(c.conv.Messages))
	for i, msg := range c.conv.Messages {
		cp := *msg
		out.Messages[i] = &cp
	}
	return &out
}

// SetTransport replaces the transport used by subsequent sends.
func (c *Controller) SetTransport(tr transport.Transport) {
	c.transport = tr
}

// SetTypewriter updates the reveal increment bounds.
func (c *Controller) SetTypewriter(minStep, maxStep int) {
	c.tw.SetSteps(minStep, maxStep)
}

// SetGracePeriod updates the delay used by subsequent completions.
func (c *Controller) SetGracePeriod(d time.Duration) {
	if d <= 0 {
		d = DefaultGracePeriod
	}
	c.graceDelay = d
}

// SetSystemPrompt updates the prompt prepended to subsequent histories.
func (c *Controller) SetSystemPrompt(prompt string) {
	c.conv.SystemPrompt = prompt
}

// =============================================================================
// STREAM LIFECYCLE
// =============================================================================

// run executes the transport off the event loop.
func (c *Controller) run(ctx context.Context, tr transport.Transport, gen uint64, history []model.Turn) {
	err := tr.Stream(ctx, history, func(delta string) {
		if ctx.Err() != nil {
			return
		}
		c.sched.Post(func() { c.onDelta(gen, delta) })
	})
	if ctx.Err() != nil {
		return
	}
	c.sched.Post(func() { c.onDone(gen, err) })
}

func (c *Controller) onDelta(gen uint64, delta string) {
	if gen != c.generation || !c.active {
		return
	}
	c.tw.Write(delta)
	if c.frame == nil {
		c.scheduleFrame()
	}
}

func (c *Controller) onDone(gen uint64, err error) {
	if gen != c.generation || !c.active {
		return
	}
	c.active = false
	c.cancelMgr.cancel()

	if err == nil {
		c.tw.Finish()
		c.log.Info().
			Uint64("stream", gen).
			Int("chars", len([]rune(c.tw.Full()))).
			Msg("stream completed")
		c.grace = c.sched.After(c.graceDelay, func() { c.onGrace(gen) })
		if c.frame == nil && c.tw.NeedsFrame(false) {
			c.scheduleFrame()
		}
		return
	}

	if transport.IsCancellation(err) {
		c.finish()
		return
	}

	c.log.Error().
		Err(err).
		Uint64("stream", gen).
		Msg("stream failed")
	c.finish()
	c.notifier.Notify(Notification{
		Title:       ErrorTitle,
		Description: err.Error(),
		Kind:        KindError,
		Err:         err,
	})
}

func (c *Controller) onGrace(gen uint64) {
	c.grace = nil
	if gen != c.generation || !c.loading {
		return
	}
	c.finish()
}

func (c *Controller) onFrame() {
	c.frame = nil
	if text, changed := c.tw.Tick(); changed {
		c.conv.UpsertAssistant(text)
		c.changed()
	}
	if c.tw.NeedsFrame(c.active) {
		c.scheduleFrame()
	}
}

func (c *Controller) scheduleFrame() {
	c.frame = c.sched.NextFrame(c.onFrame)
}

// finish flushes the coordinator into the trailing assistant message and
// clears loading.
func (c *Controller) finish() {
	c.cancelTimers()
	c.active = false
	if text, changed := c.tw.Flush(); changed {
		c.conv.UpsertAssistant(text)
	}
	c.conv.FinishAssistant()
	c.loading = false
	c.changed()
}

func (c *Controller) cancelTimers() {
	if c.frame != nil {
		c.frame.Cancel()
		c.frame = nil
	}
	if c.grace != nil {
		c.grace.Cancel()
		c.grace = nil
	}
}

func (c *Controller) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}
