// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/quill/internal/loop"
	"github.com/jeranaias/quill/internal/model"
	"github.com/jeranaias/quill/internal/transport/transporttest"
	"github.com/jeranaias/quill/internal/typewriter"
)

// =============================================================================
// HARNESS
// =============================================================================

type harness struct {
	t       *testing.T
	sched   *loop.Manual
	tr      *transporttest.Scripted
	ctrl    *Controller
	notes   []Notification
	changes int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:     t,
		sched: loop.NewManual(),
		tr:    transporttest.New(t),
	}
	h.ctrl = New(h.sched, h.tr, Options{
		Typewriter: typewriter.Options{Rand: rand.New(rand.NewPCG(7, 11))},
		Notifier:   NotifierFunc(func(n Notification) { h.notes = append(h.notes, n) }),
		OnChange:   func() { h.changes++ },
	})
	return h
}

// finishStream ends the open stream with err (nil for completion) and runs
// the resulting callback on the loop.
func (h *harness) finishStream(err error) {
	h.t.Helper()
	if err == nil {
		h.tr.Complete()
	} else {
		h.tr.Fail(err)
	}
	require.True(h.t, h.sched.WaitPosts(1, 2*time.Second), "terminal callback was not posted")
	h.sched.RunPosted()
}

func (h *harness) emit(deltas ...string) {
	h.t.Helper()
	for _, d := range deltas {
		h.tr.Emit(d)
	}
	h.sched.RunPosted()
}

func (h *harness) messages() []model.Message {
	return h.ctrl.Snapshot().Messages
}

func (h *harness) lastContent() string {
	msgs := h.messages()
	require.NotEmpty(h.t, msgs)
	return msgs[len(msgs)-1].Content
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestSendStreamsAndClearsLoadingAfterGrace(t *testing.T) {
	h := newHarness(t)

	require.True(t, h.ctrl.Send("hi"))
	history := h.tr.WaitCall()
	assert.Equal(t, []model.Turn{{Role: model.RoleUser, Content: "hi"}}, history)
	assert.True(t, h.ctrl.Loading())

	h.emit("Hel", "lo!")
	snap := h.ctrl.Snapshot()
	require.Len(t, snap.Messages, 1, "deltas alone never touch the conversation")
	assert.True(t, snap.Typing())

	h.finishStream(nil)
	assert.Equal(t, typewriter.StateDraining, h.ctrl.Snapshot().State)

	h.sched.Settle(100)
	assert.Equal(t, "Hello!", h.lastContent())
	assert.Equal(t, typewriter.StateFlushed, h.ctrl.Snapshot().State)
	assert.True(t, h.ctrl.Loading(), "loading holds until the grace period elapses")

	h.sched.Advance(DefaultGracePeriod - time.Millisecond)
	assert.True(t, h.ctrl.Loading())

	h.sched.Advance(time.Millisecond)
	assert.False(t, h.ctrl.Loading())

	msgs := h.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "Hello!", msgs[1].Content)
	assert.False(t, msgs[1].InProgress)
	assert.Empty(t, h.notes)
}

func TestGraceFlushesUnrevealedText(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Send("hi")
	long := strings.Repeat("word ", 200)
	h.emit(long)
	h.finishStream(nil)

	h.sched.StepFrame()
	assert.NotEqual(t, long, h.lastContent())

	h.sched.Advance(DefaultGracePeriod)
	assert.Equal(t, long, h.lastContent())
	assert.False(t, h.ctrl.Loading())
	assert.Equal(t, 0, h.sched.PendingFrames())
}

func TestStopFlushesAndIgnoresLateDeltas(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Send("hi")
	h.tr.WaitCall()

	h.emit("Par", "tial")
	h.sched.StepFrame()
	require.True(t, strings.HasPrefix("Partial", h.lastContent()))

	assert.True(t, h.ctrl.Stop())
	assert.False(t, h.ctrl.Loading())
	assert.Equal(t, "Partial", h.lastContent())
	assert.Eventually(t, func() bool { return h.tr.Cancelled() == 1 }, time.Second, time.Millisecond)

	h.tr.Emit("more")
	h.tr.Complete()
	h.sched.RunPosted()
	h.sched.Settle(10)
	h.sched.Advance(time.Second)

	msgs := h.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "Partial", msgs[1].Content)
	assert.False(t, msgs[1].InProgress)
	assert.Empty(t, h.notes)
}

func TestStopBeforeAnyText(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Send("hi")

	assert.True(t, h.ctrl.Stop())
	assert.Len(t, h.messages(), 1, "no empty assistant message is created")
	assert.False(t, h.ctrl.Loading())
}

func TestSendIgnoresBlankInput(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t "} {
		h := newHarness(t)
		assert.False(t, h.ctrl.Send(input))
		assert.Empty(t, h.messages())
		assert.False(t, h.ctrl.Loading())
		assert.Equal(t, 0, h.tr.Calls())
		assert.Equal(t, 0, h.changes)
	}
}

func TestSendTrimsInput(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Send("  hello \n")
	assert.Equal(t, "hello", h.messages()[0].Content)
}

func TestSendWhileLoadingIsIgnored(t *testing.T) {
	h := newHarness(t)
	require.True(t, h.ctrl.Send("first"))
	h.tr.WaitCall()

	assert.False(t, h.ctrl.Send("second"))
	assert.Len(t, h.messages(), 1)
	assert.Equal(t, 1, h.tr.Calls())
}

func TestTransportErrorKeepsPartialContent(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Send("hi")
	h.emit("Hi")
	netErr := errors.New("network down")
	h.finishStream(netErr)

	assert.False(t, h.ctrl.Loading())
	assert.Equal(t, "Hi", h.lastContent())
	assert.Equal(t, typewriter.StateFlushed, h.ctrl.Snapshot().State)
	require.Len(t, h.notes, 1)
	assert.Equal(t, Notification{Title: "Error", Description: "network down", Kind: KindError, Err: netErr}, h.notes[0])
	assert.Equal(t, 0, h.sched.PendingFrames())
	assert.Equal(t, 0, h.sched.PendingTimers())

	// The session stays usable
	assert.True(t, h.ctrl.Send("again"))
}

func TestClearAfterConversation(t *testing.T) {
	h := newHarness(t)
	for _, prompt := range []string{"one", "two"} {
		require.True(t, h.ctrl.Send(prompt))
		h.tr.WaitCall()
		h.emit("reply to " + prompt)
		h.finishStream(nil)
		h.sched.Settle(100)
		h.sched.Advance(DefaultGracePeriod)
	}
	require.Len(t, h.messages(), 4)
	assert.True(t, h.ctrl.CanClear())

	h.ctrl.Clear()
	assert.Empty(t, h.messages())
	assert.False(t, h.ctrl.CanClear())
	assert.Equal(t, typewriter.StateIdle, h.ctrl.Snapshot().State)

	require.True(t, h.ctrl.Send("fresh"))
	history := h.tr.WaitCall()
	assert.Equal(t, []model.Turn{{Role: model.RoleUser, Content: "fresh"}}, history)
	assert.Len(t, h.messages(), 1)
}

func TestClearMidStreamStopsIt(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Send("hi")
	h.emit("partial")
	h.sched.StepFrame()

	h.ctrl.Clear()
	assert.Empty(t, h.messages())
	assert.False(t, h.ctrl.Loading())

	h.tr.Emit(" resurrected")
	h.tr.Complete()
	h.sched.RunPosted()
	h.sched.Settle(10)
	h.sched.Advance(time.Second)
	assert.Empty(t, h.messages(), "late callbacks must not resurrect a cleared message")
}

// =============================================================================
// PROPERTIES
// =============================================================================

func TestFinalTextIsConcatenationOfDeltas(t *testing.T) {
	chunks := []string{"The ", "quick", " brown ", "", "fox ", "日本", "語 ", "jumps."}
	h := newHarness(t)
	h.ctrl.Send("go")

	for i, c := range chunks {
		h.emit(c)
		if i%2 == 0 {
			h.sched.StepFrame()
		}
	}
	h.finishStream(nil)
	h.sched.Settle(1000)

	assert.Equal(t, strings.Join(chunks, ""), h.lastContent())
}

func TestSplitCharacterAcrossDeltas(t *testing.T) {
	h := newHarness(t)
	require.True(t, h.ctrl.Send("hi"))
	h.tr.WaitCall()

	h.emit("caf\xc3", "\xa9!")
	h.finishStream(nil)
	h.sched.Settle(100)
	h.sched.Advance(time.Second)

	assert.False(t, h.ctrl.Loading())
	assert.Equal(t, "café!", h.lastContent())
}

func TestDisplayedIsAlwaysPrefix(t *testing.T) {
	h := newHarness(t)
	var seen []string
	h.ctrl.onChange = func() {
		msgs := h.ctrl.Snapshot().Messages
		if last := msgs[len(msgs)-1]; last.Role == model.RoleAssistant {
			seen = append(seen, last.Content)
		}
	}

	h.ctrl.Send("go")
	full := ""
	for _, c := range []string{"alpha ", "beta ", "gamma ", "delta"} {
		h.emit(c)
		full += c
		h.sched.StepFrame()
		h.sched.StepFrame()
	}
	h.finishStream(nil)
	h.sched.Settle(1000)

	require.NotEmpty(t, seen)
	prev := 0
	for _, s := range seen {
		assert.True(t, strings.HasPrefix(full, s), "%q is not a prefix of %q", s, full)
		assert.GreaterOrEqual(t, len(s), prev)
		prev = len(s)
	}
}

func TestStopIsIdempotentWhenIdle(t *testing.T) {
	h := newHarness(t)
	assert.False(t, h.ctrl.Stop())
	assert.Equal(t, 0, h.changes)

	h.ctrl.Send("hi")
	h.emit("done")
	h.finishStream(nil)
	h.sched.Settle(100)
	h.sched.Advance(DefaultGracePeriod)

	before := h.messages()
	changes := h.changes
	assert.False(t, h.ctrl.Stop())
	assert.False(t, h.ctrl.Loading())
	assert.Equal(t, before, h.messages())
	assert.Equal(t, changes, h.changes)
}

func TestFramesStopWhenIdle(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Send("hi")
	assert.Equal(t, 1, h.sched.PendingFrames())

	// Frames keep running while the transport is open, even with nothing to show
	h.sched.StepFrame()
	assert.Equal(t, 1, h.sched.PendingFrames())

	h.finishStream(nil)
	h.sched.Settle(10)
	assert.Equal(t, 0, h.sched.PendingFrames())
	assert.Equal(t, 1, h.sched.PendingTimers())
}

// =============================================================================
// MISC
// =============================================================================

func TestSystemPromptInHistory(t *testing.T) {
	h := newHarness(t)
	h.ctrl.SetSystemPrompt("be brief")
	h.ctrl.Send("hi")

	history := h.tr.WaitCall()
	require.Len(t, history, 2)
	assert.Equal(t, model.RoleSystem, history[0].Role)
}

func TestLastReplyAndExport(t *testing.T) {
	h := newHarness(t)
	_, ok := h.ctrl.LastReply()
	assert.False(t, ok)

	h.ctrl.Send("hi")
	h.emit("there")
	h.finishStream(nil)
	h.sched.Advance(DefaultGracePeriod)

	reply, ok := h.ctrl.LastReply()
	assert.True(t, ok)
	assert.Equal(t, "there", reply)

	exported := h.ctrl.Export()
	exported.Messages[0].Content = "mutated"
	assert.Equal(t, "hi", h.messages()[0].Content)
	assert.Equal(t, "hi", exported.Title)
}

func TestCloseRefusesSends(t *testing.T) {
	h := newHarness(t)
	h.ctrl.Send("hi")
	h.ctrl.Close()

	assert.False(t, h.ctrl.Loading())
	assert.False(t, h.ctrl.Send("again"))
	assert.Equal(t, 0, h.sched.PendingFrames())
}

func TestCustomGracePeriod(t *testing.T) {
	h := newHarness(t)
	h.ctrl.SetGracePeriod(50 * time.Millisecond)
	h.ctrl.Send("hi")
	h.emit("ok")
	h.finishStream(nil)

	h.sched.Advance(49 * time.Millisecond)
	assert.True(t, h.ctrl.Loading())
	h.sched.Advance(time.Millisecond)
	assert.False(t, h.ctrl.Loading())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "info", KindInfo.String())
	assert.Equal(t, "warning", KindWarning.String())
	assert.Equal(t, "error", KindError.String())
	assert.Equal(t, "unknown", Kind(42).String())
}
