// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transporttest provides a transport whose stream is driven step by
// step from a test.
package transporttest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jeranaias/quill/internal/model"
)

const stepTimeout = 2 * time.Second

type stepKind int

const (
	stepDelta stepKind = iota
	stepComplete
	stepFail
)

type step struct {
	kind  stepKind
	delta string
	err   error
	ack   chan struct{}
}

// Scripted is a transport.Transport controlled by the test. Each Stream call
// blocks until the test emits deltas and a terminal outcome.
//
// Cancellation is recorded but not acted on, so a test can emit deltas after
// the caller cancelled and check they are ignored. Set HonorCancel to make
// Stream return ctx.Err() as soon as the context is cancelled.
type Scripted struct {
	t           testing.TB
	HonorCancel bool

	steps   chan step
	started chan []model.Turn
	done    chan struct{}

	mu        sync.Mutex
	calls     [][]model.Turn
	cancelled int
	closeOnce sync.Once
}

// New creates a Scripted transport. Streams still open when the test ends
// are released.
func New(t testing.TB) *Scripted {
	s := &Scripted{
		t:       t,
		steps:   make(chan step),
		started: make(chan []model.Turn, 64),
		done:    make(chan struct{}),
	}
	t.Cleanup(s.Close)
	return s
}

// Stream implements transport.Transport.
func (s *Scripted) Stream(ctx context.Context, history []model.Turn, onDelta func(string)) error {
	copied := append([]model.Turn(nil), history...)
	s.mu.Lock()
	s.calls = append(s.calls, copied)
	s.mu.Unlock()
	s.started <- copied

	stop := context.AfterFunc(ctx, func() {
		s.mu.Lock()
		s.cancelled++
		s.mu.Unlock()
	})
	defer stop()

	var cancelled <-chan struct{}
	if s.HonorCancel {
		cancelled = ctx.Done()
	}

	for {
		select {
		case <-s.done:
			return context.Canceled
		case <-cancelled:
			return ctx.Err()
		case st := <-s.steps:
			switch st.kind {
			case stepDelta:
				onDelta(st.delta)
				close(st.ack)
			case stepComplete:
				close(st.ack)
				return nil
			case stepFail:
				close(st.ack)
				return st.err
			}
		}
	}
}

// Emit delivers a delta to the open stream and returns once onDelta has
// been called.
func (s *Scripted) Emit(delta string) {
	s.t.Helper()
	s.send(step{kind: stepDelta, delta: delta})
}

// Complete ends the open stream successfully.
func (s *Scripted) Complete() {
	s.t.Helper()
	s.send(step{kind: stepComplete})
}

// Fail ends the open stream with err.
func (s *Scripted) Fail(err error) {
	s.t.Helper()
	s.send(step{kind: stepFail, err: err})
}

// WaitCall blocks until the next Stream call begins and returns its history.
func (s *Scripted) WaitCall() []model.Turn {
	s.t.Helper()
	select {
	case h := <-s.started:
		return h
	case <-time.After(stepTimeout):
		s.t.Fatalf("transporttest: no stream started within %s", stepTimeout)
		return nil
	}
}

// Calls returns the number of Stream calls so far.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// History returns the history passed to the i-th Stream call.
func (s *Scripted) History(i int) []model.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[i]
}

// Cancelled returns how many stream contexts were cancelled.
func (s *Scripted) Cancelled() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

// Close releases every open stream.
func (s *Scripted) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Scripted) send(st step) {
	s.t.Helper()
	st.ack = make(chan struct{})
	select {
	case s.steps <- st:
	case <-time.After(stepTimeout):
		s.t.Fatalf("transporttest: no open stream accepted the step within %s", stepTimeout)
		return
	}
	<-st.ack
}
