// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transport defines the streaming contract between the session
// controller and a chat backend.
package transport

import (
	"context"
	"errors"

	"github.com/jeranaias/quill/internal/model"
)

// Transport streams one assistant reply for the given history.
//
// Stream calls onDelta zero or more times with text deltas in arrival order,
// then returns nil on completion or a non-nil error whose Error() text is
// shown to the user. Cancelling ctx aborts the stream; after cancellation the
// caller must not rely on observing either outcome.
//
// onDelta is called on the Stream goroutine and must not block for long.
type Transport interface {
	Stream(ctx context.Context, history []model.Turn, onDelta func(string)) error
}

// Func adapts an ordinary function to a Transport.
type Func func(ctx context.Context, history []model.Turn, onDelta func(string)) error

// Stream implements Transport.
func (f Func) Stream(ctx context.Context, history []model.Turn, onDelta func(string)) error {
	return f(ctx, history, onDelta)
}

// Checker is implemented by transports that can report backend health before
// the first request.
type Checker interface {
	CheckRunning(ctx context.Context) error
}

// IsCancellation reports whether err is the result of the caller cancelling
// the stream rather than a backend failure.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled)
}
