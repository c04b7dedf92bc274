// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transport

import (
	"context"
	"strings"
	"time"

	"github.com/jeranaias/quill/internal/model"
)

// Echo is an offline transport that replies with the last user message,
// split into word-sized deltas. Used by the "echo" provider and for demos.
type Echo struct {
	// Delay between deltas. Zero sends them back to back.
	Delay time.Duration
	// Prefix is prepended to the reply.
	Prefix string
}

// Stream implements Transport.
func (e *Echo) Stream(ctx context.Context, history []model.Turn, onDelta func(string)) error {
	var last string
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == model.RoleUser {
			last = history[i].Content
			break
		}
	}

	reply := e.Prefix + last
	for _, word := range splitKeepSpace(reply) {
		if e.Delay > 0 {
			timer := time.NewTimer(e.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		onDelta(word)
	}
	return nil
}

// splitKeepSpace splits s into words, keeping each word's trailing
// whitespace so the deltas concatenate back to s.
func splitKeepSpace(s string) []string {
	var parts []string
	for len(s) > 0 {
		i := strings.IndexAny(s, " \n\t")
		if i < 0 {
			parts = append(parts, s)
			break
		}
		j := i
		for j < len(s) && strings.ContainsRune(" \n\t", rune(s[j])) {
			j++
		}
		parts = append(parts, s[:j])
		s = s[j:]
	}
	return parts
}
