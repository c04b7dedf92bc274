// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"runtime"
	"strings"

	"github.com/jeranaias/quill/internal/ollama"
)

// =============================================================================
// ERROR HINTS
// =============================================================================

// hintPattern maps error text to a one-line suggestion shown under an error
// toast. Keywords are matched case-insensitively; any match triggers.
type hintPattern struct {
	keywords []string
	hint     func() string
}

// Most specific patterns first.
var hintPatterns = []hintPattern{
	{
		keywords: []string{"ollama is not running", "localhost:11434", "127.0.0.1:11434"},
		hint:     ollamaStartHint,
	},
	{
		keywords: []string{"model not found", "' not found", "no such model", "does not exist"},
		hint:     func() string { return "Pull the model (ollama pull <name>) or set a different model with --model" },
	},
	{
		keywords: []string{"api key not configured", "authentication failed", "incorrect api key", "401"},
		hint:     func() string { return "Check QUILL_OPENAI_KEY or [openai] api_key in ~/.quill/config.toml" },
	},
	{
		keywords: []string{"rate limited", "rate limit", "429"},
		hint:     func() string { return "The provider is rate limiting requests. Wait a moment and send again" },
	},
	{
		keywords: []string{"timed out", "timeout", "deadline exceeded"},
		hint:     func() string { return "The model may still be loading. Try again in a few seconds" },
	},
	{
		keywords: []string{"connection refused", "no such host", "dial tcp", "network is unreachable"},
		hint:     func() string { return "Check the provider URL in ~/.quill/config.toml and your network" },
	},
}

// HintFor returns a suggestion for an error message, or "" when none fits.
func HintFor(errMsg string) string {
	if errMsg == "" {
		return ""
	}
	lower := strings.ToLower(errMsg)
	for _, p := range hintPatterns {
		for _, kw := range p.keywords {
			if strings.Contains(lower, kw) {
				return p.hint()
			}
		}
	}
	return ""
}

// HintForError returns a suggestion for err. Ollama client errors are
// matched by type; anything else falls back to the message text.
func HintForError(err error) string {
	switch {
	case err == nil:
		return ""
	case ollama.IsNotRunning(err):
		return ollamaStartHint()
	case ollama.IsModelNotFound(err):
		return pullModelHint()
	case ollama.IsTimeout(err):
		return timeoutHint()
	}
	return HintFor(err.Error())
}

func pullModelHint() string {
	return "Pull the model (ollama pull <name>) or set a different model with --model"
}

func timeoutHint() string {
	return "The model may still be loading. Try again in a few seconds"
}

func ollamaStartHint() string {
	switch runtime.GOOS {
	case "darwin":
		return "Start Ollama with: ollama serve (or launch Ollama.app)"
	case "windows":
		return "Start Ollama with: ollama serve (check that it is in your PATH)"
	default:
		return "Start Ollama with: ollama serve (or: sudo systemctl start ollama)"
	}
}
