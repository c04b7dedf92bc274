// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/quill/internal/ollama"
	"github.com/jeranaias/quill/internal/ui/styles"
)

// =============================================================================
// TOAST TESTS
// =============================================================================

func TestNewToastDurations(t *testing.T) {
	tests := []struct {
		kind ToastKind
		want time.Duration
	}{
		{ToastKindError, ErrorToastDuration},
		{ToastKindWarning, WarningToastDuration},
		{ToastKindInfo, DefaultToastDuration},
	}
	for _, tt := range tests {
		if got := NewToast(tt.kind, "", "x").Duration; got != tt.want {
			t.Errorf("NewToast(%d).Duration = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestToastIsExpired(t *testing.T) {
	toast := NewToast(ToastKindInfo, "", "Test")
	if toast.IsExpired(toast.CreatedAt) {
		t.Error("Fresh toast should not be expired")
	}
	if !toast.IsExpired(toast.CreatedAt.Add(toast.Duration)) {
		t.Error("Toast should be expired after its duration")
	}
}

func TestToastManager(t *testing.T) {
	m := NewToastManager()
	if m.HasToasts() {
		t.Error("New manager should have no toasts")
	}

	id1 := m.AddError("Error", "connection refused")
	id2 := m.AddWarning("Ollama", "not running")
	if id1 == id2 {
		t.Fatal("toast IDs should be unique")
	}

	toasts := m.Toasts()
	if len(toasts) != 2 {
		t.Fatalf("Expected 2 toasts, got %d", len(toasts))
	}
	if toasts[0].ID != id2 {
		t.Error("Newest toast should be first")
	}

	m.Dismiss(id1)
	if len(m.Toasts()) != 1 {
		t.Errorf("Expected 1 toast after dismiss, got %d", len(m.Toasts()))
	}

	m.DismissAll()
	if m.HasToasts() {
		t.Error("DismissAll should remove everything")
	}
}

func TestToastManagerTickExpires(t *testing.T) {
	m := NewToastManager()
	m.AddInfo("saved")
	m.AddError("Error", "boom")

	now := time.Now()
	if !m.Tick(now) {
		t.Fatal("toasts should survive an immediate tick")
	}
	if !m.Tick(now.Add(DefaultToastDuration + time.Millisecond)) {
		t.Fatal("error toast should outlive the info toast")
	}
	if got := m.Toasts(); len(got) != 1 || got[0].Kind != ToastKindError {
		t.Fatalf("remaining toasts = %+v", got)
	}
	if m.Tick(now.Add(ErrorToastDuration + time.Millisecond)) {
		t.Error("all toasts should have expired")
	}
}

func TestToastManagerCapsVisible(t *testing.T) {
	m := NewToastManager()
	for i := 0; i < 8; i++ {
		m.AddInfo("x")
	}
	if got := len(m.Toasts()); got != 5 {
		t.Errorf("visible toasts = %d, want 5", got)
	}
}

func TestRenderToast(t *testing.T) {
	theme := styles.NewTheme(styles.ModeDark)

	out := RenderToast(theme, NewToast(ToastKindError, "Error", "connection refused"), 80)
	if !strings.Contains(out, "Error") || !strings.Contains(out, "connection refused") {
		t.Errorf("RenderToast missing text:\n%s", out)
	}
	if !strings.Contains(out, styles.StatusIndicators.Error) {
		t.Errorf("RenderToast missing error indicator:\n%s", out)
	}
	if w := lipgloss.Width(out); w > 60 {
		t.Errorf("toast width %d exceeds 60", w)
	}

	stack := RenderToastStack(theme, []Toast{NewToast(ToastKindInfo, "", "one"), NewToast(ToastKindWarning, "Warn", "two")}, 80)
	if !strings.Contains(stack, "one") || !strings.Contains(stack, "two") {
		t.Errorf("RenderToastStack missing toasts:\n%s", stack)
	}
	if RenderToastStack(theme, nil, 80) != "" {
		t.Error("empty stack should render nothing")
	}
}

// =============================================================================
// MARKDOWN TESTS
// =============================================================================

func TestMarkdownDisabledPassesThrough(t *testing.T) {
	md := NewMarkdown("dark", false)
	if got := md.Render("**bold**", 80); got != "**bold**" {
		t.Errorf("disabled Render = %q", got)
	}
	var nilMD *Markdown
	if nilMD.Enabled() {
		t.Error("nil Markdown should be disabled")
	}
}

func TestMarkdownRenders(t *testing.T) {
	md := NewMarkdown("notty", true)
	out := md.Render("# Title\n\nSome **bold** text", 60)
	if !strings.Contains(out, "Title") || !strings.Contains(out, "bold") {
		t.Errorf("Render lost content:\n%s", out)
	}
	if strings.HasPrefix(out, "\n") || strings.HasSuffix(out, "\n") {
		t.Errorf("Render should trim surrounding newlines: %q", out)
	}
	if md.Render("   ", 60) != "   " {
		t.Error("blank text should pass through")
	}
}

// =============================================================================
// WELCOME TESTS
// =============================================================================

func TestWelcomeView(t *testing.T) {
	theme := styles.NewTheme(styles.ModeLight)
	out := NewWelcome(theme, "ollama", "llama3.2").View(80, 20)

	for _, want := range []string{"quill", "How can I help", "llama3.2"} {
		if !strings.Contains(out, want) {
			t.Errorf("welcome view missing %q", want)
		}
	}
	if h := lipgloss.Height(out); h != 20 {
		t.Errorf("welcome height = %d, want 20", h)
	}
}

// =============================================================================
// HINT TESTS
// =============================================================================

func TestHintFor(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"Ollama is not running: dial tcp 127.0.0.1:11434: connect: connection refused", "ollama serve"},
		{"model not found: model 'llama9' not found", "ollama pull"},
		{"authentication failed (401): Incorrect API key provided", "QUILL_OPENAI_KEY"},
		{"rate limited (429)", "rate limiting"},
		{"request timed out", "still be loading"},
		{"dial tcp: lookup api.example: no such host", "provider URL"},
	}
	for _, tt := range tests {
		if got := HintFor(tt.msg); !strings.Contains(got, tt.want) {
			t.Errorf("HintFor(%q) = %q, want it to mention %q", tt.msg, got, tt.want)
		}
	}

	if got := HintFor("something odd happened"); got != "" {
		t.Errorf("HintFor(unknown) = %q, want empty", got)
	}
	if got := HintFor(""); got != "" {
		t.Errorf("HintFor(empty) = %q, want empty", got)
	}
}

func TestHintForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not running", fmt.Errorf("send: %w", ollama.ErrNotRunning), "ollama serve"},
		{"model missing", &ollama.ClientError{Type: ollama.ErrTypeModelNotFound, Message: "no llama9 here"}, "ollama pull"},
		{"timeout", ollama.ErrTimeout, "still be loading"},
		{"text fallback", errors.New("rate limited (429)"), "rate limiting"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HintForError(tt.err); !strings.Contains(got, tt.want) {
				t.Errorf("HintForError(%v) = %q, want it to mention %q", tt.err, got, tt.want)
			}
		})
	}
	if got := HintForError(nil); got != "" {
		t.Errorf("HintForError(nil) = %q, want empty", got)
	}
}

func TestNewErrorToastUsesErrorType(t *testing.T) {
	err := &ollama.ClientError{Type: ollama.ErrTypeModelNotFound, Message: "unknown tag"}
	toast := NewErrorToast(ToastKindError, "Error", err)
	if toast.Message != "unknown tag" {
		t.Errorf("message = %q", toast.Message)
	}
	if !strings.Contains(toast.Hint, "ollama pull") {
		t.Errorf("hint = %q, want the pull suggestion", toast.Hint)
	}
	if toast.Duration != ErrorToastDuration {
		t.Errorf("duration = %v", toast.Duration)
	}
}

func TestToastHintOnlyForProblems(t *testing.T) {
	msg := "Ollama is not running"
	if NewToast(ToastKindError, "Error", msg).Hint == "" {
		t.Error("error toast should carry a hint")
	}
	if NewToast(ToastKindWarning, "ollama unavailable", msg).Hint == "" {
		t.Error("warning toast should carry a hint")
	}
	if NewToast(ToastKindInfo, "", msg).Hint != "" {
		t.Error("info toast should not carry a hint")
	}

	theme := styles.NewTheme(styles.ModeDark)
	out := RenderToast(theme, NewToast(ToastKindError, "Error", msg), 100)
	if !strings.Contains(out, "ollama serve") {
		t.Errorf("rendered toast missing hint: %q", out)
	}
}
