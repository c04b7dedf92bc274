// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jeranaias/quill/internal/config"
	"github.com/jeranaias/quill/internal/model"
	"github.com/jeranaias/quill/internal/storage"
	"github.com/jeranaias/quill/internal/transport"
)

// =============================================================================
// ARG PARSER TESTS
// =============================================================================

func TestArgParser_BasicParsing(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		validate func(*testing.T, *ArgParser)
	}{
		{
			name: "flag with value",
			args: []string{"show", "--format", "md"},
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("format") != "md" {
					t.Errorf("Flag(format) = %q, want %q", p.Flag("format"), "md")
				}
				if p.Positional(0) != "show" {
					t.Errorf("Positional(0) = %q, want show", p.Positional(0))
				}
			},
		},
		{
			name: "flag with equals",
			args: []string{"--model=llama3.2:3b"},
			validate: func(t *testing.T, p *ArgParser) {
				if p.Flag("model") != "llama3.2:3b" {
					t.Errorf("Flag(model) = %q", p.Flag("model"))
				}
			},
		},
		{
			name: "switch does not swallow positional",
			args: []string{"--plain", "chat"},
			validate: func(t *testing.T, p *ArgParser) {
				if !p.BoolFlag("plain") {
					t.Error("BoolFlag(plain) should be true")
				}
				if p.Positional(0) != "chat" {
					t.Errorf("Positional(0) = %q, want chat", p.Positional(0))
				}
			},
		},
		{
			name: "explicit boolean",
			args: []string{"--plain=false"},
			validate: func(t *testing.T, p *ArgParser) {
				if p.BoolFlag("plain") {
					t.Error("BoolFlag(plain) should be false")
				}
			},
		},
		{
			name: "trailing flag is boolean",
			args: []string{"chat", "--debug"},
			validate: func(t *testing.T, p *ArgParser) {
				if !p.BoolFlag("debug") {
					t.Error("BoolFlag(debug) should be true")
				}
			},
		},
		{
			name: "double dash ends flags",
			args: []string{"show", "--", "-3"},
			validate: func(t *testing.T, p *ArgParser) {
				if p.Positional(1) != "-3" {
					t.Errorf("Positional(1) = %q, want -3", p.Positional(1))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, NewArgParser(tt.args, switches...))
		})
	}
}

func TestParseIntWithValidation(t *testing.T) {
	if n, err := ParseIntWithValidation("3", "count"); err != nil || n != 3 {
		t.Errorf("ParseIntWithValidation(3) = %d, %v", n, err)
	}
	for _, bad := range []string{"", "abc", "0", "-2"} {
		if _, err := ParseIntWithValidation(bad, "count"); err == nil {
			t.Errorf("ParseIntWithValidation(%q) should fail", bad)
		}
	}
}

// =============================================================================
// PARSE TESTS
// =============================================================================

func TestParse(t *testing.T) {
	tests := []struct {
		argv    []string
		want    Command
		wantErr bool
		check   func(*testing.T, Args)
	}{
		{argv: nil, want: CmdChat},
		{argv: []string{"chat", "--plain", "-m", "qwen2.5"}, want: CmdChat, check: func(t *testing.T, a Args) {
			if !a.Plain || a.Model != "qwen2.5" {
				t.Errorf("args = %+v", a)
			}
		}},
		{argv: []string{"--provider", "OpenAI"}, want: CmdChat, check: func(t *testing.T, a Args) {
			if a.Provider != "openai" {
				t.Errorf("Provider = %q, want openai", a.Provider)
			}
		}},
		{argv: []string{"-v", "--config", "/tmp/q.toml"}, want: CmdChat, check: func(t *testing.T, a Args) {
			if !a.Verbose || a.ConfigPath != "/tmp/q.toml" {
				t.Errorf("args = %+v", a)
			}
		}},
		{argv: []string{"transcripts"}, want: CmdTranscripts, check: func(t *testing.T, a Args) {
			if a.Subcommand != "list" {
				t.Errorf("Subcommand = %q, want list", a.Subcommand)
			}
		}},
		{argv: []string{"ls", "export", "2", "--out", "x.md"}, want: CmdTranscripts, check: func(t *testing.T, a Args) {
			if a.Subcommand != "export" || a.Target != "2" || a.Out != "x.md" {
				t.Errorf("args = %+v", a)
			}
		}},
		{argv: []string{"transcripts", "show"}, want: CmdTranscripts, wantErr: true},
		{argv: []string{"transcripts", "frob"}, want: CmdTranscripts, wantErr: true},
		{argv: []string{"version"}, want: CmdVersion},
		{argv: []string{"--version"}, want: CmdVersion},
		{argv: []string{"-h"}, want: CmdHelp},
		{argv: []string{"bogus"}, want: CmdHelp, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.argv, " "), func(t *testing.T) {
			cmd, args, err := Parse(tt.argv)
			if cmd != tt.want {
				t.Errorf("command = %v, want %v", cmd, tt.want)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, args)
			}
		})
	}
}

func TestUsageAndVersion(t *testing.T) {
	var buf bytes.Buffer
	PrintUsage(&buf)
	if !strings.Contains(buf.String(), "quill transcripts") {
		t.Error("usage should document the transcripts command")
	}
	buf.Reset()
	PrintVersion(&buf)
	if !strings.Contains(buf.String(), Version) {
		t.Errorf("version output %q missing %s", buf.String(), Version)
	}
}

// =============================================================================
// PROVIDER TESTS
// =============================================================================

func TestApplyArgs(t *testing.T) {
	cfg := config.Default()
	if err := ApplyArgs(cfg, Args{Provider: "openai", Model: "gpt-4o"}); err != nil {
		t.Fatalf("ApplyArgs: %v", err)
	}
	if cfg.Provider != config.ProviderOpenAI || cfg.OpenAI.Model != "gpt-4o" {
		t.Errorf("cfg = %s", cfg)
	}

	cfg = config.Default()
	if err := ApplyArgs(cfg, Args{Model: "mistral"}); err != nil {
		t.Fatalf("ApplyArgs: %v", err)
	}
	if cfg.Ollama.Model != "mistral" {
		t.Errorf("Ollama.Model = %q, want mistral", cfg.Ollama.Model)
	}

	if err := ApplyArgs(config.Default(), Args{Provider: "bard"}); err == nil {
		t.Error("unknown provider should fail validation")
	}
}

func TestNewProvider(t *testing.T) {
	log := zerolog.Nop()

	cfg := config.Default()
	cfg.Ollama.Model = "llama3.2:1b"
	p, err := NewProvider(cfg, log)
	if err != nil {
		t.Fatalf("ollama: %v", err)
	}
	if p.Name != config.ProviderOllama || p.Model != "llama3.2:1b" || p.Checker == nil {
		t.Errorf("ollama provider = %+v", p)
	}

	cfg = config.Default()
	cfg.Provider = config.ProviderEcho
	p, err = NewProvider(cfg, log)
	if err != nil {
		t.Fatalf("echo: %v", err)
	}
	if p.Checker != nil {
		t.Error("echo provider should have no health check")
	}

	cfg = config.Default()
	cfg.Provider = config.ProviderOpenAI
	cfg.OpenAI.APIKey = ""
	if _, err := NewProvider(cfg, log); err == nil {
		t.Error("openai without a key should fail")
	}
	cfg.OpenAI.APIKey = "sk-test"
	p, err = NewProvider(cfg, log)
	if err != nil {
		t.Fatalf("openai: %v", err)
	}
	if p.Name != config.ProviderOpenAI || p.Model == "" {
		t.Errorf("openai provider = %+v", p)
	}
}

// =============================================================================
// TRANSCRIPTS TESTS
// =============================================================================

func seedStore(t *testing.T) (*storage.Store, []string) {
	t.Helper()
	store, err := storage.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, text := range []string{"first question", "second question"} {
		conv := model.NewConversation()
		conv.AddUserMessage(text)
		conv.UpsertAssistant("answer to " + text)
		conv.FinishAssistant()
		id, err := store.Save(storage.FromConversation(conv, "echo", "echo"))
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
		time.Sleep(5 * time.Millisecond)
	}
	return store, ids
}

func TestHandleTranscripts(t *testing.T) {
	store, ids := seedStore(t)
	var buf bytes.Buffer

	if err := HandleTranscripts(Args{Subcommand: "list"}, store, &buf); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(buf.String(), storage.ShortID(ids[0])) || !strings.Contains(buf.String(), "second question") {
		t.Errorf("list output = %q", buf.String())
	}

	// 0 is the most recent
	buf.Reset()
	if err := HandleTranscripts(Args{Subcommand: "show", Target: "0"}, store, &buf); err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(buf.String(), "answer to second question") {
		t.Errorf("show output = %q", buf.String())
	}

	out := filepath.Join(t.TempDir(), "t.md")
	buf.Reset()
	if err := HandleTranscripts(Args{Subcommand: "export", Target: storage.ShortID(ids[0]), Out: out}, store, &buf); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "answer to first question") {
		t.Errorf("exported markdown = %q", data)
	}

	buf.Reset()
	if err := HandleTranscripts(Args{Subcommand: "delete", Target: ids[1]}, store, &buf); err != nil {
		t.Fatalf("delete: %v", err)
	}
	metas, _ := store.List()
	if len(metas) != 1 || metas[0].ID != ids[0] {
		t.Errorf("after delete: %+v", metas)
	}
}

func TestResolveTranscriptErrors(t *testing.T) {
	store, _ := seedStore(t)

	if _, err := ResolveTranscript(store, "9"); !errors.Is(err, storage.ErrTranscriptNotFound) {
		t.Errorf("out of range index: %v", err)
	}
	if _, err := ResolveTranscript(store, "zzzz"); !errors.Is(err, storage.ErrTranscriptNotFound) {
		t.Errorf("unknown prefix: %v", err)
	}
	if _, err := ResolveTranscript(store, ""); err == nil {
		t.Error("empty target should fail")
	}
}

// =============================================================================
// PLAIN MODE TESTS
// =============================================================================

func plainConfig() *config.Config {
	cfg := config.Default()
	cfg.Typewriter.FrameRate = 240
	cfg.Typewriter.GraceMs = 1
	return cfg
}

func newTestPlain(t *testing.T, tr transport.Transport) (*Plain, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	store, err := storage.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	var out, errOut bytes.Buffer
	p := NewPlain(PlainOptions{
		Provider: Provider{Name: "echo", Model: "echo", Transport: tr},
		Config:   plainConfig(),
		Store:    store,
		Logger:   zerolog.Nop(),
		Out:      &out,
		ErrOut:   &errOut,
		Copy:     func(string) error { return nil },
	})
	t.Cleanup(p.Close)
	return p, &out, &errOut
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestPlainStreamsReply(t *testing.T) {
	p, out, _ := newTestPlain(t, &transport.Echo{})

	ok, err := p.Send(testContext(t), "hello there")
	if err != nil || !ok {
		t.Fatalf("Send = %v, %v", ok, err)
	}
	if got := out.String(); !strings.Contains(got, "Assistant:") || !strings.Contains(got, "hello there\n") {
		t.Errorf("output = %q", got)
	}
	if p.Controller().Loading() {
		t.Error("loading should be false after Send returns")
	}
	if reply, _ := p.Controller().LastReply(); reply != "hello there" {
		t.Errorf("LastReply = %q", reply)
	}
}

func TestPlainRejectsBlank(t *testing.T) {
	p, out, _ := newTestPlain(t, &transport.Echo{})
	ok, err := p.Send(testContext(t), "   ")
	if ok || err != nil {
		t.Errorf("Send(blank) = %v, %v", ok, err)
	}
	if out.Len() != 0 {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestPlainTransportError(t *testing.T) {
	tr := transport.Func(func(ctx context.Context, _ []model.Turn, onDelta func(string)) error {
		onDelta("part")
		return errors.New("model not found")
	})
	p, out, errOut := newTestPlain(t, tr)

	if _, err := p.Send(testContext(t), "hi"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !strings.Contains(errOut.String(), "[Error] model not found") {
		t.Errorf("stderr = %q", errOut.String())
	}
	if !strings.Contains(out.String(), "part") {
		t.Errorf("partial reply should be kept, output = %q", out.String())
	}
}

func TestPlainInterruptStopsStream(t *testing.T) {
	started := make(chan struct{})
	tr := transport.Func(func(ctx context.Context, _ []model.Turn, onDelta func(string)) error {
		onDelta("partial")
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	p, out, errOut := newTestPlain(t, tr)

	go func() {
		<-started
		p.Interrupt()
	}()
	if _, err := p.Send(testContext(t), "tell me"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !strings.Contains(out.String(), "partial") {
		t.Errorf("output = %q", out.String())
	}
	if !strings.Contains(errOut.String(), "[Stopped]") {
		t.Errorf("stderr = %q", errOut.String())
	}
	if p.Controller().Loading() {
		t.Error("loading should be false after stop")
	}
}

func TestPlainInterruptAtPromptIsNoop(t *testing.T) {
	p, _, errOut := newTestPlain(t, &transport.Echo{})
	p.Interrupt()
	if _, err := p.Send(testContext(t), "still works"); err != nil {
		t.Fatal(err)
	}
	if reply, _ := p.Controller().LastReply(); reply != "still works" {
		t.Errorf("LastReply = %q", reply)
	}
	if strings.Contains(errOut.String(), "[Stopped]") {
		t.Error("an interrupt at the prompt must not stop the next reply")
	}
}

func TestPlainCommands(t *testing.T) {
	p, out, _ := newTestPlain(t, &transport.Echo{})
	ctx := testContext(t)

	more, _ := p.Handle(ctx, "/save")
	if !more || !strings.Contains(out.String(), "Nothing to save yet.") {
		t.Errorf("/save on empty: %q", out.String())
	}

	if _, err := p.Handle(ctx, "hi"); err != nil {
		t.Fatal(err)
	}
	out.Reset()
	p.Handle(ctx, "/save")
	if !strings.Contains(out.String(), "Saved transcript") {
		t.Errorf("/save: %q", out.String())
	}

	out.Reset()
	p.Handle(ctx, "/copy")
	if !strings.Contains(out.String(), "copied") {
		t.Errorf("/copy: %q", out.String())
	}

	out.Reset()
	p.Handle(ctx, "/clear")
	if p.Controller().CanClear() {
		t.Error("/clear should empty the conversation")
	}

	out.Reset()
	p.Handle(ctx, "/nope")
	if !strings.Contains(out.String(), "Unknown command /nope") {
		t.Errorf("unknown: %q", out.String())
	}

	for _, quit := range []string{"/quit", "/q", "exit", "QUIT"} {
		if more, _ := p.Handle(ctx, quit); more {
			t.Errorf("%q should end the session", quit)
		}
	}
	if more, _ := p.Handle(ctx, "   "); !more {
		t.Error("blank input should keep the session going")
	}
}

func TestUsePlainModeFlag(t *testing.T) {
	if !UsePlainMode(Args{Plain: true}) {
		t.Error("--plain should force plain mode")
	}
}
