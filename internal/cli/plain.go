// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// plain.go - Line-mode chat for pipes and terminals that cannot host the
// full-screen TUI.
//
// The REPL reads a line with liner, hands it to the session controller and
// then runs the controller's event loop on the calling goroutine until the
// reply settles. The typewriter output is written to Out as it is revealed.
// Ctrl+C while a reply streams stops it; Ctrl+C at the prompt exits.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"

	"github.com/atotto/clipboard"
	"github.com/peterh/liner"
	"github.com/rs/zerolog"

	"github.com/jeranaias/quill/internal/config"
	"github.com/jeranaias/quill/internal/loop"
	"github.com/jeranaias/quill/internal/model"
	"github.com/jeranaias/quill/internal/session"
	"github.com/jeranaias/quill/internal/storage"
	"github.com/jeranaias/quill/internal/typewriter"
	"github.com/jeranaias/quill/internal/ui/components"
)

// =============================================================================
// PLAIN SESSION
// =============================================================================

// PlainOptions configures line mode.
type PlainOptions struct {
	Provider Provider
	Config   *config.Config
	// Store receives /save. Nil disables it.
	Store  *storage.Store
	Logger zerolog.Logger

	Out    io.Writer
	ErrOut io.Writer

	// HistoryFile persists liner input history. Empty disables it.
	HistoryFile string

	// Copy writes to the clipboard. Defaults to atotto/clipboard.
	Copy func(string) error
}

// Plain is a line-mode chat session.
type Plain struct {
	loop     *loop.Loop
	ctrl     *session.Controller
	provider Provider
	store    *storage.Store
	copy     func(string) error
	log      zerolog.Logger
	out      io.Writer
	errOut   io.Writer

	streaming atomic.Bool
	turn      atomic.Uint64

	// reply being written and how many of its runes are on screen
	printedID string
	printed   int
}

// NewPlain creates a line-mode session. The event loop only runs inside
// Send.
func NewPlain(opts PlainOptions) *Plain {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	out, errOut := opts.Out, opts.ErrOut
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	copyFn := opts.Copy
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}

	p := &Plain{
		loop:     loop.NewQueue(cfg.Typewriter.FrameRate),
		provider: opts.Provider,
		store:    opts.Store,
		copy:     copyFn,
		log:      opts.Logger,
		out:      out,
		errOut:   errOut,
	}
	p.ctrl = session.New(p.loop, opts.Provider.Transport, session.Options{
		Typewriter: typewriter.Options{
			MinStep: cfg.Typewriter.MinStep,
			MaxStep: cfg.Typewriter.MaxStep,
		},
		GracePeriod:  cfg.Typewriter.GracePeriod(),
		SystemPrompt: cfg.Chat.SystemPrompt,
		Notifier:     session.NotifierFunc(p.notify),
		OnChange:     p.writeReply,
		Logger:       opts.Logger,
	})
	return p
}

// Controller returns the session controller. Only touch it between Send
// calls.
func (p *Plain) Controller() *session.Controller {
	return p.ctrl
}

// Send sends text and blocks until the reply has settled, was stopped, or
// ctx ends. It reports false when the controller refused the text.
func (p *Plain) Send(ctx context.Context, text string) (bool, error) {
	p.turn.Add(1)
	p.streaming.Store(true)
	defer p.streaming.Store(false)
	if !p.ctrl.Send(text) {
		return false, nil
	}
	err := p.loop.RunUntil(ctx, func() bool { return !p.ctrl.Loading() })
	if err != nil {
		p.ctrl.Stop()
	}
	if p.printedID != "" {
		fmt.Fprintln(p.out)
	}
	p.printedID = ""
	return true, err
}

// Interrupt stops the streaming reply. Safe to call from any goroutine; it
// does nothing at the prompt.
func (p *Plain) Interrupt() {
	if !p.streaming.Load() {
		return
	}
	turn := p.turn.Load()
	p.loop.Post(func() {
		// a stop queued for a reply that already settled must not hit the next one
		if p.turn.Load() == turn && p.ctrl.Stop() {
			fmt.Fprint(p.errOut, "\n"+WarningStyle.Render("[Stopped]"))
		}
	})
}

// Close stops any stream and refuses further sends.
func (p *Plain) Close() {
	p.ctrl.Close()
}

// writeReply prints the runes of the trailing assistant message that are
// not on screen yet.
func (p *Plain) writeReply() {
	snap := p.ctrl.Snapshot()
	if len(snap.Messages) == 0 {
		return
	}
	last := snap.Messages[len(snap.Messages)-1]
	if last.Role != model.RoleAssistant {
		return
	}
	if last.ID != p.printedID {
		p.printedID = last.ID
		p.printed = 0
		fmt.Fprint(p.out, AssistantStyle.Render(last.Role.DisplayName()+":")+" ")
	}
	runes := []rune(last.Content)
	if len(runes) > p.printed {
		fmt.Fprint(p.out, string(runes[p.printed:]))
		p.printed = len(runes)
	}
}

func (p *Plain) notify(n session.Notification) {
	label := "[" + n.Title + "]"
	switch n.Kind {
	case session.KindError:
		label = ErrorStyle.Render(label)
	case session.KindWarning:
		label = WarningStyle.Render(label)
	}
	fmt.Fprintf(p.errOut, "\n%s %s\n", label, n.Description)
	hint := components.HintFor(n.Description)
	if n.Err != nil {
		hint = components.HintForError(n.Err)
	}
	if hint != "" && n.Kind != session.KindInfo {
		fmt.Fprintln(p.errOut, DimStyle.Render("  "+hint))
	}
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

const plainHelp = `Commands:
  /clear   clear the conversation
  /save    save the transcript
  /copy    copy the last reply
  /help    show this help
  /quit    exit (also Ctrl+D)
Ctrl+C stops a streaming reply.`

// Command runs a slash command typed at the prompt. It reports false when
// the session should end.
func (p *Plain) Command(input string) bool {
	name, _, _ := strings.Cut(strings.TrimSpace(input), " ")
	switch strings.ToLower(name) {
	case "/clear", "/c":
		p.ctrl.Clear()
		fmt.Fprintln(p.out, DimStyle.Render("Conversation cleared."))

	case "/save", "/s":
		p.save()

	case "/copy":
		reply, ok := p.ctrl.LastReply()
		if !ok {
			fmt.Fprintln(p.out, DimStyle.Render("No reply to copy yet."))
			break
		}
		if err := p.copy(reply); err != nil {
			fmt.Fprintf(p.errOut, "%s %v\n", ErrorStyle.Render("[Copy failed]"), err)
			break
		}
		fmt.Fprintln(p.out, DimStyle.Render("Reply copied to clipboard."))

	case "/stop":
		fmt.Fprintln(p.out, DimStyle.Render("Nothing to stop."))

	case "/help", "/h", "/?":
		fmt.Fprintln(p.out, plainHelp)

	case "/quit", "/q", "/exit":
		return false

	default:
		fmt.Fprintf(p.out, "Unknown command %s. Type /help for commands.\n", name)
	}
	return true
}

func (p *Plain) save() {
	if p.store == nil {
		fmt.Fprintln(p.errOut, WarningStyle.Render("[Save unavailable]")+" no transcript directory configured")
		return
	}
	id, err := p.store.Save(storage.FromConversation(p.ctrl.Export(), p.provider.Name, p.provider.Model))
	if errors.Is(err, storage.ErrEmptyTranscript) {
		fmt.Fprintln(p.out, DimStyle.Render("Nothing to save yet."))
		return
	}
	if err != nil {
		p.log.Error().Err(err).Msg("transcript save failed")
		fmt.Fprintf(p.errOut, "%s %v\n", ErrorStyle.Render("[Save failed]"), err)
		return
	}
	p.log.Info().Str("transcript", id).Msg("transcript saved")
	fmt.Fprintf(p.out, "%s Saved transcript %s\n", SuccessStyle.Render("[OK]"), storage.ShortID(id))
}

// Handle processes one input line. It reports false when the session
// should end.
func (p *Plain) Handle(ctx context.Context, input string) (bool, error) {
	input = strings.TrimSpace(input)
	switch {
	case input == "":
		return true, nil
	case strings.HasPrefix(input, "/"):
		return p.Command(input), nil
	case strings.EqualFold(input, "exit") || strings.EqualFold(input, "quit"):
		return false, nil
	}
	_, err := p.Send(ctx, input)
	return err == nil, err
}

// =============================================================================
// REPL
// =============================================================================

// RunPlain runs the line-mode REPL until /quit, Ctrl+D, Ctrl+C at the
// prompt, or ctx ends.
func RunPlain(ctx context.Context, opts PlainOptions) error {
	p := NewPlain(opts)
	defer p.Close()

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	loadHistory(line, opts.HistoryFile)
	defer saveHistory(line, opts.HistoryFile)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)
	go func() {
		for range sigs {
			p.Interrupt()
		}
	}()

	printBanner(p.out, opts.Provider)

	for {
		input, err := line.Prompt(PromptStyle.Render("you> "))
		if err != nil {
			// Ctrl+C at the prompt, Ctrl+D or closed stdin
			if !errors.Is(err, liner.ErrPromptAborted) && !errors.Is(err, io.EOF) {
				p.log.Warn().Err(err).Msg("prompt failed")
			}
			fmt.Fprintln(p.out)
			return nil
		}
		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}

		more, err := p.Handle(ctx, input)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if !more {
			return nil
		}
	}
}

func printBanner(w io.Writer, prov Provider) {
	fmt.Fprintf(w, "%s %s\n", TitleStyle.Render("quill"), DimStyle.Render(prov.Name+" · "+prov.Model))
	fmt.Fprintln(w, DimStyle.Render("Type a message and press Enter. /help for commands, Ctrl+D to exit."))
	fmt.Fprintln(w, RenderSeparator(GetTerminalWidth()/2))
}

func loadHistory(line *liner.State, path string) {
	if path == "" {
		return
	}
	if f, err := os.Open(path); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
}

func saveHistory(line *liner.State, path string) {
	if path == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	line.WriteHistory(f)
}
