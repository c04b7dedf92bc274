// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/jeranaias/quill/internal/loop"
	"github.com/jeranaias/quill/internal/session"
	"github.com/jeranaias/quill/internal/storage"
	"github.com/jeranaias/quill/internal/transport"
	"github.com/jeranaias/quill/internal/typewriter"
	"github.com/jeranaias/quill/internal/ui/components"
	"github.com/jeranaias/quill/internal/ui/styles"
)

// MaxInputRows caps how tall the input box grows with its content.
const MaxInputRows = 6

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures the chat model.
type Options struct {
	// Scheduler runs controller callbacks. In the TUI this is a loop.Loop
	// dispatching through a Bridge.
	Scheduler loop.Scheduler
	Transport transport.Transport

	// Checker, when set, is checked once at startup.
	Checker transport.Checker

	// Store receives /save transcripts. Nil disables /save.
	Store *storage.Store

	Provider string
	Model    string

	Theme    *styles.Theme
	Markdown bool

	Typewriter   typewriter.Options
	GracePeriod  time.Duration
	SystemPrompt string

	// Copy writes to the system clipboard. Defaults to atotto/clipboard.
	Copy func(string) error

	Logger zerolog.Logger
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat screen. Conversation state
// lives in the session controller; the model only renders its snapshots and
// turns keys into intents.
type Model struct {
	ctrl  *session.Controller
	sched loop.Scheduler

	keys     KeyMap
	theme    *styles.Theme
	input    textarea.Model
	viewport viewport.Model
	spinner  spinner.Model

	toasts   *components.ToastManager
	markdown *components.Markdown
	welcome  components.Welcome
	rendered map[string]string

	store    *storage.Store
	checker  transport.Checker
	provider string
	model    string
	copy     func(string) error
	log      zerolog.Logger

	width    int
	height   int
	showHelp bool
	quitting bool
}

// New creates the chat model and its session controller.
func New(opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme(styles.ModeAuto)
	}

	toasts := components.NewToastManager()
	ctrl := session.New(opts.Scheduler, opts.Transport, session.Options{
		Typewriter:   opts.Typewriter,
		GracePeriod:  opts.GracePeriod,
		SystemPrompt: opts.SystemPrompt,
		Notifier: session.NotifierFunc(func(n session.Notification) {
			toasts.Add(toastFor(n))
		}),
		Logger: opts.Logger,
	})

	ta := textarea.New()
	ta.Placeholder = "Type your message..."
	ta.ShowLineNumbers = false
	ta.Prompt = ""
	ta.CharLimit = 0
	ta.MaxHeight = MaxInputRows
	ta.SetHeight(1)
	// Enter is handled by the model
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	copyFn := opts.Copy
	if copyFn == nil {
		copyFn = clipboard.WriteAll
	}

	return Model{
		ctrl:     ctrl,
		sched:    opts.Scheduler,
		keys:     DefaultKeyMap(),
		theme:    theme,
		input:    ta,
		viewport: viewport.New(80, 20),
		spinner:  sp,
		toasts:   toasts,
		markdown: components.NewMarkdown(theme.GlamourStyle(), opts.Markdown),
		welcome:  components.NewWelcome(theme, opts.Provider, opts.Model),
		rendered: make(map[string]string),
		store:    opts.Store,
		checker:  opts.Checker,
		provider: opts.Provider,
		model:    opts.Model,
		copy:     copyFn,
		log:      opts.Logger,
		width:    80,
		height:   24,
	}
}

// Controller exposes the session controller. Its methods must only be
// called from Update or through the scheduler.
func (m Model) Controller() *session.Controller {
	return m.ctrl
}

// Toasts exposes the toast manager.
func (m Model) Toasts() *components.ToastManager {
	return m.toasts
}

// Input returns the current input text.
func (m Model) Input() string {
	return m.input.Value()
}

func toastFor(n session.Notification) components.Toast {
	kind := components.ToastKindInfo
	switch n.Kind {
	case session.KindError:
		kind = components.ToastKindError
	case session.KindWarning:
		kind = components.ToastKindWarning
	}
	if n.Err != nil && kind != components.ToastKindInfo {
		return components.NewErrorToast(kind, n.Title, n.Err)
	}
	return components.NewToast(kind, n.Title, n.Description)
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the cursor blink, spinner, toast ticker and health check.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		components.ToastTickCmd(),
		CheckHealthCmd(m.checker),
	)
}
