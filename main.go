// quill - Streaming chat in your terminal.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/jeranaias/quill/internal/cli"
	"github.com/jeranaias/quill/internal/config"
	"github.com/jeranaias/quill/internal/logging"
	"github.com/jeranaias/quill/internal/loop"
	"github.com/jeranaias/quill/internal/storage"
	"github.com/jeranaias/quill/internal/typewriter"
	"github.com/jeranaias/quill/internal/ui/chat"
	"github.com/jeranaias/quill/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", cli.ErrorStyle.Render("Error:"), err)
		os.Exit(1)
	}
}

func run(argv []string) error {
	cmd, args, err := cli.Parse(argv)
	if err != nil {
		return err
	}

	switch cmd {
	case cli.CmdVersion:
		cli.PrintVersion(os.Stdout)
		return nil
	case cli.CmdHelp:
		cli.PrintUsage(os.Stdout)
		return nil
	}

	cfg, cfgPath, err := loadConfig(args)
	if err != nil {
		return err
	}

	switch cmd {
	case cli.CmdTranscripts:
		store, err := storage.NewStore(cfg.Storage.Dir)
		if err != nil {
			return err
		}
		return cli.HandleTranscripts(args, store, os.Stdout)
	default:
		return runChat(args, cfg, cfgPath)
	}
}

// loadConfig loads the config file (or --config), then layers the flags on
// top. A broken config file is reported and defaults are used.
func loadConfig(args cli.Args) (*config.Config, string, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if args.ConfigPath != "" {
		path = args.ConfigPath
		cfg, err = config.LoadFromPath(path)
		if err != nil {
			return nil, "", err
		}
	} else {
		path, _ = config.Path()
		cfg, err = config.Load()
		if cfg == nil {
			return nil, "", err
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s %v (using defaults)\n", cli.WarningStyle.Render("[config]"), err)
		}
	}

	if err := cli.ApplyArgs(cfg, args); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func runChat(args cli.Args, cfg *config.Config, cfgPath string) error {
	plain := cli.UsePlainMode(args)

	// The TUI owns the screen, so logs only go to the file. Plain mode
	// with --verbose also logs to stderr.
	var console io.Writer
	if plain && args.Verbose {
		console = os.Stderr
	}
	logger, closer, err := logging.New(cfg.Log, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", cli.WarningStyle.Render("[log]"), err)
	}
	defer closer.Close()
	if console != nil {
		logger = logging.Console(console, logging.ParseLevel(cfg.Log.Level))
	}
	logger.Info().Str("version", Version).Str("provider", cfg.Provider).Bool("plain", plain).Msg("quill starting")

	provider, err := cli.NewProvider(cfg, logger)
	if err != nil {
		return err
	}

	store, err := storage.NewStore(cfg.Storage.Dir)
	if err != nil {
		logger.Warn().Err(err).Msg("transcripts disabled")
		store = nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	if plain {
		dir, _ := config.ConfigDir()
		return cli.RunPlain(ctx, cli.PlainOptions{
			Provider:    provider,
			Config:      cfg,
			Store:       store,
			Logger:      logger,
			HistoryFile: historyFile(dir),
		})
	}
	return runTUI(ctx, cfg, cfgPath, provider, store, logger)
}

// runTUI starts the full-screen chat.
func runTUI(ctx context.Context, cfg *config.Config, cfgPath string, provider cli.Provider, store *storage.Store, logger zerolog.Logger) error {
	bridge := chat.NewBridge()
	sched := loop.New(bridge.Dispatch, cfg.Typewriter.FrameRate)

	m := chat.New(chat.Options{
		Scheduler: sched,
		Transport: provider.Transport,
		Checker:   provider.Checker,
		Store:     store,
		Provider:  provider.Name,
		Model:     provider.Model,
		Theme:     styles.NewTheme(cfg.UI.Theme),
		Markdown:  cfg.UI.Markdown,
		Typewriter: typewriter.Options{
			MinStep: cfg.Typewriter.MinStep,
			MaxStep: cfg.Typewriter.MaxStep,
		},
		GracePeriod:  cfg.Typewriter.GracePeriod(),
		SystemPrompt: cfg.Chat.SystemPrompt,
		Logger:       logger,
	})

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	bridge.Attach(p)

	if cfgPath != "" {
		w, err := config.Watch(cfgPath, func(next *config.Config, err error) {
			p.Send(chat.ConfigReloadedMsg{Config: next, Err: err})
		})
		if err != nil {
			logger.Warn().Err(err).Str("path", cfgPath).Msg("config hot reload disabled")
		} else {
			defer w.Close()
		}
	}

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	logger.Info().Msg("quill exiting")
	return nil
}

func historyFile(dir string) string {
	if dir == "" {
		return ""
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return ""
	}
	return filepath.Join(dir, "history")
}
