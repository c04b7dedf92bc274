// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command-line parsing for quill.
package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdChat Command = iota
	CmdTranscripts
	CmdVersion
	CmdHelp
)

// String returns the command name.
func (c Command) String() string {
	switch c {
	case CmdChat:
		return "chat"
	case CmdTranscripts:
		return "transcripts"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Plain      bool
	Verbose    bool
	Provider   string
	Model      string
	ConfigPath string

	// transcripts subcommand and its target (index or ID)
	Subcommand string
	Target     string
	Out        string

	// Raw args after the command name
	Raw []string
}

// switches are the boolean flags; they never take the following argument.
var switches = []string{"plain", "verbose", "v", "help", "h", "version"}

const usageText = `quill - streaming chat in your terminal

Usage:
  quill [flags]                      Start the chat TUI
  quill chat [flags]                 Same as above
  quill transcripts [list]           List saved transcripts
  quill transcripts show <n|id>      Print a saved transcript
  quill transcripts export <n|id>    Export a transcript as markdown (--out FILE)
  quill transcripts delete <n|id>    Delete a saved transcript
  quill version                      Show version information
  quill help                         Show this help

Flags:
  --plain              Line mode instead of the full-screen TUI
  -p, --provider NAME  ollama, openai or echo (overrides config)
  -m, --model NAME     Model to chat with (overrides config)
  -c, --config FILE    Config file (default ~/.quill/config.toml)
  -v, --verbose        Log to stderr in plain mode

In chat:
  Enter        send            Alt+Enter    newline
  Esc          stop reply      Ctrl+L       clear conversation
  Ctrl+Y       copy reply      F1           help
  /clear /stop /save /copy /help /quit

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "quill version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Go:         %s\n", runtime.Version())
}

// Parse parses command-line arguments (without the program name) and
// returns the command and its args.
func Parse(argv []string) (Command, Args, error) {
	p := NewArgParser(argv, switches...)
	args := Args{
		Plain:      p.BoolFlag("plain"),
		Verbose:    p.BoolFlag("verbose", "v"),
		Provider:   strings.ToLower(p.FlagAny("provider", "p")),
		Model:      p.FlagAny("model", "m"),
		ConfigPath: p.FlagAny("config", "c"),
		Out:        p.FlagAny("out", "o"),
	}

	if p.BoolFlag("help", "h") {
		return CmdHelp, args, nil
	}
	if p.BoolFlag("version") {
		return CmdVersion, args, nil
	}

	// No command: the chat TUI
	if p.PositionalCount() == 0 {
		return CmdChat, args, nil
	}

	cmd := strings.ToLower(p.Positional(0))
	args.Raw = p.PositionalFrom(1)

	switch cmd {
	case "chat", "tui":
		return CmdChat, args, nil

	case "transcripts", "transcript", "ls":
		args.Subcommand = strings.ToLower(p.Positional(1))
		if args.Subcommand == "" {
			args.Subcommand = "list"
		}
		args.Target = p.Positional(2)
		switch args.Subcommand {
		case "list":
		case "show", "export", "delete", "rm":
			if args.Target == "" {
				return CmdTranscripts, args, fmt.Errorf("transcripts %s: missing transcript number or ID", args.Subcommand)
			}
		default:
			return CmdTranscripts, args, fmt.Errorf("unknown transcripts subcommand %q", args.Subcommand)
		}
		return CmdTranscripts, args, nil

	case "version":
		return CmdVersion, args, nil

	case "help":
		return CmdHelp, args, nil

	default:
		return CmdHelp, args, fmt.Errorf("unknown command %q (run 'quill help')", cmd)
	}
}
