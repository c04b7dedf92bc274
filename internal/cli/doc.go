// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-TUI commands for
// quill.
//
// # Key Types
//
//   - Command: the command to run (chat, transcripts, version, help)
//   - Args: parsed global flags and command arguments
//   - Provider: the transport selected from config and flags
//   - Plain: the line-mode chat session used without a terminal
//
// # Usage
//
//	cmd, args, err := cli.Parse(os.Args[1:])
//	switch cmd {
//	case cli.CmdChat:
//	    if cli.UsePlainMode(args) {
//	        return cli.RunPlain(ctx, opts)
//	    }
//	    // start the TUI
//	case cli.CmdTranscripts:
//	    return cli.HandleTranscripts(args, store, os.Stdout)
//	}
//
// Colors follow NO_COLOR and FORCE_COLOR and are off when stdout is not a
// terminal.
package cli
