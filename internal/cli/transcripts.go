// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// transcripts.go - The "transcripts" command: list, show, export and delete
// conversations saved with /save.

package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jeranaias/quill/internal/storage"
	"github.com/jeranaias/quill/internal/util"
)

// HandleTranscripts runs a transcripts subcommand against store.
func HandleTranscripts(args Args, store *storage.Store, w io.Writer) error {
	switch args.Subcommand {
	case "", "list":
		metas, err := store.List()
		if err != nil {
			return fmt.Errorf("failed to list transcripts: %w", err)
		}
		fmt.Fprintln(w, TitleStyle.Render("Saved transcripts"))
		fmt.Fprint(w, storage.FormatList(metas))
		if len(metas) == 0 {
			fmt.Fprintln(w)
		}
		return nil

	case "show":
		t, err := ResolveTranscript(store, args.Target)
		if err != nil {
			return err
		}
		fmt.Fprint(w, t.ExportMarkdown())
		return nil

	case "export":
		t, err := ResolveTranscript(store, args.Target)
		if err != nil {
			return err
		}
		if args.Out == "" || args.Out == "-" {
			fmt.Fprint(w, t.ExportMarkdown())
			return nil
		}
		if err := util.AtomicWriteFile(args.Out, []byte(t.ExportMarkdown()), 0600); err != nil {
			return fmt.Errorf("failed to export transcript: %w", err)
		}
		fmt.Fprintf(w, "%s Exported %s to %s\n", SuccessStyle.Render("[OK]"), storage.ShortID(t.ID), args.Out)
		return nil

	case "delete", "rm":
		t, err := ResolveTranscript(store, args.Target)
		if err != nil {
			return err
		}
		if err := store.Delete(t.ID); err != nil {
			return fmt.Errorf("failed to delete transcript: %w", err)
		}
		fmt.Fprintf(w, "%s Deleted %s (%s)\n", SuccessStyle.Render("[OK]"), storage.ShortID(t.ID), t.Title)
		return nil

	default:
		return fmt.Errorf("unknown transcripts subcommand %q", args.Subcommand)
	}
}

// ResolveTranscript loads a transcript by list number, full ID or unique ID
// prefix.
func ResolveTranscript(store *storage.Store, target string) (*storage.Transcript, error) {
	if target == "" {
		return nil, fmt.Errorf("missing transcript number or ID")
	}
	if n, err := strconv.Atoi(target); err == nil {
		t, err := store.LoadByIndex(n)
		if err != nil {
			return nil, fmt.Errorf("transcript #%d: %w", n, err)
		}
		return t, nil
	}

	metas, err := store.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list transcripts: %w", err)
	}
	var matches []storage.Meta
	for _, m := range metas {
		if m.ID == target {
			return store.Load(m.ID)
		}
		if strings.HasPrefix(m.ID, target) {
			matches = append(matches, m)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("transcript %s: %w", target, storage.ErrTranscriptNotFound)
	case 1:
		return store.Load(matches[0].ID)
	default:
		return nil, fmt.Errorf("transcript ID %q is ambiguous (%d matches)", target, len(matches))
	}
}
