// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/quill/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "transcripts"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return store
}

func sampleConversation(userText, reply string) *model.Conversation {
	conv := model.NewConversation()
	conv.AddUserMessage(userText)
	conv.UpsertAssistant(reply)
	conv.FinishAssistant()
	return conv
}

// =============================================================================
// SAVE / LOAD TESTS
// =============================================================================

func TestStore_SaveAndLoad(t *testing.T) {
	store := newTestStore(t)
	conv := sampleConversation("Hello there", "Hi! How can I help?")

	id, err := store.Save(FromConversation(conv, "ollama", "llama3.2"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if id != conv.ID {
		t.Errorf("Save returned %q, want conversation ID %q", id, conv.ID)
	}

	loaded, err := store.Load(id)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Title != "Hello there" {
		t.Errorf("Title = %q, want %q", loaded.Title, "Hello there")
	}
	if loaded.Model != "llama3.2" || loaded.Provider != "ollama" {
		t.Errorf("Provider/Model = %q/%q", loaded.Provider, loaded.Model)
	}
	if len(loaded.Messages) != 2 {
		t.Fatalf("Messages = %d, want 2", len(loaded.Messages))
	}
	if loaded.Messages[1].Role != "assistant" || loaded.Messages[1].Content != "Hi! How can I help?" {
		t.Errorf("assistant line = %+v", loaded.Messages[1])
	}
	if loaded.SavedAt.IsZero() {
		t.Error("SavedAt not set")
	}
}

func TestStore_SaveOverwritesSameConversation(t *testing.T) {
	store := newTestStore(t)
	conv := sampleConversation("first", "one")

	if _, err := store.Save(FromConversation(conv, "", "")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	conv.AddUserMessage("second")
	if _, err := store.Save(FromConversation(conv, "", "")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	metas, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(metas) != 1 {
		t.Fatalf("List = %d entries, want 1", len(metas))
	}
	if metas[0].MessageCount != 3 {
		t.Errorf("MessageCount = %d, want 3", metas[0].MessageCount)
	}
}

func TestStore_SaveEmpty(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Save(FromConversation(model.NewConversation(), "", ""))
	if !errors.Is(err, ErrEmptyTranscript) {
		t.Errorf("Save(empty) error = %v, want ErrEmptyTranscript", err)
	}
}

func TestStore_LoadNotFound(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Load("missing"); !errors.Is(err, ErrTranscriptNotFound) {
		t.Errorf("Load(missing) error = %v, want ErrTranscriptNotFound", err)
	}
	if err := store.Delete("missing"); !errors.Is(err, ErrTranscriptNotFound) {
		t.Errorf("Delete(missing) error = %v, want ErrTranscriptNotFound", err)
	}
	if _, err := store.LoadByIndex(0); !errors.Is(err, ErrTranscriptNotFound) {
		t.Errorf("LoadByIndex(0) error = %v, want ErrTranscriptNotFound", err)
	}
}

func TestStore_PathStaysInsideBaseDir(t *testing.T) {
	store := newTestStore(t)
	path := store.Path("../../etc/passwd")
	if filepath.Dir(path) != store.BaseDir {
		t.Errorf("Path escaped base dir: %s", path)
	}
}

// =============================================================================
// LIST TESTS
// =============================================================================

func TestStore_ListOrderAndIndex(t *testing.T) {
	store := newTestStore(t)

	older := sampleConversation("older", "a")
	newer := sampleConversation("newer", "b")
	if _, err := store.Save(FromConversation(older, "", "")); err != nil {
		t.Fatal(err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, err := store.Save(FromConversation(newer, "", "")); err != nil {
		t.Fatal(err)
	}

	metas, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(metas) != 2 || metas[0].Title != "newer" || metas[1].Title != "older" {
		t.Fatalf("List order wrong: %+v", metas)
	}

	loaded, err := store.LoadByIndex(1)
	if err != nil {
		t.Fatalf("LoadByIndex failed: %v", err)
	}
	if loaded.ID != older.ID {
		t.Errorf("LoadByIndex(1) = %s, want %s", loaded.ID, older.ID)
	}
}

func TestStore_ListSkipsCorruptFiles(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Save(FromConversation(sampleConversation("ok", "fine"), "", "")); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(store.BaseDir, "broken.json"), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(store.BaseDir, "notes.txt"), []byte("ignore"), 0600); err != nil {
		t.Fatal(err)
	}

	metas, err := store.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(metas) != 1 {
		t.Errorf("List = %d entries, want 1", len(metas))
	}
}

func TestStore_EnforceLimit(t *testing.T) {
	store := newTestStore(t)
	store.MaxTranscripts = 2

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := store.Save(FromConversation(sampleConversation("msg", "reply"), "", ""))
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
		time.Sleep(10 * time.Millisecond)
	}

	metas, _ := store.List()
	if len(metas) != 2 {
		t.Fatalf("List = %d entries, want 2", len(metas))
	}
	if _, err := store.Load(ids[0]); !errors.Is(err, ErrTranscriptNotFound) {
		t.Errorf("oldest transcript should have been removed, got %v", err)
	}
}

// =============================================================================
// FORMAT TESTS
// =============================================================================

func TestFormatList(t *testing.T) {
	if got := FormatList(nil); got != "No transcripts saved." {
		t.Errorf("FormatList(nil) = %q", got)
	}

	out := FormatList([]Meta{{
		ID:           "0123456789abcdef",
		Title:        "Explain goroutines",
		SavedAt:      time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
		MessageCount: 4,
	}})
	for _, want := range []string{"01234567", "2025-03-01 09:30", "Explain goroutines"} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatList missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "89abcdef") {
		t.Errorf("FormatList should shorten IDs:\n%s", out)
	}
}

func TestExportMarkdown(t *testing.T) {
	tr := FromConversation(sampleConversation("What is Go?", "A language."), "echo", "echo")
	md := tr.ExportMarkdown()

	for _, want := range []string{"# What is Go?", "**You**", "**Assistant**", "A language."} {
		if !strings.Contains(md, want) {
			t.Errorf("ExportMarkdown missing %q in:\n%s", want, md)
		}
	}
}
