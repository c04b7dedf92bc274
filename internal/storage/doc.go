// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists chat transcripts for quill.
//
// Each transcript is one JSON file named by the conversation ID, written
// atomically. Saving a conversation twice replaces the earlier file.
//
//	store, err := storage.NewStore(cfg.Storage.Dir)
//	id, err := store.Save(storage.FromConversation(conv, "ollama", "llama3.2"))
//	metas, err := store.List()
//
// Transcripts live in ~/.quill/transcripts/ by default.
package storage
