// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/quill/internal/model"
	"github.com/jeranaias/quill/internal/util"
)

// =============================================================================
// TRANSCRIPT TYPE
// =============================================================================

// Transcript is a saved conversation.
type Transcript struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Provider  string    `json:"provider,omitempty"`
	Model     string    `json:"model,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	SavedAt   time.Time `json:"saved_at"`

	SystemPrompt string           `json:"system_prompt,omitempty"`
	Messages     []TranscriptLine `json:"messages"`
}

// TranscriptLine is one persisted message.
type TranscriptLine struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Meta contains what List needs to show a transcript.
type Meta struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Model        string    `json:"model"`
	SavedAt      time.Time `json:"saved_at"`
	MessageCount int       `json:"message_count"`
}

// FromConversation captures conv for saving. In-progress assistant text is
// included as it currently reads.
func FromConversation(conv *model.Conversation, provider, modelName string) *Transcript {
	t := &Transcript{
		ID:           conv.ID,
		Title:        conv.GetTitle(),
		Provider:     provider,
		Model:        modelName,
		CreatedAt:    conv.CreatedAt,
		SystemPrompt: conv.SystemPrompt,
		Messages:     make([]TranscriptLine, 0, len(conv.Messages)),
	}
	for _, msg := range conv.Messages {
		t.Messages = append(t.Messages, TranscriptLine{
			Role:      string(msg.Role),
			Content:   msg.Content,
			Timestamp: msg.Timestamp,
		})
	}
	return t
}

// ExportMarkdown renders the transcript as Markdown.
func (t *Transcript) ExportMarkdown() string {
	var sb strings.Builder
	sb.WriteString("# " + t.Title + "\n\n")
	sb.WriteString("Saved: " + t.SavedAt.Format(time.RFC3339) + "\n")
	if t.Model != "" {
		sb.WriteString("Model: " + t.Model + "\n")
	}
	sb.WriteString("\n---\n\n")

	for _, line := range t.Messages {
		sb.WriteString("**" + model.Role(line.Role).DisplayName() + "** (" + line.Timestamp.Format("15:04") + "):\n\n")
		sb.WriteString(line.Content)
		sb.WriteString("\n\n---\n\n")
	}
	return sb.String()
}

// =============================================================================
// TRANSCRIPT STORE
// =============================================================================

// DefaultMaxTranscripts caps how many transcripts are kept.
const DefaultMaxTranscripts = 100

// Store persists transcripts as one JSON file each under BaseDir.
type Store struct {
	BaseDir string

	// MaxTranscripts limits stored transcripts (0 = unlimited). The oldest
	// are removed first.
	MaxTranscripts int
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("storage: empty directory")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create transcript directory: %w", err)
	}
	return &Store{BaseDir: dir, MaxTranscripts: DefaultMaxTranscripts}, nil
}

// Save writes t and returns its ID. Saving the same conversation again
// overwrites the earlier file.
func (s *Store) Save(t *Transcript) (string, error) {
	if len(t.Messages) == 0 {
		return "", ErrEmptyTranscript
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.SavedAt = time.Now()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = t.SavedAt
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode transcript: %w", err)
	}
	if err := util.AtomicWriteFile(s.filePath(t.ID), data, 0600); err != nil {
		return "", err
	}

	if s.MaxTranscripts > 0 {
		s.enforceLimit()
	}
	return t.ID, nil
}

// Path returns where the transcript with id is stored.
func (s *Store) Path(id string) string {
	return s.filePath(id)
}

func (s *Store) enforceLimit() {
	metas, err := s.List()
	if err != nil || len(metas) <= s.MaxTranscripts {
		return
	}
	// List is newest first
	for _, meta := range metas[s.MaxTranscripts:] {
		s.Delete(meta.ID)
	}
}

// Load retrieves a transcript by ID.
func (s *Store) Load(id string) (*Transcript, error) {
	data, err := os.ReadFile(s.filePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrTranscriptNotFound
		}
		return nil, err
	}

	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to decode transcript %s: %w", id, err)
	}
	return &t, nil
}

// LoadByIndex loads a transcript by its position in List (0 = most recent).
func (s *Store) LoadByIndex(index int) (*Transcript, error) {
	metas, err := s.List()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(metas) {
		return nil, ErrTranscriptNotFound
	}
	return s.Load(metas[index].ID)
}

// List returns all saved transcripts, most recent first. Unreadable files
// are skipped.
func (s *Store) List() ([]Meta, error) {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Meta{}, nil
		}
		return nil, err
	}

	metas := make([]Meta, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		t, err := s.Load(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		metas = append(metas, Meta{
			ID:           t.ID,
			Title:        t.Title,
			Model:        t.Model,
			SavedAt:      t.SavedAt,
			MessageCount: len(t.Messages),
		})
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].SavedAt.After(metas[j].SavedAt)
	})
	return metas, nil
}

// Delete removes a transcript by ID.
func (s *Store) Delete(id string) error {
	if err := os.Remove(s.filePath(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrTranscriptNotFound
		}
		return err
	}
	return nil
}

func (s *Store) filePath(id string) string {
	return filepath.Join(s.BaseDir, filepath.Base(id)+".json")
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrTranscriptNotFound is returned when a transcript doesn't exist.
	ErrTranscriptNotFound = errors.New("transcript not found")

	// ErrEmptyTranscript is returned when saving a conversation with no messages.
	ErrEmptyTranscript = errors.New("nothing to save: conversation is empty")
)

// =============================================================================
// LIST FORMATTING
// =============================================================================

// FormatList renders metas as a fixed-width table for the transcripts command.
func FormatList(metas []Meta) string {
	if len(metas) == 0 {
		return "No transcripts saved."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%-4s %-8s %-16s %-5s %s\n", "#", "ID", "Saved", "Msgs", "Title")
	for i, m := range metas {
		fmt.Fprintf(&sb, "%-4d %-8s %-16s %-5d %s\n",
			i,
			ShortID(m.ID),
			m.SavedAt.Format("2006-01-02 15:04"),
			m.MessageCount,
			util.TruncateWidth(m.Title, 50),
		)
	}
	return sb.String()
}

// ShortID returns the first eight characters of id.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
