// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds the ordered message sequence of one chat.
//
// The sequence is append-only except for the trailing assistant message,
// which is rewritten in place while it is being revealed. At most one
// assistant message is in progress and it is always the last element.
type Conversation struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Messages []*Message `json:"messages"`

	// SystemPrompt is prepended to the transport history when set.
	SystemPrompt string `json:"system_prompt,omitempty"`
}

// NewConversation creates a new, empty conversation.
func NewConversation() *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  make([]*Message, 0),
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AddUserMessage creates and appends a user message.
func (c *Conversation) AddUserMessage(content string) *Message {
	msg := NewUserMessage(content)
	c.append(msg)
	if c.Title == "" {
		c.Title = msg.Preview(50)
	}
	return msg
}

// UpsertAssistant writes content into the trailing in-progress assistant
// message, creating it when the last message is not one.
func (c *Conversation) UpsertAssistant(content string) *Message {
	if last := c.LastMessage(); last != nil && last.Role == RoleAssistant && last.InProgress {
		last.Content = content
		c.UpdatedAt = time.Now()
		return last
	}
	msg := NewAssistantMessage(content)
	c.append(msg)
	return msg
}

// FinishAssistant marks the trailing assistant message as complete.
// Returns false when no message was in progress.
func (c *Conversation) FinishAssistant() bool {
	last := c.LastMessage()
	if last == nil || last.Role != RoleAssistant || !last.InProgress {
		return false
	}
	last.InProgress = false
	c.UpdatedAt = time.Now()
	return true
}

// LastMessage returns the most recent message, or nil if empty.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// LastAssistantMessage returns the most recent assistant message.
func (c *Conversation) LastAssistantMessage() *Message {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].Role == RoleAssistant {
			return c.Messages[i]
		}
	}
	return nil
}

// Clear removes all messages from the conversation.
func (c *Conversation) Clear() {
	c.Messages = make([]*Message, 0)
	c.Title = ""
	c.UpdatedAt = time.Now()
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.Messages)
}

// IsEmpty returns true if there are no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// Snapshot returns value copies of the messages so callers cannot mutate
// the conversation.
func (c *Conversation) Snapshot() []Message {
	out := make([]Message, len(c.Messages))
	for i, msg := range c.Messages {
		out[i] = *msg
	}
	return out
}

// History returns the transport view of the conversation, prefixed with the
// system prompt when one is set. Empty assistant messages are skipped.
func (c *Conversation) History() []Turn {
	turns := make([]Turn, 0, len(c.Messages)+1)
	if c.SystemPrompt != "" {
		turns = append(turns, Turn{Role: RoleSystem, Content: c.SystemPrompt})
	}
	for _, msg := range c.Messages {
		if msg.Role == RoleAssistant && msg.Content == "" {
			continue
		}
		turns = append(turns, Turn{Role: msg.Role, Content: msg.Content})
	}
	return turns
}

// GetTitle returns the conversation title or a default.
func (c *Conversation) GetTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return "New Conversation"
}

func (c *Conversation) append(msg *Message) {
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
}
