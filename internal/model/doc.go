// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Conversation: ordered message sequence owned by the chat session
//   - Message: single message with role, content and timestamp
//   - Turn: role/content pair handed to a streaming transport
//   - Role: user, assistant (and system for the transport history only)
//
// # Usage
//
//	conv := model.NewConversation()
//	conv.AddUserMessage("hi")
//	conv.UpsertAssistant("Hel")
//	conv.UpsertAssistant("Hello!") // same trailing message, rewritten
//	conv.FinishAssistant()
package model
