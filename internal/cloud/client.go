// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/jeranaias/quill/internal/model"
)

// Configuration constants.
const (
	// DefaultBaseURL is the OpenAI API base URL.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultOpenRouterURL is the base URL for OpenRouter's OpenAI-compatible API.
	DefaultOpenRouterURL = "https://openrouter.ai/api/v1"

	// DefaultModel is used when no model is configured.
	DefaultModel = openai.GPT4oMini
)

// ModelAliases maps friendly names to full model identifiers.
var ModelAliases = map[string]string{
	"auto":   "openrouter/auto",
	"mini":   openai.GPT4oMini,
	"gpt4o":  openai.GPT4o,
	"gpt4":   openai.GPT4Turbo,
	"haiku":  "anthropic/claude-3-haiku",
	"sonnet": "anthropic/claude-3.5-sonnet",
}

// Error variables for common provider errors.
var (
	// ErrNotConfigured indicates the API key is not set.
	ErrNotConfigured = errors.New("API key not configured")

	// ErrAuthFailed indicates authentication failed (invalid or expired API key).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")

	// ErrModelNotFound indicates the requested model does not exist.
	ErrModelNotFound = errors.New("model not found")
)

// ProviderError represents an error response from the provider API.
type ProviderError struct {
	Code    string
	Message string
	Status  int
	kind    error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("provider error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("provider error (HTTP %d): %s", e.Status, e.Message)
}

// Unwrap returns the matching sentinel, if any.
func (e *ProviderError) Unwrap() error {
	return e.kind
}

// Config configures a Client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  zerolog.Logger
}

// Client streams chat completions from an OpenAI-compatible endpoint. It
// implements transport.Transport and transport.Checker.
type Client struct {
	api    *openai.Client
	apiKey string
	model  string
	log    zerolog.Logger
}

// NewClient creates a client. An empty base URL targets OpenAI; model
// aliases are resolved.
func NewClient(cfg Config) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	m := cfg.Model
	if full, ok := ModelAliases[m]; ok {
		m = full
	}
	if m == "" {
		m = DefaultModel
	}

	return &Client{
		api:    openai.NewClientWithConfig(oc),
		apiKey: cfg.APIKey,
		model:  m,
		log:    cfg.Logger,
	}
}

// Model returns the resolved model identifier.
func (c *Client) Model() string {
	return c.model
}

// IsConfigured reports whether an API key is set.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// KeyFingerprint returns a short SHA-256 fingerprint of the API key for
// logging. The key itself is never logged.
func (c *Client) KeyFingerprint() string {
	if c.apiKey == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(c.apiKey))
	return hex.EncodeToString(h[:4])
}

// CheckRunning verifies the endpoint is reachable and the key is accepted.
func (c *Client) CheckRunning(ctx context.Context) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}
	if _, err := c.api.ListModels(ctx); err != nil {
		return describe(ctx, err)
	}
	return nil
}

// Stream implements transport.Transport.
func (c *Client) Stream(ctx context.Context, history []model.Turn, onDelta func(string)) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}

	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: toMessages(history),
		Stream:   true,
	}

	start := time.Now()
	c.log.Debug().
		Str("model", c.model).
		Str("key", c.KeyFingerprint()).
		Int("messages", len(req.Messages)).
		Msg("cloud stream request")

	stream, err := c.api.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return describe(ctx, err)
	}
	defer stream.Close()

	chunks := 0
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			c.log.Debug().
				Int("chunks", chunks).
				Dur("elapsed", time.Since(start)).
				Msg("cloud stream finished")
			return nil
		}
		if err != nil {
			return describe(ctx, err)
		}
		for _, choice := range resp.Choices {
			if choice.Delta.Content != "" {
				chunks++
				onDelta(choice.Delta.Content)
			}
		}
	}
}

func toMessages(history []model.Turn) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, len(history))
	for i, t := range history {
		role := openai.ChatMessageRoleUser
		switch t.Role {
		case model.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		case model.RoleSystem:
			role = openai.ChatMessageRoleSystem
		}
		msgs[i] = openai.ChatCompletionMessage{Role: role, Content: t.Content}
	}
	return msgs
}

// describe converts a go-openai failure into an error with a readable
// message, passing caller cancellation through untouched.
func describe(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		pe := &ProviderError{
			Message: apiErr.Message,
			Status:  apiErr.HTTPStatusCode,
		}
		if code, ok := apiErr.Code.(string); ok {
			pe.Code = code
		}
		pe.kind = kindForStatus(pe.Status)
		return pe
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := "request failed"
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return &ProviderError{
			Message: msg,
			Status:  reqErr.HTTPStatusCode,
			kind:    kindForStatus(reqErr.HTTPStatusCode),
		}
	}

	return fmt.Errorf("cloud stream: %w", err)
}

func kindForStatus(status int) error {
	switch status {
	case 401, 403:
		return ErrAuthFailed
	case 404:
		return ErrModelNotFound
	case 429:
		return ErrRateLimited
	default:
		return nil
	}
}
