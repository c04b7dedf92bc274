// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud streams chat completions from OpenAI or any OpenAI-compatible
// endpoint such as OpenRouter.
//
// # Usage
//
//	client := cloud.NewClient(cloud.Config{
//	    APIKey:  key,
//	    BaseURL: cloud.DefaultOpenRouterURL,
//	    Model:   "sonnet",
//	})
//	err := client.Stream(ctx, conv.History(), onDelta)
//
// # Security
//
// API keys are never logged; log lines carry a short SHA-256 fingerprint
// instead.
package cloud
