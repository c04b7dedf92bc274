// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with Ollama API.
//
// The client streams /api/chat responses as newline-delimited JSON and
// exposes them through the transport.Transport interface:
//
//	client := ollama.NewClientWithConfig(&ollama.ClientConfig{Model: "llama3.2"})
//	if err := client.CheckRunning(ctx); err != nil {
//	    // warn the user, the first send will fail the same way
//	}
//	err := client.Stream(ctx, conv.History(), func(delta string) {
//	    fmt.Print(delta)
//	})
//
// Errors are *ClientError values classified by ErrorType; use IsNotRunning,
// IsTimeout and IsModelNotFound to branch on them.
package ollama
