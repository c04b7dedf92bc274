// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for quill.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, validation and hot reload.
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (QUILL_*, OPENAI_API_KEY)
//   - ~/.quill/config.toml
//   - ~/.quill/config.json
//   - Built-in defaults
//
// QUILL_HOME relocates the ~/.quill directory.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	w, err := config.Watch(path, func(cfg *config.Config, err error) {
//	    // apply typewriter speed, grace period, system prompt
//	})
//	defer w.Close()
package config
