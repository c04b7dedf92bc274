// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for quill.
//
// All colors use Lip Gloss AdaptiveColor so they follow the terminal
// background. The theme mode (auto, dark, light) comes from configuration;
// auto asks termenv.
package styles
