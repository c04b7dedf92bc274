// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across quill.
//
// String Utilities:
//   - TruncateRunes, TruncateWidth: UTF-8 and column aware truncation
//   - StringWidth: terminal display width via go-runewidth
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
package util
