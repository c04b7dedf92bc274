// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/quill/internal/config"
	"github.com/jeranaias/quill/internal/transport"
)

// HealthMsg reports the startup reachability check of the provider.
type HealthMsg struct {
	Err error
}

// ConfigReloadedMsg is sent when the config file changes on disk.
type ConfigReloadedMsg struct {
	Config *config.Config
	Err    error
}

// HealthCheckTimeout bounds the startup reachability check.
const HealthCheckTimeout = 5 * time.Second

// CheckHealthCmd checks whether the provider answers.
func CheckHealthCmd(checker transport.Checker) tea.Cmd {
	if checker == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), HealthCheckTimeout)
		defer cancel()
		return HealthMsg{Err: checker.CheckRunning(ctx)}
	}
}
