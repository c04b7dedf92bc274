// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"
)

func TestNewTheme_ExplicitModes(t *testing.T) {
	dark := NewTheme(ModeDark)
	if !dark.IsDark {
		t.Error("dark mode should set IsDark")
	}
	if dark.GlamourStyle() != "dark" {
		t.Errorf("GlamourStyle = %q, want dark", dark.GlamourStyle())
	}

	light := NewTheme(ModeLight)
	if light.IsDark {
		t.Error("light mode should clear IsDark")
	}
	if light.GlamourStyle() != "light" {
		t.Errorf("GlamourStyle = %q, want light", light.GlamourStyle())
	}
}

func TestTheme_ContentWidth(t *testing.T) {
	th := NewTheme(ModeDark)

	th.SetSize(100, 40)
	if got := th.ContentWidth(); got != 96 {
		t.Errorf("ContentWidth = %d, want 96", got)
	}

	th.SetSize(10, 40)
	if got := th.ContentWidth(); got != 20 {
		t.Errorf("ContentWidth at narrow width = %d, want 20", got)
	}
}

func TestTheme_StylesRender(t *testing.T) {
	th := NewTheme(ModeDark)
	out := th.UserBubble.Render("hello")
	if !strings.Contains(out, "hello") {
		t.Errorf("UserBubble.Render lost content: %q", out)
	}
	out = th.ToastError.Render("boom")
	if !strings.Contains(out, "boom") {
		t.Errorf("ToastError.Render lost content: %q", out)
	}
}

func TestStatusIndicatorsASCII(t *testing.T) {
	for _, s := range []string{StatusIndicators.Error, StatusIndicators.Warning, StatusIndicators.Info, StatusIndicators.Active} {
		for _, r := range s {
			if r > 127 {
				t.Errorf("indicator %q contains non-ASCII rune %q", s, r)
			}
		}
	}
}
