// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/muesli/termenv"
)

func TestNewThemeNames(t *testing.T) {
	tests := []struct {
		in       string
		wantName string
	}{
		{"dark", ThemeDark},
		{"LIGHT", ThemeLight},
		{"auto", ThemeAuto},
		{"", ThemeAuto},
		{"neon", ThemeAuto},
	}
	for _, tt := range tests {
		theme := NewTheme(tt.in)
		if theme.Name != tt.wantName {
			t.Errorf("NewTheme(%q).Name = %q, want %q", tt.in, theme.Name, tt.wantName)
		}
	}
}

func TestNewThemeForcedBackground(t *testing.T) {
	if !NewTheme("dark").IsDark {
		t.Error("dark theme should report IsDark")
	}
	if NewTheme("light").IsDark {
		t.Error("light theme should not report IsDark")
	}
}

func TestGlamourStyle(t *testing.T) {
	theme := &Theme{IsDark: true, ColorProfile: termenv.TrueColor}
	if got := theme.GlamourStyle(); got != "dark" {
		t.Errorf("GlamourStyle() = %q, want dark", got)
	}
	theme.IsDark = false
	if got := theme.GlamourStyle(); got != "light" {
		t.Errorf("GlamourStyle() = %q, want light", got)
	}
	theme.ColorProfile = termenv.Ascii
	if got := theme.GlamourStyle(); got != "notty" {
		t.Errorf("GlamourStyle() = %q, want notty", got)
	}
}

func TestRenderMarkdownNilRenderer(t *testing.T) {
	if got := RenderMarkdown(nil, "**bold**"); got != "**bold**" {
		t.Errorf("RenderMarkdown(nil) = %q", got)
	}
}

func TestRenderMarkdown(t *testing.T) {
	r, err := NewMarkdownRenderer(&Theme{Name: ThemeDark, IsDark: true, ColorProfile: termenv.Ascii}, 5)
	if err != nil {
		t.Fatalf("NewMarkdownRenderer() error = %v", err)
	}
	got := RenderMarkdown(r, "# Title\n\nsome text")
	if !strings.Contains(got, "Title") || !strings.Contains(got, "some text") {
		t.Errorf("RenderMarkdown() = %q", got)
	}
	if strings.HasPrefix(got, "\n") || strings.HasSuffix(got, "\n") {
		t.Errorf("RenderMarkdown() should trim surrounding newlines: %q", got)
	}
}

func TestStatusHelpersIncludeIndicators(t *testing.T) {
	tests := []struct {
		got, indicator string
	}{
		{RenderSuccess("saved"), StatusIndicators.Success},
		{RenderError("failed"), StatusIndicators.Error},
		{RenderWarning("careful"), StatusIndicators.Warning},
		{RenderInfo("note"), StatusIndicators.Info},
	}
	for _, tt := range tests {
		if !strings.Contains(tt.got, tt.indicator) {
			t.Errorf("%q missing indicator %q", tt.got, tt.indicator)
		}
	}
}
