// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// MinMarkdownWidth is the narrowest word wrap passed to glamour.
const MinMarkdownWidth = 20

// NewMarkdownRenderer creates a glamour renderer wrapping at width.
func NewMarkdownRenderer(t *Theme, width int) (*glamour.TermRenderer, error) {
	if width < MinMarkdownWidth {
		width = MinMarkdownWidth
	}
	opts := []glamour.TermRendererOption{
		glamour.WithWordWrap(width),
	}
	if t == nil || t.Name == ThemeAuto {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(t.GlamourStyle()))
	}
	return glamour.NewTermRenderer(opts...)
}

// RenderMarkdown renders content, returning it unchanged if r is nil or
// rendering fails. Surrounding blank lines are trimmed.
func RenderMarkdown(r *glamour.TermRenderer, content string) string {
	if r == nil {
		return content
	}
	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(rendered, "\n")
}
