// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the chatwith terminal UI
and REPL.

# Color System (colors.go)

All colors use Lip Gloss AdaptiveColor for automatic light/dark detection:

	Purple  - Assistant answers and selections
	Cyan    - Brand color, prompts, user messages
	Emerald - Success states
	Amber   - Warnings and in-flight state
	Rose    - Errors

Status helpers (RenderSuccess, RenderError, ...) prefix an ASCII indicator so
state is readable without color.

# Theme System (theme.go)

	theme := styles.NewTheme("auto")
	header := theme.Header.Render("chatwith")

A theme name of "dark" or "light" overrides terminal background detection.

# Markdown (markdown.go)

Answers are rendered with glamour using a style that matches the theme:

	r, err := styles.NewMarkdownRenderer(theme, 80)
	out := styles.RenderMarkdown(r, answer)
*/
package styles
