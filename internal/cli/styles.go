// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatwith/internal/ui/styles"
)

// init configures lipgloss for piped or NO_COLOR output.
func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// =============================================================================
// SHARED STYLES FOR ALL CLI COMMANDS
// =============================================================================

var (
	// TitleStyle is used for command titles and headers
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.Cyan)

	// LabelStyle is used for field labels
	LabelStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary).
			Width(16)

	// ValueStyle is used for regular values and text
	ValueStyle = lipgloss.NewStyle().
			Foreground(styles.TextPrimary)

	// MutedStyle is used for hints and timestamps
	MutedStyle = lipgloss.NewStyle().
			Foreground(styles.TextMuted)

	// promptStyle is the REPL input prompt
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	// assistantStyle labels streamed answers
	assistantStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)
)

// formatKeyValue renders a label/value row.
func formatKeyValue(label, value string) string {
	return LabelStyle.Render(label) + ValueStyle.Render(value)
}
