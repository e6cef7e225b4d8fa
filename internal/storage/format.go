// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/chatwith/internal/model"
)

// =============================================================================
// TURN LIST FORMATTING
// =============================================================================

// FormatTurnList formats turns for display in a table.
// Returns a human-readable string with id, creation time, answer size and question.
func FormatTurnList(turns []model.Turn) string {
	if len(turns) == 0 {
		return "No saved turns."
	}

	var sb strings.Builder
	sb.WriteString("History:\n")
	sb.WriteString("-----------------------------------------------------\n")
	sb.WriteString(formatPadded("ID", 8) + " " + formatPadded("Created", 17) + " " + formatPadded("Chars", 7) + " Question\n")
	sb.WriteString("-----------------------------------------------------\n")

	for _, t := range turns {
		sb.WriteString(formatPadded(strconv.FormatInt(t.ID, 10), 8) + " " +
			formatPadded(t.CreatedAt.Format("2006-01-02 15:04"), 17) + " " +
			formatPadded(strconv.Itoa(len([]rune(t.Answer))), 7) + " " +
			t.Label(40) + "\n")
	}
	return sb.String()
}

// formatPadded pads a string to the specified cell width with spaces.
func formatPadded(s string, width int) string {
	w := runewidth.StringWidth(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}
