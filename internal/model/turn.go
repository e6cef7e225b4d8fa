// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for turns and transcript entries.
package model

import (
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// TURN TYPE
// =============================================================================

// Turn is one persisted question/answer pair.
type Turn struct {
	ID        int64     `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}

// Entry returns the transcript view of the turn.
func (t Turn) Entry() Entry {
	return Entry{Question: t.Question, Answer: t.Answer}
}

// Key returns the stable selection key for the turn.
// The id alone identifies a turn; question text is never part of the key.
func (t Turn) Key() string {
	return strconv.FormatInt(t.ID, 10)
}

// Label returns a single-line display label for the question, truncated to
// the given cell width. A width <= 0 disables truncation.
func (t Turn) Label(width int) string {
	return Label(t.Question, width)
}

// =============================================================================
// ENTRY TYPE
// =============================================================================

// Entry is a question/answer pair held by the session transcript.
// Entries have no id and are ordered by append order.
type Entry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// =============================================================================
// ORDERING
// =============================================================================

// Newer reports whether a sorts before b in history order:
// newest CreatedAt first, ties broken by the higher id.
func Newer(a, b Turn) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// SortNewestFirst sorts turns in history order in place.
func SortNewestFirst(turns []Turn) {
	sort.SliceStable(turns, func(i, j int) bool {
		return Newer(turns[i], turns[j])
	})
}

// =============================================================================
// LABELS
// =============================================================================

// Label normalizes text into a single display line and truncates it to width
// terminal cells, appending "..." when truncated.
func Label(text string, width int) string {
	text = norm.NFC.String(text)

	var sb strings.Builder
	lastSpace := false
	for _, r := range strings.TrimSpace(text) {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			if !lastSpace {
				sb.WriteByte(' ')
			}
			lastSpace = true
			continue
		}
		sb.WriteRune(r)
		lastSpace = false
	}

	label := sb.String()
	if label == "" {
		label = "(empty question)"
	}
	if width <= 0 || runewidth.StringWidth(label) <= width {
		return label
	}
	if width <= 3 {
		return runewidth.Truncate(label, width, "")
	}
	return runewidth.Truncate(label, width, "...")
}
