// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for turns and transcript entries.
package model

import (
	"testing"
	"time"
)

// =============================================================================
// LABEL TESTS
// =============================================================================

func TestLabel(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  string
	}{
		{"short", "What is 2+2?", 40, "What is 2+2?"},
		{"no truncation", "What is 2+2?", 0, "What is 2+2?"},
		{"collapses whitespace", "line one\n\n  line\ttwo", 0, "line one line two"},
		{"truncates", "abcdefghijklmnop", 10, "abcdefg..."},
		{"tiny width", "abcdef", 2, "ab"},
		{"empty", "   ", 10, "(empty question)"},
		{"wide runes", "日本語のテキスト", 9, "日本語..."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Label(tc.text, tc.width); got != tc.want {
				t.Errorf("Label(%q, %d) = %q, want %q", tc.text, tc.width, got, tc.want)
			}
		})
	}
}

func TestTurn_Key(t *testing.T) {
	a := Turn{ID: 7, Question: "same"}
	b := Turn{ID: 8, Question: "same"}

	if a.Key() == b.Key() {
		t.Errorf("turns with identical questions share key %q", a.Key())
	}
	if a.Key() != "7" {
		t.Errorf("Key() = %q, want %q", a.Key(), "7")
	}
}

func TestTurn_Entry(t *testing.T) {
	turn := Turn{ID: 1, Question: "Hi", Answer: "Hello", CreatedAt: time.Now()}
	entry := turn.Entry()

	if entry.Question != "Hi" || entry.Answer != "Hello" {
		t.Errorf("Entry() = %+v", entry)
	}
}

// =============================================================================
// ORDERING TESTS
// =============================================================================

func TestSortNewestFirst(t *testing.T) {
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	turns := []Turn{
		{ID: 1, CreatedAt: base},
		{ID: 2, CreatedAt: base.Add(time.Second)},
		{ID: 3, CreatedAt: base},
		{ID: 4, CreatedAt: base.Add(-time.Second)},
	}

	SortNewestFirst(turns)

	wantIDs := []int64{2, 3, 1, 4}
	for i, want := range wantIDs {
		if turns[i].ID != want {
			t.Errorf("turns[%d].ID = %d, want %d", i, turns[i].ID, want)
		}
	}
}
