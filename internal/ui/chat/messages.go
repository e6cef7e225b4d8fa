// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/chatwith/internal/conversation"
	"github.com/jeranaias/chatwith/internal/model"
)

// =============================================================================
// RENDERER MESSAGES
// =============================================================================

// HistoryMsg replaces the history list.
type HistoryMsg struct {
	Items []conversation.HistoryItem
}

// SelectedMsg shows a stored turn.
type SelectedMsg struct {
	Turn model.Turn
}

// SelectedClearedMsg removes the stored turn from view.
type SelectedClearedMsg struct{}

// UserMessageMsg echoes a submitted prompt.
type UserMessageMsg struct {
	Prompt string
}

// PartialMsg carries the answer accumulated so far.
type PartialMsg struct {
	Answer string
}

// CompletedMsg finalizes the answer of the in-flight prompt.
type CompletedMsg struct {
	Entry model.Entry
}

// ErrorMsg reports a failed controller operation.
type ErrorMsg struct {
	Err error
}

// =============================================================================
// LIFECYCLE MESSAGES
// =============================================================================

// PromptDoneMsg is returned when HandlePrompt returns.
type PromptDoneMsg struct {
	Err error
}

// StoreChangedMsg requests a history refresh after an external write.
type StoreChangedMsg struct{}
