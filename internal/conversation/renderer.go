// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"time"

	"github.com/jeranaias/chatwith/internal/model"
)

// HistoryItem is one entry of the history list. ID is both the selection key
// and the delete key.
type HistoryItem struct {
	ID        int64
	Label     string
	CreatedAt time.Time
}

// Renderer is the display surface driven by the Controller.
//
// Methods may be called from the goroutine running a Controller operation;
// implementations that own a UI loop must hand the update over to it.
type Renderer interface {
	// ShowHistory replaces the history list, newest first.
	ShowHistory(items []HistoryItem)

	// ShowSelected shows a stored turn chosen from history.
	ShowSelected(turn model.Turn)

	// ClearSelected removes any stored turn from view.
	ClearSelected()

	// ShowUserMessage echoes a submitted prompt.
	ShowUserMessage(prompt string)

	// ShowPartial shows the answer accumulated so far.
	ShowPartial(answer string)

	// ShowCompleted finalizes the answer for a prompt.
	ShowCompleted(entry model.Entry)

	// ShowError reports a failed operation.
	ShowError(err error)
}

// historyItems builds list items from stored turns, keeping their order.
func historyItems(turns []model.Turn) []HistoryItem {
	items := make([]HistoryItem, len(turns))
	for i, t := range turns {
		items[i] = HistoryItem{
			ID:        t.ID,
			Label:     t.Label(0),
			CreatedAt: t.CreatedAt,
		}
	}
	return items
}
