// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatwith/internal/conversation"
	"github.com/jeranaias/chatwith/internal/model"
)

// Renderer forwards controller output to the Bubble Tea update loop.
type Renderer struct {
	send func(tea.Msg)
}

// NewRenderer creates a renderer that delivers messages with send.
func NewRenderer(send func(tea.Msg)) *Renderer {
	return &Renderer{send: send}
}

var _ conversation.Renderer = (*Renderer)(nil)

// ShowHistory implements conversation.Renderer.
func (r *Renderer) ShowHistory(items []conversation.HistoryItem) {
	cp := make([]conversation.HistoryItem, len(items))
	copy(cp, items)
	r.send(HistoryMsg{Items: cp})
}

// ShowSelected implements conversation.Renderer.
func (r *Renderer) ShowSelected(turn model.Turn) {
	r.send(SelectedMsg{Turn: turn})
}

// ClearSelected implements conversation.Renderer.
func (r *Renderer) ClearSelected() {
	r.send(SelectedClearedMsg{})
}

// ShowUserMessage implements conversation.Renderer.
func (r *Renderer) ShowUserMessage(prompt string) {
	r.send(UserMessageMsg{Prompt: prompt})
}

// ShowPartial implements conversation.Renderer.
func (r *Renderer) ShowPartial(answer string) {
	r.send(PartialMsg{Answer: answer})
}

// ShowCompleted implements conversation.Renderer.
func (r *Renderer) ShowCompleted(entry model.Entry) {
	r.send(CompletedMsg{Entry: entry})
}

// ShowError implements conversation.Renderer.
func (r *Renderer) ShowError(err error) {
	r.send(ErrorMsg{Err: err})
}
