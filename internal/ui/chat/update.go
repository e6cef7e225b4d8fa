// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/chatwith/internal/conversation"
	"github.com/jeranaias/chatwith/internal/ui/styles"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.streaming {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case HistoryMsg:
		m.history = msg.Items
		m.clampCursor()
		return m, nil

	case SelectedMsg:
		turn := msg.Turn
		m.selected = &turn
		m.updateViewport(false)
		m.viewport.GotoTop()
		return m, nil

	case SelectedClearedMsg:
		m.selected = nil
		m.updateViewport(false)
		return m, nil

	case UserMessageMsg:
		m.current = &exchange{question: msg.Prompt, pending: true}
		m.updateViewport(true)
		return m, nil

	case PartialMsg:
		if ex := m.pendingExchange(); ex != nil {
			m.current = &exchange{question: ex.question, answer: msg.Answer, pending: true}
			m.updateViewport(true)
		}
		return m, nil

	case CompletedMsg:
		// The session already holds the entry.
		if m.pendingExchange() != nil {
			m.current = nil
		}
		m.syncTranscript(false)
		m.updateViewport(true)
		return m, nil

	case ErrorMsg:
		return m.handleError(msg.Err)

	case PromptDoneMsg:
		m.streaming = false
		m.canceler.stop()
		if ex := m.pendingExchange(); ex != nil {
			// The controller ended without completing; the partial answer is dropped.
			if msg.Err != nil {
				m.current = &exchange{question: ex.question, err: msg.Err}
			} else {
				m.current = nil
			}
		}
		m.syncTranscript(false)
		m.updateViewport(true)
		return m, nil

	case StoreChangedMsg:
		return m, m.refreshHistoryCmd()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// RESIZE
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true

	// Layout: header (1) + body + input area (2) + status bar (1)
	const reserved = 4

	bodyHeight := m.height - reserved
	if bodyHeight < 3 {
		bodyHeight = 3
	}

	vpWidth := m.width
	if m.showHistory() {
		vpWidth -= m.opts.HistoryWidth + 1
	}
	if vpWidth < 1 {
		vpWidth = 1
	}
	m.viewport.Width = vpWidth
	m.viewport.Height = bodyHeight

	m.input.Width = m.width - 4 - len(m.input.Prompt)
	if m.input.Width < 10 {
		m.input.Width = 10
	}

	if m.opts.RenderMarkdown {
		if r, err := styles.NewMarkdownRenderer(m.theme, vpWidth-4); err == nil {
			m.markdown = r
		}
	}
	m.syncTranscript(true)

	m.clampCursor()
	m.updateViewport(false)
	return m, nil
}

// showHistory reports whether the terminal is wide enough for the history pane.
func (m Model) showHistory() bool {
	return m.width >= m.opts.HistoryWidth+minTranscriptWidth
}

// historyRows is the number of items visible in the history pane.
func (m Model) historyRows() int {
	// Border (2) + title line (1)
	rows := m.viewport.Height - 3
	if rows < 1 {
		rows = 1
	}
	return rows
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Cancel):
		if m.streaming {
			m.canceler.stop()
			m.status = "Cancelling..."
			return m, nil
		}
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		if m.focus == focusHistory {
			return m.setFocus(focusInput), nil
		}
		m.lastErr = nil
		return m, nil

	case key.Matches(msg, m.keys.Focus):
		if m.focus == focusHistory {
			return m.setFocus(focusInput), nil
		}
		if !m.showHistory() || len(m.history) == 0 {
			return m, nil
		}
		return m.setFocus(focusHistory), nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	if m.focus == focusHistory {
		return m.handleHistoryKey(msg)
	}
	return m.handleInputKey(msg)
}

func (m Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Submit):
		if item, ok := m.cursorItem(); ok {
			return m, m.selectCmd(item.ID)
		}
	case key.Matches(msg, m.keys.Delete):
		if item, ok := m.cursorItem(); ok {
			return m, m.deleteCmd(item.ID)
		}
	}
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	case msg.Type == tea.KeyUp:
		m.viewport.LineUp(1)
		return m, nil
	case msg.Type == tea.KeyDown:
		m.viewport.LineDown(1)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.streaming {
		m.status = "Wait for the current answer or press Esc to cancel."
		return m, nil
	}
	prompt := strings.TrimSpace(m.input.Value())
	if prompt == "" {
		return m, nil
	}

	m.input.Reset()
	m.streaming = true
	m.status = ""
	m.lastErr = nil
	return m, tea.Batch(m.promptCmd(prompt), m.spinner.Tick)
}

func (m Model) setFocus(f focus) Model {
	m.focus = f
	if f == focusHistory {
		m.input.Blur()
	} else {
		m.input.Focus()
	}
	return m
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.canceler.stop()
	m.quitting = true
	return m, tea.Quit
}

// =============================================================================
// HISTORY CURSOR
// =============================================================================

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
}

// clampCursor keeps the cursor on an item and scrolls the offset to show it.
func (m *Model) clampCursor() {
	if len(m.history) == 0 {
		m.cursor, m.offset = 0, 0
		if m.focus == focusHistory {
			*m = m.setFocus(focusInput)
		}
		return
	}
	if m.cursor >= len(m.history) {
		m.cursor = len(m.history) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}

	rows := m.historyRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m Model) cursorItem() (conversation.HistoryItem, bool) {
	if m.cursor < 0 || m.cursor >= len(m.history) {
		return conversation.HistoryItem{}, false
	}
	return m.history[m.cursor], true
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// pendingExchange returns the in-flight exchange, if any.
func (m *Model) pendingExchange() *exchange {
	if m.current != nil && m.current.pending {
		return m.current
	}
	return nil
}

// syncTranscript rebuilds the rendered transcript from the session. Entries
// already rendered are reused unless rerender is set.
func (m *Model) syncTranscript(rerender bool) {
	entries := m.ctrl.Session().All()
	out := make([]renderedEntry, len(entries))
	for i, e := range entries {
		if !rerender && i < len(m.transcript) && m.transcript[i].entry == e {
			out[i] = m.transcript[i]
			continue
		}
		out[i] = renderedEntry{entry: e, rendered: m.renderAnswer(e.Answer)}
	}
	m.transcript = out
}

func (m Model) handleError(err error) (tea.Model, tea.Cmd) {
	if err == nil {
		return m, nil
	}
	var turnErr *conversation.TurnError
	if errors.As(err, &turnErr) {
		if ex := m.pendingExchange(); ex != nil {
			// A failed answer is discarded, only the error stays visible.
			m.current = &exchange{question: ex.question, err: err}
			m.updateViewport(true)
			return m, nil
		}
	}
	m.lastErr = err
	return m, nil
}

func (m Model) renderAnswer(answer string) string {
	if m.markdown == nil {
		return ""
	}
	return styles.RenderMarkdown(m.markdown, answer)
}
