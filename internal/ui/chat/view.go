// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/chatwith/internal/conversation"
	"github.com/jeranaias/chatwith/internal/model"
)

// View renders the chat screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	body := m.viewport.View()
	if m.showHistory() {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.renderHistory(), " ", body)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.theme.InputContainer.Width(m.width).Render(m.input.View()),
		m.renderStatusBar(),
	)
}

// =============================================================================
// HEADER AND STATUS BAR
// =============================================================================

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("chatwith")
	if m.opts.ModelName != "" {
		title += "  " + m.theme.HeaderSubtitle.Render(m.opts.ModelName)
	}
	return m.theme.Header.Width(m.width).MaxHeight(1).Render(title)
}

func (m Model) renderStatusBar() string {
	var left string
	switch {
	case m.streaming:
		left = m.theme.StateBusy.Render(m.spinner.View() + " " + m.ctrl.State().String())
	default:
		left = m.theme.StateIdle.Render(conversation.StateIdle.String())
	}

	if m.opts.StoreLabel != "" {
		left += m.theme.ShortcutDesc.Render(fmt.Sprintf("  %s, %d saved", m.opts.StoreLabel, len(m.history)))
	}

	var right string
	switch {
	case m.lastErr != nil:
		right = m.theme.ErrorMessage.Render("error: " + m.lastErr.Error())
	case m.status != "":
		right = m.theme.ShortcutDesc.Render(m.status)
	default:
		var parts []string
		for _, b := range m.keys.shortHelp(m.focus == focusHistory, m.streaming) {
			h := b.Help()
			parts = append(parts, m.theme.ShortcutKey.Render(h.Key)+" "+m.theme.ShortcutDesc.Render(h.Desc))
		}
		right = strings.Join(parts, "  ")
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.StatusBar.MaxWidth(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

// =============================================================================
// HISTORY PANE
// =============================================================================

func (m Model) renderHistory() string {
	pane := m.theme.HistoryPane
	if m.focus == focusHistory {
		pane = m.theme.HistoryPaneFocused
	}

	// Border (2) + padding (2)
	inner := m.opts.HistoryWidth - 4
	if inner < 4 {
		inner = 4
	}

	var sb strings.Builder
	sb.WriteString(m.theme.HistoryTitle.Render(fmt.Sprintf("History (%d)", len(m.history))))

	if len(m.history) == 0 {
		sb.WriteString("\n")
		sb.WriteString(m.theme.HistoryMeta.Render("No saved turns."))
	}

	selectedID := int64(-1)
	if m.selected != nil {
		selectedID = m.selected.ID
	}

	rows := m.historyRows()
	end := m.offset + rows
	if end > len(m.history) {
		end = len(m.history)
	}
	for i := m.offset; i < end; i++ {
		item := m.history[i]
		marker := "  "
		if item.ID == selectedID {
			marker = "* "
		}
		line := marker + model.Label(item.Label, inner-2)
		line = runewidth.FillRight(line, inner)

		style := m.theme.HistoryItem
		switch {
		case i == m.cursor && m.focus == focusHistory:
			style = m.theme.HistoryItemCursor
		case item.ID == selectedID:
			style = m.theme.HistoryItemSelected
		}
		sb.WriteString("\n")
		sb.WriteString(style.Render(line))
	}

	return pane.
		Width(inner + 2).
		Height(m.viewport.Height - 2).
		Render(sb.String())
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// updateViewport re-renders the transcript. follow keeps the view pinned to
// the newest output.
func (m *Model) updateViewport(follow bool) {
	m.viewport.SetContent(m.renderTranscript())
	if follow {
		m.viewport.GotoBottom()
	}
}

func (m Model) renderTranscript() string {
	width := m.viewport.Width - 2
	if width < 10 {
		width = 10
	}

	var blocks []string

	if m.selected != nil {
		blocks = append(blocks, m.renderSelected(*m.selected, width))
	}

	if len(m.transcript) == 0 && m.current == nil && m.selected == nil {
		blocks = append(blocks, m.theme.Muted.Render("Type a question and press Enter. Tab opens history."))
	}

	for _, e := range m.transcript {
		blocks = append(blocks, m.renderExchange(exchange{
			question: e.entry.Question,
			answer:   e.entry.Answer,
		}, e.rendered, width))
	}
	if m.current != nil {
		blocks = append(blocks, m.renderExchange(*m.current, "", width))
	}

	return strings.Join(blocks, "\n\n")
}

func (m Model) renderSelected(turn model.Turn, width int) string {
	title := m.theme.SelectedTitle.Render(fmt.Sprintf("Saved turn #%d", turn.ID)) +
		m.theme.Muted.Render("  "+turn.CreatedAt.Format("2006-01-02 15:04"))

	answer := m.renderAnswer(turn.Answer)
	if answer == "" {
		answer = m.wrap(turn.Answer, width-4)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		m.theme.UserLabel.Render("You"),
		m.wrap(turn.Question, width-4),
		m.theme.AssistantLabel.Render("Assistant"),
		answer,
	)
	return m.theme.SelectedBox.Width(width - 2).Render(content)
}

func (m Model) renderExchange(ex exchange, rendered string, width int) string {
	var sb strings.Builder
	sb.WriteString(m.theme.UserLabel.Render("You"))
	sb.WriteString("\n")
	sb.WriteString(m.theme.UserMessage.Render(m.wrap(ex.question, width-2)))
	sb.WriteString("\n")

	sb.WriteString(m.theme.AssistantLabel.Render("Assistant"))
	if ex.pending {
		sb.WriteString(" " + m.spinner.View())
	}
	sb.WriteString("\n")

	switch {
	case ex.err != nil:
		sb.WriteString(m.theme.ErrorMessage.Render("[X] " + ex.err.Error()))
	case rendered != "":
		sb.WriteString(rendered)
	case ex.answer == "" && ex.pending:
		sb.WriteString(m.theme.Muted.Render("..."))
	default:
		sb.WriteString(m.theme.AssistantMessage.Render(m.wrap(ex.answer, width-2)))
	}
	return sb.String()
}

func (m Model) wrap(text string, width int) string {
	if !m.opts.WordWrap || width <= 0 {
		return text
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}
