// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/chatwith/internal/conversation"
	"github.com/jeranaias/chatwith/internal/model"
	"github.com/jeranaias/chatwith/internal/session"
	"github.com/jeranaias/chatwith/internal/ui/styles"
)

// =============================================================================
// CONTROLLER INTERFACE
// =============================================================================

// Controller is the part of conversation.Controller the UI drives.
type Controller interface {
	RenderHistory(ctx context.Context) error
	Select(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	HandlePrompt(ctx context.Context, prompt string) error
	State() conversation.State
	Session() *session.Session
}

var _ Controller = (*conversation.Controller)(nil)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures the chat view.
type Options struct {
	// ModelName is shown in the header.
	ModelName string
	// StoreLabel describes the store in the status bar, e.g. "sqlite".
	StoreLabel string
	// HistoryWidth is the width of the history pane in cells.
	HistoryWidth int
	// WordWrap wraps answers to the transcript width.
	WordWrap bool
	// RenderMarkdown renders completed answers with glamour.
	RenderMarkdown bool
}

const (
	defaultHistoryWidth = 32
	minTranscriptWidth  = 30
)

// =============================================================================
// MODEL
// =============================================================================

type focus int

const (
	focusInput focus = iota
	focusHistory
)

// exchange is the prompt in flight, or the last one that failed. Completed
// prompts live in the session transcript.
type exchange struct {
	question string
	answer   string
	pending  bool
	err      error
}

// renderedEntry caches the markdown rendering of a transcript entry.
type renderedEntry struct {
	entry    model.Entry
	rendered string
}

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	ctx   context.Context
	ctrl  Controller
	theme *styles.Theme
	keys  KeyMap
	opts  Options

	width  int
	height int
	ready  bool

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	markdown *glamour.TermRenderer

	focus   focus
	history []conversation.HistoryItem
	cursor  int
	offset  int

	selected   *model.Turn
	transcript []renderedEntry
	current    *exchange
	streaming  bool
	status     string
	lastErr    error

	canceler *promptCanceler
	quitting bool
}

// New creates the chat model. ctx bounds every controller call.
func New(ctx context.Context, theme *styles.Theme, ctrl Controller, opts Options) Model {
	if theme == nil {
		theme = styles.NewTheme(styles.ThemeAuto)
	}
	if opts.HistoryWidth <= 0 {
		opts.HistoryWidth = defaultHistoryWidth
	}

	input := textinput.New()
	input.Placeholder = "Ask something..."
	input.Prompt = "> "
	input.PromptStyle = theme.InputPrompt
	input.PlaceholderStyle = theme.InputPlaceholder
	input.CharLimit = 0
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = theme.Spinner

	return Model{
		ctx:      ctx,
		ctrl:     ctrl,
		theme:    theme,
		keys:     DefaultKeyMap(),
		opts:     opts,
		viewport: viewport.New(80, 20),
		input:    input,
		spinner:  sp,
		canceler: &promptCanceler{},
	}
}

// Init loads the history list.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.refreshHistoryCmd())
}

// Streaming reports whether a prompt is in flight.
func (m Model) Streaming() bool {
	return m.streaming
}

// Transcript returns the completed exchanges of this run, as recorded by
// the session.
func (m Model) Transcript() []model.Entry {
	return m.ctrl.Session().All()
}

// =============================================================================
// COMMANDS
// =============================================================================

func (m Model) refreshHistoryCmd() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		_ = ctrl.RenderHistory(ctx)
		return nil
	}
}

func (m Model) selectCmd(id int64) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		_ = ctrl.Select(ctx, id)
		return nil
	}
}

func (m Model) deleteCmd(id int64) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		_ = ctrl.Delete(ctx, id)
		return nil
	}
}

// promptCmd runs one prompt end to end. Rendering happens through the
// Renderer while it runs; the returned message only ends the prompt.
func (m Model) promptCmd(prompt string) tea.Cmd {
	ctx := m.canceler.start(m.ctx)
	ctrl := m.ctrl
	return func() tea.Msg {
		return PromptDoneMsg{Err: ctrl.HandlePrompt(ctx, prompt)}
	}
}
