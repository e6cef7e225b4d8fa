// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatwith/internal/conversation"
	"github.com/jeranaias/chatwith/internal/model"
	"github.com/jeranaias/chatwith/internal/session"
	"github.com/jeranaias/chatwith/internal/storage"
)

// scriptedReader returns its lines in order, then io.EOF.
type scriptedReader struct {
	lines   []string
	history []string
	closed  bool
}

func (r *scriptedReader) Prompt(string) (string, error) {
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func (r *scriptedReader) AppendHistory(line string) { r.history = append(r.history, line) }

func (r *scriptedReader) Close() error {
	r.closed = true
	return nil
}

type replFixture struct {
	store *storage.MemoryStore
	gen   *conversation.ScriptedGenerator
	out   *bytes.Buffer
	repl  *REPL
}

func newREPLFixture(t *testing.T, gen *conversation.ScriptedGenerator, lines ...string) *replFixture {
	t.Helper()
	out := &bytes.Buffer{}
	store := storage.NewMemoryStore()
	printer := NewPrinter(out, PrinterOptions{})
	ctrl := conversation.New(store, session.New(), gen, printer)
	return &replFixture{
		store: store,
		gen:   gen,
		out:   out,
		repl:  NewREPL(ctrl, &scriptedReader{lines: lines}, out, printer, REPLOptions{}),
	}
}

func TestREPL_PromptPersistsTurn(t *testing.T) {
	f := newREPLFixture(t, conversation.NewScriptedGenerator("Hello", ", ", "world"), "say hi")

	require.NoError(t, f.repl.Run(context.Background()))

	assert.Contains(t, f.out.String(), "Hello, world")
	turns, err := f.store.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "say hi", turns[0].Question)
	assert.Equal(t, "Hello, world", turns[0].Answer)
}

func TestREPL_FailedStreamNotPersisted(t *testing.T) {
	gen := conversation.NewScriptedGenerator("partial ", "answer")
	gen.FailAfter = 1
	f := newREPLFixture(t, gen, "doomed")

	require.NoError(t, f.repl.Run(context.Background()))

	assert.Contains(t, f.out.String(), "answer discarded")
	n, err := f.store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestREPL_SlashCommands(t *testing.T) {
	f := newREPLFixture(t, conversation.NewScriptedGenerator("forty-two"),
		"meaning of life?",
		"/history",
		"/show 1",
		"/delete 1",
		"/show nope",
		"/bogus",
		"/help",
	)

	require.NoError(t, f.repl.Run(context.Background()))

	out := f.out.String()
	assert.Contains(t, out, "#1")
	assert.Contains(t, out, "Turn #1")
	assert.Contains(t, out, "Turn #1 is no longer in history")
	assert.Contains(t, out, "must be a positive integer")
	assert.Contains(t, out, "unknown command")
	assert.Contains(t, out, "/history")

	n, err := f.store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestREPL_DeleteUnknownID(t *testing.T) {
	f := newREPLFixture(t, conversation.NewScriptedGenerator("kept"), "keep me", "/delete 7")

	require.NoError(t, f.repl.Run(context.Background()))

	out := f.out.String()
	assert.Contains(t, out, "Turn #7 is no longer in history")
	assert.NotContains(t, out, "Deleted turn")
	n, err := f.store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestREPL_HistoryQuietAfterCompletion(t *testing.T) {
	f := newREPLFixture(t, conversation.NewScriptedGenerator("ok"), "first")

	require.NoError(t, f.repl.Run(context.Background()))
	assert.NotContains(t, f.out.String(), "#1", "history refresh is not printed unasked")
}

func TestREPL_ExitWords(t *testing.T) {
	for _, word := range []string{"exit", "QUIT", "/quit", "/q"} {
		t.Run(word, func(t *testing.T) {
			f := newREPLFixture(t, conversation.NewScriptedGenerator("x"), word, "never sent")
			require.NoError(t, f.repl.Run(context.Background()))
			assert.Empty(t, f.gen.Prompts())
		})
	}
}

func TestREPL_SkipsBlankLinesAndRecordsHistory(t *testing.T) {
	reader := &scriptedReader{lines: []string{"  ", "hello"}}
	out := &bytes.Buffer{}
	printer := NewPrinter(out, PrinterOptions{})
	gen := conversation.NewScriptedGenerator("hi")
	ctrl := conversation.New(storage.NewMemoryStore(), session.New(), gen, printer)

	require.NoError(t, NewREPL(ctrl, reader, out, printer, REPLOptions{}).Run(context.Background()))
	assert.Equal(t, []string{"hello"}, reader.history)
	assert.Equal(t, []string{"hello"}, gen.Prompts())
}

type failingReader struct{ scriptedReader }

func (failingReader) Prompt(string) (string, error) { return "", errors.New("tty gone") }

func TestREPL_ReaderError(t *testing.T) {
	out := &bytes.Buffer{}
	printer := NewPrinter(out, PrinterOptions{})
	ctrl := conversation.New(storage.NewMemoryStore(), session.New(), conversation.NewScriptedGenerator(), printer)

	err := NewREPL(ctrl, &failingReader{}, out, printer, REPLOptions{}).Run(context.Background())
	assert.EqualError(t, err, "tty gone")
}

func TestREPL_CancelWithoutPrompt(t *testing.T) {
	f := newREPLFixture(t, conversation.NewScriptedGenerator())
	assert.False(t, f.repl.Cancel())
}

// cancelingController cancels the REPL from inside HandlePrompt.
type cancelingController struct {
	Controller
	repl *REPL
	err  error
}

func (c *cancelingController) HandlePrompt(ctx context.Context, prompt string) error {
	if !c.repl.Cancel() {
		c.err = errors.New("no prompt in flight")
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestREPL_CancelStopsPrompt(t *testing.T) {
	out := &bytes.Buffer{}
	ctrl := &cancelingController{}
	repl := NewREPL(ctrl, &scriptedReader{lines: []string{"long question"}}, out, NewPrinter(out, PrinterOptions{}), REPLOptions{})
	ctrl.repl = repl

	require.NoError(t, repl.Run(context.Background()))
	assert.NoError(t, ctrl.err)
	assert.False(t, repl.Cancel(), "cancel is cleared after the prompt")
}

// =============================================================================
// PRINTER TESTS
// =============================================================================

func TestPrinter_StreamsSuffixes(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out, PrinterOptions{EchoPrompts: true})

	p.ShowUserMessage("q")
	p.ShowPartial("Hel")
	p.ShowPartial("Hello")
	p.ShowPartial("Hello")
	p.ShowCompleted(model.Entry{Question: "q", Answer: "Hello!"})

	s := out.String()
	assert.Contains(t, s, "you> q")
	assert.Contains(t, s, "Hello!")
	assert.Equal(t, 1, bytes.Count(out.Bytes(), []byte("Hel")), "each fragment written once")
}

func TestPrinter_IgnoresPartialOutsideAnswer(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out, PrinterOptions{})
	p.ShowPartial("stray")
	assert.Empty(t, out.String())
}

func TestPrinter_SelectedUsesMarkdown(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out, PrinterOptions{Markdown: func(s string) string { return "<<" + s + ">>" }})
	p.ShowSelected(model.Turn{ID: 5, Question: "q?", Answer: "a!"})
	assert.Contains(t, out.String(), "Turn #5")
	assert.Contains(t, out.String(), "<<a!>>")
}

func TestPrinter_ShowError(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out, PrinterOptions{})

	p.ShowError(&conversation.TurnError{Prompt: "q", Cause: context.Canceled})
	assert.Contains(t, out.String(), "cancelled")

	out.Reset()
	p.ShowError(storage.ErrUnavailable)
	assert.Contains(t, out.String(), "storage unavailable")
}
