// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatwith/internal/model"
	"github.com/jeranaias/chatwith/internal/session"
	"github.com/jeranaias/chatwith/internal/storage"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// recorder is a Renderer that records every call.
type recorder struct {
	mu        sync.Mutex
	history   [][]HistoryItem
	selected  []model.Turn
	cleared   int
	users     []string
	partials  []string
	completed []model.Entry
	errs      []error

	onPartial func(answer string)
}

func (r *recorder) ShowHistory(items []HistoryItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, items)
}

func (r *recorder) ShowSelected(turn model.Turn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selected = append(r.selected, turn)
}

func (r *recorder) ClearSelected() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleared++
}

func (r *recorder) ShowUserMessage(prompt string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, prompt)
}

func (r *recorder) ShowPartial(answer string) {
	r.mu.Lock()
	r.partials = append(r.partials, answer)
	hook := r.onPartial
	r.mu.Unlock()
	if hook != nil {
		hook(answer)
	}
}

func (r *recorder) ShowCompleted(entry model.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, entry)
}

func (r *recorder) ShowError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recorder) lastHistory() []HistoryItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.history) == 0 {
		return nil
	}
	return r.history[len(r.history)-1]
}

// failingCreateStore rejects every Create.
type failingCreateStore struct {
	storage.Store
}

func (s failingCreateStore) Create(ctx context.Context, question, answer string) (*model.Turn, error) {
	return nil, &storage.StoreError{Message: storage.ErrUnavailable.Message, Op: "create", Cause: errors.New("disk full")}
}

// blockingGenerator emits one fragment and then waits for release.
type blockingGenerator struct {
	started chan struct{}
	release chan struct{}
}

func (g *blockingGenerator) Stream(ctx context.Context, prompt string) (FragmentStream, error) {
	return &blockingStream{g: g, ctx: ctx}, nil
}

type blockingStream struct {
	g    *blockingGenerator
	ctx  context.Context
	sent bool
}

func (s *blockingStream) Next() (string, error) {
	if !s.sent {
		s.sent = true
		close(s.g.started)
		return "partial", nil
	}
	select {
	case <-s.g.release:
		return "", io.EOF
	case <-s.ctx.Done():
		return "", s.ctx.Err()
	}
}

func (s *blockingStream) Close() error { return nil }

func newTestController(t *testing.T, gen Generator) (*Controller, *storage.MemoryStore, *recorder) {
	t.Helper()
	store := storage.NewMemoryStore()
	rec := &recorder{}
	return New(store, session.New(), gen, rec), store, rec
}

func historyIDs(items []HistoryItem) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

// =============================================================================
// PROMPT TESTS
// =============================================================================

func TestHandlePrompt_StreamsAndPersists(t *testing.T) {
	ctx := context.Background()
	c, store, rec := newTestController(t, NewScriptedGenerator("He", "llo"))

	require.NoError(t, c.HandlePrompt(ctx, "Say hello"))

	assert.Equal(t, []string{"Say hello"}, rec.users)
	assert.Equal(t, []string{"He", "Hello"}, rec.partials)
	assert.Equal(t, []model.Entry{{Question: "Say hello", Answer: "Hello"}}, rec.completed)
	assert.Equal(t, []model.Entry{{Question: "Say hello", Answer: "Hello"}}, c.Session().All())
	assert.Empty(t, rec.errs)

	turns, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "Say hello", turns[0].Question)
	assert.Equal(t, "Hello", turns[0].Answer)

	history := rec.lastHistory()
	require.Len(t, history, 1)
	assert.Equal(t, turns[0].ID, history[0].ID)
	assert.Equal(t, "Say hello", history[0].Label)

	assert.Equal(t, StateIdle, c.State())
}

func TestHandlePrompt_PartialsArePrefixes(t *testing.T) {
	fragments := []string{"The ", "quick ", "", "brown", " fox ", "jumps", "\n", "über ", "🎉"}
	c, _, rec := newTestController(t, NewScriptedGenerator(fragments...))

	require.NoError(t, c.HandlePrompt(context.Background(), "story"))

	final := strings.Join(fragments, "")
	require.Len(t, rec.partials, len(fragments))
	prev := ""
	for i, p := range rec.partials {
		assert.True(t, strings.HasPrefix(final, p), "partial %d %q is not a prefix of %q", i, p, final)
		assert.True(t, strings.HasPrefix(p, prev), "partial %d %q does not extend %q", i, p, prev)
		prev = p
	}
	assert.Equal(t, final, rec.partials[len(rec.partials)-1])
	assert.Equal(t, final, c.Session().All()[0].Answer)
}

func TestHandlePrompt_TrimsPrompt(t *testing.T) {
	gen := NewScriptedGenerator("ok")
	c, _, rec := newTestController(t, gen)

	require.NoError(t, c.HandlePrompt(context.Background(), "  padded \n"))
	assert.Equal(t, []string{"padded"}, gen.Prompts())
	assert.Equal(t, []string{"padded"}, rec.users)
}

func TestHandlePrompt_EmptyPrompt(t *testing.T) {
	gen := NewScriptedGenerator("x")
	c, store, rec := newTestController(t, gen)

	for _, p := range []string{"", "   ", "\n\t"} {
		err := c.HandlePrompt(context.Background(), p)
		assert.ErrorIs(t, err, ErrEmptyPrompt)
	}

	assert.Empty(t, gen.Prompts())
	assert.Empty(t, rec.users)
	n, _ := store.Count(context.Background())
	assert.Zero(t, n)
}

func TestHandlePrompt_MidStreamFailure(t *testing.T) {
	ctx := context.Background()
	gen := NewScriptedGenerator("He", "llo", " world")
	gen.FailAfter = 1
	gen.Err = errors.New("connection reset")
	c, store, rec := newTestController(t, gen)

	// Seed one earlier turn so history is non-empty.
	_, err := store.Create(ctx, "earlier", "answer")
	require.NoError(t, err)

	err = c.HandlePrompt(ctx, "Say hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModelStream)
	assert.ErrorIs(t, err, gen.Err)

	var turnErr *TurnError
	require.ErrorAs(t, err, &turnErr)
	assert.Equal(t, "Say hello", turnErr.Prompt)
	assert.Equal(t, 1, turnErr.Received)

	assert.Equal(t, []string{"He"}, rec.partials)
	assert.Empty(t, rec.completed)
	assert.Empty(t, c.Session().All(), "failed turn must not reach the transcript")

	turns, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, turns, 1, "failed turn must not be persisted")
	assert.Equal(t, "earlier", turns[0].Question)

	require.Len(t, rec.errs, 1)
	assert.ErrorIs(t, rec.errs[0], ErrModelStream)
	assert.Equal(t, StateIdle, c.State())
}

// stateRecorder notes the controller state whenever an error is shown.
type stateRecorder struct {
	*recorder
	ctrl   *Controller
	states []State
}

func (r *stateRecorder) ShowError(err error) {
	r.states = append(r.states, r.ctrl.State())
	r.recorder.ShowError(err)
}

func TestHandlePrompt_StreamStartFailure(t *testing.T) {
	startErr := errors.New("Ollama is not running")
	store := storage.NewMemoryStore()
	rec := &stateRecorder{recorder: &recorder{}}

	var c *Controller
	gen := GeneratorFunc(func(ctx context.Context, prompt string) (FragmentStream, error) {
		rec.states = append(rec.states, c.State())
		return nil, startErr
	})
	c = New(store, session.New(), gen, rec)
	rec.ctrl = c

	err := c.HandlePrompt(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrModelStream)
	assert.ErrorIs(t, err, startErr)
	assert.Equal(t, []State{StateStreaming, StateFailed}, rec.states)
	assert.Equal(t, StateIdle, c.State())
	assert.Empty(t, rec.partials)
	assert.Empty(t, c.Session().All())
	n, _ := store.Count(context.Background())
	assert.Zero(t, n)
}

func TestHandlePrompt_ScriptedStreamErr(t *testing.T) {
	gen := NewScriptedGenerator("x")
	gen.StreamErr = errors.New("Ollama is not running")
	c, store, rec := newTestController(t, gen)

	err := c.HandlePrompt(context.Background(), "hi")
	assert.ErrorIs(t, err, gen.StreamErr)
	assert.Empty(t, rec.partials)
	n, _ := store.Count(context.Background())
	assert.Zero(t, n)
}

func TestHandlePrompt_SessionContinuesAfterFailure(t *testing.T) {
	ctx := context.Background()
	gen := NewScriptedGenerator("fine")
	gen.FailAfter = 0
	c, store, _ := newTestController(t, gen)

	require.Error(t, c.HandlePrompt(ctx, "first"))

	gen.FailAfter = -1
	require.NoError(t, c.HandlePrompt(ctx, "second"))

	turns, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "second", turns[0].Question)
	assert.Equal(t, []model.Entry{{Question: "second", Answer: "fine"}}, c.Session().All())
}

func TestHandlePrompt_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, store, rec := newTestController(t, NewScriptedGenerator("a", "b", "c"))
	rec.onPartial = func(answer string) {
		if answer == "a" {
			cancel()
		}
	}

	err := c.HandlePrompt(ctx, "stop me")
	assert.ErrorIs(t, err, ErrModelStream)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, c.Session().All())
	n, _ := store.Count(context.Background())
	assert.Zero(t, n)
	assert.Equal(t, StateIdle, c.State())
}

func TestHandlePrompt_Busy(t *testing.T) {
	gen := &blockingGenerator{started: make(chan struct{}), release: make(chan struct{})}
	c, store, _ := newTestController(t, gen)

	done := make(chan error, 1)
	go func() { done <- c.HandlePrompt(context.Background(), "first") }()

	select {
	case <-gen.started:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not start")
	}
	assert.Equal(t, StateStreaming, c.State())

	err := c.HandlePrompt(context.Background(), "second")
	assert.ErrorIs(t, err, ErrBusy)

	close(gen.release)
	require.NoError(t, <-done)

	turns, err := store.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "first", turns[0].Question)
	assert.Equal(t, "partial", turns[0].Answer)
	assert.Equal(t, StateIdle, c.State())
}

func TestHandlePrompt_PersistFailureKeepsTranscript(t *testing.T) {
	store := failingCreateStore{Store: storage.NewMemoryStore()}
	rec := &recorder{}
	c := New(store, session.New(), NewScriptedGenerator("4"), rec)

	err := c.HandlePrompt(context.Background(), "What is 2+2?")
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrUnavailable)
	assert.NotErrorIs(t, err, ErrModelStream)

	assert.Equal(t, []model.Entry{{Question: "What is 2+2?", Answer: "4"}}, c.Session().All())
	assert.Len(t, rec.completed, 1)
	require.Len(t, rec.errs, 1)
	assert.Equal(t, StateIdle, c.State())
}

// =============================================================================
// HISTORY TESTS
// =============================================================================

func TestHistoryScenario(t *testing.T) {
	ctx := context.Background()
	gen := &ScriptedGenerator{
		Script: func(prompt string) []string {
			if strings.Contains(prompt, "2+2") {
				return []string{"4"}
			}
			return []string{"6"}
		},
		FailAfter: -1,
	}
	c, _, rec := newTestController(t, gen)

	require.NoError(t, c.HandlePrompt(ctx, "What is 2+2?"))
	require.NoError(t, c.HandlePrompt(ctx, "And 3+3?"))

	history := rec.lastHistory()
	require.Len(t, history, 2)
	assert.Equal(t, "And 3+3?", history[0].Label)
	assert.Equal(t, "What is 2+2?", history[1].Label)

	assert.Equal(t, []model.Entry{
		{Question: "What is 2+2?", Answer: "4"},
		{Question: "And 3+3?", Answer: "6"},
	}, c.Session().All())

	require.NoError(t, c.Delete(ctx, history[1].ID))
	history = rec.lastHistory()
	require.Len(t, history, 1)
	assert.Equal(t, "And 3+3?", history[0].Label)

	// Deleting history never touches the transcript.
	assert.Len(t, c.Session().All(), 2)
}

func TestRenderHistory_Order(t *testing.T) {
	ctx := context.Background()
	c, store, rec := newTestController(t, NewScriptedGenerator())

	var want []int64
	for _, q := range []string{"a", "b", "c"} {
		turn, err := store.Create(ctx, q, "x")
		require.NoError(t, err)
		want = append([]int64{turn.ID}, want...)
	}

	require.NoError(t, c.RenderHistory(ctx))
	assert.Equal(t, want, historyIDs(rec.lastHistory()))
}

func TestRenderHistory_StoreUnavailable(t *testing.T) {
	c, store, rec := newTestController(t, NewScriptedGenerator())
	require.NoError(t, store.Close())

	err := c.RenderHistory(context.Background())
	assert.ErrorIs(t, err, storage.ErrUnavailable)
	assert.Empty(t, rec.history)
	require.Len(t, rec.errs, 1)
}

// =============================================================================
// SELECTION TESTS
// =============================================================================

func TestSelect_ShowsTurn(t *testing.T) {
	ctx := context.Background()
	c, store, rec := newTestController(t, NewScriptedGenerator())
	turn, err := store.Create(ctx, "q", "a")
	require.NoError(t, err)

	require.NoError(t, c.Select(ctx, turn.ID))

	require.Len(t, rec.selected, 1)
	assert.Equal(t, turn.ID, rec.selected[0].ID)
	assert.Equal(t, "a", rec.selected[0].Answer)
	id, ok := c.Session().Selected()
	assert.True(t, ok)
	assert.Equal(t, turn.ID, id)
	assert.Empty(t, c.Session().All(), "selection must not touch the transcript")
}

func TestRenderSelected_NotFoundClearsSelection(t *testing.T) {
	ctx := context.Background()
	c, store, rec := newTestController(t, NewScriptedGenerator())
	turn, err := store.Create(ctx, "q", "a")
	require.NoError(t, err)

	c.Session().Select(turn.ID)
	require.NoError(t, store.Delete(ctx, turn.ID))

	require.NoError(t, c.RenderSelected(ctx))
	_, ok := c.Session().Selected()
	assert.False(t, ok)
	assert.Equal(t, 1, rec.cleared)
	assert.Empty(t, rec.selected)
	assert.Empty(t, rec.errs, "a vanished selection is not an error")
}

func TestRenderSelected_NoSelection(t *testing.T) {
	c, _, rec := newTestController(t, NewScriptedGenerator())

	require.NoError(t, c.RenderSelected(context.Background()))
	assert.Equal(t, 1, rec.cleared)
	assert.Empty(t, rec.selected)
}

func TestRenderSelected_StoreUnavailable(t *testing.T) {
	c, store, rec := newTestController(t, NewScriptedGenerator())
	c.Session().Select(3)
	require.NoError(t, store.Close())

	err := c.RenderSelected(context.Background())
	assert.ErrorIs(t, err, storage.ErrUnavailable)
	require.Len(t, rec.errs, 1)
	_, ok := c.Session().Selected()
	assert.True(t, ok, "selection is kept when the store is unreachable")
}

func TestDelete_SelectedTurnClearsSelection(t *testing.T) {
	ctx := context.Background()
	c, store, rec := newTestController(t, NewScriptedGenerator())
	keep, err := store.Create(ctx, "keep", "k")
	require.NoError(t, err)
	gone, err := store.Create(ctx, "gone", "g")
	require.NoError(t, err)

	require.NoError(t, c.Select(ctx, gone.ID))
	require.NoError(t, c.Delete(ctx, gone.ID))

	_, ok := c.Session().Selected()
	assert.False(t, ok)
	assert.Equal(t, 1, rec.cleared)
	assert.Equal(t, []int64{keep.ID}, historyIDs(rec.lastHistory()))

	// Deleting again is harmless.
	require.NoError(t, c.Delete(ctx, gone.ID))
	assert.Empty(t, rec.errs)
}

func TestDelete_OtherTurnKeepsSelection(t *testing.T) {
	ctx := context.Background()
	c, store, rec := newTestController(t, NewScriptedGenerator())
	a, err := store.Create(ctx, "a", "1")
	require.NoError(t, err)
	b, err := store.Create(ctx, "b", "2")
	require.NoError(t, err)

	require.NoError(t, c.Select(ctx, a.ID))
	require.NoError(t, c.Delete(ctx, b.ID))

	id, ok := c.Session().Selected()
	assert.True(t, ok)
	assert.Equal(t, a.ID, id)
	assert.Zero(t, rec.cleared)
}

// =============================================================================
// STATE TESTS
// =============================================================================

func TestState_String(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{StateIdle, "idle"},
		{StateSubmitted, "submitted"},
		{StateStreaming, "streaming"},
		{StateCompleted, "completed"},
		{StateFailed, "failed"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.s, got, tt.want)
		}
	}
}

func TestTurnError_Message(t *testing.T) {
	err := &TurnError{Prompt: "p", Received: 2, Cause: errors.New("eof")}
	if got := err.Error(); got != "model stream failed after 2 fragments: eof" {
		t.Errorf("Error() = %q", got)
	}
	err = &TurnError{Prompt: "p"}
	if got := err.Error(); got != "model stream failed" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(err, ErrModelStream) {
		t.Error("TurnError without cause should still match ErrModelStream")
	}
}
