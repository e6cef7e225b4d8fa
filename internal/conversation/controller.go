// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/chatwith/internal/model"
	"github.com/jeranaias/chatwith/internal/observability"
	"github.com/jeranaias/chatwith/internal/session"
	"github.com/jeranaias/chatwith/internal/storage"
)

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller mediates between the store, the session, the generator and the
// renderer. It is safe for concurrent use; prompts are serialized by the state
// machine and rejected with ErrBusy while one is in flight.
type Controller struct {
	store     storage.Store
	session   *session.Session
	generator Generator
	renderer  Renderer

	mu    sync.Mutex
	state State

	now func() time.Time
}

// New creates a controller. The session must not be nil.
func New(store storage.Store, sess *session.Session, gen Generator, r Renderer) *Controller {
	return &Controller{
		store:     store,
		session:   sess,
		generator: gen,
		renderer:  r,
		state:     StateIdle,
		now:       time.Now,
	}
}

// Session returns the controller's session.
func (c *Controller) Session() *session.Session {
	return c.session
}

// State returns the current prompt state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) logger(ctx context.Context) *slog.Logger {
	return observability.LoggerFromContext(ctx).With("session_id", c.session.ID())
}

// =============================================================================
// HISTORY
// =============================================================================

// RenderHistory lists every stored turn and hands the list to the renderer.
func (c *Controller) RenderHistory(ctx context.Context) error {
	turns, err := c.store.ListAll(ctx)
	if err != nil {
		c.logger(ctx).Error("list history failed", "error", err)
		c.renderer.ShowError(err)
		return err
	}
	c.renderer.ShowHistory(historyItems(turns))
	return nil
}

// Select makes id the viewed history turn and renders it. The transcript is
// not touched.
func (c *Controller) Select(ctx context.Context, id int64) error {
	c.session.Select(id)
	return c.RenderSelected(ctx)
}

// RenderSelected shows the selected turn. A selection whose turn no longer
// exists is cleared silently.
func (c *Controller) RenderSelected(ctx context.Context) error {
	id, ok := c.session.Selected()
	if !ok {
		c.renderer.ClearSelected()
		return nil
	}

	turn, err := c.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.session.ClearSelectionIf(id)
			c.renderer.ClearSelected()
			c.logger(ctx).Debug("selected turn gone", "turn_id", id)
			return nil
		}
		c.logger(ctx).Error("load selected turn failed", "turn_id", id, "error", err)
		c.renderer.ShowError(err)
		return err
	}

	c.renderer.ShowSelected(*turn)
	return nil
}

// Delete removes a stored turn and re-renders history. Deleting the viewed
// turn clears the selection.
func (c *Controller) Delete(ctx context.Context, id int64) error {
	if err := c.store.Delete(ctx, id); err != nil {
		c.logger(ctx).Error("delete turn failed", "turn_id", id, "error", err)
		c.renderer.ShowError(err)
		return err
	}
	c.logger(ctx).Info("turn deleted", "turn_id", id)

	if c.session.ClearSelectionIf(id) {
		c.renderer.ClearSelected()
	}
	return c.RenderHistory(ctx)
}

// =============================================================================
// PROMPT HANDLING
// =============================================================================

// HandlePrompt streams an answer for prompt, rendering after every fragment.
//
// On completion the exchange is appended to the session and then persisted.
// On a stream failure or cancellation nothing is appended or persisted and the
// returned error is a *TurnError. If persisting fails the transcript keeps the
// entry and the storage error is returned.
func (c *Controller) HandlePrompt(ctx context.Context, prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return ErrEmptyPrompt
	}
	if !c.begin() {
		return ErrBusy
	}
	defer c.transition(ctx, StateIdle)

	log := c.logger(ctx)
	start := c.now()
	log.Info("prompt submitted", "state", StateSubmitted.String(), "prompt_chars", len(prompt))

	c.renderer.ShowUserMessage(prompt)

	answer, received, err := c.stream(ctx, prompt)
	if err != nil {
		turnErr := &TurnError{Prompt: prompt, Received: received, Cause: err}
		c.transition(ctx, StateFailed)
		log.Warn("prompt failed", "fragments", received, "error", err,
			"elapsed_ms", c.now().Sub(start).Milliseconds())
		c.renderer.ShowError(turnErr)
		return turnErr
	}

	c.transition(ctx, StateCompleted)
	entry := model.Entry{Question: prompt, Answer: answer}

	// The answer is complete; a late cancellation must not lose it.
	persistCtx := context.WithoutCancel(ctx)

	c.session.Append(entry.Question, entry.Answer)
	turn, createErr := c.store.Create(persistCtx, entry.Question, entry.Answer)
	c.renderer.ShowCompleted(entry)

	if createErr != nil {
		log.Error("persist turn failed", "error", createErr)
		c.renderer.ShowError(createErr)
		return createErr
	}

	log.Info("turn completed", "turn_id", turn.ID, "fragments", received,
		"answer_chars", len(answer), "elapsed_ms", c.now().Sub(start).Milliseconds())

	return c.RenderHistory(persistCtx)
}

// stream pulls every fragment, rendering the growing answer after each one.
func (c *Controller) stream(ctx context.Context, prompt string) (string, int, error) {
	// Opening the stream counts as Streaming.
	c.transition(ctx, StateStreaming)

	stream, err := c.generator.Stream(ctx, prompt)
	if err != nil {
		return "", 0, err
	}
	defer stream.Close()

	var sb strings.Builder
	received := 0
	for {
		fragment, err := stream.Next()
		if errors.Is(err, io.EOF) {
			return sb.String(), received, nil
		}
		if err != nil {
			return "", received, err
		}
		if err := ctx.Err(); err != nil {
			return "", received, err
		}

		received++
		sb.WriteString(fragment)
		c.renderer.ShowPartial(sb.String())
	}
}

// begin moves Idle to Submitted. Returns false if a prompt is in flight.
func (c *Controller) begin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateIdle {
		return false
	}
	c.state = StateSubmitted
	return true
}

func (c *Controller) transition(ctx context.Context, to State) {
	c.mu.Lock()
	from := c.state
	c.state = to
	c.mu.Unlock()

	c.logger(ctx).Debug("state transition", "from", from.String(), "to", to.String())
}
