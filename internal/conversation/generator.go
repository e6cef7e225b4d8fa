// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"
)

// =============================================================================
// GENERATOR INTERFACES
// =============================================================================

// FragmentStream yields answer fragments in order.
//
// Next returns the next fragment, io.EOF once the answer is complete, or any
// other error if generation failed.
type FragmentStream interface {
	Next() (string, error)
	Close() error
}

// Generator produces a FragmentStream for a prompt.
type Generator interface {
	Stream(ctx context.Context, prompt string) (FragmentStream, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (FragmentStream, error)

// Stream calls f(ctx, prompt).
func (f GeneratorFunc) Stream(ctx context.Context, prompt string) (FragmentStream, error) {
	return f(ctx, prompt)
}

// =============================================================================
// LAZY GENERATOR
// =============================================================================

// LazyGenerator builds its Generator on first use and reuses it for every
// later prompt. A failed build is not cached; the next prompt retries it.
type LazyGenerator struct {
	mu    sync.Mutex
	build func(ctx context.Context) (Generator, error)
	gen   Generator
}

// NewLazyGenerator wraps a constructor.
func NewLazyGenerator(build func(ctx context.Context) (Generator, error)) *LazyGenerator {
	return &LazyGenerator{build: build}
}

// Get returns the generator, building it if needed.
func (l *LazyGenerator) Get(ctx context.Context) (Generator, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.gen != nil {
		return l.gen, nil
	}
	gen, err := l.build(ctx)
	if err != nil {
		return nil, err
	}
	l.gen = gen
	return gen, nil
}

// Stream implements Generator.
func (l *LazyGenerator) Stream(ctx context.Context, prompt string) (FragmentStream, error) {
	gen, err := l.Get(ctx)
	if err != nil {
		return nil, err
	}
	return gen.Stream(ctx, prompt)
}

// =============================================================================
// SCRIPTED GENERATOR
// =============================================================================

// ErrScripted is the default failure injected by a ScriptedGenerator.
var ErrScripted = errors.New("scripted failure")

// ScriptedGenerator streams predetermined fragments. It backs --mock mode and
// tests.
type ScriptedGenerator struct {
	// Script returns the fragments for a prompt.
	Script func(prompt string) []string

	// Delay between fragments.
	Delay time.Duration

	// FailAfter fails the stream after this many fragments; negative never fails.
	FailAfter int

	// Err is the failure returned by Next; ErrScripted when nil.
	Err error

	// StreamErr, when set, is returned by Stream itself.
	StreamErr error

	mu      sync.Mutex
	prompts []string
}

// NewScriptedGenerator streams the same fragments for every prompt.
func NewScriptedGenerator(fragments ...string) *ScriptedGenerator {
	return &ScriptedGenerator{
		Script:    func(string) []string { return fragments },
		FailAfter: -1,
	}
}

// NewMockGenerator answers every prompt with a short canned reply, streamed
// word by word.
func NewMockGenerator(delay time.Duration) *ScriptedGenerator {
	return &ScriptedGenerator{
		Script:    mockReply,
		Delay:     delay,
		FailAfter: -1,
	}
}

func mockReply(prompt string) []string {
	reply := "This is a mock answer to: " + strings.TrimSpace(prompt) +
		"\n\nStart Ollama and drop --mock to talk to a real model."
	words := strings.SplitAfter(reply, " ")
	out := words[:0]
	for _, w := range words {
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

// Prompts returns every prompt streamed so far.
func (g *ScriptedGenerator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.prompts))
	copy(out, g.prompts)
	return out
}

// Stream implements Generator.
func (g *ScriptedGenerator) Stream(ctx context.Context, prompt string) (FragmentStream, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()

	if g.StreamErr != nil {
		return nil, g.StreamErr
	}

	failErr := g.Err
	if failErr == nil {
		failErr = ErrScripted
	}
	return &scriptedStream{
		ctx:       ctx,
		fragments: g.Script(prompt),
		delay:     g.Delay,
		failAfter: g.FailAfter,
		err:       failErr,
	}, nil
}

type scriptedStream struct {
	ctx       context.Context
	fragments []string
	delay     time.Duration
	failAfter int
	err       error
	pos       int
	closed    bool
}

func (s *scriptedStream) Next() (string, error) {
	if s.closed {
		return "", io.ErrClosedPipe
	}
	if err := s.ctx.Err(); err != nil {
		return "", err
	}
	if s.failAfter >= 0 && s.pos >= s.failAfter {
		return "", s.err
	}
	if s.pos >= len(s.fragments) {
		return "", io.EOF
	}

	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		select {
		case <-s.ctx.Done():
			timer.Stop()
			return "", s.ctx.Err()
		case <-timer.C:
		}
	}

	frag := s.fragments[s.pos]
	s.pos++
	return frag, nil
}

func (s *scriptedStream) Close() error {
	s.closed = true
	return nil
}
