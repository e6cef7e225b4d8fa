// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package conversation runs prompts end to end and drives the display.
//
// The Controller sits between the durable Store, the in-memory Session, a
// Generator that streams answer fragments, and a Renderer that draws them.
// It owns the per-prompt state machine:
//
//	Idle -> Submitted -> Streaming -> Completed | Failed -> Idle
//
// A completed answer is appended to the session transcript and then written
// to the store. A failed or cancelled stream writes nothing.
//
// # Key Types
//
//   - Controller: History, selection, deletion and prompt handling
//   - Renderer: Display surface (TUI, REPL, test recorder)
//   - Generator / FragmentStream: Pull-based answer streaming
//   - LazyGenerator: Builds the real generator on first use
//   - ScriptedGenerator: Deterministic fragments for --mock and tests
//
// # Usage
//
//	ctrl := conversation.New(store, session.New(), gen, renderer)
//	if err := ctrl.RenderHistory(ctx); err != nil {
//	    return err
//	}
//	err := ctrl.HandlePrompt(ctx, "What is 2+2?")
package conversation
