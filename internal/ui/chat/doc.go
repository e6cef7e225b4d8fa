// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the Bubble Tea terminal UI for chatwith.

# Layout

	+-----------+------------------------------+
	| History   | Selected turn (if any)       |
	| > turn 3  | You: ...                     |
	|   turn 2  | Assistant: ... (streaming)   |
	+-----------+------------------------------+
	| > prompt input                            |
	| status bar: state, store, shortcuts       |

# Renderer

Renderer implements conversation.Renderer by converting each call into a
tea.Msg delivered with a send function, normally (*tea.Program).Send. The
conversation controller runs in a tea.Cmd goroutine and the update loop applies
its output, so the Model never shares state with the controller.

# Keys

	Enter      submit prompt / open highlighted history turn
	Tab        switch focus between input and history
	d, x       delete highlighted history turn
	Esc, C-c   cancel the streaming answer (C-c quits when idle)
	C-q        quit
*/
package chat
