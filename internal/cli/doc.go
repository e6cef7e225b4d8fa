// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-TUI commands for
// chatwith.
//
// # Key Types
//
//   - Command: Enumeration of the available commands
//   - Args: Global flags plus the command's own ArgParser
//   - REPL: Line-oriented chat loop built on liner
//   - Printer: conversation.Renderer that writes to a terminal or pipe
//
// # Usage
//
//	cmd, args, err := cli.Parse(os.Args[1:])
//	switch cmd {
//	case cli.CmdHistory:
//	    err = cli.HandleHistory(ctx, store, args, os.Stdout, opts)
//	}
//
// # Commands Overview
//
//   - (none), tui: Full-screen chat
//   - chat: Line-oriented chat (used automatically when stdin is not a terminal)
//   - history: list, show, delete and export stored turns
//   - config: show, path, init, get and set configuration values
//   - models: list models installed in Ollama
//   - version, help
package cli
