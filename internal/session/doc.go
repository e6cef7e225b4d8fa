// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the state of one interactive run.
//
// A Session owns the in-memory transcript of completed exchanges and the id of
// the history turn currently being viewed. It starts empty every run; nothing
// here is persisted.
//
// # Key Types
//
//   - Session: Transcript plus selection, safe for concurrent use
//
// # Usage
//
//	sess := session.New()
//	sess.Append("What is 2+2?", "4")
//	for _, e := range sess.All() {
//	    fmt.Println(e.Question, e.Answer)
//	}
//
//	sess.Select(12)
//	if id, ok := sess.Selected(); ok {
//	    // show turn id
//	}
package session
