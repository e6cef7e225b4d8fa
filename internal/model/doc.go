// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for turns and transcript entries.
//
// # Key Types
//
//   - Turn: A persisted question/answer pair with an id and creation time
//   - Entry: An in-memory question/answer pair held by the session transcript
//
// Turns are immutable once created. The only lifecycle operations are create
// (performed by a store when a streamed answer completes) and delete.
//
// # Usage
//
//	turn, err := store.Create(ctx, "What is 2+2?", "4")
//	fmt.Println(turn.Label(40))
package model
