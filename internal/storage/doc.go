// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides durable persistence for chat turns.
//
// A turn is written exactly once, when a streamed answer completes, and is
// removed only by an explicit delete. There is no update path.
//
// # Key Types
//
//   - Store: Persistence interface (ListAll, Get, Create, Delete)
//   - SQLiteStore: Default backend, a single "turns" table
//   - BoltStore: bbolt backend, one bucket keyed by sequence number
//   - MemoryStore: Process-local backend for tests and "--store memory" runs
//   - Watcher: Reports changes made to the database file by other processes
//
// # Usage
//
//	store, err := storage.Open(storage.BackendSQLite, "~/.chatwith/chat_history.db")
//	turn, err := store.Create(ctx, "What is 2+2?", "4")
//	turns, err := store.ListAll(ctx) // newest first
//	err = store.Delete(ctx, turn.ID)  // idempotent
//
// # Errors
//
// Get returns ErrNotFound for an absent id. Every backend failure is wrapped
// so that errors.Is(err, ErrUnavailable) holds.
package storage
