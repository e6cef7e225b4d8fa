// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

// SQLite schema for the turn table. created_at holds unix nanoseconds.
// AUTOINCREMENT keeps ids from being reused after a delete.
const Schema = `
CREATE TABLE IF NOT EXISTS turns (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    question TEXT NOT NULL,
    answer TEXT NOT NULL,
    created_at INTEGER NOT NULL DEFAULT (CAST(strftime('%s', 'now') AS INTEGER) * 1000000000)
);

CREATE INDEX IF NOT EXISTS idx_turns_created_at ON turns(created_at DESC, id DESC);
`

const (
	queryListAll = `SELECT id, question, answer, created_at FROM turns ORDER BY created_at DESC, id DESC`
	queryGet     = `SELECT id, question, answer, created_at FROM turns WHERE id = ?`
	queryInsert  = `INSERT INTO turns (question, answer, created_at) VALUES (?, ?, ?)`
	queryDelete  = `DELETE FROM turns WHERE id = ?`
	queryCount   = `SELECT COUNT(*) FROM turns`
)

// Bolt bucket holding JSON-encoded turns keyed by big-endian sequence ids.
var boltBucket = []byte("turns")
