// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jeranaias/chatwith/internal/model"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// SQLITE STORE
// =============================================================================

// SQLiteStore persists turns in a single SQLite table.
type SQLiteStore struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// OpenSQLite opens (creating if needed) the database at path and creates the
// schema if it is absent.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := ensureParentDir(path); err != nil {
		return nil, unavailable("create database directory", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, unavailable("open database", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=FULL", // Create must be durable before it returns
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, unavailable("set pragma", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, unavailable("initialize schema", err)
	}

	return &SQLiteStore{
		db:   db,
		path: path,
		now:  time.Now,
	}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// ListAll returns every turn, newest first.
func (s *SQLiteStore) ListAll(ctx context.Context) ([]model.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, queryListAll)
	if err != nil {
		return nil, unavailable("list", err)
	}
	defer rows.Close()

	turns := []model.Turn{}
	for rows.Next() {
		turn, err := scanTurn(rows)
		if err != nil {
			return nil, unavailable("list", err)
		}
		turns = append(turns, *turn)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list", err)
	}

	return turns, nil
}

// Get returns a single turn by id.
func (s *SQLiteStore) Get(ctx context.Context, id int64) (*model.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turn, err := scanTurn(s.db.QueryRowContext(ctx, queryGet, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(id)
		}
		return nil, unavailable("get", err)
	}
	return turn, nil
}

// Create inserts a new turn stamped with the current time.
func (s *SQLiteStore) Create(ctx context.Context, question, answer string) (*model.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := s.now()
	res, err := s.db.ExecContext(ctx, queryInsert, question, answer, createdAt.UnixNano())
	if err != nil {
		return nil, unavailable("create", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, unavailable("create", fmt.Errorf("read inserted id: %w", err))
	}

	return &model.Turn{
		ID:        id,
		Question:  question,
		Answer:    answer,
		CreatedAt: time.Unix(0, createdAt.UnixNano()),
	}, nil
}

// Delete removes a turn. Absent ids are ignored.
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, queryDelete, id); err != nil {
		return unavailable("delete", err)
	}
	return nil
}

// Count returns the number of stored turns.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	if err := s.db.QueryRowContext(ctx, queryCount).Scan(&n); err != nil {
		return 0, unavailable("count", err)
	}
	return n, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTurn(row rowScanner) (*model.Turn, error) {
	var (
		turn      model.Turn
		createdAt int64
	)
	if err := row.Scan(&turn.ID, &turn.Question, &turn.Answer, &createdAt); err != nil {
		return nil, err
	}
	turn.CreatedAt = time.Unix(0, createdAt)
	return &turn, nil
}
