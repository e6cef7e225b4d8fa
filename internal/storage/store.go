// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/chatwith/internal/model"
)

// =============================================================================
// STORE INTERFACE
// =============================================================================

// Store is the durable record of turns.
//
// Implementations serialize all calls, so a completed Delete followed by a Get
// of the same id observes ErrNotFound from any caller.
type Store interface {
	// ListAll returns every turn, newest CreatedAt first, ties by higher id first.
	ListAll(ctx context.Context) ([]model.Turn, error)

	// Get returns the turn with the given id or ErrNotFound.
	Get(ctx context.Context, id int64) (*model.Turn, error)

	// Create assigns an id and CreatedAt, persists the turn and returns it.
	Create(ctx context.Context, question, answer string) (*model.Turn, error)

	// Delete removes the turn. Deleting an absent id is not an error.
	Delete(ctx context.Context, id int64) error

	// Count returns the number of stored turns.
	Count(ctx context.Context) (int, error)

	// Close releases the underlying resources.
	Close() error
}

// =============================================================================
// BACKENDS
// =============================================================================

// Supported backend names.
const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
	BackendMemory = "memory"
)

// Backends lists the accepted backend names.
func Backends() []string {
	return []string{BackendSQLite, BackendBolt, BackendMemory}
}

// Open opens a store for the named backend. The path is ignored by the memory
// backend. A leading "~/" in path is expanded to the user's home directory.
// Schema creation happens here; a failure is reported as ErrUnavailable.
func Open(backend, path string) (Store, error) {
	backend = strings.ToLower(strings.TrimSpace(backend))
	if backend == BackendMemory {
		return NewMemoryStore(), nil
	}

	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, unavailable("open", err)
	}
	path = expanded

	switch backend {
	case "", BackendSQLite:
		s, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendBolt:
		b, err := OpenBolt(path)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q (want one of: %s)",
			backend, strings.Join(Backends(), ", "))
	}
}

// ExpandPath expands a leading "~/" to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty storage path")
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not determine home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}

// ensureParentDir creates the directory that will hold a database file.
func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrNotFound is returned when a turn doesn't exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &StoreError{Message: "turn not found"}

// ErrUnavailable is returned when the backing store cannot be reached.
// Use errors.Is(err, ErrUnavailable) to check for this error.
var ErrUnavailable = &StoreError{Message: "storage unavailable"}

// StoreError represents a storage-related error.
// It implements the error interface and can be compared using errors.Is.
type StoreError struct {
	Message string
	Op      string
	Cause   error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Is implements errors.Is support for comparing storage errors.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// Unwrap returns the underlying cause.
func (e *StoreError) Unwrap() error {
	return e.Cause
}

var errStoreClosed = errors.New("store is closed")

func unavailable(op string, cause error) error {
	return &StoreError{Message: ErrUnavailable.Message, Op: op, Cause: cause}
}

func notFound(id int64) error {
	return &StoreError{Message: ErrNotFound.Message, Op: fmt.Sprintf("id %d", id)}
}
