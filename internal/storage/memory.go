// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"sync"
	"time"

	"github.com/jeranaias/chatwith/internal/model"
)

// MemoryStore keeps turns in process memory. Nothing survives a restart.
type MemoryStore struct {
	mu     sync.RWMutex
	turns  map[int64]model.Turn
	nextID int64
	closed bool
	now    func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		turns: make(map[int64]model.Turn),
		now:   time.Now,
	}
}

func (s *MemoryStore) ListAll(ctx context.Context) ([]model.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, unavailable("list", errStoreClosed)
	}

	turns := make([]model.Turn, 0, len(s.turns))
	for _, t := range s.turns {
		turns = append(turns, t)
	}
	model.SortNewestFirst(turns)
	return turns, nil
}

func (s *MemoryStore) Get(ctx context.Context, id int64) (*model.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, unavailable("get", errStoreClosed)
	}

	t, ok := s.turns[id]
	if !ok {
		return nil, notFound(id)
	}
	return &t, nil
}

func (s *MemoryStore) Create(ctx context.Context, question, answer string) (*model.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, unavailable("create", errStoreClosed)
	}

	s.nextID++
	t := model.Turn{
		ID:        s.nextID,
		Question:  question,
		Answer:    answer,
		CreatedAt: s.now(),
	}
	s.turns[t.ID] = t
	return &t, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return unavailable("delete", errStoreClosed)
	}

	delete(s.turns, id)
	return nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, unavailable("count", errStoreClosed)
	}
	return len(s.turns), nil
}

// Close marks the store closed; later calls fail with ErrUnavailable.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
