// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/chatwith/internal/model"
)

// =============================================================================
// SESSION
// =============================================================================

// Session tracks the transcript and history selection for the current run.
type Session struct {
	mu sync.Mutex

	id        string
	startTime time.Time

	entries []model.Entry

	selected    int64
	hasSelected bool
}

// New creates an empty session.
func New() *Session {
	return &Session{
		id:        generateSessionID(),
		startTime: time.Now(),
	}
}

// ID returns the session id.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// StartTime returns when the session started.
func (s *Session) StartTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startTime
}

// Duration returns how long the session has been active.
func (s *Session) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.startTime)
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Append adds a completed exchange to the end of the transcript.
func (s *Session) Append(question, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, model.Entry{Question: question, Answer: answer})
}

// All returns a copy of the transcript, oldest first.
func (s *Session) All() []model.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of transcript entries.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// =============================================================================
// SELECTION
// =============================================================================

// Select marks a history turn as the one being viewed.
func (s *Session) Select(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = id
	s.hasSelected = true
}

// Selected returns the viewed turn id, if any.
func (s *Session) Selected() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected, s.hasSelected
}

// ClearSelection forgets the viewed turn.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = 0
	s.hasSelected = false
}

// ClearSelectionIf clears the selection only when it equals id.
// Returns true if the selection was cleared.
func (s *Session) ClearSelectionIf(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasSelected || s.selected != id {
		return false
	}
	s.selected = 0
	s.hasSelected = false
	return true
}

// =============================================================================
// HELPERS
// =============================================================================

// generateSessionID creates a unique session identifier.
func generateSessionID() string {
	return "sess_" + uuid.NewString()
}
