// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"errors"
	"strconv"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrBusy is returned when a prompt arrives while another is in flight.
	ErrBusy = errors.New("a prompt is already in progress")

	// ErrEmptyPrompt is returned for prompts that are blank after trimming.
	ErrEmptyPrompt = errors.New("empty prompt")

	// ErrModelStream marks every failure to produce a complete answer.
	// Use errors.Is(err, ErrModelStream) to check for this error.
	ErrModelStream = errors.New("model stream failed")
)

// TurnError reports a prompt whose answer stream failed. The partial answer
// was discarded.
type TurnError struct {
	Prompt   string
	Received int // fragments received before the failure
	Cause    error
}

// Error implements the error interface.
func (e *TurnError) Error() string {
	msg := ErrModelStream.Error()
	if e.Received > 0 {
		msg += " after " + strconv.Itoa(e.Received) + " fragments"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes both ErrModelStream and the underlying cause to errors.Is.
func (e *TurnError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrModelStream}
	}
	return []error{ErrModelStream, e.Cause}
}
