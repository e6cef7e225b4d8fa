// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
)

// =============================================================================
// GENERATE STREAM
// =============================================================================

// GenerateStream reads fragments from a streaming /api/generate response.
//
// Next returns each non-empty fragment in order and io.EOF once the final
// "done" line has been read. A response body that ends before "done", an error
// line, or a cancelled context all produce a *ClientError.
type GenerateStream struct {
	ctx    context.Context
	body   io.ReadCloser
	reader *bufio.Reader

	done      bool
	err       error
	final     *GenerateResponse
	fragments int

	closeOnce sync.Once
}

// NewGenerateStream wraps a response body. The stream owns body.
func NewGenerateStream(ctx context.Context, body io.ReadCloser) *GenerateStream {
	return &GenerateStream{
		ctx:    ctx,
		body:   body,
		reader: bufio.NewReader(body),
	}
}

// Next returns the next fragment, io.EOF at the end of the answer, or an error.
// After io.EOF or an error every later call returns the same result.
func (s *GenerateStream) Next() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.done {
		return "", io.EOF
	}

	for {
		if err := s.ctx.Err(); err != nil {
			return "", s.fail(&ClientError{Type: ErrTypeCancelled, Message: "generation cancelled", Cause: err})
		}

		resp, err := s.readLine()
		if err != nil {
			return "", s.fail(err)
		}
		if resp == nil {
			continue
		}

		if resp.Error != "" {
			return "", s.fail(&ClientError{Type: ErrTypeInvalidResponse, Message: resp.Error})
		}

		if resp.Done {
			s.done = true
			s.final = resp
			if resp.Response != "" {
				s.fragments++
				return resp.Response, nil
			}
			return "", io.EOF
		}

		if resp.Response == "" {
			continue
		}
		s.fragments++
		return resp.Response, nil
	}
}

// readLine reads and parses a single line. Returns nil, nil for blank or
// malformed lines.
func (s *GenerateStream) readLine() (*GenerateResponse, error) {
	line, err := s.reader.ReadBytes('\n')
	if err != nil {
		if s.ctx.Err() != nil {
			return nil, &ClientError{Type: ErrTypeCancelled, Message: "generation cancelled", Cause: s.ctx.Err()}
		}
		if errors.Is(err, io.EOF) {
			// Process a final line without a trailing newline.
			if len(bytes.TrimSpace(line)) == 0 {
				return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "stream ended before completion"}
			}
		} else {
			return nil, &ClientError{Type: ErrTypeConnection, Message: "stream read failed", Cause: err}
		}
	}

	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, nil
	}

	var resp GenerateResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		// Skip malformed lines
		return nil, nil
	}
	return &resp, nil
}

func (s *GenerateStream) fail(err error) error {
	s.err = err
	return err
}

// Final returns the closing "done" line with timing statistics, or nil if the
// stream has not completed.
func (s *GenerateStream) Final() *GenerateResponse {
	return s.final
}

// Fragments returns the number of fragments returned so far.
func (s *GenerateStream) Fragments() int {
	return s.fragments
}

// Close releases the response body. Safe to call more than once.
func (s *GenerateStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.body.Close()
	})
	return err
}
