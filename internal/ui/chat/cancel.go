// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"sync"
)

// promptCanceler owns the cancel function of the in-flight prompt.
// The Model holds it by pointer so copies made by Update share it.
type promptCanceler struct {
	mu     sync.Mutex
	cancel context.CancelFunc
}

// start derives a cancellable context for a new prompt, cancelling any
// previous one.
func (p *promptCanceler) start(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
	p.cancel = cancel
	return ctx
}

// stop cancels the in-flight prompt. Reports whether one was running.
func (p *promptCanceler) stop() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel == nil {
		return false
	}
	p.cancel()
	p.cancel = nil
	return true
}
