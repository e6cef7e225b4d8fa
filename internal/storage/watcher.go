// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"
)

// =============================================================================
// DATABASE WATCHER
// =============================================================================

// Watcher reports changes to a database file, including its -wal/-journal
// companions. Another process sharing the same database triggers it, and so do
// this process's own writes.
//
// Notifications are rate limited. A change that arrives while the limiter is
// saturated schedules one trailing notification, so the last change is never
// dropped.
type Watcher struct {
	watcher  *fsnotify.Watcher
	base     string
	onChange func()
	limiter  *rate.Limiter

	mu      sync.Mutex
	pending bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// DefaultWatchInterval is the minimum spacing between notifications.
const DefaultWatchInterval = 250 * time.Millisecond

// NewWatcher creates a watcher for the database at path. onChange is called
// from the watcher goroutine.
func NewWatcher(path string, interval time.Duration, onChange func()) (*Watcher, error) {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		fw.Close()
		return nil, err
	}

	// Watch the directory; SQLite replaces and recreates its side files.
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		watcher:  fw,
		base:     filepath.Base(abs),
		onChange: onChange,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go w.run()
	return w, nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *Watcher) run() {
	defer close(w.done)

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.matches(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.notify()
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// matches reports whether name is the database file or one of its side files.
func (w *Watcher) matches(name string) bool {
	return strings.HasPrefix(filepath.Base(name), w.base)
}

func (w *Watcher) notify() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pending {
		return
	}

	r := w.limiter.Reserve()
	delay := r.Delay()
	if delay == 0 {
		go w.onChange()
		return
	}

	w.pending = true
	time.AfterFunc(delay, func() {
		w.mu.Lock()
		w.pending = false
		w.mu.Unlock()

		if w.ctx.Err() == nil {
			w.onChange()
		}
	})
}
