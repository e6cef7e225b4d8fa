// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInit_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "chatwith.log")

	closeLog, err := Init(path, "debug")
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	Logger().Debug("hello", "turn_id", 7)
	if err := closeLog(); err != nil {
		t.Fatalf("close error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &entry); err != nil {
		t.Fatalf("log line is not JSON: %q", data)
	}
	if entry["msg"] != "hello" {
		t.Errorf("msg = %v, want hello", entry["msg"])
	}
	if entry["turn_id"] != float64(7) {
		t.Errorf("turn_id = %v, want 7", entry["turn_id"])
	}
}

func TestInit_BadLevel(t *testing.T) {
	if _, err := Init(filepath.Join(t.TempDir(), "x.log"), "shout"); err == nil {
		t.Error("Init() expected error for unknown level")
	}
}

func TestLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger()
	SetLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer SetLogger(prev)

	ctx := WithSessionID(context.Background(), "sess_abc")
	LoggerFromContext(ctx).Info("turn completed")
	LoggerFromContext(context.Background()).Info("no session")
	WithFields("component", "store").Info("fields")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d log lines, want 3", len(lines))
	}
	if !strings.Contains(lines[0], `"session_id":"sess_abc"`) {
		t.Errorf("line 0 = %s, want session_id", lines[0])
	}
	if strings.Contains(lines[1], "session_id") {
		t.Errorf("line 1 = %s, want no session_id", lines[1])
	}
	if !strings.Contains(lines[2], `"component":"store"`) {
		t.Errorf("line 2 = %s, want component field", lines[2])
	}
}
