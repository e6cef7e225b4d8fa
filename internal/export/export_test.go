// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/chatwith/internal/model"
)

func sampleTurns() []model.Turn {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	// Newest first, as the store lists them.
	return []model.Turn{
		{ID: 2, Question: "What is Go?", Answer: "A *language*.", CreatedAt: base.Add(time.Minute)},
		{ID: 1, Question: "hi", Answer: "Hello", CreatedAt: base},
	}
}

func TestNewDocumentOrdersOldestFirst(t *testing.T) {
	doc := NewDocument(sampleTurns(), "llama3.2:1b")
	if len(doc.Turns) != 2 {
		t.Fatalf("len(Turns) = %d, want 2", len(doc.Turns))
	}
	if doc.Turns[0].ID != 1 || doc.Turns[1].ID != 2 {
		t.Errorf("order = [%d %d], want [1 2]", doc.Turns[0].ID, doc.Turns[1].ID)
	}
}

func TestNewDocumentDoesNotMutateInput(t *testing.T) {
	turns := sampleTurns()
	NewDocument(turns, "")
	if turns[0].ID != 2 {
		t.Errorf("input reordered: first id = %d, want 2", turns[0].ID)
	}
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantExt string
		wantErr bool
	}{
		{"md", ".md", false},
		{"markdown", ".md", false},
		{"", ".md", false},
		{"JSON", ".json", false},
		{"html", "", true},
	}

	for _, tt := range tests {
		exp, err := ForFormat(tt.format, nil)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ForFormat(%q) expected error", tt.format)
			}
			continue
		}
		if err != nil {
			t.Errorf("ForFormat(%q) error = %v", tt.format, err)
			continue
		}
		if exp.FileExtension() != tt.wantExt {
			t.Errorf("ForFormat(%q).FileExtension() = %q, want %q", tt.format, exp.FileExtension(), tt.wantExt)
		}
	}
}

func TestMarkdownExport(t *testing.T) {
	doc := NewDocument(sampleTurns(), "llama3.2:1b")
	out, err := NewMarkdownExporter(DefaultOptions()).Export(doc)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	md := string(out)

	for _, want := range []string{
		"---\ntitle: Chat history\n",
		"model: \"llama3.2:1b\"\n",
		"turns: 2\n",
		"# Chat history\n",
		"## hi <sub>2025-03-01 12:00:00</sub>",
		"> What is Go?",
		"A *language*.",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q\n%s", want, md)
		}
	}

	if strings.Index(md, "> hi") > strings.Index(md, "> What is Go?") {
		t.Error("turns should be written oldest first")
	}
}

func TestMarkdownExportWithoutMetadata(t *testing.T) {
	opts := &Options{}
	out, err := NewMarkdownExporter(opts).Export(NewDocument(sampleTurns(), ""))
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	md := string(out)
	if strings.HasPrefix(md, "---") {
		t.Error("frontmatter written with IncludeMetadata = false")
	}
	if strings.Contains(md, "<sub>") {
		t.Error("timestamps written with IncludeTimestamps = false")
	}
}

func TestMarkdownExportEmpty(t *testing.T) {
	out, err := NewMarkdownExporter(nil).Export(NewDocument(nil, ""))
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !strings.Contains(string(out), "No saved turns.") {
		t.Errorf("empty export = %q", out)
	}
}

func TestMarkdownExportNil(t *testing.T) {
	if _, err := NewMarkdownExporter(nil).Export(nil); err == nil {
		t.Error("Export(nil) expected error")
	}
}

func TestJSONExport(t *testing.T) {
	doc := NewDocument(sampleTurns(), "llama3.2:1b")
	out, err := NewJSONExporter(nil).Export(doc)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var decoded jsonDocument
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Count != 2 || len(decoded.Turns) != 2 {
		t.Fatalf("count = %d, turns = %d, want 2", decoded.Count, len(decoded.Turns))
	}
	if decoded.Turns[1].Answer != "A *language*." {
		t.Errorf("Turns[1].Answer = %q", decoded.Turns[1].Answer)
	}
	if decoded.Model != "llama3.2:1b" {
		t.Errorf("Model = %q", decoded.Model)
	}
}

func TestJSONExportEmptyHasArray(t *testing.T) {
	out, err := NewJSONExporter(nil).Export(&Document{Title: "x"})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !strings.Contains(string(out), `"turns": []`) {
		t.Errorf("empty export should contain an empty turns array: %s", out)
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, NewDocument(sampleTurns(), ""), NewJSONExporter(nil)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !json.Valid(buf.Bytes()) {
		t.Error("Write() produced invalid JSON")
	}
}

func TestExportToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.md")
	got, err := ExportToFile(NewDocument(sampleTurns(), ""), NewMarkdownExporter(nil), path)
	if err != nil {
		t.Fatalf("ExportToFile() error = %v", err)
	}
	if got != path {
		t.Errorf("path = %q, want %q", got, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "# Chat history") {
		t.Errorf("file content = %q", data)
	}
}

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"# head", "\\# head"},
		{"a_b*c", "a\\_b\\*c"},
		{"[x]", "\\[x\\]"},
		{"<tag>", "&lt;tag>"},
	}
	for _, tt := range tests {
		if got := escapeMarkdown(tt.in); got != tt.want {
			t.Errorf("escapeMarkdown(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEscapeYAML(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"simple", "simple"},
		{"a: b", `"a: b"`},
		{"line\nbreak", `"line\nbreak"`},
		{` lead`, `" lead"`},
	}
	for _, tt := range tests {
		if got := escapeYAML(tt.in); got != tt.want {
			t.Errorf("escapeYAML(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestQuote(t *testing.T) {
	if got := quote("a\n\nb"); got != "> a\n>\n> b" {
		t.Errorf("quote() = %q", got)
	}
}
