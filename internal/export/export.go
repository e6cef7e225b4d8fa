// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jeranaias/chatwith/internal/model"
)

// =============================================================================
// DOCUMENT
// =============================================================================

// Document is the set of turns being exported, oldest first.
type Document struct {
	Title      string
	Model      string
	Turns      []model.Turn
	ExportedAt time.Time
}

// NewDocument builds a document from turns in any order.
func NewDocument(turns []model.Turn, modelName string) *Document {
	sorted := make([]model.Turn, len(turns))
	copy(sorted, turns)
	sort.SliceStable(sorted, func(i, j int) bool {
		return model.Newer(sorted[j], sorted[i])
	})

	return &Document{
		Title:      "Chat history",
		Model:      modelName,
		Turns:      sorted,
		ExportedAt: time.Now(),
	}
}

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for history exporters.
type Exporter interface {
	// Export converts a document to the target format and returns the content.
	Export(doc *Document) ([]byte, error)

	// FileExtension returns the appropriate file extension (e.g., ".md").
	FileExtension() string

	// MimeType returns the MIME type for the exported format.
	MimeType() string
}

// Options configures export behavior.
type Options struct {
	// IncludeMetadata includes a metadata header (export time, model, counts).
	IncludeMetadata bool

	// IncludeTimestamps includes per-turn creation times.
	IncludeTimestamps bool
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		IncludeMetadata:   true,
		IncludeTimestamps: true,
	}
}

// Formats lists the accepted format names.
func Formats() []string {
	return []string{"md", "json"}
}

// ForFormat returns the exporter for a format name.
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "md", "markdown":
		return NewMarkdownExporter(opts), nil
	case "json":
		return NewJSONExporter(opts), nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s (want one of: %s)", format, strings.Join(Formats(), ", "))
	}
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// Write exports doc to w.
func Write(w io.Writer, doc *Document, exporter Exporter) error {
	content, err := exporter.Export(doc)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	_, err = w.Write(content)
	return err
}

// ExportToFile exports doc to path. An empty path generates a timestamped
// file name in the current directory. Returns the path written.
func ExportToFile(doc *Document, exporter Exporter, path string) (string, error) {
	content, err := exporter.Export(doc)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	if path == "" {
		path = fmt.Sprintf("chat_history_%s%s", time.Now().Format("20060102_150405"), exporter.FileExtension())
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}

	return path, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
