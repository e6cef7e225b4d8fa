// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jeranaias/chatwith/internal/model"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports turns to JSON format.
// JSON exports always include complete turn data and ignore Options.
type JSONExporter struct {
	options *Options
}

// jsonDocument is the exported JSON shape.
type jsonDocument struct {
	Title      string       `json:"title"`
	Model      string       `json:"model,omitempty"`
	ExportedAt time.Time    `json:"exported_at"`
	Count      int          `json:"count"`
	Turns      []model.Turn `json:"turns"`
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

// Export converts a document to indented JSON.
func (e *JSONExporter) Export(doc *Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}

	turns := doc.Turns
	if turns == nil {
		turns = []model.Turn{}
	}

	data, err := json.MarshalIndent(jsonDocument{
		Title:      doc.Title,
		Model:      doc.Model,
		ExportedAt: doc.ExportedAt,
		Count:      len(turns),
		Turns:      turns,
	}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}
