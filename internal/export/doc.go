// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes stored chat turns to shareable formats.
//
// # Supported Formats
//
//   - Markdown: Readable transcript with optional YAML frontmatter
//   - JSON: Complete turn data for scripting or re-import
//
// # Usage
//
//	doc := export.NewDocument(turns, "llama3.2:1b")
//	exporter, err := export.ForFormat("md", export.DefaultOptions())
//	path, err := export.ExportToFile(doc, exporter, "")
package export
