// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatwith/internal/model"
	"github.com/jeranaias/chatwith/internal/storage"
)

func seededStore(t *testing.T, pairs ...string) *storage.MemoryStore {
	t.Helper()
	store := storage.NewMemoryStore()
	for i := 0; i+1 < len(pairs); i += 2 {
		_, err := store.Create(context.Background(), pairs[i], pairs[i+1])
		require.NoError(t, err)
	}
	return store
}

func historyArgs(argv ...string) Args {
	return Args{Parser: NewArgParser(argv, commandBoolFlags...)}
}

func TestHandleHistory_List(t *testing.T) {
	store := seededStore(t, "What is Go?", "A language.", "Why channels?", "To communicate.")
	var out bytes.Buffer

	require.NoError(t, HandleHistory(context.Background(), store, historyArgs(), &out, HistoryOptions{}))
	assert.Contains(t, out.String(), "What is Go?")
	assert.Contains(t, out.String(), "Why channels?")
}

func TestHandleHistory_ListEmpty(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, HandleHistory(context.Background(), storage.NewMemoryStore(), historyArgs("list"), &out, HistoryOptions{}))
	assert.Contains(t, out.String(), "No saved turns.")
}

func TestHandleHistory_ListJSON(t *testing.T) {
	store := seededStore(t, "q1", "a1", "q2", "a2")
	var out bytes.Buffer

	require.NoError(t, HandleHistory(context.Background(), store, historyArgs("ls", "--json"), &out, HistoryOptions{}))

	var turns []model.Turn
	require.NoError(t, json.Unmarshal(out.Bytes(), &turns))
	require.Len(t, turns, 2)
	assert.Equal(t, "q2", turns[0].Question, "newest first")
}

func TestHandleHistory_Show(t *testing.T) {
	store := seededStore(t, "What is Go?", "A **language**.")
	var out bytes.Buffer

	opts := HistoryOptions{Markdown: func(s string) string { return "MD:" + s }}
	require.NoError(t, HandleHistory(context.Background(), store, historyArgs("show", "1"), &out, opts))
	assert.Contains(t, out.String(), "Turn #1")
	assert.Contains(t, out.String(), "What is Go?")
	assert.Contains(t, out.String(), "MD:A **language**.")
}

func TestHandleHistory_ShowMissing(t *testing.T) {
	var out bytes.Buffer
	err := HandleHistory(context.Background(), storage.NewMemoryStore(), historyArgs("show", "42"), &out, HistoryOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, ExitNotFoundError, ExitCode(err))
}

func TestHandleHistory_ShowBadID(t *testing.T) {
	var out bytes.Buffer
	err := HandleHistory(context.Background(), storage.NewMemoryStore(), historyArgs("show"), &out, HistoryOptions{})
	assert.Equal(t, ExitUsageError, ExitCode(err))
}

func TestHandleHistory_Delete(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t, "q1", "a1", "q2", "a2")
	var out bytes.Buffer

	require.NoError(t, HandleHistory(ctx, store, historyArgs("delete", "#1"), &out, HistoryOptions{}))
	assert.Contains(t, out.String(), "Deleted turn #1")

	_, err := store.Get(ctx, 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// Deleting again is not an error, and does not claim a deletion.
	out.Reset()
	assert.NoError(t, HandleHistory(ctx, store, historyArgs("rm", "1"), &out, HistoryOptions{}))
	assert.Contains(t, out.String(), "No turn #1")
	assert.NotContains(t, out.String(), "Deleted")
}

func TestHandleHistory_DeleteUnknownID(t *testing.T) {
	ctx := context.Background()
	store := seededStore(t, "q1", "a1")
	var out bytes.Buffer

	require.NoError(t, HandleHistory(ctx, store, historyArgs("delete", "99"), &out, HistoryOptions{}))
	assert.Contains(t, out.String(), "No turn #99, nothing deleted")
	assert.NotContains(t, out.String(), "Deleted turn")

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestHandleHistory_ExportStdout(t *testing.T) {
	store := seededStore(t, "first question", "first answer", "second question", "second answer")
	var out bytes.Buffer

	require.NoError(t, HandleHistory(context.Background(), store, historyArgs("export"), &out, HistoryOptions{ModelName: "llama3.2:1b"}))
	md := out.String()
	assert.Contains(t, md, "llama3.2:1b")
	first := strings.Index(md, "first answer")
	second := strings.Index(md, "second answer")
	require.True(t, first >= 0 && second >= 0)
	assert.Less(t, first, second, "export is oldest first")
}

func TestHandleHistory_ExportFile(t *testing.T) {
	store := seededStore(t, "q", "a")
	path := filepath.Join(t.TempDir(), "out", "history.json")
	var out bytes.Buffer

	require.NoError(t, HandleHistory(context.Background(), store,
		historyArgs("export", "--format", "json", "--out", path), &out, HistoryOptions{}))
	assert.Contains(t, out.String(), "Exported 1 turns")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.EqualValues(t, 1, doc["count"])
}

func TestHandleHistory_ExportBadFormat(t *testing.T) {
	var out bytes.Buffer
	err := HandleHistory(context.Background(), storage.NewMemoryStore(), historyArgs("export", "--format", "xml"), &out, HistoryOptions{})
	assert.Equal(t, ExitUsageError, ExitCode(err))
}

func TestHandleHistory_UnknownSubcommand(t *testing.T) {
	var out bytes.Buffer
	err := HandleHistory(context.Background(), storage.NewMemoryStore(), historyArgs("purge"), &out, HistoryOptions{})
	assert.Equal(t, ExitUsageError, ExitCode(err))
}
