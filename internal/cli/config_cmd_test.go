// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatwith/internal/config"
)

func TestHandleConfig_ShowAndPath(t *testing.T) {
	cfg := config.Default()
	path := filepath.Join(t.TempDir(), "config.toml")
	var out bytes.Buffer

	require.NoError(t, HandleConfig(cfg, path, historyArgs(), &out))
	assert.Contains(t, out.String(), "llama3.2:1b")
	assert.Contains(t, out.String(), "[storage]")

	out.Reset()
	require.NoError(t, HandleConfig(cfg, path, historyArgs("path"), &out))
	assert.Equal(t, path, strings.TrimSpace(out.String()))
}

func TestHandleConfig_Get(t *testing.T) {
	cfg := config.Default()
	var out bytes.Buffer

	require.NoError(t, HandleConfig(cfg, "unused", historyArgs("get", "storage.backend"), &out))
	assert.Equal(t, "sqlite", strings.TrimSpace(out.String()))

	err := HandleConfig(cfg, "unused", historyArgs("get", "nope.key"), &out)
	assert.Equal(t, ExitUsageError, ExitCode(err))

	err = HandleConfig(cfg, "unused", historyArgs("get"), &out)
	assert.Equal(t, ExitUsageError, ExitCode(err))
}

func TestHandleConfig_Init(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	var out bytes.Buffer

	require.NoError(t, HandleConfig(config.Default(), path, historyArgs("init"), &out))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	err = HandleConfig(config.Default(), path, historyArgs("init"), &out)
	assert.Equal(t, ExitUsageError, ExitCode(err), "existing file without --force")

	assert.NoError(t, HandleConfig(config.Default(), path, historyArgs("init", "--force"), &out))
}

func TestHandleConfig_Set(t *testing.T) {
	t.Setenv("CHATWITH_MODEL", "from-env")
	path := filepath.Join(t.TempDir(), "config.toml")
	var out bytes.Buffer

	require.NoError(t, HandleConfig(config.Default(), path, historyArgs("set", "ui.history_width", "40"), &out))

	cfg := config.Default()
	require.NoError(t, config.LoadTOML(cfg, path))
	assert.Equal(t, 40, cfg.UI.HistoryWidth)
	assert.Equal(t, "llama3.2:1b", cfg.Model.Name, "environment overrides are not saved")

	err := HandleConfig(config.Default(), path, historyArgs("set", "ui.history_width", "5"), &out)
	assert.Equal(t, ExitConfigError, ExitCode(err))

	err = HandleConfig(config.Default(), path, historyArgs("set", "ui.theme"), &out)
	assert.Equal(t, ExitUsageError, ExitCode(err))
}

func TestHandleConfig_Keys(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, HandleConfig(config.Default(), "unused", historyArgs("keys"), &out))
	assert.Contains(t, out.String(), "model.name")
	assert.Contains(t, out.String(), "storage.path")
}
