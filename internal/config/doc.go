// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for chatwith.
//
// Configuration is TOML, with sensible defaults, environment variable
// overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ModelConfig: Ollama endpoint, model name, timeouts
//   - StorageConfig: History backend and database path
//   - UIConfig: Terminal UI preferences
//   - LogConfig: Log file and level
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Command-line flags (applied by the caller)
//   - Environment variables (CHATWITH_*)
//   - ~/.chatwith/config.toml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	model := cfg.Model.Name
package config
