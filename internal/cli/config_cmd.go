// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jeranaias/chatwith/internal/config"
	"github.com/jeranaias/chatwith/internal/ui/styles"
)

// HandleConfig runs "chatwith config [show|path|init|get|set|keys]".
//
// cfg is the effective configuration and path the file it is saved to.
func HandleConfig(cfg *config.Config, path string, args Args, out io.Writer) error {
	p := args.Parser
	if p == nil {
		p = NewArgParser(nil)
	}

	switch strings.ToLower(p.Subcommand()) {
	case "", "show":
		if p.BoolFlag("json") {
			return outputJSON(out, cfg)
		}
		fmt.Fprintln(out, MutedStyle.Render("# "+path))
		fmt.Fprint(out, cfg.String())
		return nil

	case "path":
		fmt.Fprintln(out, path)
		return nil

	case "init":
		return configInit(path, p.BoolFlag("force"), out)

	case "get":
		key := p.Positional(1)
		if key == "" {
			return NewValidationErrorWithExample("key", "", "is required", "chatwith config get model.name")
		}
		value, err := cfg.Get(key)
		if err != nil {
			return NewValidationErrorWithExample("key", key, err.Error(), "chatwith config keys")
		}
		fmt.Fprintln(out, value)
		return nil

	case "set":
		key, value := p.Positional(1), strings.Join(p.PositionalFrom(2), " ")
		if key == "" || p.PositionalCount() < 3 {
			return NewValidationErrorWithExample("key", key, "requires a key and a value",
				"chatwith config set model.name llama3.2:3b")
		}
		return configSet(path, key, value, out)

	case "keys":
		for _, key := range config.AllKeys() {
			fmt.Fprintln(out, key)
		}
		return nil

	default:
		return NewValidationErrorWithExample("config subcommand", p.Subcommand(),
			"must be one of: show, path, init, get, set, keys", "chatwith config show")
	}
}

// configInit writes a default config file unless one exists.
func configInit(path string, force bool, out io.Writer) error {
	if _, err := os.Stat(path); err == nil && !force {
		return NewValidationErrorWithExample("config", path, "already exists", "chatwith config init --force")
	}
	if err := config.SaveTOML(config.Default(), path); err != nil {
		return NewCommandError("config", "init", err)
	}
	fmt.Fprintln(out, styles.RenderSuccess("Wrote "+path))
	return nil
}

// configSet updates one key in the file at path. Environment and flag
// overrides are not written back.
func configSet(path, key, value string, out io.Writer) error {
	cfg := config.Default()
	if _, err := os.Stat(path); err == nil {
		if err := config.LoadTOML(cfg, path); err != nil {
			return NewCommandError("config", "set", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return NewCommandError("config", "set", err)
	}

	if err := cfg.Set(key, value); err != nil {
		return NewValidationErrorWithExample("key", key, err.Error(), "chatwith config keys")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.SaveTOML(cfg, path); err != nil {
		return NewCommandError("config", "set", err)
	}

	fmt.Fprintln(out, styles.RenderSuccess(fmt.Sprintf("%s = %s", key, value)))
	return nil
}
