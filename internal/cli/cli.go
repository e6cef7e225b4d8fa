// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/jeranaias/chatwith/internal/config"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdHistory
	CmdConfig
	CmdModels
	CmdVersion
	CmdHelp
)

// String returns the command name.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdChat:
		return "chat"
	case CmdHistory:
		return "history"
	case CmdConfig:
		return "config"
	case CmdModels:
		return "models"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Model      string // --model NAME
	DB         string // --db PATH
	Store      string // --store sqlite|bolt|memory
	ConfigPath string // --config PATH
	Mock       bool   // --mock: scripted answers instead of Ollama
	Verbose    bool   // -v, --verbose: debug logging

	// Command-specific
	Subcommand string
	Parser     *ArgParser
}

// commandBoolFlags are the boolean flags accepted after a command name.
var commandBoolFlags = []string{"json", "force", "plain"}

const usageText = `chatwith - chat with a local Ollama model, with persisted history

Usage:
  chatwith                          Start the full-screen chat (default)
  chatwith chat                     Line-oriented chat (used when stdin is not a terminal)
  chatwith history [list]           List saved turns, newest first
  chatwith history show ID          Show one saved turn
  chatwith history delete ID        Delete a saved turn
  chatwith history export           Export all turns
    --format md|json                Export format (default: md)
    --out FILE                      Write to FILE instead of stdout
  chatwith config [show]            Show the effective configuration
  chatwith config path              Print the config file path
  chatwith config init [--force]    Write a default config file
  chatwith config get KEY           Print one value (e.g. model.name)
  chatwith config set KEY VALUE     Change one value and save
  chatwith models                   List models installed in Ollama
  chatwith version                  Show version information
  chatwith help                     Show this help

Global Flags:
  --model NAME      Ollama model (default from config: llama3.2:1b)
  --db PATH         History database path
  --store BACKEND   History store: sqlite, bolt or memory
  --config PATH     Config file (default: ~/.chatwith/config.toml)
  --mock            Use scripted answers instead of Ollama
  -v, --verbose     Debug logging to the log file

Chat Keys:
  Enter             Send prompt / open highlighted history turn
  Tab               Switch between input and history
  d, x              Delete highlighted history turn
  Esc, Ctrl+C       Cancel the streaming answer
  Ctrl+Q            Quit

REPL Commands:
  /history          List saved turns
  /show ID          Show a saved turn
  /delete ID        Delete a saved turn
  /help             Show REPL commands
  /quit             Exit

Environment:
  CHATWITH_MODEL, CHATWITH_OLLAMA_URL, CHATWITH_DB, CHATWITH_STORE, CHATWITH_LOG_LEVEL

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "chatwith version %s\n", Version)
	fmt.Fprintf(w, "  Git commit: %s\n", GitCommit)
	fmt.Fprintf(w, "  Build date: %s\n", BuildDate)
	fmt.Fprintf(w, "  Go:         %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Parse parses command-line arguments (without the program name).
func Parse(argv []string) (Command, Args, error) {
	remaining, args, err := parseGlobalFlags(argv)
	if err != nil {
		return CmdHelp, args, err
	}

	if len(remaining) == 0 {
		args.Parser = NewArgParser(nil)
		return CmdTUI, args, nil
	}

	name := strings.ToLower(remaining[0])
	args.Parser = NewArgParser(remaining[1:], commandBoolFlags...)
	args.Subcommand = args.Parser.Subcommand()

	switch name {
	case "tui":
		return CmdTUI, args, nil
	case "chat", "repl":
		return CmdChat, args, nil
	case "history", "hist", "h":
		return CmdHistory, args, nil
	case "config", "cfg":
		return CmdConfig, args, nil
	case "models", "model":
		return CmdModels, args, nil
	case "version", "--version":
		return CmdVersion, args, nil
	case "help", "-h", "--help":
		return CmdHelp, args, nil
	default:
		return CmdHelp, args, NewValidationErrorWithExample("command", remaining[0],
			"unknown command", "chatwith help")
	}
}

// parseGlobalFlags extracts global flags from anywhere in argv and returns
// the remaining args.
func parseGlobalFlags(argv []string) ([]string, Args, error) {
	var remaining []string
	var args Args

	valueFlags := map[string]*string{
		"--model":  &args.Model,
		"--db":     &args.DB,
		"--store":  &args.Store,
		"--config": &args.ConfigPath,
	}

	for i := 0; i < len(argv); i++ {
		arg := argv[i]

		switch arg {
		case "--mock":
			args.Mock = true
			continue
		case "-v", "--verbose":
			args.Verbose = true
			continue
		}

		if dst, ok := valueFlags[arg]; ok {
			if i+1 >= len(argv) || strings.HasPrefix(argv[i+1], "-") {
				return nil, args, NewValidationError(strings.TrimLeft(arg, "-"), "", "requires a value")
			}
			i++
			*dst = argv[i]
			continue
		}

		if name, value, ok := strings.Cut(arg, "="); ok {
			if dst, known := valueFlags[name]; known {
				*dst = value
				continue
			}
		}

		remaining = append(remaining, arg)
	}

	return remaining, args, nil
}

// Apply overlays command-line flags on cfg and re-validates it.
func (a Args) Apply(cfg *config.Config) error {
	if a.Model != "" {
		cfg.Model.Name = a.Model
	}
	if a.Store != "" {
		cfg.Storage.Backend = strings.ToLower(a.Store)
	}
	if a.DB != "" {
		cfg.Storage.Path = a.DB
	}
	if a.Verbose {
		cfg.Log.Level = "debug"
	}
	return cfg.Validate()
}
