// chatwith - chat with a local Ollama model, keeping every answered prompt.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/chatwith/internal/cli"
	"github.com/jeranaias/chatwith/internal/config"
	"github.com/jeranaias/chatwith/internal/conversation"
	"github.com/jeranaias/chatwith/internal/observability"
	"github.com/jeranaias/chatwith/internal/ollama"
	"github.com/jeranaias/chatwith/internal/session"
	"github.com/jeranaias/chatwith/internal/storage"
	"github.com/jeranaias/chatwith/internal/ui/chat"
	"github.com/jeranaias/chatwith/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// mockDelay paces scripted answers so streaming is visible.
const mockDelay = 40 * time.Millisecond

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run dispatches a command and returns the process exit code.
func run(argv []string) int {
	cmd, args, err := cli.Parse(argv)
	if err != nil {
		cli.DisplayError(os.Stderr, err)
		fmt.Fprintln(os.Stderr, cli.MutedStyle.Render("Run 'chatwith help' for usage."))
		return cli.ExitCode(err)
	}

	switch cmd {
	case cli.CmdHelp:
		cli.PrintUsage(os.Stdout)
		return cli.ExitSuccess
	case cli.CmdVersion:
		cli.PrintVersion(os.Stdout)
		return cli.ExitSuccess
	}

	cfg, cfgPath, err := loadConfig(args)
	if err != nil {
		cli.DisplayError(os.Stderr, err)
		return cli.ExitCode(err)
	}

	closeLog := initLogging(cfg)
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	switch cmd {
	case cli.CmdConfig:
		err = cli.HandleConfig(cfg, cfgPath, args, os.Stdout)
	case cli.CmdModels:
		err = cli.HandleModels(ctx, newOllamaClient(cfg, io.Discard), cfg.Model.Name, args, os.Stdout)
	case cli.CmdHistory:
		err = withStore(cfg, func(store storage.Store) error {
			return cli.HandleHistory(ctx, store, args, os.Stdout, cli.HistoryOptions{
				ModelName: cfg.Model.Name,
				Markdown:  markdownFunc(cfg, cli.GetTerminalWidth()),
			})
		})
	case cli.CmdChat:
		err = withStore(cfg, func(store storage.Store) error {
			return runREPL(ctx, cfg, args, store)
		})
	case cli.CmdTUI:
		err = withStore(cfg, func(store storage.Store) error {
			if !cli.IsTTY() || !cli.IsStdoutTTY() {
				return runREPL(ctx, cfg, args, store)
			}
			return runTUI(ctx, cfg, args, store)
		})
	}

	if err != nil {
		cli.DisplayError(os.Stderr, err)
		return cli.ExitCode(err)
	}
	return cli.ExitSuccess
}

// =============================================================================
// SETUP
// =============================================================================

// loadConfig reads the config file, then applies environment and flags.
func loadConfig(args cli.Args) (*config.Config, string, error) {
	path := args.ConfigPath
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFromPath(path)
	} else {
		if path, err = config.ConfigPath(); err != nil {
			return nil, "", err
		}
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, path, err
	}
	if err := args.Apply(cfg); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// initLogging sends structured logs to the configured file. Logging problems
// never stop the program.
func initLogging(cfg *config.Config) func() {
	path, err := storage.ExpandPath(cfg.Log.Path)
	if err != nil {
		return func() {}
	}
	closeFn, err := observability.Init(path, cfg.Log.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, styles.RenderWarning("logging disabled: "+err.Error()))
		return func() {}
	}
	observability.Logger().Info("chatwith starting", "version", Version,
		"model", cfg.Model.Name, "store", cfg.Storage.Backend)
	return func() { _ = closeFn() }
}

// withStore opens the configured store for the duration of fn.
func withStore(cfg *config.Config, fn func(storage.Store) error) error {
	store, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			observability.Logger().Warn("close store failed", "error", cerr)
		}
	}()
	return fn(store)
}

func newOllamaClient(cfg *config.Config, startupOutput io.Writer) *ollama.Client {
	return ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL:       cfg.Model.OllamaURL,
		Model:         cfg.Model.Name,
		Timeout:       cfg.Model.Timeout(),
		StartupOutput: startupOutput,
	})
}

// newGenerator returns the answer source. Ollama is contacted on the first
// prompt, so history browsing works while it is down.
func newGenerator(cfg *config.Config, mock bool, startupOutput io.Writer) conversation.Generator {
	if mock {
		return conversation.NewMockGenerator(mockDelay)
	}
	return conversation.NewLazyGenerator(func(ctx context.Context) (conversation.Generator, error) {
		client := newOllamaClient(cfg, startupOutput)
		var err error
		if cfg.Model.AutoStart {
			err = client.EnsureRunning(ctx)
		} else {
			err = client.CheckRunning(ctx)
		}
		if err != nil {
			return nil, err
		}
		observability.Logger().Info("ollama ready", "url", client.BaseURL(), "model", client.Model())
		return conversation.GeneratorFunc(func(ctx context.Context, prompt string) (conversation.FragmentStream, error) {
			stream, err := client.Stream(ctx, prompt)
			if err != nil {
				return nil, err
			}
			return stream, nil
		}), nil
	})
}

// markdownFunc renders answers with glamour, or returns nil when disabled.
func markdownFunc(cfg *config.Config, width int) func(string) string {
	if !cfg.UI.RenderMarkdown || !cli.ColorsEnabled() {
		return nil
	}
	var (
		once     sync.Once
		renderer *glamour.TermRenderer
	)
	theme := styles.NewTheme(cfg.UI.Theme)
	return func(s string) string {
		once.Do(func() {
			r, err := styles.NewMarkdownRenderer(theme, width-2)
			if err != nil {
				observability.Logger().Warn("markdown renderer unavailable", "error", err)
				return
			}
			renderer = r
		})
		return styles.RenderMarkdown(renderer, s)
	}
}

// =============================================================================
// CHAT FRONTENDS
// =============================================================================

// runTUI runs the full-screen chat.
func runTUI(ctx context.Context, cfg *config.Config, args cli.Args, store storage.Store) error {
	sess := session.New()
	ctx = observability.WithSessionID(ctx, sess.ID())

	// The renderer needs the program and the program needs the model built
	// on the controller; send goes through this indirection.
	var (
		programMu sync.Mutex
		program   *tea.Program
	)
	send := func(msg tea.Msg) {
		programMu.Lock()
		p := program
		programMu.Unlock()
		if p != nil {
			p.Send(msg)
		}
	}

	ctrl := conversation.New(store, sess, newGenerator(cfg, args.Mock, io.Discard), chat.NewRenderer(send))

	theme := styles.NewTheme(cfg.UI.Theme)
	m := chat.New(ctx, theme, ctrl, chat.Options{
		ModelName:      modelLabel(cfg, args.Mock),
		StoreLabel:     cfg.Storage.Backend,
		HistoryWidth:   cfg.UI.HistoryWidth,
		WordWrap:       cfg.UI.WordWrap,
		RenderMarkdown: cfg.UI.RenderMarkdown,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	programMu.Lock()
	program = p
	programMu.Unlock()

	if cfg.Storage.Backend != storage.BackendMemory {
		if path, err := storage.ExpandPath(cfg.Storage.Path); err == nil {
			w, err := storage.NewWatcher(path, storage.DefaultWatchInterval, func() {
				send(chat.StoreChangedMsg{})
			})
			if err != nil {
				observability.Logger().Warn("history watcher disabled", "error", err)
			} else {
				defer w.Close()
			}
		}
	}

	observability.LoggerFromContext(ctx).Info("tui started")
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("chat UI: %w", err)
	}
	observability.LoggerFromContext(ctx).Info("tui stopped", "turns", sess.Len(), "duration", sess.Duration().String())
	return nil
}

// runREPL runs the line-oriented chat.
func runREPL(ctx context.Context, cfg *config.Config, args cli.Args, store storage.Store) error {
	sess := session.New()
	ctx = observability.WithSessionID(ctx, sess.ID())

	interactive := cli.IsTTY()
	printer := cli.NewPrinter(os.Stdout, cli.PrinterOptions{
		Markdown:    markdownFunc(cfg, cli.GetTerminalWidth()),
		EchoPrompts: !interactive,
	})
	ctrl := conversation.New(store, sess, newGenerator(cfg, args.Mock, os.Stderr), printer)

	reader := cli.NewLineReader()
	defer reader.Close()

	if interactive {
		fmt.Println(cli.TitleStyle.Render("chatwith") + " " +
			cli.MutedStyle.Render(fmt.Sprintf("%s, %s store. /help for commands, Ctrl+D to exit.",
				modelLabel(cfg, args.Mock), cfg.Storage.Backend)))
	}

	repl := cli.NewREPL(ctrl, reader, os.Stdout, printer, cli.REPLOptions{CatchInterrupts: interactive})
	err := repl.Run(ctx)
	observability.LoggerFromContext(ctx).Info("repl stopped", "turns", sess.Len(), "duration", sess.Duration().String())
	return err
}

func modelLabel(cfg *config.Config, mock bool) string {
	if mock {
		return "mock"
	}
	return cfg.Model.Name
}
