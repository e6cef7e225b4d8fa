// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/peterh/liner"

	"github.com/jeranaias/chatwith/internal/config"
	"github.com/jeranaias/chatwith/internal/conversation"
	"github.com/jeranaias/chatwith/internal/model"
	"github.com/jeranaias/chatwith/internal/ui/styles"
)

// =============================================================================
// INPUT
// =============================================================================

// LineReader reads prompts for the REPL.
type LineReader interface {
	// Prompt prints prompt and reads one line. io.EOF ends the session.
	Prompt(prompt string) (string, error)
	AppendHistory(line string)
	Close() error
}

// linerReader is a LineReader with arrow-key history, persisted between runs.
type linerReader struct {
	state       *liner.State
	historyFile string
}

// NewLineReader creates a liner-backed LineReader. Input history lives in
// the config directory.
func NewLineReader() LineReader {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	r := &linerReader{
		state:       state,
		historyFile: filepath.Join(dir, "input_history"),
	}

	if f, err := os.Open(r.historyFile); err == nil {
		r.state.ReadHistory(f)
		f.Close()
	}
	return r
}

func (r *linerReader) Prompt(prompt string) (string, error) {
	line, err := r.state.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", io.EOF
	}
	return line, err
}

func (r *linerReader) AppendHistory(line string) {
	r.state.AppendHistory(line)
}

// Close saves input history (0600) and restores the terminal.
func (r *linerReader) Close() error {
	if err := os.MkdirAll(filepath.Dir(r.historyFile), 0700); err == nil {
		if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			r.state.WriteHistory(f)
			f.Close()
		}
	}
	return r.state.Close()
}

// =============================================================================
// PRINTER
// =============================================================================

// PrinterOptions configures a Printer.
type PrinterOptions struct {
	// Markdown renders stored turns; nil prints them as plain text.
	Markdown func(string) string

	// EchoPrompts repeats each prompt, for input that the terminal did not echo.
	EchoPrompts bool
}

// Printer renders a conversation as a plain line-oriented stream.
//
// Streamed answers are written as they grow. The history list is printed only
// after ExpectHistory, so the refresh that follows every completed turn stays
// quiet.
type Printer struct {
	mu          sync.Mutex
	out         io.Writer
	opts        PrinterOptions
	printed     int
	inAnswer    bool
	wantHistory bool
	now         func() time.Time
}

var _ conversation.Renderer = (*Printer)(nil)

// NewPrinter creates a Printer writing to out.
func NewPrinter(out io.Writer, opts PrinterOptions) *Printer {
	return &Printer{out: out, opts: opts, now: time.Now}
}

// ExpectHistory makes the next ShowHistory print the list.
func (p *Printer) ExpectHistory() {
	p.mu.Lock()
	p.wantHistory = true
	p.mu.Unlock()
}

// Notice prints a warning line, ending any answer in progress.
func (p *Printer) Notice(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.endAnswer()
	fmt.Fprintln(p.out, styles.RenderWarning(msg))
}

func (p *Printer) ShowHistory(items []conversation.HistoryItem) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.wantHistory {
		return
	}
	p.wantHistory = false

	if len(items) == 0 {
		fmt.Fprintln(p.out, MutedStyle.Render("No saved turns."))
		return
	}
	now := p.now()
	for _, item := range items {
		fmt.Fprintf(p.out, "  %s  %s  %s\n",
			TitleStyle.Render(fmt.Sprintf("#%-4d", item.ID)),
			model.Label(item.Label, 56),
			MutedStyle.Render(formatAge(item.CreatedAt, now)))
	}
}

func (p *Printer) ShowSelected(turn model.Turn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.endAnswer()

	fmt.Fprintln(p.out, TitleStyle.Render(fmt.Sprintf("Turn #%d", turn.ID))+"  "+
		MutedStyle.Render(turn.CreatedAt.Local().Format("2006-01-02 15:04")))
	fmt.Fprintln(p.out, promptStyle.Render("you> ")+turn.Question)
	fmt.Fprintln(p.out, assistantStyle.Render("assistant>"))
	fmt.Fprintln(p.out, p.markdown(turn.Answer))
	fmt.Fprintln(p.out)
}

func (p *Printer) ClearSelected() {}

func (p *Printer) ShowUserMessage(prompt string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.opts.EchoPrompts {
		fmt.Fprintln(p.out, promptStyle.Render("you> ")+prompt)
	}
	fmt.Fprint(p.out, assistantStyle.Render("assistant> "))
	p.printed = 0
	p.inAnswer = true
}

func (p *Printer) ShowPartial(answer string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writeSuffix(answer)
}

func (p *Printer) ShowCompleted(entry model.Entry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writeSuffix(entry.Answer)
	p.endAnswer()
	fmt.Fprintln(p.out)
}

func (p *Printer) ShowError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.endAnswer()

	var turnErr *conversation.TurnError
	if errors.As(err, &turnErr) {
		msg := "answer discarded: " + turnErr.Error()
		if errors.Is(err, context.Canceled) {
			msg = "answer cancelled and discarded"
		}
		fmt.Fprintln(p.out, styles.RenderError(msg))
		return
	}
	fmt.Fprintln(p.out, styles.RenderError(err.Error()))
}

// writeSuffix prints the part of answer not yet written.
func (p *Printer) writeSuffix(answer string) {
	if !p.inAnswer {
		return
	}
	if len(answer) > p.printed {
		fmt.Fprint(p.out, answer[p.printed:])
		p.printed = len(answer)
	}
}

func (p *Printer) endAnswer() {
	if p.inAnswer {
		fmt.Fprintln(p.out)
		p.inAnswer = false
	}
	p.printed = 0
}

func (p *Printer) markdown(s string) string {
	if p.opts.Markdown == nil {
		return strings.TrimSpace(s)
	}
	return p.opts.Markdown(s)
}

// =============================================================================
// REPL
// =============================================================================

// Controller is the conversation surface the REPL drives.
type Controller interface {
	RenderHistory(ctx context.Context) error
	Select(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	HandlePrompt(ctx context.Context, prompt string) error
}

var _ Controller = (*conversation.Controller)(nil)

// REPLOptions configures a REPL.
type REPLOptions struct {
	// Prompt is the input prompt; "chatwith> " when empty.
	Prompt string

	// CatchInterrupts turns SIGINT during a streamed answer into a cancel.
	CatchInterrupts bool
}

// REPL is the line-oriented chat loop.
type REPL struct {
	ctrl    Controller
	in      LineReader
	out     io.Writer
	printer *Printer
	opts    REPLOptions

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewREPL creates a REPL. printer must be the renderer ctrl was built with.
func NewREPL(ctrl Controller, in LineReader, out io.Writer, printer *Printer, opts REPLOptions) *REPL {
	if opts.Prompt == "" {
		opts.Prompt = "chatwith> "
	}
	return &REPL{ctrl: ctrl, in: in, out: out, printer: printer, opts: opts}
}

// Run reads prompts until EOF, an exit command or ctx is done.
func (r *REPL) Run(ctx context.Context) error {
	if r.opts.CatchInterrupts {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt)
		defer func() {
			signal.Stop(sigCh)
			close(sigCh)
		}()
		go func() {
			for range sigCh {
				if r.Cancel() {
					r.printer.Notice("[Cancelled]")
				}
			}
		}()
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := r.in.Prompt(r.opts.Prompt)
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out)
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.in.AppendHistory(line)

		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			return nil
		}
		if strings.HasPrefix(line, "/") {
			if !r.handleSlash(ctx, line) {
				return nil
			}
			continue
		}

		r.prompt(ctx, line)
	}
}

// Cancel stops the answer being streamed. It reports whether one was.
func (r *REPL) Cancel() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel == nil {
		return false
	}
	r.cancel()
	r.cancel = nil
	return true
}

// prompt runs one turn. Failures were already reported by the renderer.
func (r *REPL) prompt(ctx context.Context, line string) {
	promptCtx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()

	_ = r.ctrl.HandlePrompt(promptCtx, line)

	r.mu.Lock()
	r.cancel = nil
	r.mu.Unlock()
	cancel()
}

// handleSlash runs a slash command and reports whether the loop continues.
func (r *REPL) handleSlash(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	cmd := strings.ToLower(fields[0])
	arg := ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch cmd {
	case "/quit", "/exit", "/q":
		return false
	case "/help", "/?":
		r.printHelp()
	case "/history", "/h":
		r.printer.ExpectHistory()
		_ = r.ctrl.RenderHistory(ctx)
	case "/show", "/s":
		id, err := ParseTurnID(arg)
		if err != nil {
			DisplayError(r.out, err)
			return true
		}
		_ = r.ctrl.Select(ctx, id)
	case "/delete", "/rm":
		id, err := ParseTurnID(arg)
		if err != nil {
			DisplayError(r.out, err)
			return true
		}
		// Delete is a no-op for unknown IDs, so the message holds either way.
		if err := r.ctrl.Delete(ctx, id); err == nil {
			fmt.Fprintln(r.out, styles.RenderSuccess(fmt.Sprintf("Turn #%d is no longer in history", id)))
		}
	default:
		DisplayError(r.out, NewValidationErrorWithExample("command", cmd, "unknown command", "/help"))
	}
	return true
}

func (r *REPL) printHelp() {
	fmt.Fprintln(r.out, TitleStyle.Render("Commands"))
	rows := [][2]string{
		{"/history", "List saved turns"},
		{"/show ID", "Show a saved turn"},
		{"/delete ID", "Delete a saved turn"},
		{"/help", "Show this help"},
		{"/quit", "Exit (also: exit, quit, Ctrl+D)"},
	}
	for _, row := range rows {
		fmt.Fprintln(r.out, "  "+formatKeyValue(row[0], row[1]))
	}
	fmt.Fprintln(r.out, MutedStyle.Render("  Ctrl+C cancels a streaming answer."))
}
