// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jeranaias/chatwith/internal/export"
	"github.com/jeranaias/chatwith/internal/model"
	"github.com/jeranaias/chatwith/internal/storage"
	"github.com/jeranaias/chatwith/internal/ui/styles"
)

// HistoryOptions configures the history command.
type HistoryOptions struct {
	// ModelName is recorded in exports.
	ModelName string

	// Markdown renders answers for "history show"; nil prints them as-is.
	Markdown func(string) string
}

// HandleHistory runs "chatwith history [list|show|delete|export]".
func HandleHistory(ctx context.Context, store storage.Store, args Args, out io.Writer, opts HistoryOptions) error {
	p := args.Parser
	if p == nil {
		p = NewArgParser(nil)
	}

	switch strings.ToLower(p.Subcommand()) {
	case "", "list", "ls":
		return historyList(ctx, store, out, p.BoolFlag("json"))
	case "show", "get":
		id, err := ParseTurnID(p.Positional(1))
		if err != nil {
			return err
		}
		return historyShow(ctx, store, id, out, p.BoolFlag("json"), opts)
	case "delete", "rm", "remove":
		id, err := ParseTurnID(p.Positional(1))
		if err != nil {
			return err
		}
		return historyDelete(ctx, store, id, out)
	case "export":
		return historyExport(ctx, store, p, out, opts)
	default:
		return NewValidationErrorWithExample("history subcommand", p.Subcommand(),
			"must be one of: list, show, delete, export", "chatwith history show 3")
	}
}

func historyList(ctx context.Context, store storage.Store, out io.Writer, asJSON bool) error {
	turns, err := store.ListAll(ctx)
	if err != nil {
		return NewCommandError("history", "list", err)
	}
	if asJSON {
		if turns == nil {
			turns = []model.Turn{}
		}
		return outputJSON(out, turns)
	}
	fmt.Fprint(out, storage.FormatTurnList(turns))
	if len(turns) == 0 {
		fmt.Fprintln(out)
	}
	return nil
}

func historyShow(ctx context.Context, store storage.Store, id int64, out io.Writer, asJSON bool, opts HistoryOptions) error {
	turn, err := store.Get(ctx, id)
	if err != nil {
		return NewCommandError("history", "show", err)
	}
	if asJSON {
		return outputJSON(out, turn)
	}

	fmt.Fprintln(out, TitleStyle.Render(fmt.Sprintf("Turn #%d", turn.ID)))
	fmt.Fprintln(out, formatKeyValue("Created:", turn.CreatedAt.Local().Format("2006-01-02 15:04:05")))
	fmt.Fprintln(out)
	fmt.Fprintln(out, promptStyle.Render("Question"))
	fmt.Fprintln(out, turn.Question)
	fmt.Fprintln(out)
	fmt.Fprintln(out, assistantStyle.Render("Answer"))
	if opts.Markdown != nil {
		fmt.Fprintln(out, opts.Markdown(turn.Answer))
	} else {
		fmt.Fprintln(out, strings.TrimSpace(turn.Answer))
	}
	return nil
}

func historyDelete(ctx context.Context, store storage.Store, id int64, out io.Writer) error {
	if _, err := store.Get(ctx, id); errors.Is(err, storage.ErrNotFound) {
		fmt.Fprintln(out, styles.RenderInfo(fmt.Sprintf("No turn #%d, nothing deleted", id)))
		return nil
	} else if err != nil {
		return NewCommandError("history", "delete", err)
	}
	if err := store.Delete(ctx, id); err != nil {
		return NewCommandError("history", "delete", err)
	}
	fmt.Fprintln(out, styles.RenderSuccess(fmt.Sprintf("Deleted turn #%d", id)))
	return nil
}

func historyExport(ctx context.Context, store storage.Store, p *ArgParser, out io.Writer, opts HistoryOptions) error {
	format := p.FlagOrDefault("format", "md")
	exporter, err := export.ForFormat(format, export.DefaultOptions())
	if err != nil {
		return NewValidationErrorWithExample("format", format,
			"must be one of: "+strings.Join(export.Formats(), ", "), "chatwith history export --format json")
	}

	turns, err := store.ListAll(ctx)
	if err != nil {
		return NewCommandError("history", "export", err)
	}
	doc := export.NewDocument(turns, opts.ModelName)

	path := p.Flag("out")
	if path == "" && !p.HasFlag("out") {
		return export.Write(out, doc, exporter)
	}

	written, err := export.ExportToFile(doc, exporter, path)
	if err != nil {
		return NewCommandError("history", "export", err)
	}
	fmt.Fprintln(out, styles.RenderSuccess(fmt.Sprintf("Exported %d turns to %s", len(turns), written)))
	return nil
}
