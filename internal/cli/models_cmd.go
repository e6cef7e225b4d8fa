// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/chatwith/internal/ollama"
)

// ModelLister lists the models installed in Ollama.
type ModelLister interface {
	ListModels(ctx context.Context) ([]ollama.ModelInfo, error)
}

// HandleModels runs "chatwith models". The configured model is marked with "*".
func HandleModels(ctx context.Context, client ModelLister, configured string, args Args, out io.Writer) error {
	models, err := client.ListModels(ctx)
	if err != nil {
		return NewCommandError("models", "list", err)
	}
	sort.Slice(models, func(i, j int) bool { return models[i].Name < models[j].Name })

	if args.Parser != nil && args.Parser.BoolFlag("json") {
		if models == nil {
			models = []ollama.ModelInfo{}
		}
		return outputJSON(out, models)
	}

	if len(models) == 0 {
		fmt.Fprintln(out, "No models installed. Pull one with 'ollama pull "+configured+"'.")
		return nil
	}

	nameWidth := len("NAME")
	for _, m := range models {
		if w := runewidth.StringWidth(m.Name); w > nameWidth {
			nameWidth = w
		}
	}

	fmt.Fprintln(out, TitleStyle.Render(fmt.Sprintf("  %s  %-8s  %-8s  %s",
		runewidth.FillRight("NAME", nameWidth), "SIZE", "PARAMS", "MODIFIED")))

	now := time.Now()
	found := false
	for _, m := range models {
		marker := "  "
		if sameModel(m.Name, configured) {
			marker = "* "
			found = true
		}
		params := m.Details.ParameterSize
		if params == "" {
			params = "-"
		}
		fmt.Fprintf(out, "%s%s  %-8s  %-8s  %s\n", marker,
			runewidth.FillRight(m.Name, nameWidth), m.FormatSize(), params,
			MutedStyle.Render(formatAge(m.ModifiedAt, now)))
	}

	if !found {
		fmt.Fprintln(out)
		fmt.Fprintln(out, MutedStyle.Render(fmt.Sprintf("Configured model %q is not installed. Run 'ollama pull %s'.",
			configured, configured)))
	}
	return nil
}

// sameModel compares model tags, treating a missing tag as ":latest".
func sameModel(a, b string) bool {
	norm := func(s string) string {
		s = strings.ToLower(strings.TrimSpace(s))
		if !strings.Contains(s, ":") {
			s += ":latest"
		}
		return s
	}
	return norm(a) == norm(b)
}
