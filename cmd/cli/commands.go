package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/wadjakorntonsri/contextkeeper/pkg/adapters/notify"
	"github.com/wadjakorntonsri/contextkeeper/pkg/core/capture"
	"github.com/wadjakorntonsri/contextkeeper/pkg/core/domain"
	"github.com/wadjakorntonsri/contextkeeper/pkg/ports"
)

// app holds what every subcommand needs. Output goes to out so tests can read it.
type app struct {
	service   ports.SnippetService
	store     ports.SnippetStore
	notifier  ports.Notifier
	clipboard ports.Clipboard
	dbURL     string
	in        io.Reader
	out       io.Writer
	now       func() time.Time
}

func (a *app) list(ctx context.Context, query string) error {
	cards, err := a.service.List(ctx, query)
	if err != nil {
		return err
	}

	if len(cards) == 0 {
		if query != "" {
			fmt.Fprintf(a.out, "No snippets match %q\n", query)
		} else {
			fmt.Fprintln(a.out, "No saved contexts yet")
			fmt.Fprintln(a.out, `Select text on a page and click "Save Context", or run: contextkeeper capture`)
		}
		return nil
	}

	for _, c := range cards {
		fmt.Fprintf(a.out, "%s  %s  %s\n", c.ID, c.Date, c.Title)
		if len(c.Tags) > 0 {
			fmt.Fprintf(a.out, "    tags: %s\n", strings.Join(c.Tags, ", "))
		}
		if c.LastUsed != nil {
			fmt.Fprintf(a.out, "    used %s\n", humanize.RelTime(time.UnixMilli(*c.LastUsed), a.now(), "ago", "from now"))
		}
		for _, line := range strings.Split(c.Preview, "\n") {
			fmt.Fprintf(a.out, "    %s\n", line)
		}
		fmt.Fprintln(a.out)
	}
	return nil
}

// watch redraws the list whenever the database file changes.
func (a *app) watch(ctx context.Context, query string) error {
	path := notify.LocalPath(a.dbURL)
	if path == "" {
		return fmt.Errorf("watch needs a local database file, got %q", a.dbURL)
	}

	redraw := func() {
		fmt.Fprint(a.out, "\033[H\033[2J")
		if err := a.list(ctx, query); err != nil {
			fmt.Fprintf(a.out, "refresh failed: %v\n", err)
		}
	}
	redraw()
	return notify.WatchFile(ctx, path, redraw)
}

// capture saves text, falling back to the system clipboard when text is empty.
func (a *app) capture(ctx context.Context, text, title, tags string) error {
	if text == "" {
		clip, err := a.clipboard.ReadText()
		if err != nil {
			return fmt.Errorf("read clipboard: %w", err)
		}
		text = clip
	}

	flow := capture.NewFlow(a.store, a.notifier)
	snippet, err := flow.Submit(ctx, text, title, tags)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved to ContextKeeper! (%s)\n", snippet.ID)
	return nil
}

func (a *app) copy(ctx context.Context, id string) error {
	if err := a.service.Copy(ctx, id, a.clipboard); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			fmt.Fprintf(a.out, "No snippet with id %s\n", id)
			return nil
		}
		return err
	}
	fmt.Fprintln(a.out, "Copied to clipboard!")
	return nil
}

// edit keeps the current value of any field left empty.
func (a *app) edit(ctx context.Context, id, title, content, tags string, tagsSet bool) error {
	current, err := a.service.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		fmt.Fprintf(a.out, "No snippet with id %s\n", id)
		return nil
	}
	if err != nil {
		return err
	}

	if title == "" {
		title = current.Title
	}
	if content == "" {
		content = current.Content
	}
	if !tagsSet {
		tags = strings.Join(current.Tags, ", ")
	}

	if err := a.service.Edit(ctx, id, title, content, tags); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Snippet updated")
	return nil
}

func (a *app) delete(ctx context.Context, id string, yes bool) error {
	if !yes && !a.confirm("Delete this snippet?") {
		return nil
	}
	if err := a.service.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Snippet deleted")
	return nil
}

func (a *app) clear(ctx context.Context, yes bool) error {
	if !yes && !a.confirm("Delete ALL snippets? This cannot be undone.") {
		return nil
	}
	if err := a.service.ClearAll(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "All snippets cleared")
	return nil
}

// export writes the backup to path, "-" for stdout, or a timestamped file when empty.
func (a *app) export(ctx context.Context, path string) error {
	filename, data, err := a.service.Export(ctx)
	if errors.Is(err, domain.ErrNothingToExport) {
		fmt.Fprintln(a.out, "No snippets to export")
		return nil
	}
	if err != nil {
		return err
	}

	if path == "-" {
		_, err := a.out.Write(append(data, '\n'))
		return err
	}
	if path == "" {
		path = filename
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Fprintf(a.out, "Snippets exported to %s\n", path)
	return nil
}

func (a *app) importFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read import: %w", err)
	}
	added, err := a.service.Import(ctx, data)
	if errors.Is(err, domain.ErrInvalidImport) {
		fmt.Fprintln(a.out, "Import failed - invalid file")
		return err
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Imported %d snippets\n", added)
	return nil
}

func (a *app) stats(ctx context.Context) error {
	s, err := a.service.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Your Statistics")
	fmt.Fprintf(a.out, "  Total Snippets:   %s\n", humanize.Comma(int64(s.TotalSnippets)))
	fmt.Fprintf(a.out, "  Total Characters: %s\n", s.TotalCharsText)
	fmt.Fprintf(a.out, "  Unique Tags:      %d\n", s.UniqueTags)
	return nil
}

func (a *app) confirm(prompt string) bool {
	fmt.Fprintf(a.out, "%s [y/N] ", prompt)
	answer, _ := bufio.NewReader(a.in).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
