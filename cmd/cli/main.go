package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wadjakorntonsri/contextkeeper/pkg/adapters/clipboard"
	"github.com/wadjakorntonsri/contextkeeper/pkg/adapters/notify"
	"github.com/wadjakorntonsri/contextkeeper/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/contextkeeper/pkg/config"
	"github.com/wadjakorntonsri/contextkeeper/pkg/core/services"
	"github.com/wadjakorntonsri/contextkeeper/pkg/core/store"
)

const usage = `usage: contextkeeper <command> [flags]

commands:
  list     [-q query] [-watch]
  capture  [-text text] -title title [-tags a,b]
  copy     <id>
  edit     [-title t] [-content c] [-tags a,b] <id>
  delete   [-yes] <id>
  clear    [-yes]
  export   [-o file]
  import   -file file
  stats`

func main() {
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	listQuery := listCmd.String("q", "", "filter by title, content or tag")
	listWatch := listCmd.Bool("watch", false, "redraw when the collection changes")

	captureCmd := flag.NewFlagSet("capture", flag.ExitOnError)
	captureText := captureCmd.String("text", "", "text to save (default: system clipboard)")
	captureTitle := captureCmd.String("title", "", "snippet title")
	captureTags := captureCmd.String("tags", "", "comma separated tags")

	copyCmd := flag.NewFlagSet("copy", flag.ExitOnError)

	editCmd := flag.NewFlagSet("edit", flag.ExitOnError)
	editTitle := editCmd.String("title", "", "new title")
	editContent := editCmd.String("content", "", "new content")
	editTags := editCmd.String("tags", "", "new comma separated tags")

	deleteCmd := flag.NewFlagSet("delete", flag.ExitOnError)
	deleteYes := deleteCmd.Bool("yes", false, "skip confirmation")

	clearCmd := flag.NewFlagSet("clear", flag.ExitOnError)
	clearYes := clearCmd.Bool("yes", false, "skip confirmation")

	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	exportOut := exportCmd.String("o", "", `output file, "-" for stdout`)

	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	importFile := importCmd.String("file", "", "JSON file to import")

	statsCmd := flag.NewFlagSet("stats", flag.ExitOnError)

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg := config.Load()
	config.SetupLogger(cfg, os.Stderr)

	repo, err := sqlite.NewKVRepository(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to db")
	}
	defer repo.Close()

	snippets := store.New(repo, cfg.StorageKey)
	a := &app{
		service: services.NewSnippetService(snippets),
		store:   snippets,
		// No panel listens in this process; the relay still records the save.
		notifier:  notify.NewRelay(notify.NewBroadcaster()),
		clipboard: clipboard.New(cfg.Clipboard),
		dbURL:     cfg.DatabaseURL,
		in:        os.Stdin,
		out:       os.Stdout,
		now:       time.Now,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch os.Args[1] {
	case "list":
		listCmd.Parse(os.Args[2:])
		if *listWatch {
			err = a.watch(ctx, *listQuery)
		} else {
			err = a.list(ctx, *listQuery)
		}
	case "capture":
		captureCmd.Parse(os.Args[2:])
		err = a.capture(ctx, *captureText, *captureTitle, *captureTags)
	case "copy":
		copyCmd.Parse(os.Args[2:])
		err = a.copy(ctx, requireID(copyCmd))
	case "edit":
		editCmd.Parse(os.Args[2:])
		tagsSet := false
		editCmd.Visit(func(f *flag.Flag) { tagsSet = tagsSet || f.Name == "tags" })
		err = a.edit(ctx, requireID(editCmd), *editTitle, *editContent, *editTags, tagsSet)
	case "delete":
		deleteCmd.Parse(os.Args[2:])
		err = a.delete(ctx, requireID(deleteCmd), *deleteYes)
	case "clear":
		clearCmd.Parse(os.Args[2:])
		err = a.clear(ctx, *clearYes)
	case "export":
		exportCmd.Parse(os.Args[2:])
		err = a.export(ctx, *exportOut)
	case "import":
		importCmd.Parse(os.Args[2:])
		if *importFile == "" && importCmd.NArg() > 0 {
			*importFile = importCmd.Arg(0)
		}
		if *importFile == "" {
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		err = a.importFile(ctx, *importFile)
	case "stats":
		statsCmd.Parse(os.Args[2:])
		err = a.stats(ctx)
	default:
		fmt.Println(usage)
		os.Exit(1)
	}

	if err != nil && ctx.Err() == nil {
		log.Error().Err(err).Str("command", os.Args[1]).Msg("Command failed")
		repo.Close()
		os.Exit(1)
	}
}

func requireID(fs *flag.FlagSet) string {
	if fs.NArg() < 1 {
		fmt.Printf("usage: contextkeeper %s [flags] <id>\n", fs.Name())
		fs.PrintDefaults()
		os.Exit(1)
	}
	return fs.Arg(0)
}
