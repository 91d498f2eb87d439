// Command termimport bulk-loads seed terms from a JSON file into the work
// queue. It is intended for large curated lists; the admin HTTP endpoint
// covers small ad-hoc batches.
//
// Flags:
//
//	--file           path to the term JSON file (overrides config)
//	--import-config  path to term-import YAML config file
//	--dry-run        validate and report without enqueueing
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/pezware/mirubato-sub004/internal/app"
	"github.com/pezware/mirubato-sub004/internal/termimport"
)

func main() {
	fileFlag := flag.String("file", "", "path to the term JSON file")
	configFlag := flag.String("import-config", "", "path to term-import YAML config file")
	dryRunFlag := flag.Bool("dry-run", false, "validate and report without enqueueing")
	flag.Parse()

	cfg, err := termimport.LoadConfig(*configFlag)
	if err != nil {
		slog.Error("load term-import config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if *fileFlag != "" {
		cfg.InputPath = *fileFlag
	}
	if *dryRunFlag {
		cfg.DryRun = true
	}

	f, err := termimport.ReadFile(cfg.InputPath)
	if err != nil {
		slog.Error("read term file", slog.String("error", err.Error()))
		os.Exit(1)
	}
	items := termimport.Map(f, cfg.DefaultPriority, cfg.DefaultLanguages)

	if cfg.DryRun {
		slog.Info("dry run, nothing enqueued",
			slog.String("file", cfg.InputPath),
			slog.String("source", f.Source),
			slog.Int("terms", len(items)),
		)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	a, err := app.New(ctx)
	if err != nil {
		slog.Error("wire application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer a.Close()

	added, err := a.Initializer.EnqueueTerms(ctx, items)
	if err != nil {
		a.Log.Error("enqueue terms", slog.String("error", err.Error()))
		os.Exit(1)
	}

	a.Log.Info("term import finished",
		slog.String("file", cfg.InputPath),
		slog.String("source", f.Source),
		slog.Int("offered", len(items)),
		slog.Int("added", added),
		slog.Int("skipped", len(items)-added),
	)
}
