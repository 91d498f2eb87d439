// Command seedrun executes one seed pipeline pass and exits. It is meant
// for external schedulers (system cron, CI) where the long-running server
// is not wanted.
//
// Flags:
//
//	--mode     process (default) runs one generation batch; recover runs
//	           one failed-item recovery sweep
//	--batch    batch size override (0 = configured default)
//	--dry-run  preview the claim order without claiming or spending
//
// The run result is printed to stdout as JSON.
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pezware/mirubato-sub004/internal/app"
)

func main() {
	mode := flag.String("mode", "process", "process or recover")
	batch := flag.Int("batch", 0, "batch size override (0 = configured default)")
	dryRun := flag.Bool("dry-run", false, "preview without claiming or spending")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Minute)
	defer cancel()

	a, err := app.New(ctx)
	if err != nil {
		slog.Error("wire application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer a.Close()

	var result any
	switch *mode {
	case "process":
		result, err = a.Processor.RunBatch(ctx, *batch, *dryRun)
	case "recover":
		result, err = a.Recovery.RecoverFailedItems(ctx, *batch)
	default:
		a.Log.Error("unknown mode", slog.String("mode", *mode))
		os.Exit(1)
	}
	if err != nil {
		a.Log.Error("run failed", slog.String("mode", *mode), slog.String("error", err.Error()))
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		a.Log.Error("encode result", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
