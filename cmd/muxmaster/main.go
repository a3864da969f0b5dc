// Command transcode-driver scans a media library for video files lacking
// an extracted audio companion, extracts audio for each with a bounded
// worker pool, and tracks progress in a durable per-root ledger so an
// interrupted run can resume without redoing completed work.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/backmassage/transcode-driver/internal/config"
	"github.com/backmassage/transcode-driver/internal/display"
	"github.com/backmassage/transcode-driver/internal/ledger"
	"github.com/backmassage/transcode-driver/internal/logging"
	"github.com/backmassage/transcode-driver/internal/pipeline"
	"github.com/backmassage/transcode-driver/internal/ui"
	"github.com/backmassage/transcode-driver/internal/verify"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Phase 1: bootstrap — the logger doesn't exist yet, so errors go
	// directly to stderr. Once NewLogger succeeds, all output goes through
	// the logger for consistent formatting and log-file capture.
	cfg := config.DefaultConfig()
	if err := config.ParseFlags(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "transcode-driver: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "transcode-driver: %v\n", err)
		return 1
	}

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "transcode-driver: %v\n", err)
		return 1
	}
	defer log.Close()

	// Phase 2: logger available — all output goes through log from here on.
	display.PrintBanner()

	if cfg.Verify || cfg.Cleanup {
		return runVerify(&cfg, log)
	}

	log.Info("root: %s", cfg.InputRoot)
	if cfg.DryRun {
		log.Warn("dry run — no files will be extracted")
	}

	// Phase 3: two-level signal handling. The first SIGINT/SIGTERM closes
	// graceful, asking the pool to drain; the second cancels ctx, asking it
	// to kill everything immediately.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	graceful := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("received interrupt, draining running jobs (interrupt again to force)")
		close(graceful)
		<-sigCh
		log.Warn("received second interrupt, killing running jobs")
		cancel()
	}()

	summary, err := pipeline.Run(ctx, &cfg, ui.NewTerminal(), log, graceful)
	if err != nil {
		log.Error("%v", err)
		return 1
	}

	if summary.NothingToDo {
		log.Info(summary.Reason)
		return 0
	}
	if summary.Pool.Failed > 0 {
		return 1
	}
	return 0
}

func runVerify(cfg *config.Config, log *logging.Logger) int {
	led, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		log.Error("%v", err)
		return 1
	}
	defer led.Close()

	if cfg.Cleanup {
		if _, err := verify.Cleanup(led, log, cfg.DryRun); err != nil {
			log.Error("%v", err)
			return 1
		}
		return 0
	}

	report, err := verify.Verify(led, log)
	if err != nil {
		log.Error("%v", err)
		return 1
	}
	if report.Interrupted() > 0 {
		return 1
	}
	return 0
}
