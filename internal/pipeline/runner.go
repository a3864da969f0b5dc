package pipeline

import (
	"context"

	"github.com/backmassage/transcode-driver/internal/check"
	"github.com/backmassage/transcode-driver/internal/config"
	"github.com/backmassage/transcode-driver/internal/ledger"
	"github.com/backmassage/transcode-driver/internal/observer"
	"github.com/backmassage/transcode-driver/internal/pool"
	"github.com/backmassage/transcode-driver/internal/walker"
)

// Logger is the surface the controller needs from the leveled logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(bool, string, ...interface{})
}

// Run drives one invocation: preflight, then the dry-run scan or the live
// walker+pool pipeline. graceful is closed on the first shutdown signal;
// cancelling ctx is the second-signal, immediate-shutdown trigger. Either
// is optional — pass a nil graceful channel and context.Background() for a
// run with no signal handling (e.g. tests).
func Run(ctx context.Context, cfg *config.Config, obs observer.Observer, log Logger, graceful <-chan struct{}) (Summary, error) {
	if err := check.Preflight(cfg, log); err != nil {
		return Summary{}, err
	}

	if cfg.DryRun {
		return runDryRun(ctx, cfg, log)
	}
	return runLive(ctx, cfg, obs, log, graceful)
}

func runDryRun(ctx context.Context, cfg *config.Config, log Logger) (Summary, error) {
	led, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		return Summary{}, err
	}
	defer led.Close()

	w := walker.New(cfg.InputRoot, walker.Options{Recursive: cfg.Recursive, DirectoryConcurrency: cfg.Scanners}, led)
	go w.Run(ctx)

	var stats observer.WalkStats
	for ev := range w.Events() {
		switch ev.Kind {
		case walker.EventComplete:
			stats = ev.Stats
		case walker.EventError:
			log.Warn("scan error: %s: %s", ev.Path, ev.Message)
		}
	}

	summary := Summary{Walk: stats}
	if stats.ToProcess == 0 {
		summary.NothingToDo = true
		summary.Reason = nothingToDoReason(stats)
	}

	log.Info("dry run: found=%d toProcess=%d skippedAudio=%d skippedSubtitle=%d errors=%d",
		stats.TotalFound, stats.ToProcess, stats.SkippedAudio, stats.SkippedSubtitle, stats.Errors)
	if summary.NothingToDo {
		log.Info(summary.Reason)
	}
	return summary, nil
}

func runLive(ctx context.Context, cfg *config.Config, obs observer.Observer, log Logger, graceful <-chan struct{}) (Summary, error) {
	led, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		return Summary{}, err
	}
	defer led.Close()

	p := pool.New(cfg, led, obs, log)
	// The pool's children are detached from ctx: the second signal reaches
	// them only through RequestImmediateShutdown, so killed jobs are counted
	// as cancelled, keep their processing ledger record, and have their
	// partial outputs deleted, instead of racing to finish as failed.
	summaryCh := p.Start(context.WithoutCancel(ctx))

	w := walker.New(cfg.InputRoot, walker.Options{Recursive: cfg.Recursive, DirectoryConcurrency: cfg.Scanners}, led)
	go w.Run(ctx)

	var walkStats observer.WalkStats
	gracefulRequested := false
	immediateRequested := false
	events := w.Events()

	for events != nil {
		select {
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			switch ev.Kind {
			case walker.EventDirectory:
				obs.OnDirectory(ev.Path)
			case walker.EventError:
				obs.OnWalkError(ev.Path, ev.Message)
			case walker.EventFile:
				p.Add(ev.Path, ev.Target, ev.Size)
			case walker.EventComplete:
				walkStats = ev.Stats
				obs.OnScanComplete(ev.Stats)
				p.MarkScanComplete()
			}
		case <-graceful:
			graceful = nil
			if !gracefulRequested {
				gracefulRequested = true
				log.Warn("graceful shutdown requested; draining running jobs")
				p.RequestGracefulShutdown()
			}
		case <-ctx.Done():
			if !immediateRequested {
				immediateRequested = true
				log.Warn("immediate shutdown requested; killing running jobs")
				p.RequestImmediateShutdown()
			}
		}
	}

	summary := <-summaryCh
	result := Summary{Walk: walkStats, Pool: summary}
	if summary.TotalAdded == 0 && !gracefulRequested && !immediateRequested {
		result.NothingToDo = true
		result.Reason = nothingToDoReason(walkStats)
	}
	return result, nil
}
