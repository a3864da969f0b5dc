// Package walker produces a lazy, finite sequence of events from a
// directory root using a bounded pool of cooperative workers over a shared
// directory queue. The bounded-goroutine-count, shared-work-queue,
// context-cancellation shape generalizes
// weizsw-fusionn-muse/internal/queue/queue.go's Start/worker/Stop, extended
// from one worker pulling a job channel to N workers pulling a directory
// queue.
package walker

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/backmassage/transcode-driver/internal/ledger"
	"github.com/backmassage/transcode-driver/internal/naming"
	"github.com/backmassage/transcode-driver/internal/observer"
)

// Recognized video extensions (lowercase, with leading dot).
var mediaExtensions = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mkv":  true,
	".wmv":  true,
	".mov":  true,
	".webm": true,
	".flv":  true,
}

// EventKind tags a walker.Event.
type EventKind int

const (
	EventDirectory EventKind = iota
	EventFile
	EventSkippedAudio
	EventSkippedSubtitle
	EventError
	EventComplete
)

// Event is the walker's single output type: a tagged union delivered over
// a buffered channel, the equivalent of a lazy async iterator in a
// goroutine-and-channel idiom (see the design notes on this substitution).
type Event struct {
	Kind    EventKind
	Path    string // directory or file path, depending on Kind.
	Target  string // EventFile only: resolved, collision-free target path.
	Size    int64  // EventFile only: source file size.
	Message string // EventError only.
	Stats   observer.WalkStats // EventComplete only.
}

// Options configures one walk.
type Options struct {
	Recursive            bool
	DirectoryConcurrency int           // clamped to [1,20] by config.Validate.
	Limiter              *rate.Limiter // nil means unlimited.
}

// Walker drives one directory traversal and emits Events over Events().
type Walker struct {
	root    string
	opts    Options
	ledger  *ledger.Ledger
	events  chan Event
	resolve *naming.CollisionResolver

	dirQueue *dirQueue

	mu    sync.Mutex
	stats observer.WalkStats
}

// New creates a Walker rooted at root. The returned Walker has not started;
// call Run to drive the traversal and close Events() when done.
func New(root string, opts Options, led *ledger.Ledger) *Walker {
	if opts.DirectoryConcurrency <= 0 {
		opts.DirectoryConcurrency = 1
	}
	if opts.Limiter == nil {
		opts.Limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &Walker{
		root:     root,
		opts:     opts,
		ledger:   led,
		events:   make(chan Event, 256),
		resolve:  naming.NewCollisionResolver(),
		dirQueue: newDirQueue(),
	}
}

// Events returns the channel the controller reads from. The channel is
// closed after the terminal EventComplete is sent.
func (w *Walker) Events() <-chan Event {
	return w.events
}

// Run drives the traversal to completion, spawning up to
// opts.DirectoryConcurrency workers against the shared directory queue.
// Blocks until every worker is idle and the queue is empty, then emits the
// terminal complete event and closes the event channel. Safe to call from
// exactly one goroutine; cancel ctx to abort early (pending directories are
// simply never processed — this is not treated as an error).
func (w *Walker) Run(ctx context.Context) {
	defer close(w.events)

	w.dirQueue.setTotal(w.opts.DirectoryConcurrency)
	w.dirQueue.push(w.root)

	stopOnCancel := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			w.dirQueue.shutdown()
		case <-stopOnCancel:
		}
	}()
	defer close(stopOnCancel)

	var wg sync.WaitGroup
	for i := 0; i < w.opts.DirectoryConcurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.worker(ctx)
		}()
	}
	wg.Wait()

	w.mu.Lock()
	stats := w.stats
	w.mu.Unlock()
	w.events <- Event{Kind: EventComplete, Stats: stats}
}

// worker repeatedly pops a directory and enumerates it until the queue is
// drained and every worker is idle (dirQueue.pop blocks until then, or ctx
// is cancelled).
func (w *Walker) worker(ctx context.Context) {
	for {
		dir, ok := w.dirQueue.pop(ctx.Done())
		if !ok {
			return
		}
		w.enumerate(ctx, dir)
	}
}

func (w *Walker) enumerate(ctx context.Context, dir string) {
	if err := w.opts.Limiter.Wait(ctx); err != nil {
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		w.incErrors()
		w.events <- Event{Kind: EventError, Path: dir, Message: err.Error()}
		return
	}

	w.events <- Event{Kind: EventDirectory, Path: dir}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if w.opts.Recursive {
				w.dirQueue.push(path)
			}
			continue
		}
		w.handleFile(dir, path, entry.Name())
	}
}

func (w *Walker) handleFile(dir, path, name string) {
	ext := strings.ToLower(filepath.Ext(name))
	if !mediaExtensions[ext] {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		w.incErrors()
		w.events <- Event{Kind: EventError, Path: path, Message: err.Error()}
		return
	}

	base := strings.TrimSuffix(name, filepath.Ext(name))
	df := DiscoveredFile{
		Path:               path,
		Basename:           base,
		Extension:          ext,
		Directory:          dir,
		Size:               info.Size(),
		HasSiblingAudio:    exists(filepath.Join(dir, base+".mp3")),
		HasSiblingSubtitle: exists(filepath.Join(dir, base+".srt")),
	}

	w.incTotalFound()

	if df.HasSiblingSubtitle {
		w.incSkippedSubtitle()
		w.events <- Event{Kind: EventSkippedSubtitle, Path: df.Path}
		return
	}

	requestedTarget := filepath.Join(dir, base+".mp3")
	rec, _ := w.ledger.Get(df.Path)
	ledgerSaysDone := rec != nil && string(rec.State) == "complete" && exists(rec.TargetPath)
	df.ShouldSkip = df.HasSiblingAudio || ledgerSaysDone

	if df.ShouldSkip {
		w.incSkippedAudio()
		w.events <- Event{Kind: EventSkippedAudio, Path: df.Path}
		return
	}

	target := w.resolve.Resolve(df.Path, requestedTarget)
	w.incToProcess()
	w.events <- Event{Kind: EventFile, Path: df.Path, Target: target, Size: df.Size}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (w *Walker) incErrors() {
	w.mu.Lock()
	w.stats.Errors++
	w.mu.Unlock()
}

func (w *Walker) incTotalFound() {
	w.mu.Lock()
	w.stats.TotalFound++
	w.mu.Unlock()
}

func (w *Walker) incToProcess() {
	w.mu.Lock()
	w.stats.ToProcess++
	w.mu.Unlock()
}

func (w *Walker) incSkippedAudio() {
	w.mu.Lock()
	w.stats.SkippedAudio++
	w.mu.Unlock()
}

func (w *Walker) incSkippedSubtitle() {
	w.mu.Lock()
	w.stats.SkippedSubtitle++
	w.mu.Unlock()
}
