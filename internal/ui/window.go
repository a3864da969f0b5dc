package ui

import (
	"time"

	"github.com/backmassage/transcode-driver/internal/observer"
)

// windowSize bounds the number of job records the terminal UI keeps. The
// pool itself keeps no per-job record after completion — only counters —
// so this is the only place job-level detail survives for display, and at
// the scale this driver targets (tens of thousands of files) an unbounded
// per-job array is the largest memory risk in the whole pipeline.
const windowSize = 500

type windowEntry struct {
	view      observer.JobView
	touchedAt time.Time
}

// window is a memory-bounded collection of job views, evicting by state
// priority (running > failed > recently-completed < 1.5s > pending >
// cancelled > old-completed) rather than insertion order, so a long batch
// never pushes its failures out of view in favor of old successes.
type window struct {
	entries map[string]*windowEntry
}

func newWindow() *window {
	return &window{entries: make(map[string]*windowEntry)}
}

func (w *window) touch(v observer.JobView) {
	w.entries[v.ID] = &windowEntry{view: v, touchedAt: time.Now()}
	if len(w.entries) > windowSize {
		w.evictOne()
	}
}

func (w *window) evictOne() {
	var worstID string
	worstPriority := -1
	for id, e := range w.entries {
		if p := evictionPriority(e); p > worstPriority {
			worstPriority, worstID = p, id
		}
	}
	if worstID != "" {
		delete(w.entries, worstID)
	}
}

// evictionPriority ranks an entry for removal; higher values go first.
func evictionPriority(e *windowEntry) int {
	switch e.view.State {
	case "running":
		return 0
	case "failed":
		return 1
	case "completed":
		if time.Since(e.touchedAt) < 1500*time.Millisecond {
			return 2
		}
		return 5
	case "pending":
		return 3
	case "cancelled":
		return 4
	default:
		return 6
	}
}

func (w *window) failed() []observer.JobView {
	var out []observer.JobView
	for _, e := range w.entries {
		if e.view.State == "failed" {
			out = append(out, e.view)
		}
	}
	return out
}
