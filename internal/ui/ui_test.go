package ui

import (
	"testing"

	"github.com/backmassage/transcode-driver/internal/observer"
)

// TestTerminal_FullLifecycleDoesNotPanic drives a Terminal through a
// realistic event sequence (discovery, start, progress, completion, one
// failure, scan complete, queue complete) and only checks it survives —
// the actual rendering goes straight to stdout/stderr, same as the
// leveled logger.
func TestTerminal_FullLifecycleDoesNotPanic(t *testing.T) {
	term := NewTerminal()

	ok := observer.JobView{ID: "ok", Source: "/movies/a.mp4", State: "pending"}
	bad := observer.JobView{ID: "bad", Source: "/movies/b.mp4", State: "pending"}

	term.OnDirectory("/movies")
	term.OnFileAdded(ok)
	term.OnFileAdded(bad)
	term.OnScanComplete(observer.WalkStats{TotalFound: 2, ToProcess: 2})

	ok.State = "running"
	term.OnJobStart(ok)
	ok.Percent = 50
	term.OnJobProgress(ok)
	ok.State = "completed"
	term.OnJobComplete(ok)

	bad.State = "failed"
	bad.ErrorText = "exit status 1"
	term.OnJobComplete(bad)

	term.OnStateChange(observer.Snapshot{Completed: 1, Failed: 1})
	term.OnQueueComplete(observer.Summary{
		TotalAdded: 2,
		Completed:  1,
		Failed:     1,
		TotalTime:  1.5,
	})
}

func TestTerminal_WalkErrorDoesNotPanic(t *testing.T) {
	term := NewTerminal()
	term.OnWalkError("/movies/locked", "permission denied")
}
