package pipeline

import "github.com/backmassage/transcode-driver/internal/observer"

// Summary is the controller's final report for one invocation: the
// walker's totals plus the pool's outcome counters (the latter zero for a
// dry run), plus the "nothing to do" classification the controller is
// responsible for surfacing.
type Summary struct {
	Walk observer.WalkStats
	Pool observer.Summary

	// NothingToDo is set when scanning finished with zero candidates ever
	// added to the pool, and no shutdown was requested. Reason explains why
	// — no files found at all, versus every candidate already skipped.
	NothingToDo bool
	Reason      string
}

func nothingToDoReason(stats observer.WalkStats) string {
	if stats.TotalFound == 0 {
		return "no candidate files found"
	}
	return "all candidates already have companions"
}
