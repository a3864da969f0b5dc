// Package observer defines the pipeline-event callback interface shared by
// the walker, the work pool, and the controller, plus the small read-only
// view types passed to it. It is a leaf package: it imports nothing from
// walker, pool, or pipeline, so any of them can depend on it without
// introducing an import cycle.
package observer

// JobView is a read-only snapshot of a job's lifecycle state, passed to
// observer callbacks. The pool never hands out a mutable Job; observers see
// only this projection.
type JobView struct {
	ID         string
	Source     string
	Target     string
	State      string // pending | running | completed | failed | cancelled
	Percent    int
	DurationS  float64
	CurrentS   float64
	ErrorText  string
	OutputSize int64
}

// WalkStats are the walker's running totals, finalized in the terminal
// complete event.
type WalkStats struct {
	TotalFound      int
	ToProcess       int
	SkippedAudio    int
	SkippedSubtitle int
	Errors          int
}

// Snapshot is the pool's counters, exposed to observers on every state
// change. It never carries a per-job array — see the design notes on
// bounding UI memory.
type Snapshot struct {
	Active           int
	Pending          int
	Completed        int
	Failed           int
	Cancelled        int
	TotalOutputBytes int64
}

// Summary is the pool's final result, delivered exactly once per
// invocation.
type Summary struct {
	TotalAdded       int
	Completed        int
	Failed           int
	Cancelled        int // includes pending jobs dropped by a shutdown.
	TotalTime        float64 // seconds.
	TotalOutputBytes int64
}

// Observer receives every pipeline event. A default no-op value is provided
// as [Nop]; the terminal UI (internal/ui) implements the full interface.
type Observer interface {
	OnDirectory(path string)
	OnWalkError(path, message string)
	OnFileAdded(job JobView)
	OnJobStart(job JobView)
	OnJobProgress(job JobView)
	OnJobComplete(job JobView)
	OnScanComplete(stats WalkStats)
	OnQueueComplete(summary Summary)
	OnStateChange(snap Snapshot)
}

// Nop implements Observer with no-op methods. Embed it to implement only
// the callbacks a caller cares about.
type Nop struct{}

func (Nop) OnDirectory(string)             {}
func (Nop) OnWalkError(string, string)      {}
func (Nop) OnFileAdded(JobView)             {}
func (Nop) OnJobStart(JobView)              {}
func (Nop) OnJobProgress(JobView)           {}
func (Nop) OnJobComplete(JobView)           {}
func (Nop) OnScanComplete(WalkStats)        {}
func (Nop) OnQueueComplete(Summary)         {}
func (Nop) OnStateChange(Snapshot)          {}

var _ Observer = Nop{}
