package pool

import (
	"time"

	"github.com/backmassage/transcode-driver/internal/observer"
)

type jobState string

const (
	jobPending   jobState = "pending"
	jobRunning   jobState = "running"
	jobCompleted jobState = "completed"
	jobFailed    jobState = "failed"
	jobCancelled jobState = "cancelled"
)

// job is the pool's private record of one unit of work. Observers never see
// this type directly, only its observer.JobView projection — the pool does
// not keep job records after completion (see Pool's UI-memory design note),
// so view() is only ever called while a job is pending, active, or in the
// middle of its completion transition.
type job struct {
	id          string
	source      string
	target      string
	sourceBytes int64
	state       jobState
	percent     int
	currentS    float64
	startedAt   time.Time
	errorText   string
	outputSize  int64
}

func (j *job) view() observer.JobView {
	var durationS float64
	if !j.startedAt.IsZero() {
		durationS = time.Since(j.startedAt).Seconds()
	}
	return observer.JobView{
		ID:         j.id,
		Source:     j.source,
		Target:     j.target,
		State:      string(j.state),
		Percent:    j.percent,
		DurationS:  durationS,
		CurrentS:   j.currentS,
		ErrorText:  j.errorText,
		OutputSize: j.outputSize,
	}
}
