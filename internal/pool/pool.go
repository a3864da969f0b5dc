// Package pool implements the bounded-concurrency work pool that consumes
// the walker's discovered files, supervises one encoder child per job, and
// drives the two-level shutdown protocol. A single scheduler goroutine owns
// the pending queue and the active-job map; a mutex guards only the slice
// of fields a concurrent Snapshot() call may read, generalizing
// weizsw-fusionn-muse/internal/queue/queue.go's single-worker,
// ctx/cancel-gated loop into an N-wide scheduler with explicit paused and
// draining states the teacher's retry-only queue never needed.
package pool

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/backmassage/transcode-driver/internal/config"
	"github.com/backmassage/transcode-driver/internal/encoder"
	"github.com/backmassage/transcode-driver/internal/ledger"
	"github.com/backmassage/transcode-driver/internal/observer"
)

// Logger is the narrow logging surface the pool needs; *logging.Logger
// satisfies it.
type Logger interface {
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	Debug(verbose bool, format string, args ...interface{})
}

type poolState int

const (
	stateFresh poolState = iota
	stateRunning
	statePaused
	stateDraining
	stateTerminated
)

type controlKind int

const (
	ctrlAdd controlKind = iota
	ctrlJobDone
	ctrlScanComplete
	ctrlGracefulShutdown
	ctrlImmediateShutdown
	ctrlPause
	ctrlResume
	ctrlCancel
)

type controlMsg struct {
	kind        controlKind
	source      string
	target      string
	sourceBytes int64
	jobID       string
	result      encoder.Result
}

// Pool is the bounded-concurrency scheduler. Construct with New, then Start
// it and feed it via Add/MarkScanComplete/the two shutdown requests.
type Pool struct {
	cfg *config.Config
	led *ledger.Ledger
	obs observer.Observer
	log Logger

	ctx    context.Context
	cancel context.CancelFunc

	ctrl chan controlMsg
	wg   sync.WaitGroup

	summaryCh chan observer.Summary

	mu      sync.Mutex // guards pending/active/counters against Snapshot readers
	pending []*job
	active  map[string]*job

	totalAdded       int
	completed        int
	failed           int
	cancelled        int
	totalOutputBytes int64

	scanComplete bool
	shuttingDown bool
	immediate    bool
	state        poolState
	startTime    time.Time
	summarySent  bool
}

// New constructs a Pool in the fresh state. Call Start to begin scheduling.
func New(cfg *config.Config, led *ledger.Ledger, obs observer.Observer, log Logger) *Pool {
	return &Pool{
		cfg:       cfg,
		led:       led,
		obs:       obs,
		log:       log,
		ctrl:      make(chan controlMsg, 256),
		summaryCh: make(chan observer.Summary, 1),
		active:    make(map[string]*job),
		state:     stateFresh,
	}
}

// Start enters the running state and spawns the scheduler goroutine. The
// returned channel receives exactly one Summary when the pool terminates.
// ctx is the parent for every job's encoder invocation; cancelling it kills
// every running encoder child, but on its own it does not drop pending
// jobs, delete partial outputs, or count the killed jobs as cancelled (they
// finish as failed). RequestImmediateShutdown does all of that.
func (p *Pool) Start(ctx context.Context) <-chan observer.Summary {
	p.ctx, p.cancel = context.WithCancel(ctx)
	p.state = stateRunning
	p.startTime = time.Now()
	p.wg.Add(1)
	go p.run()
	return p.summaryCh
}

// Add enqueues a new job for source -> target and triggers dispatch.
func (p *Pool) Add(source, target string, sourceBytes int64) {
	p.ctrl <- controlMsg{kind: ctrlAdd, source: source, target: target, sourceBytes: sourceBytes}
}

// MarkScanComplete tells the pool its producer is done. The controller is
// responsible for emitting the observer's OnScanComplete callback itself
// (it already holds the walker's final WalkStats); the pool only needs the
// boolean signal to know when an empty queue means "done" rather than
// "waiting for more".
func (p *Pool) MarkScanComplete() {
	p.ctrl <- controlMsg{kind: ctrlScanComplete}
}

// RequestGracefulShutdown drops the pending queue and lets running jobs
// finish, then completes.
func (p *Pool) RequestGracefulShutdown() {
	p.ctrl <- controlMsg{kind: ctrlGracefulShutdown}
}

// RequestImmediateShutdown drops the pending queue, kills every running
// child, deletes their partial outputs, and completes without waiting.
func (p *Pool) RequestImmediateShutdown() {
	p.ctrl <- controlMsg{kind: ctrlImmediateShutdown}
}

// Pause stops new dispatch without touching jobs already running.
func (p *Pool) Pause() { p.ctrl <- controlMsg{kind: ctrlPause} }

// Resume leaves the paused state and resumes dispatch.
func (p *Pool) Resume() { p.ctrl <- controlMsg{kind: ctrlResume} }

// Cancel best-effort cancels one job, pending or running.
func (p *Pool) Cancel(jobID string) {
	p.ctrl <- controlMsg{kind: ctrlCancel, jobID: jobID}
}

// Snapshot returns a point-in-time read of the pool's counters. Safe to
// call from any goroutine; never carries a per-job array (see the design
// notes on bounding UI memory — the UI keeps its own sliding window).
func (p *Pool) Snapshot() observer.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return observer.Snapshot{
		Active:           len(p.active),
		Pending:          len(p.pending),
		Completed:        p.completed,
		Failed:           p.failed,
		Cancelled:        p.cancelled,
		TotalOutputBytes: p.totalOutputBytes,
	}
}

// run is the single scheduler goroutine. Every mutation of pending/active/
// scanComplete/shuttingDown happens here; concurrent callers only ever read
// via Snapshot, which takes its own lock.
func (p *Pool) run() {
	defer p.wg.Done()
	for msg := range p.ctrl {
		switch msg.kind {
		case ctrlAdd:
			p.handleAdd(msg.source, msg.target, msg.sourceBytes)
		case ctrlJobDone:
			p.handleJobDone(msg.jobID, msg.result)
		case ctrlScanComplete:
			p.scanComplete = true
			p.scheduleLoop()
		case ctrlGracefulShutdown:
			p.handleGracefulShutdown()
		case ctrlImmediateShutdown:
			p.handleImmediateShutdown()
		case ctrlPause:
			if p.state == stateRunning {
				p.state = statePaused
			}
		case ctrlResume:
			if p.state == statePaused {
				p.state = stateRunning
			}
			p.scheduleLoop()
		case ctrlCancel:
			p.handleCancel(msg.jobID)
		}
		if p.summarySent {
			// Stray messages may still arrive from job goroutines whose
			// child exited right as an immediate shutdown killed it; the
			// ctrl channel's buffer (256) comfortably absorbs them without
			// blocking the sender, so it's safe to stop servicing here.
			return
		}
	}
}

func (p *Pool) handleAdd(source, target string, sourceBytes int64) {
	p.totalAdded++
	if p.shuttingDown {
		p.mu.Lock()
		p.cancelled++
		p.mu.Unlock()
		return
	}

	j := &job{id: uuid.NewString(), source: source, target: target, sourceBytes: sourceBytes, state: jobPending}
	p.mu.Lock()
	p.pending = append(p.pending, j)
	p.mu.Unlock()

	p.obs.OnFileAdded(j.view())
	p.scheduleLoop()
}

func (p *Pool) handleGracefulShutdown() {
	p.shuttingDown = true
	p.state = stateDraining
	p.mu.Lock()
	dropped := len(p.pending)
	p.pending = nil
	p.cancelled += dropped
	p.mu.Unlock()
	p.scheduleLoop()
}

func (p *Pool) handleImmediateShutdown() {
	p.shuttingDown = true
	p.immediate = true
	p.mu.Lock()
	dropped := len(p.pending)
	p.pending = nil
	p.cancelled += dropped
	p.mu.Unlock()
	p.scheduleLoop()
}

func (p *Pool) handleCancel(jobID string) {
	p.mu.Lock()
	for i, j := range p.pending {
		if j.id == jobID {
			p.pending = append(p.pending[:i:i], p.pending[i+1:]...)
			p.cancelled++
			p.mu.Unlock()
			return
		}
	}
	_, isActive := p.active[jobID]
	p.mu.Unlock()
	if isActive {
		encoder.Kill(jobID)
	}
}

func (p *Pool) handleJobDone(jobID string, result encoder.Result) {
	p.mu.Lock()
	j, ok := p.active[jobID]
	if ok {
		delete(p.active, jobID)
	}
	p.mu.Unlock()
	if !ok {
		// Already cleared by an immediate shutdown; tolerate the race
		// between the kill and the child's own exit.
		return
	}

	switch {
	case p.shuttingDown && p.immediate:
		j.state = jobCancelled
		p.mu.Lock()
		p.cancelled++
		p.mu.Unlock()
		// Ledger record intentionally stays in "processing" state so a
		// later run, --verify, or --cleanup can act on it.
	case result.Success:
		j.state = jobCompleted
		j.outputSize = result.OutputBytes
		p.mu.Lock()
		p.completed++
		p.totalOutputBytes += result.OutputBytes
		p.mu.Unlock()
		if err := p.led.Complete(j.source, result.OutputBytes); err != nil {
			p.log.Error("ledger complete failed for %s: %v", j.source, err)
		}
	default:
		j.state = jobFailed
		j.errorText = result.ErrorText
		p.mu.Lock()
		p.failed++
		p.mu.Unlock()
		if err := p.led.Fail(j.source, result.ErrorText); err != nil {
			p.log.Error("ledger fail failed for %s: %v", j.source, err)
		}
	}

	// Re-enter the scheduling loop before the observer callbacks so the
	// next job is already spawning while the UI updates.
	p.scheduleLoop()

	p.obs.OnJobComplete(j.view())
	p.obs.OnStateChange(p.Snapshot())
}

// scheduleLoop implements the steady-state scheduling decision, invoked
// after every state change.
func (p *Pool) scheduleLoop() {
	p.mu.Lock()
	pendingEmpty := len(p.pending) == 0
	activeEmpty := len(p.active) == 0
	p.mu.Unlock()

	if pendingEmpty && activeEmpty {
		if p.scanComplete || p.shuttingDown {
			p.complete()
		}
		return
	}

	if p.shuttingDown {
		if p.immediate && !activeEmpty {
			p.killAllImmediate()
			p.complete()
		}
		return // graceful drain: wait for running jobs, enqueue nothing new.
	}

	for {
		if p.state == statePaused {
			return
		}
		p.mu.Lock()
		if len(p.active) >= p.cfg.Concurrency || len(p.pending) == 0 {
			p.mu.Unlock()
			return
		}
		j := p.pending[0]
		p.pending = p.pending[1:]
		p.mu.Unlock()
		p.startJob(j)
	}
}

func (p *Pool) startJob(j *job) {
	j.state = jobRunning
	j.startedAt = time.Now()
	p.mu.Lock()
	p.active[j.id] = j
	p.mu.Unlock()

	if err := p.led.Start(j.source, j.target, j.sourceBytes); err != nil {
		p.log.Error("ledger start failed for %s: %v", j.source, err)
	}
	p.obs.OnJobStart(j.view())

	go func() {
		onProgress := func(percent int, currentS float64) {
			p.mu.Lock()
			j.percent = percent
			j.currentS = currentS
			p.mu.Unlock()
			p.obs.OnJobProgress(j.view())
		}
		result := encoder.Run(p.ctx, j.id, j.source, j.target, p.cfg.Encoder, p.cfg.Verbose, onProgress)
		p.ctrl <- controlMsg{kind: ctrlJobDone, jobID: j.id, result: result}
	}()
}

func (p *Pool) killAllImmediate() {
	_, err := encoder.KillAll(true)
	if err != nil {
		p.log.Error("cleanup of partial outputs failed: %v", err)
	}
	p.mu.Lock()
	p.cancelled += len(p.active)
	p.active = make(map[string]*job)
	p.mu.Unlock()
	p.cancel()
}

func (p *Pool) complete() {
	if p.summarySent {
		return
	}
	p.summarySent = true
	p.state = stateTerminated

	summary := observer.Summary{
		TotalAdded:       p.totalAdded,
		Completed:        p.completed,
		Failed:           p.failed,
		Cancelled:        p.cancelled,
		TotalTime:        time.Since(p.startTime).Seconds(),
		TotalOutputBytes: p.totalOutputBytes,
	}
	p.obs.OnQueueComplete(summary)
	p.summaryCh <- summary
}
