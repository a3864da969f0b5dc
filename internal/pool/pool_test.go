package pool

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/backmassage/transcode-driver/internal/config"
	"github.com/backmassage/transcode-driver/internal/ledger"
	"github.com/backmassage/transcode-driver/internal/observer"
)

type fakeLog struct{}

func (fakeLog) Warn(string, ...interface{})          {}
func (fakeLog) Error(string, ...interface{})         {}
func (fakeLog) Debug(bool, string, ...interface{})   {}

func openTestLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	l, err := ledger.Open(filepath.Join(t.TempDir(), "pool.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func testConfig(concurrency int) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Concurrency = concurrency
	cfg.Encoder.BinaryPath = "/nonexistent/ffmpeg-for-pool-tests"
	return &cfg
}

// slowEncoderBinary writes a shell script that succeeds on "-version", and
// for a real invocation sleeps for sleepSeconds, writes a small output to
// its last argument (the target path), and exits 0 — long enough-running
// that a test can observe the pool's active set while jobs are genuinely
// in flight, rather than every job having already finished.
func slowEncoderBinary(t *testing.T, sleepSeconds int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "slow-encoder.sh")
	script := "#!/bin/sh\n" +
		"if [ \"$1\" = \"-version\" ]; then exit 0; fi\n" +
		"sleep " + strconv.Itoa(sleepSeconds) + "\n" +
		"target=\"\"\n" +
		"for a in \"$@\"; do target=\"$a\"; done\n" +
		"echo done > \"$target\"\n" +
		"exit 0\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func testConfigSlow(t *testing.T, concurrency, sleepSeconds int) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Concurrency = concurrency
	cfg.Encoder.BinaryPath = slowEncoderBinary(t, sleepSeconds)
	return &cfg
}

// TestPool_EmptyScanCompletesImmediately covers the "nothing to do" path:
// no files are ever added and the scan finishes at once.
func TestPool_EmptyScanCompletesImmediately(t *testing.T) {
	led := openTestLedger(t)
	p := New(testConfig(2), led, observer.Nop{}, fakeLog{})
	summaryCh := p.Start(context.Background())

	p.MarkScanComplete()

	select {
	case summary := <-summaryCh:
		if summary.TotalAdded != 0 || summary.Completed != 0 {
			t.Errorf("summary = %+v, want all zero", summary)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pool never completed")
	}
}

// TestPool_FailedJobsAreCountedAndLedgered runs real jobs against a
// deliberately missing encoder binary, so every job fails fast and
// deterministically without touching a real ffmpeg.
func TestPool_FailedJobsAreCountedAndLedgered(t *testing.T) {
	led := openTestLedger(t)
	p := New(testConfig(2), led, observer.Nop{}, fakeLog{})
	summaryCh := p.Start(context.Background())

	dir := t.TempDir()
	p.Add(filepath.Join(dir, "a.mp4"), filepath.Join(dir, "a.mp3"), 100)
	p.Add(filepath.Join(dir, "b.mp4"), filepath.Join(dir, "b.mp3"), 200)
	p.MarkScanComplete()

	select {
	case summary := <-summaryCh:
		if summary.TotalAdded != 2 {
			t.Errorf("TotalAdded = %d, want 2", summary.TotalAdded)
		}
		if summary.Failed != 2 {
			t.Errorf("Failed = %d, want 2 (missing encoder binary)", summary.Failed)
		}
		if summary.Completed != 0 {
			t.Errorf("Completed = %d, want 0", summary.Completed)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pool never completed")
	}

	rec, err := led.Get(filepath.Join(dir, "a.mp4"))
	if err != nil {
		t.Fatal(err)
	}
	if rec == nil || rec.State != ledger.StateFailed {
		t.Errorf("ledger record = %+v, want state=failed", rec)
	}
}

// TestPool_GracefulShutdownDropsPending adds more jobs than the
// concurrency limit, requests a graceful shutdown immediately, and expects
// the never-started jobs to be counted as cancelled while the queue still
// reaches completion.
func TestPool_GracefulShutdownDropsPending(t *testing.T) {
	led := openTestLedger(t)
	p := New(testConfig(1), led, observer.Nop{}, fakeLog{})
	summaryCh := p.Start(context.Background())

	dir := t.TempDir()
	for i := 0; i < 5; i++ {
		name := filepath.Join(dir, string(rune('a'+i))+".mp4")
		p.Add(name, name+".mp3", 10)
	}
	p.MarkScanComplete()
	p.RequestGracefulShutdown()

	select {
	case summary := <-summaryCh:
		if summary.TotalAdded != 5 {
			t.Errorf("TotalAdded = %d, want 5", summary.TotalAdded)
		}
		if summary.Completed+summary.Failed+summary.Cancelled != 5 {
			t.Errorf("completed+failed+cancelled = %d, want 5",
				summary.Completed+summary.Failed+summary.Cancelled)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pool never completed")
	}
}

// TestPool_ImmediateShutdownCancelsEverything requests immediate shutdown
// before the single slow job (missing-binary failure is near-instant, so
// this mostly exercises that a request issued with zero running jobs still
// completes cleanly and drops the pending queue as cancelled).
func TestPool_ImmediateShutdownCancelsEverything(t *testing.T) {
	led := openTestLedger(t)
	p := New(testConfig(1), led, observer.Nop{}, fakeLog{})
	summaryCh := p.Start(context.Background())

	dir := t.TempDir()
	p.Add(filepath.Join(dir, "a.mp4"), filepath.Join(dir, "a.mp3"), 10)
	p.RequestImmediateShutdown()
	p.MarkScanComplete()

	select {
	case summary := <-summaryCh:
		if summary.Cancelled+summary.Failed+summary.Completed != summary.TotalAdded {
			t.Errorf("summary = %+v, counts don't add up", summary)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pool never completed")
	}
}

// TestPool_SnapshotSafeDuringRun exercises Snapshot concurrently with a
// live run to catch data races under -race.
func TestPool_SnapshotSafeDuringRun(t *testing.T) {
	led := openTestLedger(t)
	p := New(testConfig(3), led, observer.Nop{}, fakeLog{})
	summaryCh := p.Start(context.Background())

	dir := t.TempDir()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			_ = p.Snapshot()
			time.Sleep(time.Millisecond)
		}
	}()

	for i := 0; i < 10; i++ {
		name := filepath.Join(dir, string(rune('a'+i))+".mp4")
		p.Add(name, name+".mp3", 10)
	}
	p.MarkScanComplete()

	<-done
	select {
	case <-summaryCh:
	case <-time.After(5 * time.Second):
		t.Fatal("pool never completed")
	}
}

// TestPool_BoundedConcurrencyAgainstRealRunningJobs adds more jobs than the
// concurrency limit against a slow (but real, genuinely-running) encoder
// and samples Snapshot().Active while they run: it must never exceed the
// configured concurrency, and it must at some point exceed 1, proving jobs
// actually run in parallel rather than being serialized.
func TestPool_BoundedConcurrencyAgainstRealRunningJobs(t *testing.T) {
	const concurrency = 3
	led := openTestLedger(t)
	p := New(testConfigSlow(t, concurrency, 2), led, observer.Nop{}, fakeLog{})
	summaryCh := p.Start(context.Background())

	dir := t.TempDir()
	for i := 0; i < 8; i++ {
		name := filepath.Join(dir, string(rune('a'+i))+".mp4")
		p.Add(name, name+".mp3", 10)
	}
	p.MarkScanComplete()

	maxActive := 0
	sampling := make(chan struct{})
	go func() {
		defer close(sampling)
		for i := 0; i < 300; i++ {
			active := p.Snapshot().Active
			if active > maxActive {
				maxActive = active
			}
			if active > concurrency {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}()
	<-sampling

	select {
	case summary := <-summaryCh:
		if summary.Completed != 8 {
			t.Errorf("Completed = %d, want 8", summary.Completed)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("pool never completed")
	}

	if maxActive > concurrency {
		t.Errorf("observed active = %d, exceeds configured concurrency %d", maxActive, concurrency)
	}
	if maxActive <= 1 {
		t.Errorf("observed active never rose above %d; jobs ran serially instead of concurrently", maxActive)
	}
}

// TestPool_GracefulShutdownDrainsRunningJobsToCompletion requests a
// graceful shutdown while jobs are genuinely in flight against a slow
// encoder: the jobs already running must still finish and be counted as
// Completed, while jobs never started are dropped as Cancelled.
func TestPool_GracefulShutdownDrainsRunningJobsToCompletion(t *testing.T) {
	const concurrency = 2
	led := openTestLedger(t)
	p := New(testConfigSlow(t, concurrency, 1), led, observer.Nop{}, fakeLog{})
	summaryCh := p.Start(context.Background())

	dir := t.TempDir()
	for i := 0; i < 6; i++ {
		name := filepath.Join(dir, string(rune('a'+i))+".mp4")
		p.Add(name, name+".mp3", 10)
	}
	p.MarkScanComplete()

	// Give the scheduler a moment to dispatch the first wave before
	// requesting the drain, so this actually exercises "let running jobs
	// finish" rather than racing the graceful shutdown against dispatch.
	time.Sleep(200 * time.Millisecond)
	p.RequestGracefulShutdown()

	select {
	case summary := <-summaryCh:
		if summary.Completed < concurrency {
			t.Errorf("Completed = %d, want at least %d (the already-running wave should drain)",
				summary.Completed, concurrency)
		}
		if summary.Completed+summary.Failed+summary.Cancelled != summary.TotalAdded {
			t.Errorf("completed+failed+cancelled = %d, want %d",
				summary.Completed+summary.Failed+summary.Cancelled, summary.TotalAdded)
		}
		if summary.Cancelled == 0 {
			t.Error("Cancelled = 0, want the still-pending jobs to have been dropped")
		}
	case <-time.After(10 * time.Second):
		t.Fatal("pool never completed")
	}
}
