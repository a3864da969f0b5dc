// Package ui implements the default terminal [observer.Observer]: a single
// aggregate progress bar plus a bounded window of recent job detail for the
// end-of-run failure report.
//
// Grounded on greysquirr3l-emil/internal/manager/manager.go's
// progressbar.NewOptions(...)+.Add(1) pattern: one bar sized to the batch,
// incremented once per finished job, rather than a bar per concurrent job.
package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/backmassage/transcode-driver/internal/display"
	"github.com/backmassage/transcode-driver/internal/observer"
	"github.com/backmassage/transcode-driver/internal/term"
)

// Terminal is the default Observer used when no other UI is wired in.
type Terminal struct {
	mu  sync.Mutex
	bar *progressbar.ProgressBar
	win *window
}

// NewTerminal returns a Terminal with no bar yet; the bar is created lazily
// on the first discovered file and sized once the walk finishes.
func NewTerminal() *Terminal {
	return &Terminal{win: newWindow()}
}

var _ observer.Observer = (*Terminal)(nil)

func (t *Terminal) OnDirectory(string) {}

func (t *Terminal) OnWalkError(path, message string) {
	fmt.Fprintf(os.Stderr, "%s[scan error]%s %s: %s\n", term.Yellow, term.NC, path, message)
}

func (t *Terminal) OnFileAdded(job observer.JobView) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ensureBar()
	t.win.touch(job)
}

func (t *Terminal) OnJobStart(job observer.JobView) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.win.touch(job)
}

func (t *Terminal) OnJobProgress(job observer.JobView) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.win.touch(job)
}

func (t *Terminal) OnJobComplete(job observer.JobView) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.win.touch(job)
	t.ensureBar()
	t.bar.Add(1)
	if job.State == "failed" {
		fmt.Fprintf(os.Stderr, "\n%s[failed]%s %s: %s\n", term.Red, term.NC, filepath.Base(job.Source), job.ErrorText)
	}
}

func (t *Terminal) OnScanComplete(stats observer.WalkStats) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ensureBar()
	t.bar.ChangeMax(stats.ToProcess)
}

func (t *Terminal) OnQueueComplete(summary observer.Summary) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.bar != nil {
		t.bar.Finish()
	}
	fmt.Println()
	fmt.Printf("%sdone%s: %d completed, %d failed, %d cancelled (output %s, %.1fs)\n",
		term.Green, term.NC, summary.Completed, summary.Failed, summary.Cancelled,
		display.FormatBytes(summary.TotalOutputBytes), summary.TotalTime)

	failed := t.win.failed()
	if len(failed) == 0 {
		return
	}
	fmt.Printf("%sfailures:%s\n", term.Red, term.NC)
	for _, f := range failed {
		fmt.Printf("  %s: %s\n", filepath.Base(f.Source), f.ErrorText)
	}
}

func (t *Terminal) OnStateChange(observer.Snapshot) {}

func (t *Terminal) ensureBar() {
	if t.bar != nil {
		return
	}
	t.bar = progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("extracting audio"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
