// Package encoder supervises the audio-extraction child process: argument
// construction, stderr-stream progress parsing, exit classification, and a
// process-global registry that lets the pool kill every live child on
// shutdown without being plumbed through each job. Stream draining via
// cmd.StderrPipe() plus a line-scanning goroutine generalizes
// weizsw-fusionn-muse/internal/executor/helper.go's StreamDimmed.
package encoder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"go.uber.org/multierr"

	"github.com/backmassage/transcode-driver/internal/config"
)

// Result is the outcome of one run() call.
type Result struct {
	Success     bool
	OutputBytes int64
	ErrorText   string
}

// OnProgress is invoked from the stderr-draining goroutine; implementations
// must not block, since further progress lines wait behind each call.
type OnProgress func(percent int, currentS float64)

type liveChild struct {
	cmd    *exec.Cmd
	target string
}

var (
	registryMu sync.Mutex
	registry   = map[string]*liveChild{} // keyed by job id
)

// Run spawns the encoder child for one job, streams its diagnostic output
// for progress, and returns a classified Result. verbose forwards the raw
// diagnostic stream to the parent's stderr as it arrives.
func Run(ctx context.Context, jobID, source, target string, settings config.EncoderSettings, verbose bool, onProgress OnProgress) Result {
	binPath := settings.BinaryPath
	if binPath == "" {
		binPath = "ffmpeg"
	}
	if _, err := exec.LookPath(binPath); err != nil {
		if info, statErr := os.Stat(binPath); statErr != nil || info.IsDir() {
			return Result{ErrorText: fmt.Sprintf("spawn error: %v", err)}
		}
	}

	args := build(settings, source, target)
	cmd := exec.CommandContext(ctx, binPath, args...)

	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return Result{ErrorText: fmt.Sprintf("spawn error: %v", err)}
	}

	if err := cmd.Start(); err != nil {
		return Result{ErrorText: fmt.Sprintf("spawn error: %v", err)}
	}

	register(jobID, cmd, target)
	defer deregister(jobID)

	diagnostic := drainProgress(stderrPipe, verbose, onProgress)

	waitErr := cmd.Wait()
	if waitErr == nil {
		size := statSize(target)
		return Result{Success: true, OutputBytes: size}
	}

	exitCode := exitCodeOf(waitErr)
	return Result{ErrorText: classify(diagnostic, exitCode)}
}

// drainProgress reads stderr line by line, feeding duration/progress
// parsers and onProgress, optionally tee-ing to the process's own stderr,
// and returns the full captured text for exit classification.
func drainProgress(r io.Reader, verbose bool, onProgress OnProgress) string {
	var captured []byte
	state := &progressState{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		captured = append(captured, line...)
		captured = append(captured, '\n')

		if verbose {
			fmt.Fprintln(os.Stderr, line)
		}

		state.parseDuration(line)
		if cur, ok := state.parseProgress(line); ok && onProgress != nil {
			onProgress(state.percent(cur), cur)
		}
	}
	return string(captured)
}

func register(jobID string, cmd *exec.Cmd, target string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[jobID] = &liveChild{cmd: cmd, target: target}
}

func deregister(jobID string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, jobID)
}

// Kill signals the specific child for orderly termination. Returns whether
// a child was found; tolerates the child having already exited on its own.
func Kill(jobID string) bool {
	registryMu.Lock()
	child, ok := registry[jobID]
	registryMu.Unlock()
	if !ok || child.cmd.Process == nil {
		return false
	}
	// SIGTERM lets the encoder exit in order; where the platform cannot
	// deliver it, fall back to a hard kill.
	if err := child.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		_ = child.cmd.Process.Kill()
	}
	return true
}

// KillAll hard-kills every registered child. When cleanupOutputs is set, it
// also deletes each registered target path on a best-effort basis and
// returns the list of successfully deleted paths. Deletion errors across
// multiple targets are joined rather than logged one-by-one.
func KillAll(cleanupOutputs bool) ([]string, error) {
	registryMu.Lock()
	children := make([]*liveChild, 0, len(registry))
	for _, c := range registry {
		children = append(children, c)
	}
	registryMu.Unlock()

	var deleted []string
	var errs error
	for _, c := range children {
		if c.cmd.Process != nil {
			_ = c.cmd.Process.Kill()
		}
		if cleanupOutputs {
			if err := os.Remove(c.target); err != nil && !os.IsNotExist(err) {
				errs = multierr.Append(errs, err)
			} else if err == nil {
				deleted = append(deleted, c.target)
			}
		}
	}
	return deleted, errs
}

// ActiveCount returns the number of live children.
func ActiveCount() int {
	registryMu.Lock()
	defer registryMu.Unlock()
	return len(registry)
}

func statSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

func exitCodeOf(err error) int {
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return -1
}
