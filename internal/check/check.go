// Package check provides pre-pipeline preflight validation: the encoder
// binary and its sibling probe binary must both exist and run, and the
// input root must exist and be a directory. Whether the directory can be
// read is not checked here.
package check

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/backmassage/transcode-driver/internal/config"
)

// Sentinel errors returned by Preflight when a required dependency or path
// is missing or unusable.
var (
	ErrEncoderNotFound = errors.New("encoder binary not found")
	ErrEncoderFailed   = errors.New("encoder binary did not run successfully")
	ErrProbeNotFound   = errors.New("probe binary not found")
	ErrProbeFailed     = errors.New("probe binary did not run successfully")
	ErrInputNotFound   = errors.New("input root does not exist")
	ErrInputNotDir     = errors.New("input root is not a directory")
)

// Logger is the minimal logging interface needed by Preflight. Defined here
// rather than importing the logging package so check stays dependency-light
// and testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
}

// Preflight resolves the encoder binary and verifies it runs, then does the
// same for the probe binary, then verifies the input root exists and is a
// directory. Returns a sentinel error (one of the Err* values above,
// wrapped with context) on the first failure.
func Preflight(cfg *config.Config, log Logger) error {
	binPath, err := resolveBinary(cfg.Encoder.BinaryPath)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrEncoderNotFound, cfg.Encoder.BinaryPath)
	}
	log.Info("encoder binary: %s", binPath)

	if !runSilent(binPath, "-version") {
		return fmt.Errorf("%w: %s -version exited non-zero", ErrEncoderFailed, binPath)
	}
	log.Success("encoder binary is runnable")

	probePath, err := resolveBinary(cfg.ProbeBinaryPath)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrProbeNotFound, cfg.ProbeBinaryPath)
	}
	log.Info("probe binary: %s", probePath)

	if !runSilent(probePath, "-version") {
		return fmt.Errorf("%w: %s -version exited non-zero", ErrProbeFailed, probePath)
	}
	log.Success("probe binary is runnable")

	info, err := os.Stat(cfg.InputRoot)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInputNotFound, cfg.InputRoot)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrInputNotDir, cfg.InputRoot)
	}
	log.Success("input root: %s", cfg.InputRoot)
	return nil
}

// resolveBinary accepts the configured value when exec.LookPath resolves it
// (a bare name is searched on the executable search path, a path with a
// separator is checked directly), or else when it names an existing
// non-directory file. Shared by the encoder and probe binary checks.
func resolveBinary(configured string) (string, error) {
	if configured == "" {
		return "", errors.New("binary path not configured")
	}
	if _, err := exec.LookPath(configured); err == nil {
		return configured, nil
	}
	if info, err := os.Stat(configured); err == nil && !info.IsDir() {
		return configured, nil
	}
	return "", fmt.Errorf("cannot resolve %q on PATH or as a file", configured)
}

// runSilent runs a command and returns true if it exits with status 0.
// Both stdout and stderr are discarded.
func runSilent(name string, args ...string) bool {
	cmd := exec.Command(name, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd.Run() == nil
}
