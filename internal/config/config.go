// Package config holds runtime configuration: defaults, CLI flag parsing,
// an optional viper-backed file/env overlay, and validation.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

const (
	MinConcurrency = 1
	MaxConcurrency = 25
	MinScanners    = 1
	MaxScanners    = 20

	DefaultConcurrency = 10
	DefaultScanners    = 5

	// LedgerFileName is the ledger's fixed filename, always resolved relative
	// to the input root.
	LedgerFileName = ".ffmpeg-processor.db"
)

// EncoderSettings configures the audio-extraction invocation.
type EncoderSettings struct {
	BinaryPath string // Resolved via exec.LookPath unless set. Default: "ffmpeg".
	SampleRate int    // Default: 16000 Hz.
	Channels   int    // Default: 1 (mono).
	Bitrate    string // Default: "32k".
	Codec      string // Default: "libmp3lame".
}

// Config holds all runtime settings. It is populated by [DefaultConfig],
// optionally overlaid by a config file via [LoadOverlay], and then mutated
// by [ParseFlags] before being passed (by pointer) to packages that need it.
type Config struct {
	// Paths.
	InputRoot string

	// Walk and scheduling behavior.
	Recursive   bool
	Concurrency int // Worker pool size, clamped to [MinConcurrency, MaxConcurrency].
	Scanners    int // Walker directory concurrency, clamped to [MinScanners, MaxScanners].

	// Modes.
	DryRun  bool
	Verbose bool
	Verify  bool
	Cleanup bool

	Encoder EncoderSettings

	// ProbeBinaryPath is the sibling inspection binary validated alongside
	// Encoder.BinaryPath at startup. Resolved via exec.LookPath unless set.
	// Default: "ffprobe". Never invoked outside Preflight.
	ProbeBinaryPath string

	// Display and logging.
	ColorMode ColorMode
	LogFile   string
	ConfigFile string
}

// DefaultConfig returns a Config with the driver's documented defaults.
func DefaultConfig() Config {
	return Config{
		Recursive:   false,
		Concurrency: DefaultConcurrency,
		Scanners:    DefaultScanners,
		Encoder: EncoderSettings{
			BinaryPath: "ffmpeg",
			SampleRate: 16000,
			Channels:   1,
			Bitrate:    "32k",
			Codec:      "libmp3lame",
		},
		ProbeBinaryPath: "ffprobe",
		ColorMode:       ColorAuto,
	}
}

// LedgerPath returns the fixed ledger file location for this input root.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.InputRoot, LedgerFileName)
}

// Validate clamps numeric fields to their documented ranges and requires
// InputRoot to be set.
func (c *Config) Validate() error {
	if c.InputRoot == "" {
		return errors.New("input root is required (-i/--input)")
	}
	c.Concurrency = clamp(c.Concurrency, MinConcurrency, MaxConcurrency)
	c.Scanners = clamp(c.Scanners, MinScanners, MaxScanners)

	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return fmt.Errorf("invalid color mode %q (use 'auto', 'always', or 'never')", c.ColorMode)
	}

	if c.Encoder.SampleRate <= 0 {
		return errors.New("encoder sample rate must be positive")
	}
	if c.Encoder.Channels <= 0 {
		return errors.New("encoder channel count must be positive")
	}
	if c.Encoder.Codec == "" {
		return errors.New("encoder codec must not be empty")
	}
	return nil
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
