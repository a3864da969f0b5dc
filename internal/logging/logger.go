// Package logging wraps zap with the driver's leveled API: Info, Success,
// Warn, Error, Render, Outlier, and Debug. Colors and TTY detection are
// delegated to internal/term; Success/Render/Outlier carry zap's InfoLevel
// for filtering purposes but are tagged and colored distinctly, the way the
// teacher's hand-rolled logger colored its own seven text tags.
package logging

import (
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/backmassage/transcode-driver/internal/config"
	"github.com/backmassage/transcode-driver/internal/term"
)

// Logger provides leveled, optionally colored logging with an optional file
// sink, built on top of two independent zap.Logger instances: one for the
// colored console, one for the plain-text file (when configured).
type Logger struct {
	mu      sync.Mutex
	console *zap.Logger
	file    *zap.Logger
	fh      *os.File
}

// NewLogger configures package-level ANSI colors via [term.Configure], then
// builds a console logger that tees INFO/WARN/DEBUG to stdout and ERROR to
// stderr, plus a plain file logger when cfg.LogFile is set.
func NewLogger(cfg *config.Config) (*Logger, error) {
	term.Configure(cfg.ColorMode)

	encCfg := zapcore.EncoderConfig{
		TimeKey:    "time",
		MessageKey: "msg",
		EncodeTime: timeEncoder,
	}
	consoleEnc := zapcore.NewConsoleEncoder(encCfg)

	belowError := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool { return lvl < zapcore.ErrorLevel })
	atOrAboveError := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool { return lvl >= zapcore.ErrorLevel })

	consoleCore := zapcore.NewTee(
		zapcore.NewCore(consoleEnc, zapcore.AddSync(term.Writer(os.Stdout)), belowError),
		zapcore.NewCore(consoleEnc, zapcore.AddSync(term.Writer(os.Stderr)), atOrAboveError),
	)

	l := &Logger{console: zap.New(consoleCore)}

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		l.fh = f
		fileCore := zapcore.NewCore(consoleEnc, zapcore.AddSync(f), zapcore.DebugLevel)
		l.file = zap.New(fileCore)
	}
	return l, nil
}

func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05"))
}

// Close flushes and closes the log file, if one was opened.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fh == nil {
		return nil
	}
	err := multierr.Append(l.file.Sync(), l.fh.Close())
	l.fh = nil
	l.file = nil
	return err
}

func (l *Logger) emit(zapLevel zapcore.Level, tag, color, text string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	colored := text
	if color != "" {
		colored = color + "[" + tag + "]" + term.NC + " " + text
	} else {
		colored = "[" + tag + "] " + text
	}
	logAt(l.console, zapLevel, colored)

	if l.file != nil {
		logAt(l.file, zapLevel, "["+tag+"] "+text)
	}
}

func logAt(log *zap.Logger, lvl zapcore.Level, msg string) {
	switch lvl {
	case zapcore.DebugLevel:
		log.Debug(msg)
	case zapcore.WarnLevel:
		log.Warn(msg)
	case zapcore.ErrorLevel:
		log.Error(msg)
	default:
		log.Info(msg)
	}
}

// Info logs at INFO level (blue).
func (l *Logger) Info(format string, args ...interface{}) {
	l.emit(zapcore.InfoLevel, "INFO", term.Blue, fmt.Sprintf(format, args...))
}

// Success logs a successful-outcome line (green). Carries zap's InfoLevel.
func (l *Logger) Success(format string, args ...interface{}) {
	l.emit(zapcore.InfoLevel, "SUCCESS", term.Green, fmt.Sprintf(format, args...))
}

// Warn logs at WARN level (yellow).
func (l *Logger) Warn(format string, args ...interface{}) {
	l.emit(zapcore.WarnLevel, "WARN", term.Yellow, fmt.Sprintf(format, args...))
}

// Error logs at ERROR level (red), routed to stderr.
func (l *Logger) Error(format string, args ...interface{}) {
	l.emit(zapcore.ErrorLevel, "ERROR", term.Red, fmt.Sprintf(format, args...))
}

// Render logs a progress/summary line (magenta). Carries zap's InfoLevel.
func (l *Logger) Render(format string, args ...interface{}) {
	l.emit(zapcore.InfoLevel, "RENDER", term.Magenta, fmt.Sprintf(format, args...))
}

// Outlier logs an anomalous-but-recoverable condition (orange). Carries
// zap's InfoLevel.
func (l *Logger) Outlier(format string, args ...interface{}) {
	l.emit(zapcore.InfoLevel, "OUTLIER", term.Orange, fmt.Sprintf(format, args...))
}

// Debug logs at DEBUG level (cyan) only when verbose; no-op otherwise.
func (l *Logger) Debug(verbose bool, format string, args ...interface{}) {
	if !verbose {
		return
	}
	l.emit(zapcore.DebugLevel, "DEBUG", term.Cyan, fmt.Sprintf(format, args...))
}
