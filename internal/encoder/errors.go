package encoder

import (
	"strconv"
	"strings"
)

// ErrorKind classifies a non-zero encoder exit by matching its diagnostic
// output against a fixed, priority-ordered set of substrings. Checked in
// order; the first match wins.
type ErrorKind string

const (
	ErrInputNotFound    ErrorKind = "input_not_found"
	ErrPermissionDenied ErrorKind = "permission_denied"
	ErrInvalidInput     ErrorKind = "invalid_input"
	ErrDiskFull         ErrorKind = "disk_full"
	ErrCodecUnavailable ErrorKind = "codec_unavailable"
)

var classifiers = []struct {
	substr string
	kind   ErrorKind
}{
	{"no such file or directory", ErrInputNotFound},
	{"permission denied", ErrPermissionDenied},
	{"invalid data found", ErrInvalidInput},
	{"no space left on device", ErrDiskFull},
	{"unknown encoder", ErrCodecUnavailable},
}

// classify returns the error text to record in the ledger and the job
// result: a recognized kind, or "encoder_exit_<code>" when nothing matches.
func classify(diagnostic string, exitCode int) string {
	lower := strings.ToLower(diagnostic)
	for _, c := range classifiers {
		if strings.Contains(lower, c.substr) {
			return string(c.kind)
		}
	}
	return "encoder_exit_" + strconv.Itoa(exitCode)
}
