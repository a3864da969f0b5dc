// Package display formats byte counts and the startup banner for the
// terminal UI and the leveled logger.
package display

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// FormatBytes returns a human-readable size (e.g. "1.2 GiB").
func FormatBytes(bytes int64) string {
	if bytes < 0 {
		return "-" + humanize.IBytes(uint64(-bytes))
	}
	return humanize.IBytes(uint64(bytes))
}

// FormatBytesWithSign prefixes with + or - for delta display (e.g. "+ 1.2 GiB").
func FormatBytesWithSign(bytes int64) string {
	switch {
	case bytes > 0:
		return "+ " + humanize.IBytes(uint64(bytes))
	case bytes < 0:
		return "- " + humanize.IBytes(uint64(-bytes))
	default:
		return humanize.IBytes(0)
	}
}

// FormatRate returns a human-readable transfer-rate style string for
// elapsed/total throughput displays (e.g. "3.4 MB/s").
func FormatRate(bytesPerSecond float64) string {
	return fmt.Sprintf("%s/s", humanize.Bytes(uint64(bytesPerSecond)))
}
