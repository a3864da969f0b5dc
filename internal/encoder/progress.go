package encoder

import (
	"regexp"
	"strconv"
)

// Compiled once; checked against every stderr line from the encoder's
// -progress pipe:2 diagnostic stream.
var (
	reDuration  = regexp.MustCompile(`Duration: (\d+):(\d{2}):(\d{2})\.(\d{2})`)
	reOutTimeMs = regexp.MustCompile(`out_time_ms=(-?\d+)`)
	reTime      = regexp.MustCompile(`time=(\d+):(\d{2}):(\d{2})\.(\d{2})`)
)

// progressState tracks the per-job parsing state across stream lines.
type progressState struct {
	durationS   float64
	haveDuration bool
}

// parseDuration extracts "Duration: HH:MM:SS.cc" and caches it. Returns
// false if line doesn't carry a duration or one is already cached.
func (p *progressState) parseDuration(line string) bool {
	if p.haveDuration {
		return false
	}
	m := reDuration.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	p.durationS = hmscToSeconds(m[1], m[2], m[3], m[4])
	p.haveDuration = true
	return true
}

// parseProgress extracts the current playback position from line, preferring
// out_time_ms (the encoder's -progress protocol reports microseconds under
// this field name despite the name; dividing by 1_000_000 is intentional —
// see the design notes on this idiosyncrasy) and falling back to time=.
// Returns (currentS, ok).
func (p *progressState) parseProgress(line string) (float64, bool) {
	if m := reOutTimeMs.FindStringSubmatch(line); m != nil {
		us, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil || us < 0 {
			return 0, false
		}
		return float64(us) / 1_000_000, true
	}
	if m := reTime.FindStringSubmatch(line); m != nil {
		return hmscToSeconds(m[1], m[2], m[3], m[4]), true
	}
	return 0, false
}

// percent computes the clamped completion percentage given the cached
// duration, or 0 if duration hasn't been parsed yet.
func (p *progressState) percent(currentS float64) int {
	if !p.haveDuration || p.durationS <= 0 {
		return 0
	}
	pct := int(100 * currentS / p.durationS)
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return pct
}

func hmscToSeconds(h, m, s, cc string) float64 {
	hh, _ := strconv.Atoi(h)
	mm, _ := strconv.Atoi(m)
	ss, _ := strconv.Atoi(s)
	cs, _ := strconv.Atoi(cc)
	return float64(hh*3600+mm*60+ss) + float64(cs)/100
}
