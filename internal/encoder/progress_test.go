package encoder

import "testing"

func TestParseDuration(t *testing.T) {
	p := &progressState{}
	ok := p.parseDuration(`  Duration: 00:01:30.50, start: 0.000000, bitrate: 128 kb/s`)
	if !ok {
		t.Fatal("expected parseDuration to match")
	}
	if p.durationS != 90.5 {
		t.Errorf("durationS = %v, want 90.5", p.durationS)
	}

	// A second duration line is ignored once cached.
	ok = p.parseDuration(`Duration: 00:10:00.00`)
	if ok {
		t.Error("expected second parseDuration call to be a no-op")
	}
	if p.durationS != 90.5 {
		t.Errorf("durationS changed to %v after second call", p.durationS)
	}
}

func TestParseProgress_OutTimeMsPreferred(t *testing.T) {
	p := &progressState{}
	cur, ok := p.parseProgress("out_time_ms=45000000")
	if !ok {
		t.Fatal("expected parseProgress to match out_time_ms")
	}
	if cur != 45 {
		t.Errorf("currentS = %v, want 45 (45000000 / 1_000_000)", cur)
	}
}

func TestParseProgress_TimeFallback(t *testing.T) {
	p := &progressState{}
	cur, ok := p.parseProgress("time=00:00:45.00 bitrate=32.0kbits/s")
	if !ok {
		t.Fatal("expected parseProgress to match time=")
	}
	if cur != 45 {
		t.Errorf("currentS = %v, want 45", cur)
	}
}

func TestParseProgress_NoMatch(t *testing.T) {
	p := &progressState{}
	if _, ok := p.parseProgress("frame=  100 fps= 25"); ok {
		t.Error("expected no match on a line without time info")
	}
}

func TestPercent(t *testing.T) {
	p := &progressState{}
	if got := p.percent(10); got != 0 {
		t.Errorf("percent before duration known = %d, want 0", got)
	}
	p.parseDuration("Duration: 00:01:00.00")
	if got := p.percent(30); got != 50 {
		t.Errorf("percent(30) of 60s = %d, want 50", got)
	}
	if got := p.percent(1000); got != 100 {
		t.Errorf("percent should clamp to 100, got %d", got)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		diag string
		want string
	}{
		{"No such file or directory", string(ErrInputNotFound)},
		{"Permission denied", string(ErrPermissionDenied)},
		{"Invalid data found when processing input", string(ErrInvalidInput)},
		{"No space left on device", string(ErrDiskFull)},
		{"Unknown encoder 'libfoo'", string(ErrCodecUnavailable)},
		{"some unrecognized failure", "encoder_exit_1"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := classify(tt.diag, 1)
			if got != tt.want {
				t.Errorf("classify(%q) = %q, want %q", tt.diag, got, tt.want)
			}
		})
	}
}

func TestBuild_ArgumentShape(t *testing.T) {
	settings := defaultSettingsForTest()
	args := build(settings, "/in/a.mp4", "/in/a.mp3")
	want := []string{
		"-i", "/in/a.mp4",
		"-vn",
		"-ar", "16000",
		"-ac", "1",
		"-b:a", "32k",
		"-acodec", "libmp3lame",
		"-progress", "pipe:2",
		"-y", "/in/a.mp3",
	}
	if len(args) != len(want) {
		t.Fatalf("len(args) = %d, want %d: %v", len(args), len(want), args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("args[%d] = %q, want %q", i, args[i], want[i])
		}
	}
}
