package encoder

import (
	"strconv"

	"github.com/backmassage/transcode-driver/internal/config"
)

// build constructs the fixed audio-extraction argument vector for one
// source/target pair. Unlike the teacher's codec-specific skeleton
// (internal/ffmpeg/builder.go), this shape never branches on plan state:
// the driver extracts audio the same way for every job.
func build(settings config.EncoderSettings, source, target string) []string {
	return []string{
		"-i", source,
		"-vn",
		"-ar", strconv.Itoa(settings.SampleRate),
		"-ac", strconv.Itoa(settings.Channels),
		"-b:a", settings.Bitrate,
		"-acodec", settings.Codec,
		"-progress", "pipe:2",
		"-y", target,
	}
}
