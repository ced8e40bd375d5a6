package ffmpeg

import (
	"os"
	"strconv"
)

// Pass describes one ffmpeg invocation of a two-pass encode. Pass 1 writes
// to Sink = os.DevNull and only produces the statistics file under
// LogPrefix; pass 2 reads those statistics and writes the real output.
type Pass struct {
	Number    int // 1 or 2
	Source    string
	Sink      string
	Bitrate   int64
	Filters   string // -vf chain; empty for none
	LogPrefix string
}

// videoCodec is fixed; output is always H.264 in MP4.
const videoCodec = "libx264"

// BuildPassArgs constructs the ffmpeg argument slice (without the binary
// name) for p. Both passes share the same skeleton so that pass 2 reuses
// pass-1 statistics for an identical filter graph and rate target.
func BuildPassArgs(p Pass) []string {
	args := make([]string, 0, 24)

	// --- Preamble ---
	args = append(args, "-hide_banner", "-nostdin", "-y")

	// --- Input ---
	args = append(args, "-i", p.Source)

	// --- Video filter chain ---
	if p.Filters != "" {
		args = append(args, "-vf", p.Filters)
	}

	// --- Video codec and rate ---
	args = append(args,
		"-c:v", videoCodec,
		"-b:v", strconv.FormatInt(p.Bitrate, 10),
		"-pass", strconv.Itoa(p.Number),
		"-passlogfile", p.LogPrefix,
	)

	// --- Audio is always dropped ---
	args = append(args, "-an")

	// --- Output ---
	if p.Number == 1 {
		sink := p.Sink
		if sink == "" {
			sink = os.DevNull
		}
		return append(args, "-f", "mp4", sink)
	}
	return append(args, "-movflags", "+faststart", p.Sink)
}
