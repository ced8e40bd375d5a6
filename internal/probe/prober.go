package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/adriarlol/MiniMarker/internal/fault"
)

// ErrNoDuration is wrapped by Duration when the file reports no usable
// positive duration.
var ErrNoDuration = errors.New("no positive duration reported")

// Prober runs ffprobe. Bin defaults to "ffprobe" on PATH.
type Prober struct {
	Bin string
}

func (p Prober) bin() string {
	if p.Bin == "" {
		return "ffprobe"
	}
	return p.Bin
}

// Probe runs one ffprobe JSON call against path. A binary that cannot be
// started yields a spawn error; a non-zero exit or unparsable output yields
// a probe error.
func (p Prober) Probe(ctx context.Context, path string) (*Result, error) {
	cmd := exec.CommandContext(ctx, p.bin(),
		"-v", "error",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				msg = exitErr.Error()
			}
			return nil, fault.Probe(path, errors.New(msg))
		}
		if ctx.Err() != nil {
			return nil, fault.Probe(path, ctx.Err())
		}
		return nil, fault.Spawn(p.bin(), err)
	}

	res, err := ParseJSON(out)
	if err != nil {
		return nil, fault.Probe(path, err)
	}
	return res, nil
}

// Duration returns the media duration in seconds. The container duration is
// preferred; the primary video stream's is used when the container has
// none. Zero, negative, or missing durations are probe errors for path.
func (r *Result) Duration(path string) (float64, error) {
	d := r.Format.Duration
	if !usable(d) && r.Video != nil {
		d = r.Video.Duration
	}
	if !usable(d) {
		return 0, fault.Probe(path, ErrNoDuration)
	}
	return d, nil
}

func usable(d float64) bool {
	return !math.IsNaN(d) && !math.IsInf(d, 0) && d > 0
}

// ParseJSON converts raw ffprobe JSON output into a Result.
// Exported for testing without a real ffprobe binary.
func ParseJSON(data []byte) (*Result, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse ffprobe JSON: %w", err)
	}
	return buildResult(&raw), nil
}

// --- ffprobe JSON wire types ---

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Filename   string `json:"filename"`
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	BitRate    string `json:"bit_rate"`
}

type ffprobeStream struct {
	Index        int            `json:"index"`
	CodecName    string         `json:"codec_name"`
	CodecType    string         `json:"codec_type"`
	Width        int            `json:"width"`
	Height       int            `json:"height"`
	Duration     string         `json:"duration"`
	AvgFrameRate string         `json:"avg_frame_rate"`
	Disposition  map[string]int `json:"disposition"`
}

// --- Conversion from wire types to domain types ---

func buildResult(raw *ffprobeOutput) *Result {
	r := &Result{
		Format: FormatInfo{
			Filename:   raw.Format.Filename,
			FormatName: raw.Format.FormatName,
			Duration:   parseFloat(raw.Format.Duration),
			BitRate:    parseInt64(raw.Format.BitRate),
		},
	}
	for i := range raw.Streams {
		s := &raw.Streams[i]
		switch s.CodecType {
		case "video":
			if s.Disposition["attached_pic"] == 1 || r.Video != nil {
				continue
			}
			r.Video = &VideoStream{
				Index:        s.Index,
				Codec:        s.CodecName,
				Width:        s.Width,
				Height:       s.Height,
				Duration:     parseFloat(s.Duration),
				AvgFrameRate: s.AvgFrameRate,
			}
		case "audio":
			r.AudioCount++
		}
	}
	return r
}

// --- Numeric parsing helpers (ffprobe returns numbers as strings) ---

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n
}

// parseFloat returns NaN for empty or malformed input so that a missing
// duration is never mistaken for zero-length media.
func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
