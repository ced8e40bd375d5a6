package planner

import (
	"errors"
	"math"
)

// BufferFactor inflates the raw bitrate to leave headroom for rate-control
// undershoot on short clips.
const BufferFactor = 1.05

// ErrInvalidDuration is returned for zero, negative, or non-finite durations.
var ErrInvalidDuration = errors.New("duration must be a positive number of seconds")

// TargetBytes converts a megabyte budget (1 MB = 1024*1024 bytes) to bytes,
// truncating any fraction of a byte.
func TargetBytes(mb float64) int64 {
	return int64(mb * 1024 * 1024)
}

// EstimateBitrate returns the raw bitrate that would exactly fill
// targetBytes over duration seconds, and the applied bitrate
// floor(raw*BufferFactor).
func EstimateBitrate(targetBytes int64, duration float64) (raw float64, applied int64, err error) {
	if math.IsNaN(duration) || math.IsInf(duration, 0) || duration <= 0 {
		return 0, 0, ErrInvalidDuration
	}
	raw = float64(targetBytes) * 8 / duration
	return raw, int64(math.Floor(raw * BufferFactor)), nil
}

// EstimateOutputSize predicts the byte size of an encode at bitrate over
// duration seconds. Used for dry-run reporting.
func EstimateOutputSize(bitrate int64, duration float64) int64 {
	if duration <= 0 || bitrate <= 0 {
		return 0
	}
	return int64(float64(bitrate) * duration / 8)
}
