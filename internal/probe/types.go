package probe

import "strconv"

// FormatInfo holds container-level metadata from ffprobe's format section.
// Duration is NaN when ffprobe did not report a parsable value.
type FormatInfo struct {
	Filename   string
	FormatName string
	Duration   float64
	BitRate    int64
}

// VideoStream holds the parsed properties of the primary video stream.
type VideoStream struct {
	Index        int
	Codec        string
	Width        int
	Height       int
	Duration     float64
	AvgFrameRate string
}

// Result is the parsed output of a single ffprobe JSON call.
// Video is the first non-attached-pic video stream (nil if none).
type Result struct {
	Format     FormatInfo
	Video      *VideoStream
	AudioCount int
}

// Resolution returns "WxH" for the primary video stream, or "unknown".
func (r *Result) Resolution() string {
	if r.Video == nil || r.Video.Width <= 0 || r.Video.Height <= 0 {
		return "unknown"
	}
	return strconv.Itoa(r.Video.Width) + "x" + strconv.Itoa(r.Video.Height)
}
