package ffmpeg

import (
	"regexp"
	"strconv"
	"time"
)

// reProgress matches the elapsed media time in ffmpeg's periodic stats line,
// e.g. "frame=  240 fps= 60 ... time=00:00:08.00 bitrate=...".
var reProgress = regexp.MustCompile(`time=(\d{2}):(\d{2}):(\d{2})\.(\d{2})`)

// Pre-compiled regexes for explaining common ffmpeg failures in error
// messages. Checked in order by [Diagnose]; the first match wins.
var (
	reMissingEncoder = regexp.MustCompile(`(?i)Unknown encoder|Encoder \S+ not found`)
	reInvalidInput   = regexp.MustCompile(`(?i)Invalid data found when processing input|moov atom not found|does not contain any stream`)
	reMissingInput   = regexp.MustCompile(`(?i)No such file or directory`)
	rePassLog        = regexp.MustCompile(`(?i)ratecontrol_init.*failed|Error reading log file|stats file`)
	reNoSpace        = regexp.MustCompile(`(?i)No space left on device`)
)

// ParseProgress extracts the elapsed media time from a stats line.
func ParseProgress(line string) (time.Duration, bool) {
	m := reProgress.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	mi, _ := strconv.Atoi(m[2])
	s, _ := strconv.Atoi(m[3])
	cs, _ := strconv.Atoi(m[4])
	return time.Duration(h)*time.Hour +
		time.Duration(mi)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(cs)*10*time.Millisecond, true
}

// Diagnose returns a short human-readable cause for well-known failure
// output, or "" when none matches.
func Diagnose(output string) string {
	switch {
	case reMissingEncoder.MatchString(output):
		return "ffmpeg lacks the libx264 encoder"
	case reInvalidInput.MatchString(output):
		return "input is not a readable video"
	case reMissingInput.MatchString(output):
		return "input or output path does not exist"
	case rePassLog.MatchString(output):
		return "pass-1 statistics missing or unreadable"
	case reNoSpace.MatchString(output):
		return "no space left on device"
	}
	return ""
}
