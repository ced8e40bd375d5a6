package naming

import (
	"path/filepath"
	"strings"
)

// VideoExt is the container extension of encoded videos.
const VideoExt = ".mp4"

// Stem returns the base name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ImageOutputPath keeps the source file name; the encoder is chosen from
// its extension.
func ImageOutputPath(source, outputDir string) string {
	return filepath.Join(outputDir, filepath.Base(source))
}

// VideoOutputPath returns <outputDir>/<stem>.mp4 for an encode. A relayed
// source keeps its own extension since its bytes are unchanged.
func VideoOutputPath(source, outputDir string, relay bool) string {
	if relay {
		return filepath.Join(outputDir, filepath.Base(source))
	}
	return filepath.Join(outputDir, Stem(source)+VideoExt)
}

// LogPrefix returns <logDir>/log_<stem>, the -passlogfile prefix for source.
func LogPrefix(source, logDir string) string {
	return filepath.Join(logDir, "log_"+Stem(source))
}
