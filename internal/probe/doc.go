// Package probe inspects video files with ffprobe. A single JSON call per
// file yields container and stream metadata. The duration, validated by
// [Result.Duration], drives the bitrate estimator; the rest is logged.
package probe
