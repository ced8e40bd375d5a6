// Package ffmpeg builds and runs the two-pass H.264 encode that brings a
// video down to a target bitrate.
//
// Layout:
//   - builder.go: argument slice for one pass (shared skeleton, pass-specific sink)
//   - executor.go: spawn one ffmpeg process and stream its merged output as Events
//   - errors.go: progress and failure-line classification
//   - twopass.go: Encoder, which runs pass 1 then pass 2 and maps failures to
//     fault kinds
package ffmpeg
