// Package naming derives per-item output paths and pass-log prefixes and
// keeps them unique within a run.
//
// Two sources that differ only by extension (clip.avi, clip.mkv) both map to
// clip.mp4 and log_clip; the CollisionResolver hands the second one a
// " - dupN" variant so concurrent items never share an output or a pass-1
// statistics file.
package naming
