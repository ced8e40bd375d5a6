// Package pipeline is the batch driver: it resolves the input path into
// media items, assigns each a collision-free destination and pass-log
// prefix, runs them on a worker pool (image quality search, video relay or
// two-pass encode), journals outcomes for --resume, and writes the batch
// summary and report.
//
// Files:
//   - discover.go: non-recursive listing and extension classification
//   - runner.go:   Run, per-item dispatch, summary logging
//   - item.go:     image and video processing for one item
//   - relay.go:    byte-identical hand-over of files already within budget
//   - report.go:   report.yaml
//   - stats.go:    aggregate counters
package pipeline
