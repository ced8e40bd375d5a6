package planner

import (
	"fmt"

	"github.com/adriarlol/MiniMarker/internal/geometry"
)

// BuildVideoFilter returns the ffmpeg -vf chain for the encode path: a plain
// scale to the configured output size. Returns "" when scaling is disabled.
func BuildVideoFilter(scale geometry.Size) string {
	if scale.IsZero() {
		return ""
	}
	return fmt.Sprintf("scale=%d:%d", scale.W, scale.H)
}
