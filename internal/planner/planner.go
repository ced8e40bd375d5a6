package planner

import (
	"fmt"

	"github.com/adriarlol/MiniMarker/internal/display"
	"github.com/adriarlol/MiniMarker/internal/fault"
	"github.com/adriarlol/MiniMarker/internal/geometry"
)

// Decide returns ActionRelay when the source already fits the budget. It
// needs no probe, so callers should consult it before probing.
func Decide(originalSize, targetBytes int64) Action {
	if originalSize <= targetBytes {
		return ActionRelay
	}
	return ActionEncode
}

// BuildPlan produces the EncodePlan for one video.
//
// Flow:
//  1. Relay when the source already fits (duration is ignored)
//  2. Validate duration; unusable durations are probe errors
//  3. Derive raw and applied bitrate
//  4. Build the scale filter
func BuildPlan(path string, originalSize, targetBytes int64, duration float64, scale geometry.Size) (*EncodePlan, error) {
	plan := &EncodePlan{
		OriginalSize: originalSize,
		TargetSize:   targetBytes,
		Scale:        scale,
	}

	if Decide(originalSize, targetBytes) == ActionRelay {
		plan.Action = ActionRelay
		plan.SkipReason = fmt.Sprintf("already within target (%s <= %s)",
			display.FormatBytes(originalSize), display.FormatBytes(targetBytes))
		return plan, nil
	}

	raw, applied, err := EstimateBitrate(targetBytes, duration)
	if err != nil {
		return nil, fault.New(fault.KindProbe, "estimate bitrate", path, fmt.Errorf("%w (got %v)", err, duration))
	}

	plan.Action = ActionEncode
	plan.Duration = duration
	plan.RawBitrate = raw
	plan.Bitrate = applied
	plan.VideoFilters = BuildVideoFilter(scale)
	return plan, nil
}
