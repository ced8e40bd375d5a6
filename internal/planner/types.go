package planner

import "github.com/adriarlol/MiniMarker/internal/geometry"

// Action describes the per-file processing decision.
type Action int

const (
	ActionEncode Action = iota
	ActionRelay         // Source already fits; hand it over byte-identical.
)

func (a Action) String() string {
	if a == ActionRelay {
		return "relay"
	}
	return "encode"
}

// EncodePlan holds the decisions for one video. Bitrate fields are zero for
// ActionRelay.
type EncodePlan struct {
	Action     Action
	SkipReason string

	OriginalSize int64 // Source bytes.
	TargetSize   int64 // Budget bytes.
	Duration     float64

	RawBitrate float64 // target*8/duration, bits per second.
	Bitrate    int64   // Applied bitrate passed to -b:v.

	Scale        geometry.Size
	VideoFilters string // comma-joined filter chain (may be empty)
}

// Skip reports whether no encoder run is needed.
func (p *EncodePlan) Skip() bool { return p.Action == ActionRelay }
