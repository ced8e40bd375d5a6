package planner

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/adriarlol/MiniMarker/internal/fault"
	"github.com/adriarlol/MiniMarker/internal/geometry"
)

func TestTargetBytes(t *testing.T) {
	tests := []struct {
		mb   float64
		want int64
	}{
		{5, 5 * 1024 * 1024},
		{1, 1048576},
		{0.5, 524288},
		{2.25, 2359296},
		{0, 0},
	}
	for _, tt := range tests {
		if got := TargetBytes(tt.mb); got != tt.want {
			t.Errorf("TargetBytes(%v) = %d, want %d", tt.mb, got, tt.want)
		}
	}
}

func TestEstimateBitrate(t *testing.T) {
	tests := []struct {
		name     string
		target   int64
		duration float64
		wantRaw  float64
		wantApp  int64
	}{
		{"ten seconds one megabyte", 1000000, 10, 800000, 840000},
		{"five MiB over a minute", 5 * 1024 * 1024, 60, 699050.6666666666, 734003},
		{"fractional buffer", 1001, 8, 1001, 1051},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, applied, err := EstimateBitrate(tt.target, tt.duration)
			if err != nil {
				t.Fatalf("EstimateBitrate() error = %v", err)
			}
			if math.Abs(raw-tt.wantRaw) > 1e-6 {
				t.Errorf("raw = %v, want %v", raw, tt.wantRaw)
			}
			if applied != tt.wantApp {
				t.Errorf("applied = %d, want %d", applied, tt.wantApp)
			}
		})
	}
}

func TestEstimateBitrate_InvalidDuration(t *testing.T) {
	for _, d := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, applied, err := EstimateBitrate(1000, d); !errors.Is(err, ErrInvalidDuration) || applied != 0 {
			t.Errorf("EstimateBitrate(d=%v) = %d, %v; want ErrInvalidDuration", d, applied, err)
		}
	}
}

func TestBuildPlan(t *testing.T) {
	scale := geometry.Size{W: 1920, H: 1080}
	tests := []struct {
		name        string
		orig        int64
		target      int64
		duration    float64
		wantAction  Action
		wantBitrate int64
		wantKind    fault.Kind
	}{
		{"encode", 50000000, 1000000, 10, ActionEncode, 840000, fault.KindUnknown},
		{"smaller relays", 900000, 1000000, 10, ActionRelay, 0, fault.KindUnknown},
		{"equal relays", 1000000, 1000000, 10, ActionRelay, 0, fault.KindUnknown},
		{"relay ignores bad duration", 10, 1000000, 0, ActionRelay, 0, fault.KindUnknown},
		{"zero duration", 50000000, 1000000, 0, 0, 0, fault.KindProbe},
		{"NaN duration", 50000000, 1000000, math.NaN(), 0, 0, fault.KindProbe},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := BuildPlan("clip.mp4", tt.orig, tt.target, tt.duration, scale)
			if tt.wantKind != fault.KindUnknown {
				if fault.KindOf(err) != tt.wantKind {
					t.Fatalf("BuildPlan() error = %v, want kind %v", err, tt.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildPlan() error = %v", err)
			}
			if plan.Action != tt.wantAction {
				t.Errorf("Action = %v, want %v", plan.Action, tt.wantAction)
			}
			if plan.Bitrate != tt.wantBitrate {
				t.Errorf("Bitrate = %d, want %d", plan.Bitrate, tt.wantBitrate)
			}
			if plan.Skip() {
				if plan.SkipReason == "" || plan.VideoFilters != "" {
					t.Errorf("relay plan = %+v, want reason and no filters", plan)
				}
			} else if plan.VideoFilters != "scale=1920:1080" {
				t.Errorf("VideoFilters = %q, want scale=1920:1080", plan.VideoFilters)
			}
		})
	}
}

func TestBuildVideoFilter(t *testing.T) {
	if got := BuildVideoFilter(geometry.Size{}); got != "" {
		t.Errorf("BuildVideoFilter(none) = %q, want empty", got)
	}
	if got := BuildVideoFilter(geometry.Size{W: 1280, H: 720}); got != "scale=1280:720" {
		t.Errorf("BuildVideoFilter(1280x720) = %q", got)
	}
}

func TestEstimateOutputSize(t *testing.T) {
	if got := EstimateOutputSize(840000, 10); got != 1050000 {
		t.Errorf("EstimateOutputSize() = %d, want 1050000", got)
	}
	if got := EstimateOutputSize(0, 10); got != 0 {
		t.Errorf("EstimateOutputSize(0) = %d, want 0", got)
	}
	if !strings.Contains(ActionRelay.String(), "relay") {
		t.Errorf("ActionRelay.String() = %q", ActionRelay.String())
	}
}
