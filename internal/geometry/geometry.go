package geometry

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"
)

// Size is a pixel width and height. The zero Size means "unset".
type Size struct {
	W int
	H int
}

// IsZero reports whether s is unset.
func (s Size) IsZero() bool { return s.W == 0 && s.H == 0 }

func (s Size) String() string {
	if s.IsZero() {
		return "none"
	}
	return fmt.Sprintf("%dx%d", s.W, s.H)
}

// ParseSize parses "WIDTHxHEIGHT" (case-insensitive separator). The literal
// "none" yields the zero Size.
func ParseSize(s string) (Size, error) {
	raw := strings.ToLower(strings.TrimSpace(s))
	if raw == "none" || raw == "" {
		return Size{}, nil
	}
	ws, hs, ok := strings.Cut(raw, "x")
	if !ok {
		return Size{}, fmt.Errorf("invalid size %q (use WIDTHxHEIGHT, e.g. 1920x1080)", s)
	}
	w, errW := strconv.Atoi(ws)
	h, errH := strconv.Atoi(hs)
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return Size{}, fmt.Errorf("invalid size %q (dimensions must be positive integers)", s)
	}
	return Size{W: w, H: h}, nil
}

// Mode selects how a target size is interpreted.
type Mode int

const (
	ModeFreeFit     Mode = iota // Bounds are maxima; aspect preserved.
	ModeFixedAspect             // Bounds are exact; excess is cropped.
)

func (m Mode) String() string {
	if m == ModeFixedAspect {
		return "fixed"
	}
	return "fit"
}

// Policy is a resize mode plus its target dimensions.
type Policy struct {
	Mode   Mode
	Target Size
}

// FixedAspect returns a policy producing exactly w×h.
func FixedAspect(w, h int) Policy { return Policy{Mode: ModeFixedAspect, Target: Size{w, h}} }

// FreeFit returns a policy bounded by maxW×maxH.
func FreeFit(maxW, maxH int) Policy { return Policy{Mode: ModeFreeFit, Target: Size{maxW, maxH}} }

func (p Policy) String() string { return p.Mode.String() + ":" + p.Target.String() }

// Layout is the outcome of planning one image.
//
// Scaled is the size the source is resampled to. Crop is the region of the
// scaled image kept in the output; it equals the full scaled bounds unless
// the policy is FixedAspect and the aspect ratios differ. Source is the
// region of the original image that ends up inside Crop, so callers can
// resample it straight to Output without materializing Scaled. Resize is
// false when Scaled equals the original size.
type Layout struct {
	Scaled Size
	Crop   image.Rectangle
	Source image.Rectangle
	Resize bool
}

// Output returns the final output dimensions.
func (l Layout) Output() Size { return Size{W: l.Crop.Dx(), H: l.Crop.Dy()} }

// ErrInvalidDimensions is returned for non-positive sizes.
var ErrInvalidDimensions = errors.New("dimensions must be positive")

// Plan computes the layout of an orig-sized image under p.
func Plan(orig Size, p Policy) (Layout, error) {
	if orig.W <= 0 || orig.H <= 0 {
		return Layout{}, fmt.Errorf("source %s: %w", orig, ErrInvalidDimensions)
	}
	if p.Target.W <= 0 || p.Target.H <= 0 {
		return Layout{}, fmt.Errorf("target %s: %w", p.Target, ErrInvalidDimensions)
	}
	switch p.Mode {
	case ModeFixedAspect:
		return planFixed(orig, p.Target), nil
	default:
		return planFit(orig, p.Target), nil
	}
}

// planFixed compares aspect ratios exactly with cross-multiplication so that
// 1920x1080 and 3840x2160 are never treated as different due to rounding.
func planFixed(orig, target Size) Layout {
	ow, oh := int64(orig.W), int64(orig.H)
	tw, th := int64(target.W), int64(target.H)

	scaled := target
	crop := image.Rect(0, 0, target.W, target.H)
	switch {
	case ow*th > oh*tw:
		// Wider than target: match height, trim the sides.
		scaled = Size{W: int(ow * th / oh), H: target.H}
		x0 := (scaled.W - target.W) / 2
		crop = image.Rect(x0, 0, x0+target.W, target.H)
	case ow*th < oh*tw:
		// Taller than target: match width, trim top and bottom.
		scaled = Size{W: target.W, H: int(oh * tw / ow)}
		y0 := (scaled.H - target.H) / 2
		crop = image.Rect(0, y0, target.W, y0+target.H)
	}
	return Layout{
		Scaled: scaled,
		Crop:   crop,
		Source: sourceRegion(orig, scaled, crop),
		Resize: scaled != orig,
	}
}

// sourceRegion maps crop from scaled coordinates back onto the original,
// widening to whole pixels. The result is never empty.
func sourceRegion(orig, scaled Size, crop image.Rectangle) image.Rectangle {
	x0, x1 := mapSpan(crop.Min.X, crop.Max.X, orig.W, scaled.W)
	y0, y1 := mapSpan(crop.Min.Y, crop.Max.Y, orig.H, scaled.H)
	return image.Rect(x0, y0, x1, y1)
}

func mapSpan(lo, hi, orig, scaled int) (int, int) {
	o, s := int64(orig), int64(scaled)
	a := int(int64(lo) * o / s)
	b := int((int64(hi)*o + s - 1) / s)
	b = min(max(b, a+1), orig)
	a = min(a, b-1)
	return a, b
}

func planFit(orig, bound Size) Layout {
	ratio := math.Min(float64(bound.W)/float64(orig.W), float64(bound.H)/float64(orig.H))
	ratio = math.Min(ratio, 1.0)

	scaled := Size{
		W: max(1, int(float64(orig.W)*ratio)),
		H: max(1, int(float64(orig.H)*ratio)),
	}
	return Layout{
		Scaled: scaled,
		Crop:   image.Rect(0, 0, scaled.W, scaled.H),
		Source: image.Rect(0, 0, orig.W, orig.H),
		Resize: scaled != orig,
	}
}
