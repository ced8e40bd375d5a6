package imaging

import (
	"context"
	"image"

	"github.com/adriarlol/MiniMarker/internal/fault"
	"github.com/adriarlol/MiniMarker/internal/geometry"
)

// Job describes one image compression.
type Job struct {
	Source string
	Dest   string
	Policy geometry.Policy
	Budget int64
	Params Params
}

// Result reports what Compress wrote.
type Result struct {
	Quality      int
	Size         int64
	Trials       []Trial
	Original     geometry.Size
	Output       geometry.Size
	WithinBudget bool
}

// Compress decodes job.Source, applies the resize policy once, and runs the
// quality search writing to job.Dest. When the floor is reached without
// meeting the budget the floor-quality output is kept and WithinBudget is
// false.
func Compress(ctx context.Context, codec Codec, job Job) (Result, error) {
	img, err := codec.Open(job.Source)
	if err != nil {
		return Result{}, err
	}
	orig := geometry.Size{W: img.Bounds().Dx(), H: img.Bounds().Dy()}

	layout, err := geometry.Plan(orig, job.Policy)
	if err != nil {
		return Result{}, fault.Codec("plan", job.Source, err)
	}
	switch {
	case layout.Resize:
		img = codec.Resize(img, layout.Source, layout.Output())
	case layout.Source != image.Rect(0, 0, orig.W, orig.H):
		img = codec.Crop(img, layout.Source)
	}

	trials, err := Search(ctx, job.Params, job.Budget, func(q int) (int64, error) {
		return codec.Save(img, job.Dest, q)
	})
	if err != nil {
		return Result{Trials: trials, Original: orig}, err
	}
	last := trials[len(trials)-1]
	return Result{
		Quality:      last.Quality,
		Size:         last.Size,
		Trials:       trials,
		Original:     orig,
		Output:       layout.Output(),
		WithinBudget: last.Size <= job.Budget,
	}, nil
}
