package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"github.com/adriarlol/MiniMarker/internal/display"
	"github.com/adriarlol/MiniMarker/internal/fault"
	"github.com/adriarlol/MiniMarker/internal/ffmpeg"
	"github.com/adriarlol/MiniMarker/internal/geometry"
	"github.com/adriarlol/MiniMarker/internal/imaging"
	"github.com/adriarlol/MiniMarker/internal/journal"
	"github.com/adriarlol/MiniMarker/internal/logging"
	"github.com/adriarlol/MiniMarker/internal/planner"
	"github.com/adriarlol/MiniMarker/internal/probe"
)

// processImage resizes one image per the batch policy and searches for the
// highest quality that fits the budget.
func (r *runner) processImage(ctx context.Context, it item) Outcome {
	log := r.log
	log.Info("  -> %s", filepath.Base(it.dest))

	if r.cfg.DryRun {
		size, err := imaging.Dimensions(it.Path)
		if err != nil {
			log.Error("Cannot read image: %v", err)
			return failed(it, err)
		}
		layout, err := geometry.Plan(size, r.policy)
		if err != nil {
			err = fault.Codec("plan", it.Path, err)
			log.Error("%v", err)
			return failed(it, err)
		}
		log.Success("[DRY] Would compress %s -> %s, quality %d down to %d, budget %s",
			size, layout.Output(), r.cfg.Quality.Start, r.cfg.Quality.Floor, display.FormatBytes(r.target))
		return Outcome{
			Source:       it.Path,
			Dest:         it.dest,
			Kind:         it.Kind,
			Status:       journal.StatusSucceeded,
			Reason:       "dry run",
			OriginalSize: it.size,
		}
	}

	res, err := imaging.Compress(ctx, r.codec, imaging.Job{
		Source: it.Path,
		Dest:   it.dest,
		Policy: r.policy,
		Budget: r.target,
		Params: r.cfg.Quality,
	})
	if err != nil {
		log.Error("Compress failed: %v", err)
		return failed(it, err)
	}

	for _, t := range res.Trials {
		log.Debug("  quality %3d -> %s", t.Quality, display.FormatBytes(t.Size))
	}
	o := Outcome{
		Source:       it.Path,
		Dest:         it.dest,
		Kind:         it.Kind,
		Status:       journal.StatusSucceeded,
		Quality:      res.Quality,
		OriginalSize: it.size,
		FinalSize:    res.Size,
	}
	if !res.WithinBudget {
		o.Reason = "over budget at quality floor"
		log.Warn("Still %s over budget at quality %d, keeping it",
			display.FormatBytes(res.Size-r.target), res.Quality)
	}
	log.Success("Compressed %s -> %s at quality %d: %s (%s saved)",
		res.Original, res.Output, res.Quality, display.FormatBytes(res.Size),
		display.FormatSavings(it.size, res.Size))
	return o
}

// processVideo relays a video that already fits, or probes it and runs the
// two-pass encode at the estimated bitrate.
func (r *runner) processVideo(ctx context.Context, it item) Outcome {
	log := r.log
	log.Info("  -> %s", filepath.Base(it.dest))

	var duration float64
	if it.action == planner.ActionEncode {
		res, err := r.prober.Probe(ctx, it.Path)
		if err == nil {
			logSource(log, res)
			duration, err = res.Duration(it.Path)
		}
		if err != nil {
			log.Error("Cannot probe file: %v", err)
			return failed(it, err)
		}
	}

	plan, err := planner.BuildPlan(it.Path, it.size, r.target, duration, r.scale)
	if err != nil {
		log.Error("%v", err)
		return failed(it, err)
	}

	if plan.Skip() {
		return r.relayVideo(it, plan)
	}

	log.Info("  Duration %s, bitrate %s (raw %s)",
		display.FormatClock(secondsToDuration(plan.Duration)),
		display.FormatBitrate(plan.Bitrate),
		display.FormatBitrate(int64(plan.RawBitrate)))
	if plan.VideoFilters != "" {
		log.Debug("  Filters: %s", plan.VideoFilters)
	}

	if r.cfg.DryRun {
		log.Success("[DRY] Would encode in two passes, expected ~%s",
			display.FormatBytes(planner.EstimateOutputSize(plan.Bitrate, plan.Duration)))
		return Outcome{
			Source:       it.Path,
			Dest:         it.dest,
			Kind:         it.Kind,
			Status:       journal.StatusSucceeded,
			Reason:       "dry run",
			Bitrate:      plan.Bitrate,
			OriginalSize: it.size,
		}
	}

	progress := display.StartEncodeProgress(filepath.Base(it.Path), plan.Duration, r.progress)
	enc := &ffmpeg.Encoder{
		Bin: r.cfg.FFmpegBin,
		OnEvent: func(ev ffmpeg.Event) {
			switch ev.Kind {
			case ffmpeg.EventProgress:
				progress.Update(ev.Pass, ev.Elapsed)
			default:
				log.Debug("  [pass %d] %s", ev.Pass, ev.Line)
			}
		},
	}
	err = enc.Encode(ctx, ffmpeg.Job{
		Source:    it.Path,
		Dest:      it.dest,
		Bitrate:   plan.Bitrate,
		Filters:   plan.VideoFilters,
		LogPrefix: it.logPrefix,
	})
	progress.Stop()
	if err != nil {
		log.Error("Encode failed: %v", err)
		return failed(it, err)
	}

	o := Outcome{
		Source:       it.Path,
		Dest:         it.dest,
		Kind:         it.Kind,
		Status:       journal.StatusSucceeded,
		Bitrate:      plan.Bitrate,
		OriginalSize: it.size,
	}
	if fi, err := os.Stat(it.dest); err == nil {
		o.FinalSize = fi.Size()
	}
	if o.FinalSize > r.target {
		o.Reason = "output exceeds target"
		log.Warn("Output is %s over target", display.FormatBytes(o.FinalSize-r.target))
	}
	log.Success("Encoded: %s (%s saved)", display.FormatBytes(o.FinalSize), display.FormatSavings(it.size, o.FinalSize))
	return o
}

// logSource records what ffprobe reported about the input.
func logSource(log *logging.Logger, res *probe.Result) {
	codec, fps := "unknown", "?"
	if v := res.Video; v != nil {
		codec, fps = v.Codec, v.AvgFrameRate
	}
	log.Debug("  Source: %s %s at %s fps, %s, %d audio stream(s) dropped",
		res.Resolution(), codec, fps, display.FormatBitrate(res.Format.BitRate), res.AudioCount)
}

// relayVideo hands a video that already fits the budget over unchanged.
func (r *runner) relayVideo(it item, plan *planner.EncodePlan) Outcome {
	o := Outcome{
		Source:       it.Path,
		Dest:         it.dest,
		Kind:         it.Kind,
		Status:       journal.StatusSkipped,
		Reason:       plan.SkipReason,
		OriginalSize: it.size,
		FinalSize:    it.size,
	}
	if r.cfg.DryRun {
		r.log.Success("[DRY] Would relay: %s", plan.SkipReason)
		o.FinalSize = 0
		return o
	}
	if err := relay(it.Path, it.dest); err != nil {
		r.log.Error("Relay failed: %v", err)
		return failed(it, err)
	}
	r.log.Warn("Skip (%s), relayed unchanged", plan.SkipReason)
	return o
}
