package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/adriarlol/MiniMarker/internal/config"
	"github.com/adriarlol/MiniMarker/internal/display"
	"github.com/adriarlol/MiniMarker/internal/fault"
	"github.com/adriarlol/MiniMarker/internal/geometry"
	"github.com/adriarlol/MiniMarker/internal/imaging"
	"github.com/adriarlol/MiniMarker/internal/journal"
	"github.com/adriarlol/MiniMarker/internal/logging"
	"github.com/adriarlol/MiniMarker/internal/naming"
	"github.com/adriarlol/MiniMarker/internal/planner"
	"github.com/adriarlol/MiniMarker/internal/probe"
	"github.com/adriarlol/MiniMarker/internal/term"
)

// errWorkerPanic marks an item whose worker panicked.
var errWorkerPanic = errors.New("worker panicked")

// Outcome is the result of one item.
type Outcome struct {
	Source  string
	Dest    string
	Kind    config.MediaKind
	Status  journal.Status
	Reason  string // Why an item was skipped, or the failure text.
	Err     error
	ErrKind fault.Kind

	Quality      int   // Images: final quality.
	Bitrate      int64 // Videos: applied bits per second.
	OriginalSize int64
	FinalSize    int64
	Elapsed      time.Duration
}

// Summary is what Run returns once the batch has finished.
type Summary struct {
	RunID    string
	Started  time.Time
	Outcomes []Outcome // In discovery order.
	Stats    RunStats
	Report   string            // Path of report.yaml; empty if it could not be written.
	History  []journal.RunInfo // Runs in the journal, this one included.
}

// item is one unit of work with its destination already resolved.
type item struct {
	Media
	index     int
	dest      string
	logPrefix string
	size      int64
	action    planner.Action // Videos only.
	err       error          // Set when the item failed during preparation.
}

// runner carries the per-batch state shared read-only by all items.
type runner struct {
	cfg      *config.Config
	log      *logging.Logger
	journal  *journal.Journal
	codec    imaging.Codec
	prober   probe.Prober
	policy   geometry.Policy
	scale    geometry.Size
	target   int64
	total    int
	started  atomic.Int32
	progress bool
}

// Run is the top-level batch entry point. It validates paths, discovers
// items, processes them on a pool of cfg.Jobs workers, and returns the
// per-item outcomes. The returned error is non-nil only when the batch
// could not start (a configuration error); item failures are reported in
// the Summary.
func Run(ctx context.Context, cfg *config.Config, log *logging.Logger) (*Summary, error) {
	r, files, err := prepare(cfg, log)
	if err != nil {
		return nil, err
	}

	sum := &Summary{Started: time.Now()}
	if !cfg.DryRun {
		j, err := journal.Open(cfg.LogDir, cfg.InputPath)
		if err != nil {
			log.Warn("Journal unavailable, outcomes will not be recorded: %v", err)
		} else {
			defer j.Close()
			r.journal = j
			sum.RunID = j.RunID()
		}
	}
	if sum.RunID == "" {
		sum.RunID = uuid.NewString()
	}

	items := r.resolve(files)
	r.total = len(items)
	workers := resolveWorkers(cfg.Jobs, len(items))
	r.progress = workers == 1 && !cfg.NoProgress && term.IsTerminal(os.Stdout)

	logBatchHeader(r, workers)

	sum.Outcomes = r.runAll(ctx, items, workers)
	for _, o := range sum.Outcomes {
		sum.Stats.Add(o)
	}
	if r.journal != nil {
		if sum.History, err = r.journal.Runs(); err != nil {
			log.Warn("Cannot list journal runs: %v", err)
		}
	}

	report, err := writeReport(cfg, sum)
	if err != nil {
		log.Warn("Cannot write report: %v", err)
	} else {
		sum.Report = report
	}
	logSummary(cfg, log, sum)
	return sum, nil
}

// prepare validates the input path and output layout, creates the output
// and log directories, and lists the items to process.
func prepare(cfg *config.Config, log *logging.Logger) (*runner, []Media, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	policy, err := cfg.ImageResize()
	if err != nil {
		return nil, nil, err
	}
	scale, err := cfg.VideoScale()
	if err != nil {
		return nil, nil, err
	}

	info, err := os.Stat(cfg.InputPath)
	if err != nil {
		return nil, nil, fault.Configuration("input path %s is neither a file nor a directory", cfg.InputPath)
	}

	var inputDir string
	var files []Media
	switch {
	case info.IsDir():
		inputDir = cfg.InputPath
	case info.Mode().IsRegular():
		inputDir = filepath.Dir(cfg.InputPath)
		kind, ok := Classify(cfg.InputPath)
		if !ok {
			return nil, nil, fault.Configuration("unsupported file type %q (use .png, .jpg, .jpeg, .mp4, .avi or .mkv)",
				filepath.Ext(cfg.InputPath))
		}
		if cfg.Wants(kind) {
			files = []Media{{Path: cfg.InputPath, Kind: kind}}
		}
	default:
		return nil, nil, fault.Configuration("input path %s is neither a file nor a directory", cfg.InputPath)
	}

	if err := cfg.ValidatePaths(resolvePath(inputDir), resolvePath(cfg.OutputDir)); err != nil {
		return nil, nil, err
	}
	for _, dir := range []string{cfg.OutputDir, cfg.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fault.Configuration("cannot create directory %s: %v", dir, err)
		}
	}

	if info.IsDir() {
		files, err = Discover(cfg.InputPath, cfg.Kind)
		if err != nil {
			return nil, nil, fault.Configuration("cannot list %s: %v", cfg.InputPath, err)
		}
	}

	return &runner{
		cfg:    cfg,
		log:    log,
		codec:  imaging.StdCodec{},
		prober: probe.Prober{Bin: cfg.FFprobeBin},
		policy: policy,
		scale:  scale,
		target: cfg.TargetBytes(),
	}, files, nil
}

// resolvePath returns an absolute, symlink-resolved path when possible.
// Paths that do not exist yet are only made absolute.
func resolvePath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

// resolve assigns every item its destination and pass-log prefix before
// any work starts, so concurrent items never share a path.
func (r *runner) resolve(files []Media) []item {
	dests := naming.NewCollisionResolver()
	prefixes := naming.NewCollisionResolver()

	items := make([]item, len(files))
	for i, m := range files {
		it := item{Media: m, index: i}
		fi, err := os.Stat(m.Path)
		if err != nil {
			it.err = fault.New(fault.KindProbe, "stat", m.Path, err)
		} else {
			it.size = fi.Size()
		}

		switch m.Kind {
		case config.KindImage:
			it.dest = naming.ImageOutputPath(m.Path, r.cfg.OutputDir)
		default:
			it.action = planner.Decide(it.size, r.target)
			relay := it.err == nil && it.action == planner.ActionRelay
			it.dest = naming.VideoOutputPath(m.Path, r.cfg.OutputDir, relay)
			it.logPrefix = prefixes.ResolvePrefix(m.Path, naming.LogPrefix(m.Path, r.cfg.LogDir))
		}
		it.dest = dests.Resolve(m.Path, it.dest)
		items[i] = it
	}
	return items
}

// resolveWorkers maps --jobs to a pool size: 0 means one per physical core.
func resolveWorkers(jobs, items int) int {
	n := jobs
	if n == 0 {
		if cores, err := cpu.Counts(false); err == nil && cores > 0 {
			n = cores
		} else {
			n = 1
		}
	}
	if items > 0 && n > items {
		n = items
	}
	return max(n, 1)
}

// runAll processes items on an ants pool and returns their outcomes in
// item order. Each slot is pre-filled with a panic outcome so a worker
// that panics still leaves a failed record behind.
func (r *runner) runAll(ctx context.Context, items []item, workers int) []Outcome {
	outcomes := make([]Outcome, len(items))
	if len(items) == 0 {
		return outcomes
	}

	pool, err := ants.NewPool(workers, ants.WithPanicHandler(func(p any) {
		r.log.Error("Worker panic: %v", p)
	}))
	if err != nil {
		r.log.Warn("Cannot create worker pool, running sequentially: %v", err)
		for i := range items {
			outcomes[i] = r.runItem(ctx, items[i])
		}
		return outcomes
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i := range items {
		it := items[i]
		outcomes[i] = failed(it, fault.New(fault.KindUnknown, "process", it.Path, errWorkerPanic))
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			outcomes[it.index] = r.runItem(ctx, it)
		})
		if err != nil {
			wg.Done()
			outcomes[i] = failed(it, fmt.Errorf("submit: %w", err))
		}
	}
	wg.Wait()
	return outcomes
}

// runItem handles cancellation, resume, and journaling around one item.
func (r *runner) runItem(ctx context.Context, it item) Outcome {
	n := r.started.Add(1)
	r.log.Info("[%d/%d] %s", n, r.total, filepath.Base(it.Path))

	if err := ctx.Err(); err != nil {
		o := failed(it, fault.New(fault.KindUnknown, "process", it.Path, err))
		r.log.Error("Not started: %v", err)
		return o
	}
	if it.err != nil {
		r.log.Error("%v", it.err)
		return failed(it, it.err)
	}

	fp, fpErr := journal.FingerprintOf(it.Path, r.target, r.settings(it))
	if r.cfg.Resume && r.journal != nil && fpErr == nil {
		if rec, ok := r.journal.Unchanged(it.Path, fp); ok {
			r.log.Warn("Skip (unchanged): %s", filepath.Base(rec.Dest))
			return Outcome{
				Source:       it.Path,
				Dest:         rec.Dest,
				Kind:         it.Kind,
				Status:       journal.StatusSkipped,
				Reason:       "unchanged",
				Quality:      rec.Quality,
				Bitrate:      rec.Bitrate,
				OriginalSize: it.size,
				FinalSize:    rec.FinalSize,
			}
		}
	}

	start := time.Now()
	var o Outcome
	if it.Kind == config.KindImage {
		o = r.processImage(ctx, it)
	} else {
		o = r.processVideo(ctx, it)
	}
	o.Elapsed = time.Since(start)

	if r.journal != nil && fpErr == nil && !r.cfg.DryRun {
		err := r.journal.Put(journal.Record{
			Source:      o.Source,
			Dest:        o.Dest,
			Status:      o.Status,
			Fingerprint: fp,
			Quality:     o.Quality,
			Bitrate:     o.Bitrate,
			FinalSize:   o.FinalSize,
			Reason:      o.Reason,
		})
		if err != nil {
			r.log.Warn("Cannot journal %s: %v", filepath.Base(it.Path), err)
		}
	}
	return o
}

// settings renders the parameters that affect an item's output, for the
// resume fingerprint.
func (r *runner) settings(it item) string {
	if it.Kind == config.KindImage {
		q := r.cfg.Quality
		return fmt.Sprintf("image %s q%d-%d/%d", r.policy, q.Start, q.Floor, q.Step)
	}
	return "video scale " + r.scale.String()
}

func failed(it item, err error) Outcome {
	return Outcome{
		Source:       it.Path,
		Dest:         it.dest,
		Kind:         it.Kind,
		Status:       journal.StatusFailed,
		Reason:       err.Error(),
		Err:          err,
		ErrKind:      fault.KindOf(err),
		OriginalSize: it.size,
	}
}

// --- Logging helpers ---

func logBatchHeader(r *runner, workers int) {
	cfg := r.cfg
	r.log.Info("Found %d files", r.total)
	r.log.Info("Target: %s per file", display.FormatBytes(r.target))
	if cfg.Wants(config.KindImage) {
		q := cfg.Quality
		r.log.Info("Images: %s, quality %d down to %d (step %d)", r.policy, q.Start, q.Floor, q.Step)
	}
	if cfg.Wants(config.KindVideo) {
		r.log.Info("Videos: two-pass H.264, scale %s, +%.0f%% bitrate headroom",
			r.scale, (planner.BufferFactor-1)*100)
	}
	if workers > 1 {
		r.log.Info("Workers: %d", workers)
	}
	if cfg.Resume {
		r.log.Info("Resume: skipping items unchanged since their last successful run")
	}
	if cfg.DryRun {
		r.log.Warn("Dry run: nothing will be written")
	}
}

func logSummary(cfg *config.Config, log *logging.Logger, sum *Summary) {
	stats := &sum.Stats
	log.Info("==============================")
	log.Info("Done: %d succeeded, %d skipped, %d failed", stats.Succeeded, stats.Skipped, stats.Failed)
	log.Info("Summary report:")
	log.Info("  Total files processed: %d", stats.Total)
	log.Info("  Run ID: %s", sum.RunID)
	if sum.Report != "" {
		log.Info("  Report: %s", sum.Report)
	}

	for _, o := range sum.Outcomes {
		if o.Status == journal.StatusFailed {
			log.Error("  Failed: %s (%s)", filepath.Base(o.Source), o.ErrKind)
		}
	}

	if cfg.DryRun {
		log.Info("  Total space saved: n/a (dry run)")
		return
	}

	saved := stats.SpaceSaved()
	if saved >= 0 {
		log.Success("  Total space saved: %s (input %s -> output %s)",
			display.FormatBytes(saved),
			display.FormatBytes(stats.TotalInputBytes),
			display.FormatBytes(stats.TotalOutputBytes))
	} else {
		log.Warn("  Total size change: %s (overall output is larger)",
			display.FormatBytesWithSign(-saved))
	}
}
