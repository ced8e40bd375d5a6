package pipeline

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/adriarlol/MiniMarker/internal/config"
)

// ReportFile is the batch report written to the log directory.
const ReportFile = "report.yaml"

// Report is the YAML document describing one batch run.
type Report struct {
	RunID       string       `yaml:"run_id"`
	Started     time.Time    `yaml:"started"`
	Finished    time.Time    `yaml:"finished"`
	Input       string       `yaml:"input"`
	Output      string       `yaml:"output"`
	TargetBytes int64        `yaml:"target_bytes"`
	DryRun      bool         `yaml:"dry_run,omitempty"`
	Totals      ReportTotals `yaml:"totals"`
	Items       []ReportItem `yaml:"items"`
	History     []ReportRun  `yaml:"history,omitempty"`
}

// ReportRun is one run recorded in the journal for the same log directory.
type ReportRun struct {
	ID      string    `yaml:"id"`
	Started time.Time `yaml:"started"`
	Input   string    `yaml:"input"`
}

// ReportTotals mirrors RunStats.
type ReportTotals struct {
	Succeeded   int   `yaml:"succeeded"`
	Skipped     int   `yaml:"skipped"`
	Failed      int   `yaml:"failed"`
	InputBytes  int64 `yaml:"input_bytes"`
	OutputBytes int64 `yaml:"output_bytes"`
	SavedBytes  int64 `yaml:"saved_bytes"`
}

// ReportItem is one Outcome.
type ReportItem struct {
	Source       string `yaml:"source"`
	Dest         string `yaml:"dest,omitempty"`
	Kind         string `yaml:"kind"`
	Status       string `yaml:"status"`
	Reason       string `yaml:"reason,omitempty"`
	ErrorKind    string `yaml:"error_kind,omitempty"`
	Quality      int    `yaml:"quality,omitempty"`
	Bitrate      int64  `yaml:"bitrate,omitempty"`
	OriginalSize int64  `yaml:"original_size"`
	FinalSize    int64  `yaml:"final_size,omitempty"`
	Elapsed      string `yaml:"elapsed,omitempty"`
}

func buildReport(cfg *config.Config, sum *Summary) Report {
	st := sum.Stats
	rep := Report{
		RunID:       sum.RunID,
		Started:     sum.Started,
		Finished:    time.Now(),
		Input:       cfg.InputPath,
		Output:      cfg.OutputDir,
		TargetBytes: cfg.TargetBytes(),
		DryRun:      cfg.DryRun,
		Totals: ReportTotals{
			Succeeded:   st.Succeeded,
			Skipped:     st.Skipped,
			Failed:      st.Failed,
			InputBytes:  st.TotalInputBytes,
			OutputBytes: st.TotalOutputBytes,
			SavedBytes:  st.SpaceSaved(),
		},
		Items: make([]ReportItem, 0, len(sum.Outcomes)),
	}
	for _, o := range sum.Outcomes {
		ri := ReportItem{
			Source:       o.Source,
			Dest:         o.Dest,
			Kind:         string(o.Kind),
			Status:       string(o.Status),
			Reason:       o.Reason,
			Quality:      o.Quality,
			Bitrate:      o.Bitrate,
			OriginalSize: o.OriginalSize,
			FinalSize:    o.FinalSize,
		}
		if o.Err != nil {
			ri.ErrorKind = o.ErrKind.String()
		}
		if o.Elapsed > 0 {
			ri.Elapsed = o.Elapsed.Round(time.Millisecond).String()
		}
		rep.Items = append(rep.Items, ri)
	}
	for _, h := range sum.History {
		rep.History = append(rep.History, ReportRun{ID: h.ID, Started: h.Started, Input: h.Input})
	}
	return rep
}

// writeReport renders the report for sum into cfg.LogDir and returns its
// path.
func writeReport(cfg *config.Config, sum *Summary) (string, error) {
	data, err := yaml.Marshal(buildReport(cfg, sum))
	if err != nil {
		return "", err
	}
	path := filepath.Join(cfg.LogDir, ReportFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
