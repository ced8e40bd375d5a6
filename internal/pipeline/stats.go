package pipeline

import "github.com/adriarlol/MiniMarker/internal/journal"

// RunStats tracks aggregate counters and byte totals across a batch run.
type RunStats struct {
	Total            int
	Succeeded        int
	Skipped          int
	Failed           int
	TotalInputBytes  int64
	TotalOutputBytes int64
}

// Add folds one item outcome into the totals. Byte totals only count items
// that produced an output.
func (s *RunStats) Add(o Outcome) {
	s.Total++
	switch o.Status {
	case journal.StatusSucceeded:
		s.Succeeded++
	case journal.StatusSkipped:
		s.Skipped++
	default:
		s.Failed++
		return
	}
	if o.FinalSize > 0 {
		s.TotalInputBytes += o.OriginalSize
		s.TotalOutputBytes += o.FinalSize
	}
}

// SpaceSaved returns the aggregate byte difference between inputs and outputs.
// Positive means outputs are smaller; negative means they grew.
func (s *RunStats) SpaceSaved() int64 {
	return s.TotalInputBytes - s.TotalOutputBytes
}
