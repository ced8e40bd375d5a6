package display

import (
	"fmt"
	"math"
	"time"

	"github.com/pterm/pterm"
)

// EncodeProgress renders a live bar across both passes of one video encode.
// A disabled EncodeProgress is a no-op, so callers never branch on it.
type EncodeProgress struct {
	bar     *pterm.ProgressbarPrinter
	seconds int
	current int
}

// StartEncodeProgress starts a bar titled name for a clip of duration
// seconds. When enabled is false nothing is drawn.
func StartEncodeProgress(name string, duration float64, enabled bool) *EncodeProgress {
	p := &EncodeProgress{seconds: max(1, int(math.Ceil(duration)))}
	if !enabled {
		return p
	}
	bar, err := pterm.DefaultProgressbar.
		WithTotal(2 * p.seconds).
		WithTitle(name).
		WithRemoveWhenDone(true).
		Start()
	if err != nil {
		return p
	}
	bar.ShowCount = false
	bar.ShowPercentage = true
	bar.ShowElapsedTime = true
	bar.BarStyle = &pterm.Style{pterm.FgLightBlue, pterm.BgDefault}
	bar.TitleStyle = &pterm.Style{pterm.FgLightCyan, pterm.Bold}
	p.bar = bar
	return p
}

// Update moves the bar to elapsed media time within pass (1 or 2).
func (p *EncodeProgress) Update(pass int, elapsed time.Duration) {
	pos := (pass-1)*p.seconds + min(p.seconds, int(elapsed/time.Second))
	if p.bar == nil || pos <= p.current {
		return
	}
	p.bar.UpdateTitle(fmt.Sprintf("pass %d/2", pass))
	p.bar.Add(pos - p.current)
	p.current = pos
}

// Stop removes the bar.
func (p *EncodeProgress) Stop() {
	if p.bar != nil {
		_, _ = p.bar.Stop()
		p.bar = nil
	}
}
