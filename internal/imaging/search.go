package imaging

import (
	"context"
	"fmt"
)

// Params controls the quality search.
type Params struct {
	Start int `mapstructure:"start" yaml:"start"` // First quality tried.
	Step  int `mapstructure:"step" yaml:"step"`   // Decrement per trial.
	Floor int `mapstructure:"floor" yaml:"floor"` // Lowest quality tried (inclusive).
}

// DefaultParams returns start 95, step 5, floor 10.
func DefaultParams() Params {
	return Params{Start: 95, Step: 5, Floor: 10}
}

// Validate checks 1 <= Floor <= Start <= 100 and Step >= 1.
func (p Params) Validate() error {
	if p.Start < 1 || p.Start > 100 {
		return fmt.Errorf("quality start %d out of range 1..100", p.Start)
	}
	if p.Floor < 1 || p.Floor > p.Start {
		return fmt.Errorf("quality floor %d out of range 1..%d", p.Floor, p.Start)
	}
	if p.Step < 1 {
		return fmt.Errorf("quality step %d must be positive", p.Step)
	}
	return nil
}

// Trial is one save attempt.
type Trial struct {
	Quality int   `yaml:"quality"`
	Size    int64 `yaml:"size"`
}

// EncodeFunc saves the prepared image at quality and returns the byte size.
type EncodeFunc func(quality int) (int64, error)

// Search runs encode from p.Start downward by p.Step until a result is at
// most budget bytes or the floor has been tried. The first trial always
// runs; later trials stop early if ctx is done. A step that would pass the
// floor is clamped to it. When two consecutive trials yield the same size
// the encoder is taken to ignore quality and the next trial goes straight to
// the floor. The returned history is in trial order; on error it holds the
// trials completed before the failure.
func Search(ctx context.Context, p Params, budget int64, encode EncodeFunc) ([]Trial, error) {
	var trials []Trial
	q := p.Start
	for {
		if len(trials) > 0 {
			if err := ctx.Err(); err != nil {
				return trials, err
			}
		}
		size, err := encode(q)
		if err != nil {
			return trials, err
		}
		trials = append(trials, Trial{Quality: q, Size: size})
		if size <= budget || q <= p.Floor {
			return trials, nil
		}
		if n := len(trials); n > 1 && trials[n-2].Size == size {
			q = p.Floor
			continue
		}
		q = max(q-p.Step, p.Floor)
	}
}
