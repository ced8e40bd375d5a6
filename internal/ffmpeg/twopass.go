package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/adriarlol/MiniMarker/internal/fault"
)

// Job is one two-pass encode.
type Job struct {
	Source    string
	Dest      string
	Bitrate   int64
	Filters   string
	LogPrefix string // Unique per job; shared by both passes.
}

// Encoder runs two-pass encodes. Bin defaults to "ffmpeg" on PATH. OnEvent,
// when set, receives every output line of both passes in order.
type Encoder struct {
	Bin     string
	OnEvent func(Event)
}

func (e *Encoder) bin() string {
	if e.Bin == "" {
		return "ffmpeg"
	}
	return e.Bin
}

// Encode runs pass 1 and, only if it succeeds, pass 2. A failed or
// cancelled pass 2 removes the partial destination.
func (e *Encoder) Encode(ctx context.Context, job Job) error {
	for _, n := range []int{1, 2} {
		pass := Pass{
			Number:    n,
			Source:    job.Source,
			Sink:      os.DevNull,
			Bitrate:   job.Bitrate,
			Filters:   job.Filters,
			LogPrefix: job.LogPrefix,
		}
		if n == 2 {
			pass.Sink = job.Dest
		}
		if err := e.run(ctx, pass); err != nil {
			if n == 2 && !fault.Is(err, fault.KindSpawn) {
				if rmErr := os.Remove(job.Dest); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
					return errors.Join(err, rmErr)
				}
			}
			return err
		}
	}
	return nil
}

func (e *Encoder) run(ctx context.Context, pass Pass) error {
	if err := ctx.Err(); err != nil {
		return fault.New(fault.KindEncode, fmt.Sprintf("pass %d", pass.Number), pass.Source, err)
	}
	proc, err := Start(ctx, e.bin(), pass.Number, pass.Source, BuildPassArgs(pass))
	if err != nil {
		return err
	}
	for ev := range proc.Events() {
		if e.OnEvent != nil {
			e.OnEvent(ev)
		}
	}
	return proc.Wait()
}
