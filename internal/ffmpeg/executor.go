package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/adriarlol/MiniMarker/internal/fault"
)

// EventKind distinguishes raw output lines from parsed progress.
type EventKind int

const (
	EventLog      EventKind = iota // Any output line.
	EventProgress                  // A stats line carrying time=.
)

// Event is one line of merged ffmpeg output.
type Event struct {
	Pass    int
	Kind    EventKind
	Line    string
	Elapsed time.Duration // Set for EventProgress.
}

const (
	eventBuffer = 64
	tailLines   = 12
	// waitDelay bounds how long Wait blocks on output pipes held open by
	// grandchildren after the process itself has been killed.
	waitDelay = 5 * time.Second
)

// Process is a running ffmpeg invocation.
type Process struct {
	pass   int
	source string
	ctx    context.Context
	events chan Event
	done   chan struct{}
	tail   []string
	err    error
}

// Start spawns bin with args and begins streaming its merged stdout and
// stderr. Lines end at '\n' or '\r' (ffmpeg redraws its stats line with
// carriage returns). The caller should drain Events; Wait drains whatever
// is left.
func Start(ctx context.Context, bin string, pass int, source string, args []string) (*Process, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.WaitDelay = waitDelay

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		return nil, fault.Spawn(bin, err)
	}

	p := &Process{
		pass:   pass,
		source: source,
		ctx:    ctx,
		events: make(chan Event, eventBuffer),
		done:   make(chan struct{}),
	}

	var waitErr error
	var g errgroup.Group
	g.Go(func() error {
		p.scan(pr)
		return nil
	})
	g.Go(func() error {
		waitErr = cmd.Wait()
		return pw.Close()
	})

	go func() {
		_ = g.Wait()
		close(p.events)
		p.err = p.classify(waitErr)
		close(p.done)
	}()
	return p, nil
}

// Events returns the live output stream. It is closed after the process has
// exited and all output has been read.
func (p *Process) Events() <-chan Event { return p.events }

// Wait blocks until the process exits and returns nil on success, or an
// encode error carrying the exit status and last output lines.
func (p *Process) Wait() error {
	for range p.events {
	}
	<-p.done
	return p.err
}

func (p *Process) scan(r io.Reader) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	sc.Split(scanLines)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		ev := Event{Pass: p.pass, Kind: EventLog, Line: line}
		if d, ok := ParseProgress(line); ok {
			ev.Kind = EventProgress
			ev.Elapsed = d
		} else {
			p.remember(line)
		}
		p.events <- ev
	}
	// Keep the writer side unblocked if the scanner stopped early.
	_, _ = io.Copy(io.Discard, r)
}

func (p *Process) remember(line string) {
	p.tail = append(p.tail, line)
	if len(p.tail) > tailLines {
		p.tail = p.tail[len(p.tail)-tailLines:]
	}
}

func (p *Process) classify(waitErr error) error {
	if waitErr == nil {
		return nil
	}
	op := fmt.Sprintf("pass %d", p.pass)
	if ctxErr := p.ctx.Err(); ctxErr != nil {
		return fault.New(fault.KindEncode, op, p.source, ctxErr)
	}
	output := strings.Join(p.tail, "\n")
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		msg := fmt.Sprintf("ffmpeg exited with code %d", exitErr.ExitCode())
		if hint := Diagnose(output); hint != "" {
			msg += " (" + hint + ")"
		}
		if output != "" {
			msg += ":\n" + output
		}
		return fault.New(fault.KindEncode, op, p.source, errors.New(msg))
	}
	return fault.New(fault.KindEncode, op, p.source, waitErr)
}

// scanLines is bufio.ScanLines extended to treat a bare '\r' as a line end.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
