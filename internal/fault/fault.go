// Package fault defines the error kinds shared across the compression
// pipeline. Each package wraps its failures in an [*Error] tagged with the
// [Kind] that best describes where the failure originated; callers classify
// them with [KindOf] or errors.As.
package fault

import (
	"errors"
	"fmt"
)

// Kind categorizes a failure.
type Kind int

const (
	KindUnknown       Kind = iota
	KindConfiguration      // Bad CLI input, missing paths, invalid policy.
	KindProbe              // Media duration could not be read or is unusable.
	KindSpawn              // An external binary could not be started.
	KindEncode             // An encoder run exited non-zero or was cancelled.
	KindCodec              // Image decode or encode failed.
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindProbe:
		return "probe"
	case KindSpawn:
		return "spawn"
	case KindEncode:
		return "encode"
	case KindCodec:
		return "codec"
	default:
		return "unknown"
	}
}

// Error is a classified failure. Op names the operation that failed
// (e.g. "pass 1", "decode"), Path the file it was working on.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String() + " error"
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an *Error of kind k.
func New(k Kind, op, path string, err error) *Error {
	return &Error{Kind: k, Op: op, Path: path, Err: err}
}

// Configuration returns a configuration error built from a format string.
func Configuration(format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, Err: fmt.Errorf(format, args...)}
}

// Probe wraps err as a probe failure for path.
func Probe(path string, err error) *Error { return New(KindProbe, "probe", path, err) }

// Spawn wraps err as a failure to start bin.
func Spawn(bin string, err error) *Error { return New(KindSpawn, "spawn", bin, err) }

// Codec wraps err as an image codec failure.
func Codec(op, path string, err error) *Error { return New(KindCodec, op, path, err) }

// KindOf reports the Kind of the first *Error in err's chain, or
// KindUnknown when there is none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// Is reports whether err carries kind k.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
