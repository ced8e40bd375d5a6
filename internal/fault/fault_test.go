package fault

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"plain", errors.New("boom"), KindUnknown},
		{"probe", Probe("a.mp4", errors.New("no duration")), KindProbe},
		{"wrapped spawn", fmt.Errorf("item: %w", Spawn("ffmpeg", errors.New("not found"))), KindSpawn},
		{"configuration", Configuration("bad %s", "path"), KindConfiguration},
		{"encode", New(KindEncode, "pass 1", "a.mp4", context.Canceled), KindEncode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorMessageAndUnwrap(t *testing.T) {
	err := New(KindEncode, "pass 2", "/in/a.mp4", context.Canceled)
	want := "encode error: pass 2 /in/a.mp4: context canceled"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, context.Canceled) {
		t.Error("errors.Is(err, context.Canceled) = false, want true")
	}
	if !Is(err, KindEncode) || Is(err, KindProbe) {
		t.Error("Is() classification mismatch")
	}
}
