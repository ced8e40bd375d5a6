package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRun_Version(t *testing.T) {
	var out, errb bytes.Buffer
	if code := run([]string{"--version"}, &out, &errb); code != exitOK {
		t.Fatalf("exit = %d, stderr %q", code, errb.String())
	}
	if !strings.Contains(out.String(), "minimarker "+version) {
		t.Errorf("version output = %q", out.String())
	}
}

func TestRun_ExitCodes(t *testing.T) {
	good := t.TempDir()
	writePNG(t, filepath.Join(good, "a.png"))

	mixed := t.TempDir()
	writePNG(t, filepath.Join(mixed, "a.png"))
	if err := os.WriteFile(filepath.Join(mixed, "b.jpg"), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args func(out, logs string) []string
		want int
	}{
		{"wrong arg count", func(out, _ string) []string { return []string{good, out} }, exitError},
		{"missing input", func(out, logs string) []string {
			return []string{filepath.Join(good, "absent"), out, logs}
		}, exitError},
		{"invalid target", func(out, logs string) []string {
			return []string{"--target-size-mb", "-1", good, out, logs}
		}, exitError},
		{"unknown flag", func(out, logs string) []string {
			return []string{"--bogus", good, out, logs}
		}, exitError},
		{"all succeed", func(out, logs string) []string { return []string{good, out, logs} }, exitOK},
		{"one fails", func(out, logs string) []string { return []string{mixed, out, logs} }, exitFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			args := append([]string{"--color", "never"},
				tt.args(filepath.Join(root, "out"), filepath.Join(root, "logs"))...)
			var out, errb bytes.Buffer
			if code := run(args, &out, &errb); code != tt.want {
				t.Errorf("exit = %d, want %d\nstdout: %s\nstderr: %s", code, tt.want, out.String(), errb.String())
			}
		})
	}
}

func TestRun_WritesLogAndReport(t *testing.T) {
	in := t.TempDir()
	writePNG(t, filepath.Join(in, "a.png"))
	root := t.TempDir()
	logs := filepath.Join(root, "logs")

	var out, errb bytes.Buffer
	if code := run([]string{"--color", "never", in, filepath.Join(root, "out"), logs}, &out, &errb); code != exitOK {
		t.Fatalf("exit = %d, stderr %q", code, errb.String())
	}
	for _, name := range []string{"minimarker.log", "report.yaml"} {
		if _, err := os.Stat(filepath.Join(logs, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 6), uint8(y * 8), 90, 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}
