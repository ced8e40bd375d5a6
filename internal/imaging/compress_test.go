package imaging

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/adriarlol/MiniMarker/internal/fault"
	"github.com/adriarlol/MiniMarker/internal/geometry"
)

// writeNoise writes a deterministic noisy image so that JPEG size varies
// clearly with quality.
func writeNoise(t *testing.T, path string, w, h int) {
	t.Helper()
	rng := rand.New(rand.NewSource(1))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)), 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if filepath.Ext(path) == ".png" {
		err = png.Encode(f, img)
	} else {
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 100})
	}
	if err != nil {
		t.Fatal(err)
	}
}

func decodeSize(t *testing.T, path string) geometry.Size {
	t.Helper()
	s, err := Dimensions(path)
	if err != nil {
		t.Fatalf("Dimensions(%s): %v", path, err)
	}
	return s
}

func TestCompress_FreeFitSingleTrial(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.jpg")
	dst := filepath.Join(dir, "out.jpg")
	writeNoise(t, src, 400, 300)

	res, err := Compress(context.Background(), StdCodec{}, Job{
		Source: src, Dest: dst,
		Policy: geometry.FreeFit(200, 200),
		Budget: 1 << 30,
		Params: DefaultParams(),
	})
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}
	if len(res.Trials) != 1 || res.Quality != 95 {
		t.Errorf("trials = %v, want a single trial at 95", res.Trials)
	}
	if !res.WithinBudget {
		t.Error("WithinBudget = false, want true")
	}
	if got := decodeSize(t, dst); got != (geometry.Size{W: 200, H: 150}) {
		t.Errorf("output size = %v, want 200x150", got)
	}
	info, _ := os.Stat(dst)
	if info.Size() != res.Size {
		t.Errorf("reported size %d, file size %d", res.Size, info.Size())
	}
}

func TestCompress_FixedAspectExact(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	dst := filepath.Join(dir, "out.jpg")
	writeNoise(t, src, 300, 120)

	res, err := Compress(context.Background(), StdCodec{}, Job{
		Source: src, Dest: dst,
		Policy: geometry.FixedAspect(64, 64),
		Budget: 1 << 30,
		Params: DefaultParams(),
	})
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}
	if res.Output != (geometry.Size{W: 64, H: 64}) {
		t.Errorf("Output = %v, want 64x64", res.Output)
	}
	if got := decodeSize(t, dst); got != (geometry.Size{W: 64, H: 64}) {
		t.Errorf("file size = %v, want 64x64", got)
	}
}

// sizeRecorder remembers every image size Resize is asked to allocate.
type sizeRecorder struct {
	StdCodec
	allocated []geometry.Size
}

func (c *sizeRecorder) Resize(img image.Image, src image.Rectangle, to geometry.Size) image.Image {
	c.allocated = append(c.allocated, to)
	return c.StdCodec.Resize(img, src, to)
}

func TestCompress_ExtremeAspectResamplesOnlyKeptRegion(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"tall strip", 2, 4000},
		{"wide strip", 4000, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			src := filepath.Join(dir, "in.png")
			dst := filepath.Join(dir, "out.jpg")
			writeNoise(t, src, tt.w, tt.h)

			codec := &sizeRecorder{}
			res, err := Compress(context.Background(), codec, Job{
				Source: src, Dest: dst,
				Policy: geometry.FixedAspect(1920, 1080),
				Budget: 1 << 30,
				Params: DefaultParams(),
			})
			if err != nil {
				t.Fatalf("Compress() error = %v", err)
			}
			want := geometry.Size{W: 1920, H: 1080}
			if len(codec.allocated) != 1 || codec.allocated[0] != want {
				t.Errorf("Resize allocations = %v, want a single %v", codec.allocated, want)
			}
			if got := decodeSize(t, dst); got != want {
				t.Errorf("file size = %v, want %v", got, want)
			}
			if res.Output != want {
				t.Errorf("Output = %v, want %v", res.Output, want)
			}
		})
	}
}

func TestCompress_BudgetDrivesQualityDown(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.jpg")
	writeNoise(t, src, 256, 256)

	// First find the size at quality 95, then ask for less.
	probe := filepath.Join(dir, "probe.jpg")
	first, err := Compress(context.Background(), StdCodec{}, Job{
		Source: src, Dest: probe, Policy: geometry.FreeFit(1920, 1080), Budget: 1 << 30, Params: DefaultParams(),
	})
	if err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(dir, "out.jpg")
	res, err := Compress(context.Background(), StdCodec{}, Job{
		Source: src, Dest: dst, Policy: geometry.FreeFit(1920, 1080), Budget: first.Size - 1, Params: DefaultParams(),
	})
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}
	if len(res.Trials) < 2 {
		t.Fatalf("trials = %v, want at least 2", res.Trials)
	}
	if res.Quality >= 95 || !res.WithinBudget {
		t.Errorf("quality = %d within = %v, want lower quality within budget", res.Quality, res.WithinBudget)
	}
}

func TestCompress_UnreachableBudgetStopsAtFloor(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.jpg")
	dst := filepath.Join(dir, "out.jpg")
	writeNoise(t, src, 64, 64)

	res, err := Compress(context.Background(), StdCodec{}, Job{
		Source: src, Dest: dst, Policy: geometry.FreeFit(1920, 1080), Budget: 1, Params: DefaultParams(),
	})
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}
	if res.Quality != 10 || res.WithinBudget {
		t.Errorf("quality = %d within = %v, want floor 10 over budget", res.Quality, res.WithinBudget)
	}
	if len(res.Trials) != 18 {
		t.Errorf("got %d trials, want 18", len(res.Trials))
	}
	if _, err := os.Stat(dst); err != nil {
		t.Errorf("floor output missing: %v", err)
	}
}

func TestCompress_LosslessOverBudgetSkipsToFloor(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.png")
	dst := filepath.Join(dir, "out.png")
	writeNoise(t, src, 64, 64)

	res, err := Compress(context.Background(), StdCodec{}, Job{
		Source: src, Dest: dst, Policy: geometry.FreeFit(1920, 1080), Budget: 1, Params: DefaultParams(),
	})
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}
	var tried []int
	for _, tr := range res.Trials {
		tried = append(tried, tr.Quality)
	}
	if want := []int{95, 90, 10}; !slices.Equal(tried, want) {
		t.Errorf("tried %v, want %v", tried, want)
	}
	if res.Quality != 10 || res.WithinBudget {
		t.Errorf("quality = %d within = %v, want floor 10 over budget", res.Quality, res.WithinBudget)
	}
}

func TestCompress_Idempotent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in.jpg")
	writeNoise(t, src, 320, 200)

	var outputs [][]byte
	for _, name := range []string{"a.jpg", "b.jpg"} {
		dst := filepath.Join(dir, name)
		if _, err := Compress(context.Background(), StdCodec{}, Job{
			Source: src, Dest: dst, Policy: geometry.FreeFit(100, 100), Budget: 4000, Params: DefaultParams(),
		}); err != nil {
			t.Fatal(err)
		}
		data, err := os.ReadFile(dst)
		if err != nil {
			t.Fatal(err)
		}
		outputs = append(outputs, data)
	}
	if !bytes.Equal(outputs[0], outputs[1]) {
		t.Error("repeated compression produced different bytes")
	}
}

func TestCompress_CorruptSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "broken.jpg")
	if err := os.WriteFile(src, []byte("this is not a jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Compress(context.Background(), StdCodec{}, Job{
		Source: src, Dest: filepath.Join(dir, "out.jpg"), Policy: geometry.FreeFit(10, 10), Budget: 100, Params: DefaultParams(),
	})
	if fault.KindOf(err) != fault.KindCodec {
		t.Fatalf("error = %v, want codec error", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "out.jpg")); !os.IsNotExist(statErr) {
		t.Error("output written for corrupt source")
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for _, name := range []string{"x.jpg", "x.png"} {
		if _, err := (StdCodec{}).Save(img, filepath.Join(dir, name), 80); err != nil {
			t.Fatalf("Save(%s) error = %v", name, err)
		}
	}
	if _, err := (StdCodec{}).Save(img, filepath.Join(dir, "x.gif"), 80); fault.KindOf(err) != fault.KindCodec {
		t.Errorf("Save(.gif) error = %v, want codec error", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("dir contents = %v, want only x.jpg and x.png", names)
	}
}
