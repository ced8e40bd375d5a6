package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"

	"github.com/adriarlol/MiniMarker/internal/fault"
	"github.com/adriarlol/MiniMarker/internal/geometry"
)

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.InputPath = "in"
	cfg.OutputDir = "out"
	cfg.LogDir = "log"
	return cfg
}

func TestNormalizeDirArg(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no trailing slash", "/media/library", "/media/library"},
		{"single trailing slash", "/media/library/", "/media/library"},
		{"multiple trailing slashes", "/media/library///", "/media/library"},
		{"root path", "/", "/"},
		{"relative path", "output", "output"},
		{"empty string", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeDirArg(tt.in)
			if got != tt.want {
				t.Errorf("NormalizeDirArg(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"fractional target", func(c *Config) { c.TargetSizeMB = 0.5 }, false},
		{"zero target", func(c *Config) { c.TargetSizeMB = 0 }, true},
		{"negative target", func(c *Config) { c.TargetSizeMB = -1 }, true},
		{"sub-byte target", func(c *Config) { c.TargetSizeMB = 1e-9 }, true},
		{"missing log dir", func(c *Config) { c.LogDir = "" }, true},
		{"unknown kind", func(c *Config) { c.Kind = "audio" }, true},
		{"unknown policy", func(c *Config) { c.ImagePolicy = "stretch" }, true},
		{"unknown color", func(c *Config) { c.ColorMode = "sometimes" }, true},
		{"negative jobs", func(c *Config) { c.Jobs = -2 }, true},
		{"auto jobs", func(c *Config) { c.Jobs = 0 }, false},
		{"bad image size", func(c *Config) { c.ImageSize = "big" }, true},
		{"image size none", func(c *Config) { c.ImageSize = "none" }, true},
		{"scale none", func(c *Config) { c.Scale = "none" }, false},
		{"bad scale", func(c *Config) { c.Scale = "1920" }, true},
		{"floor above start", func(c *Config) { c.Quality.Floor = 99 }, true},
		{"empty ffmpeg", func(c *Config) { c.FFmpegBin = "" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && fault.KindOf(err) != fault.KindConfiguration {
				t.Errorf("Validate() error kind = %v, want configuration", fault.KindOf(err))
			}
		})
	}
}

func TestImageResize(t *testing.T) {
	cfg := validConfig()
	cfg.ImageSize = "800x600"
	p, err := cfg.ImageResize()
	if err != nil || p != geometry.FreeFit(800, 600) {
		t.Errorf("fit: ImageResize() = %v, %v", p, err)
	}
	cfg.ImagePolicy = PolicyFixed
	p, err = cfg.ImageResize()
	if err != nil || p != geometry.FixedAspect(800, 600) {
		t.Errorf("fixed: ImageResize() = %v, %v", p, err)
	}
}

func TestTargetBytes(t *testing.T) {
	cfg := validConfig()
	if got := cfg.TargetBytes(); got != 5*1024*1024 {
		t.Errorf("TargetBytes() = %d, want %d", got, 5*1024*1024)
	}
}

func TestValidatePaths(t *testing.T) {
	cfg := validConfig()
	tests := []struct {
		name    string
		in      string
		out     string
		wantErr bool
	}{
		{"sibling dirs", "/media/in", "/media/out", false},
		{"nested output allowed", "/media/in", "/media/in/out", false},
		{"same dir", "/media/in", "/media/in", true},
		{"same dir trailing slash", "/media/in/", "/media/in", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cfg.ValidatePaths(tt.in, tt.out)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePaths(%q, %q) error = %v, wantErr %v", tt.in, tt.out, err, tt.wantErr)
			}
		})
	}
}

func TestWants(t *testing.T) {
	cfg := validConfig()
	if !cfg.Wants(KindImage) || !cfg.Wants(KindVideo) {
		t.Error("kind all should want both")
	}
	cfg.Kind = KindVideo
	if cfg.Wants(KindImage) || !cfg.Wants(KindVideo) {
		t.Error("kind video should want only videos")
	}
}

func newFlagSet(cfg *Config) *pflag.FlagSet {
	fs := pflag.NewFlagSet("minimarker", pflag.ContinueOnError)
	BindFlags(fs, cfg)
	return fs
}

func TestBindFlags_EnumValidation(t *testing.T) {
	cfg := DefaultConfig()
	fs := newFlagSet(&cfg)
	if err := fs.Parse([]string{"--kind", "VIDEO", "--image-policy", "fixed", "--color", "never"}); err != nil {
		t.Fatal(err)
	}
	if cfg.Kind != KindVideo || cfg.ImagePolicy != PolicyFixed || cfg.ColorMode != "never" {
		t.Errorf("parsed = %+v", cfg)
	}

	cfg = DefaultConfig()
	fs = newFlagSet(&cfg)
	if err := fs.Parse([]string{"--kind", "audio"}); err == nil {
		t.Error("Parse(--kind audio) error = nil, want error")
	}
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "minimarker.yaml")
	yaml := "target_size_mb: 8\njobs: 3\nscale: 1280x720\nquality:\n  floor: 20\n"
	if err := os.WriteFile(file, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MINIMARKER_JOBS", "6")
	t.Setenv("MINIMARKER_QUALITY_STEP", "10")

	cfg := DefaultConfig()
	cfg.ConfigFile = file
	fs := newFlagSet(&cfg)
	if err := fs.Parse([]string{"--scale", "none"}); err != nil {
		t.Fatal(err)
	}
	if err := Load(fs, &cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TargetSizeMB != 8 {
		t.Errorf("TargetSizeMB = %v, want 8 from file", cfg.TargetSizeMB)
	}
	if cfg.Jobs != 6 {
		t.Errorf("Jobs = %d, want 6 from env", cfg.Jobs)
	}
	if cfg.Scale != "none" {
		t.Errorf("Scale = %q, want none from flag", cfg.Scale)
	}
	if cfg.Quality.Floor != 20 || cfg.Quality.Step != 10 || cfg.Quality.Start != 95 {
		t.Errorf("Quality = %+v, want start 95 step 10 floor 20", cfg.Quality)
	}
	if cfg.Kind != KindAll {
		t.Errorf("Kind = %q, want default all", cfg.Kind)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ConfigFile = filepath.Join(t.TempDir(), "absent.yaml")
	err := Load(newFlagSet(&cfg), &cfg)
	if fault.KindOf(err) != fault.KindConfiguration {
		t.Errorf("Load() error = %v, want configuration error", err)
	}
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", t.TempDir())
	cfg := DefaultConfig()
	if err := Load(newFlagSet(&cfg), &cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TargetSizeMB != 5 || cfg.Jobs != 1 || cfg.Scale != "1920x1080" {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}
