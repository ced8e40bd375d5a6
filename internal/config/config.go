// Package config holds runtime configuration: defaults, CLI flag binding,
// config-file and environment layering, and validation.
package config

import (
	"math"
	"path/filepath"
	"strings"

	"github.com/adriarlol/MiniMarker/internal/fault"
	"github.com/adriarlol/MiniMarker/internal/geometry"
	"github.com/adriarlol/MiniMarker/internal/imaging"
	"github.com/adriarlol/MiniMarker/internal/planner"
	"github.com/adriarlol/MiniMarker/internal/term"
)

// --- Enum types for validated string fields ---

// MediaKind restricts which discovered files are processed.
type MediaKind string

const (
	KindAll   MediaKind = "all"   // Images and videos (default).
	KindImage MediaKind = "image" // Images only.
	KindVideo MediaKind = "video" // Videos only.
)

// ImagePolicy selects how images are resized.
type ImagePolicy string

const (
	PolicyFit   ImagePolicy = "fit"   // Scale down within ImageSize, keep aspect (default).
	PolicyFixed ImagePolicy = "fixed" // Scale and center-crop to exactly ImageSize.
)

// Config holds all runtime settings. It is populated by [DefaultConfig],
// then by [Load] (config file, environment, and flags in rising priority)
// before being passed by pointer to packages that need it.
type Config struct {
	// Paths (set from positional args).
	InputPath string `mapstructure:"-"`
	OutputDir string `mapstructure:"-"`
	LogDir    string `mapstructure:"-"`

	// Size target.
	TargetSizeMB float64 `mapstructure:"target_size_mb"` // Default: 5.

	// Selection and scheduling.
	Kind MediaKind `mapstructure:"kind"` // Default: "all".
	Jobs int       `mapstructure:"jobs"` // Default: 1. 0 = one per physical core.

	// Images.
	ImagePolicy ImagePolicy    `mapstructure:"image_policy"` // Default: "fit".
	ImageSize   string         `mapstructure:"image_size"`   // Default: "1920x1080".
	Quality     imaging.Params `mapstructure:"quality"`      // Default: 95 / 5 / 10.

	// Videos.
	Scale      string `mapstructure:"scale"`   // Default: "1920x1080"; "none" keeps source size.
	FFmpegBin  string `mapstructure:"ffmpeg"`  // Default: "ffmpeg".
	FFprobeBin string `mapstructure:"ffprobe"` // Default: "ffprobe".

	// Behavior flags.
	DryRun bool `mapstructure:"dry_run"`
	Resume bool `mapstructure:"resume"`

	// Display and logging.
	Verbose    bool      `mapstructure:"verbose"`
	NoProgress bool      `mapstructure:"no_progress"`
	ColorMode  term.Mode `mapstructure:"color"` // Default: "auto".

	// ConfigFile is an explicit --config path; empty searches the defaults.
	ConfigFile string `mapstructure:"-"`
}

// DefaultConfig returns a Config with every default applied. Used as the
// base before [Load] layers file, environment, and flag overrides.
func DefaultConfig() Config {
	return Config{
		TargetSizeMB: 5,
		Kind:         KindAll,
		Jobs:         1,
		ImagePolicy:  PolicyFit,
		ImageSize:    "1920x1080",
		Quality:      imaging.DefaultParams(),
		Scale:        "1920x1080",
		FFmpegBin:    "ffmpeg",
		FFprobeBin:   "ffprobe",
		ColorMode:    term.ModeAuto,
	}
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks enum fields, numeric ranges, and size strings, and that
// all three positional paths are set. Every failure is a configuration
// error.
func (c *Config) Validate() error {
	if c.InputPath == "" || c.OutputDir == "" || c.LogDir == "" {
		return fault.Configuration("need exactly input_path, output_path and log_path")
	}
	return c.validateSettings()
}

func (c *Config) validateSettings() error {
	if math.IsNaN(c.TargetSizeMB) || math.IsInf(c.TargetSizeMB, 0) || c.TargetSizeMB <= 0 {
		return fault.Configuration("target size must be a positive number of megabytes (got %v)", c.TargetSizeMB)
	}
	if c.TargetBytes() <= 0 {
		return fault.Configuration("target size %v MB is smaller than one byte", c.TargetSizeMB)
	}

	switch c.Kind {
	case KindAll, KindImage, KindVideo:
	default:
		return fault.Configuration("invalid kind %q (use 'all', 'image' or 'video')", c.Kind)
	}

	switch c.ImagePolicy {
	case PolicyFit, PolicyFixed:
	default:
		return fault.Configuration("invalid image policy %q (use 'fit' or 'fixed')", c.ImagePolicy)
	}

	switch c.ColorMode {
	case term.ModeAuto, term.ModeAlways, term.ModeNever:
	default:
		return fault.Configuration("invalid color mode %q (use 'auto', 'always' or 'never')", c.ColorMode)
	}

	if c.Jobs < 0 {
		return fault.Configuration("jobs must be >= 0 (got %d)", c.Jobs)
	}
	if _, err := c.ImageResize(); err != nil {
		return err
	}
	if _, err := c.VideoScale(); err != nil {
		return err
	}
	if err := c.Quality.Validate(); err != nil {
		return fault.Configuration("%v", err)
	}
	if c.FFmpegBin == "" || c.FFprobeBin == "" {
		return fault.Configuration("ffmpeg and ffprobe paths must not be empty")
	}
	return nil
}

// TargetBytes returns the size budget in bytes (1 MB = 1024*1024 bytes).
func (c *Config) TargetBytes() int64 { return planner.TargetBytes(c.TargetSizeMB) }

// ImageResize returns the resize policy for images. "none" is not allowed
// because both policies need bounds.
func (c *Config) ImageResize() (geometry.Policy, error) {
	size, err := geometry.ParseSize(c.ImageSize)
	if err != nil {
		return geometry.Policy{}, fault.Configuration("image size: %v", err)
	}
	if size.IsZero() {
		return geometry.Policy{}, fault.Configuration("image size must be WIDTHxHEIGHT, not %q", c.ImageSize)
	}
	if c.ImagePolicy == PolicyFixed {
		return geometry.FixedAspect(size.W, size.H), nil
	}
	return geometry.FreeFit(size.W, size.H), nil
}

// VideoScale returns the output scale for encoded videos; the zero Size
// disables scaling.
func (c *Config) VideoScale() (geometry.Size, error) {
	size, err := geometry.ParseSize(c.Scale)
	if err != nil {
		return geometry.Size{}, fault.Configuration("scale: %v", err)
	}
	return size, nil
}

// Wants reports whether files of kind k (image or video) are selected.
func (c *Config) Wants(k MediaKind) bool {
	return c.Kind == KindAll || c.Kind == k
}

// ValidatePaths ensures outputs cannot overwrite sources: the resolved
// output directory must differ from the directory the inputs live in.
// Discovery is not recursive, so an output directory nested inside the
// input directory is allowed. Both arguments must be absolute,
// symlink-resolved paths.
func (c *Config) ValidatePaths(inputDirAbs, outputAbs string) error {
	if filepath.Clean(inputDirAbs) == filepath.Clean(outputAbs) {
		return fault.Configuration("output directory must not be the input directory (%s)", outputAbs)
	}
	return nil
}
