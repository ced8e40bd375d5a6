package config

// This file binds CLI flags and layers configuration sources.
// Precedence, highest first: explicitly set flags, MINIMARKER_* environment
// variables, the config file, then DefaultConfig.

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/adriarlol/MiniMarker/internal/fault"
	"github.com/adriarlol/MiniMarker/internal/term"
)

// EnvPrefix is the environment variable prefix, e.g. MINIMARKER_JOBS.
const EnvPrefix = "MINIMARKER"

// configName is searched for as minimarker.yaml in the working directory and
// $HOME/.config/minimarker when --config is not given.
const configName = "minimarker"

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"target-size-mb": "target_size_mb",
	"kind":           "kind",
	"jobs":           "jobs",
	"image-policy":   "image_policy",
	"image-size":     "image_size",
	"scale":          "scale",
	"ffmpeg":         "ffmpeg",
	"ffprobe":        "ffprobe",
	"dry-run":        "dry_run",
	"resume":         "resume",
	"verbose":        "verbose",
	"no-progress":    "no_progress",
	"color":          "color",
}

// BindFlags registers all run flags on fs, writing defaults from cfg.
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	defineSizeFlags(fs, cfg)
	defineBehaviorFlags(fs, cfg)
	defineToolFlags(fs, cfg)
	defineDisplayFlags(fs, cfg)
}

// defineSizeFlags registers --target-size-mb, --image-policy, --image-size, --scale.
func defineSizeFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.Float64Var(&cfg.TargetSizeMB, "target-size-mb", cfg.TargetSizeMB, "Maximum output size per file in MB (1 MB = 1048576 bytes)")
	fs.Var(&imagePolicyValue{&cfg.ImagePolicy}, "image-policy", "Image resize policy: fit | fixed")
	fs.StringVar(&cfg.ImageSize, "image-size", cfg.ImageSize, "Image bounds (fit) or exact size (fixed), WIDTHxHEIGHT")
	fs.StringVar(&cfg.Scale, "scale", cfg.Scale, "Video output size WIDTHxHEIGHT, or none to keep the source size")
}

// defineBehaviorFlags registers --kind, --jobs, --dry-run, --resume.
func defineBehaviorFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.Var(&kindValue{&cfg.Kind}, "kind", "Media to process: all | image | video")
	fs.IntVarP(&cfg.Jobs, "jobs", "j", cfg.Jobs, "Files processed in parallel (0 = one per physical core)")
	fs.BoolVarP(&cfg.DryRun, "dry-run", "n", cfg.DryRun, "Plan only; write nothing")
	fs.BoolVar(&cfg.Resume, "resume", cfg.Resume, "Skip files unchanged since a previous successful run")
}

// defineToolFlags registers --ffmpeg, --ffprobe.
func defineToolFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.FFmpegBin, "ffmpeg", cfg.FFmpegBin, "ffmpeg binary")
	fs.StringVar(&cfg.FFprobeBin, "ffprobe", cfg.FFprobeBin, "ffprobe binary")
}

// defineDisplayFlags registers --verbose, --no-progress, --color.
func defineDisplayFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output (ffmpeg lines, quality trials)")
	fs.BoolVar(&cfg.NoProgress, "no-progress", cfg.NoProgress, "Disable the live encode progress bar")
	fs.Var(&colorModeValue{&cfg.ColorMode}, "color", "Colored output: auto | always | never")
}

// Load layers the config file and environment beneath the flags in fs and
// writes the result into cfg. A missing default config file is not an
// error; a missing explicit --config file is.
func Load(fs *pflag.FlagSet, cfg *Config) error {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	if cfg.ConfigFile != "" {
		v.SetConfigFile(cfg.ConfigFile)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", configName))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fault.Configuration("read config: %v", err)
		}
	}

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return fault.Configuration("bind flag --%s: %v", name, err)
				}
			}
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fault.Configuration("decode config: %v", err)
	}
	return nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("target_size_mb", d.TargetSizeMB)
	v.SetDefault("kind", string(d.Kind))
	v.SetDefault("jobs", d.Jobs)
	v.SetDefault("image_policy", string(d.ImagePolicy))
	v.SetDefault("image_size", d.ImageSize)
	v.SetDefault("quality.start", d.Quality.Start)
	v.SetDefault("quality.step", d.Quality.Step)
	v.SetDefault("quality.floor", d.Quality.Floor)
	v.SetDefault("scale", d.Scale)
	v.SetDefault("ffmpeg", d.FFmpegBin)
	v.SetDefault("ffprobe", d.FFprobeBin)
	v.SetDefault("dry_run", d.DryRun)
	v.SetDefault("resume", d.Resume)
	v.SetDefault("verbose", d.Verbose)
	v.SetDefault("no_progress", d.NoProgress)
	v.SetDefault("color", string(d.ColorMode))
}

// pflag.Value adapters so we can use enum types (MediaKind, ImagePolicy,
// term.Mode) with fs.Var.

type kindValue struct{ p *MediaKind }

func (k *kindValue) String() string { return string(*k.p) }
func (k *kindValue) Type() string   { return "kind" }
func (k *kindValue) Set(s string) error {
	switch MediaKind(strings.ToLower(s)) {
	case KindAll, KindImage, KindVideo:
		*k.p = MediaKind(strings.ToLower(s))
	default:
		return fmt.Errorf("invalid kind %q (use 'all', 'image' or 'video')", s)
	}
	return nil
}

type imagePolicyValue struct{ p *ImagePolicy }

func (i *imagePolicyValue) String() string { return string(*i.p) }
func (i *imagePolicyValue) Type() string   { return "policy" }
func (i *imagePolicyValue) Set(s string) error {
	switch ImagePolicy(strings.ToLower(s)) {
	case PolicyFit, PolicyFixed:
		*i.p = ImagePolicy(strings.ToLower(s))
	default:
		return fmt.Errorf("invalid image policy %q (use 'fit' or 'fixed')", s)
	}
	return nil
}

type colorModeValue struct{ p *term.Mode }

func (c *colorModeValue) String() string { return string(*c.p) }
func (c *colorModeValue) Type() string   { return "mode" }
func (c *colorModeValue) Set(s string) error {
	switch term.Mode(strings.ToLower(s)) {
	case term.ModeAuto, term.ModeAlways, term.ModeNever:
		*c.p = term.Mode(strings.ToLower(s))
	default:
		return fmt.Errorf("invalid color mode %q (use 'auto', 'always' or 'never')", s)
	}
	return nil
}
