// Command minimarker is the CLI entrypoint for MiniMarker.
//
// It parses flags and the optional config file, validates configuration
// and paths, and either runs system diagnostics (check) or the batch that
// shrinks every image and video under the input path to the target size.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/adriarlol/MiniMarker/internal/check"
	"github.com/adriarlol/MiniMarker/internal/config"
	"github.com/adriarlol/MiniMarker/internal/display"
	"github.com/adriarlol/MiniMarker/internal/logging"
	"github.com/adriarlol/MiniMarker/internal/pipeline"
	"github.com/adriarlol/MiniMarker/internal/term"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "1.0.0"
	commit  = "unknown"
)

// Process exit codes.
const (
	exitOK     = 0
	exitError  = 1 // Invalid input path, configuration, or usage.
	exitFailed = 2 // One or more items failed.
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	// SIGINT/SIGTERM cancel the root context: running encoders are killed
	// and items not yet started fail with the cancellation reason.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.DefaultConfig()
	code := exitOK
	root := newRootCmd(&cfg, &code)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	// Bootstrap errors happen before the logger exists, so they go straight
	// to stderr.
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "minimarker: %v\n", err)
		return exitError
	}
	return code
}

func newRootCmd(cfg *config.Config, code *int) *cobra.Command {
	root := &cobra.Command{
		Use:   "minimarker [flags] <input_path> <output_path> <log_path>",
		Short: "Shrink images and videos to a target file size",
		Long: `minimarker compresses every supported file in input_path (or input_path
itself when it is a file) so that each output fits the target size.

Images (.png .jpg .jpeg) are resized and re-encoded at the highest quality
that fits. Videos (.mp4 .avi .mkv) already within the target are copied
unchanged; others are encoded to H.264 MP4 in two passes at a bitrate derived
from their duration. Logs, pass statistics, and report.yaml go to log_path.`,
		Args:          cobra.ExactArgs(3),
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.InputPath = args[0]
			cfg.OutputDir = config.NormalizeDirArg(args[1])
			cfg.LogDir = config.NormalizeDirArg(args[2])
			return runBatch(cmd, cfg, code)
		},
	}
	root.SetVersionTemplate("minimarker {{.Version}}\n")
	root.PersistentFlags().StringVar(&cfg.ConfigFile, "config", "", "Config file (default: ./minimarker.yaml or ~/.config/minimarker/minimarker.yaml)")
	config.BindFlags(root.PersistentFlags(), cfg)

	root.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Report ffmpeg, ffprobe, libx264, and host resources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, cfg, code)
		},
	})
	return root
}

// runBatch loads the layered config, sets up logging, and runs the batch.
func runBatch(cmd *cobra.Command, cfg *config.Config, code *int) error {
	if err := config.Load(cmd.Flags(), cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	term.Configure(cfg.ColorMode)

	log, err := logging.New(logging.Options{
		Verbose: cfg.Verbose,
		Dir:     cfg.LogDir,
		Stdout:  cmd.OutOrStdout(),
		Stderr:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	defer log.Close()

	// Logger available: all output goes through log from here on.
	display.PrintBanner(cmd.OutOrStdout(), version)
	log.Info("In:   %s", cfg.InputPath)
	log.Info("Out:  %s", cfg.OutputDir)
	log.Info("Logs: %s", cfg.LogDir)
	log.Debug("Log file: %s", log.Path())

	ctx := cmd.Context()
	if cfg.Wants(config.KindVideo) && !cfg.DryRun {
		// Relays need no tools, so a missing encoder only fails the items
		// that must be encoded.
		if err := check.CheckDeps(ctx, cfg); err != nil {
			log.Warn("%v; videos above the target will fail", err)
		}
	}

	sum, err := pipeline.Run(ctx, cfg, log)
	if err != nil {
		log.Error("%v", err)
		*code = exitError
		return nil
	}
	if ctx.Err() != nil {
		log.Warn("Interrupted")
	}
	if sum.Stats.Failed > 0 {
		*code = exitFailed
	}
	return nil
}

// runCheck prints diagnostics; any failed check exits with exitError.
func runCheck(cmd *cobra.Command, cfg *config.Config, code *int) error {
	if err := config.Load(cmd.Flags(), cfg); err != nil {
		return err
	}
	term.Configure(cfg.ColorMode)

	log, err := logging.New(logging.Options{
		Verbose: cfg.Verbose,
		Stdout:  cmd.OutOrStdout(),
		Stderr:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	defer log.Close()

	display.PrintBanner(cmd.OutOrStdout(), version)
	if failures := check.RunCheck(cmd.Context(), cfg, log); failures > 0 {
		log.Error("%d check(s) failed", failures)
		*code = exitError
	}
	return nil
}
