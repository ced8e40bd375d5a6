// Package check provides system diagnostics (the check subcommand) and
// pre-batch dependency validation (CheckDeps) for ffmpeg, ffprobe, and the
// libx264 encoder.
package check

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/adriarlol/MiniMarker/internal/config"
	"github.com/adriarlol/MiniMarker/internal/display"
)

// Sentinel errors for a missing tool or encoder, or a broken libx264.
var (
	ErrFFmpegNotFound  = errors.New("ffmpeg not found")
	ErrFFprobeNotFound = errors.New("ffprobe not found")
	ErrNoLibx264       = errors.New("ffmpeg lacks the libx264 encoder")
	ErrX264TestFailed  = errors.New("libx264 test encode failed")
)

// toolTimeout bounds each diagnostic ffmpeg/ffprobe invocation.
const toolTimeout = 20 * time.Second

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// remains dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...any)
	Success(string, ...any)
	Warn(string, ...any)
	Error(string, ...any)
	Debug(string, ...any)
}

// RunCheck prints tool versions, libx264 availability, a test encode, and
// host resources. It is informational and reports the number of failed
// checks rather than stopping at the first one.
func RunCheck(ctx context.Context, cfg *config.Config, log Logger) int {
	log.Info("=== System Check ===")

	failures := 0
	for _, ok := range []bool{
		checkVersion(ctx, cfg.FFmpegBin, "ffmpeg", log),
		checkVersion(ctx, cfg.FFprobeBin, "ffprobe", log),
		checkEncoders(ctx, cfg.FFmpegBin, log),
		checkX264(ctx, cfg.FFmpegBin, log),
	} {
		if !ok {
			failures++
		}
	}
	checkHost(cfg, log)
	return failures
}

// checkVersion verifies bin resolves and logs the first line of -version.
func checkVersion(ctx context.Context, bin, name string, log Logger) bool {
	path, err := exec.LookPath(bin)
	if err != nil {
		log.Error("%s not found (%s)", name, bin)
		return false
	}
	out, err := output(ctx, path, "-version")
	if err != nil {
		log.Warn("%s found at %s but -version failed: %v", name, path, err)
		return false
	}
	log.Success("%s: %s", name, firstLine(out))
	log.Debug("  path: %s", path)
	return true
}

// checkEncoders lists the H.264 encoders ffmpeg reports.
func checkEncoders(ctx context.Context, bin string, log Logger) bool {
	out, err := output(ctx, bin, "-hide_banner", "-encoders")
	if err != nil {
		log.Warn("Could not list encoders: %v", err)
		return false
	}
	log.Info("H.264 encoders:")
	for _, line := range strings.Split(out, "\n") {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "264") {
			log.Info("  %s", strings.TrimSpace(line))
		}
	}
	if !hasEncoder(out, "libx264") {
		log.Error("libx264 is not available; two-pass video encodes will fail")
		return false
	}
	return true
}

// checkX264 runs a minimal libx264 encode to verify CPU encoding works.
func checkX264(ctx context.Context, bin string, log Logger) bool {
	log.Info("Testing libx264...")
	if err := testX264(ctx, bin); err != nil {
		log.Error("%v", err)
		return false
	}
	log.Success("libx264 works")
	return true
}

// testX264 encodes a tenth of a second of black frames, wrapping
// ErrX264TestFailed with ffmpeg's first output line on failure.
func testX264(ctx context.Context, bin string) error {
	out, err := output(ctx, bin, x264TestArgs()...)
	if err == nil {
		return nil
	}
	if line := firstLine(out); line != "" {
		return fmt.Errorf("%w: %s", ErrX264TestFailed, line)
	}
	return fmt.Errorf("%w: %v", ErrX264TestFailed, err)
}

// checkHost logs CPU, memory, and free space where outputs will go.
func checkHost(cfg *config.Config, log Logger) {
	physical, _ := cpu.Counts(false)
	logical, _ := cpu.Counts(true)
	model := "unknown CPU"
	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		model = strings.TrimSpace(infos[0].ModelName)
	}
	log.Info("CPU: %s (%d cores, %d threads); --jobs 0 uses %d workers", model, physical, logical, max(physical, 1))

	if vm, err := mem.VirtualMemory(); err == nil {
		log.Info("Memory: %s available of %s", display.FormatBytes(int64(vm.Available)), display.FormatBytes(int64(vm.Total)))
	}

	dir := cfg.OutputDir
	if dir == "" {
		dir = "."
	}
	if du, err := disk.Usage(dir); err == nil {
		log.Info("Disk: %s free at %s", display.FormatBytes(int64(du.Free)), du.Path)
	}
}

// CheckDeps is the pre-batch validation for video work: it verifies that
// ffmpeg and ffprobe resolve and that ffmpeg lists libx264. Returns a
// sentinel error on failure.
func CheckDeps(ctx context.Context, cfg *config.Config) error {
	if _, err := exec.LookPath(cfg.FFmpegBin); err != nil {
		return fmt.Errorf("%w: %s", ErrFFmpegNotFound, cfg.FFmpegBin)
	}
	if _, err := exec.LookPath(cfg.FFprobeBin); err != nil {
		return fmt.Errorf("%w: %s", ErrFFprobeNotFound, cfg.FFprobeBin)
	}
	out, err := output(ctx, cfg.FFmpegBin, "-hide_banner", "-encoders")
	if err != nil || !hasEncoder(out, "libx264") {
		return ErrNoLibx264
	}
	return nil
}

// --- internal helpers ---

// hasEncoder reports whether an `ffmpeg -encoders` listing names encoder.
// Listing lines look like " V....D libx264   libx264 H.264 / AVC ...".
func hasEncoder(listing, encoder string) bool {
	for _, line := range strings.Split(listing, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[1] == encoder {
			return true
		}
	}
	return false
}

// x264TestArgs returns the ffmpeg arguments for a minimal libx264 test encode.
func x264TestArgs() []string {
	return []string{
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-f", "lavfi", "-i", "color=black:s=256x256:d=0.1",
		"-c:v", "libx264",
		"-f", "null", "-",
	}
}

// output runs a command with toolTimeout and returns its combined output.
func output(ctx context.Context, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, toolTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	return string(out), err
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "\n"); idx > 0 {
		return s[:idx]
	}
	return s
}
