// Package logging provides the leveled logger used across the CLI.
//
// It is a thin printf-style facade over zap: a colored console core (errors
// to stderr, everything else to stdout) teed with a JSON file core that
// records every level, debug included.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// FileName is the log file created inside Options.Dir.
const FileName = "minimarker.log"

// successName tags entries logged through Success so the console encoder
// can render them distinctly; zap has no level between info and warn.
const successName = "success"

// Options configures New.
type Options struct {
	Verbose bool      // Show debug entries on the console.
	Dir     string    // Directory for FileName; empty disables the file sink.
	Stdout  io.Writer // Defaults to os.Stdout.
	Stderr  io.Writer // Defaults to os.Stderr.
}

// Logger provides leveled, optionally colored logging with an optional file sink.
type Logger struct {
	z    *zap.Logger
	file *os.File
	path string
}

// New builds a Logger. Call Close when done.
func New(opts Options) (*Logger, error) {
	stdout, stderr := opts.Stdout, opts.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	minLevel := zapcore.InfoLevel
	if opts.Verbose {
		minLevel = zapcore.DebugLevel
	}
	consoleEnc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		NameKey:          "logger",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      colorLevelEncoder,
		EncodeTime:       zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05"),
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeName:       colorNameEncoder,
		ConsoleSeparator: " ",
	})
	cores := []zapcore.Core{
		zapcore.NewCore(consoleEnc, zapcore.AddSync(stdout), zap.LevelEnablerFunc(func(l zapcore.Level) bool {
			return l >= minLevel && l < zapcore.ErrorLevel
		})),
		zapcore.NewCore(consoleEnc, zapcore.AddSync(stderr), zapcore.ErrorLevel),
	}

	l := &Logger{}
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, err
		}
		l.path = filepath.Join(opts.Dir, FileName)
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		l.file = f
		fileEnc := zapcore.NewJSONEncoder(zapcore.EncoderConfig{
			TimeKey:        "time",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "msg",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		})
		cores = append(cores, zapcore.NewCore(fileEnc, zapcore.AddSync(f), zapcore.DebugLevel))
	}

	l.z = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	return l, nil
}

// Nop returns a Logger that discards everything.
func Nop() *Logger { return &Logger{z: zap.NewNop()} }

// Path returns the log file path, or "" when there is no file sink.
func (l *Logger) Path() string { return l.path }

// Close flushes and closes the log file if one was opened.
func (l *Logger) Close() error {
	_ = l.z.Sync()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// Info logs at INFO level.
func (l *Logger) Info(format string, args ...any) {
	l.z.Info(fmt.Sprintf(format, args...))
}

// Success logs a completed step at INFO level, marked as a success.
func (l *Logger) Success(format string, args ...any) {
	l.z.Named(successName).Info(fmt.Sprintf(format, args...))
}

// Warn logs at WARN level.
func (l *Logger) Warn(format string, args ...any) {
	l.z.Warn(fmt.Sprintf(format, args...))
}

// Error logs at ERROR level, to stderr.
func (l *Logger) Error(format string, args ...any) {
	l.z.Error(fmt.Sprintf(format, args...))
}

// Debug logs at DEBUG level; shown on the console only when verbose, always
// written to the file.
func (l *Logger) Debug(format string, args ...any) {
	l.z.Debug(fmt.Sprintf(format, args...))
}

func colorLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	var s string
	switch level {
	case zapcore.DebugLevel:
		s = color.CyanString("[DEBUG]")
	case zapcore.InfoLevel:
		s = color.BlueString("[INFO]")
	case zapcore.WarnLevel:
		s = color.YellowString("[WARN]")
	case zapcore.ErrorLevel:
		s = color.RedString("[ERROR]")
	default:
		s = color.MagentaString("[" + level.CapitalString() + "]")
	}
	enc.AppendString(s)
}

func colorNameEncoder(name string, enc zapcore.PrimitiveArrayEncoder) {
	if name == successName {
		enc.AppendString(color.GreenString("[OK]"))
		return
	}
	enc.AppendString(name)
}
