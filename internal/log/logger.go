// Package log wraps log/slog with the verbosity levels used by the -v flag
// and a carriage-return progress line for long collection runs.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Verbosity levels
const (
	LevelQuiet = iota // Default: only errors and warnings
	LevelInfo         // -v: per-repository progress, skips, counts
	LevelDebug        // -vv: API calls, rate limit budget, timing
	LevelTrace        // -vvv: per-file and per-commit detail
)

// SlogLevelTrace is the slog level used for -vvv output.
const SlogLevelTrace = slog.Level(-8)

var (
	mu         sync.Mutex
	verbosity  int
	logger     *slog.Logger
	output     io.Writer
	inProgress bool
)

// Initialize sets up the global logger with the specified verbosity level.
func Initialize(level int, w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	verbosity = level
	output = w
	logger = slog.New(progressHandler{slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slogLevel(level),
	})})
}

// progressHandler ends an open progress line before each record is written.
type progressHandler struct {
	slog.Handler
}

func (h progressHandler) Handle(ctx context.Context, r slog.Record) error {
	mu.Lock()
	clearProgress()
	mu.Unlock()
	return h.Handler.Handle(ctx, r)
}

func (h progressHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return progressHandler{h.Handler.WithAttrs(attrs)}
}

func (h progressHandler) WithGroup(name string) slog.Handler {
	return progressHandler{h.Handler.WithGroup(name)}
}

func slogLevel(level int) slog.Level {
	switch {
	case level >= LevelTrace:
		return SlogLevelTrace
	case level >= LevelDebug:
		return slog.LevelDebug
	case level >= LevelInfo:
		return slog.LevelInfo
	default:
		return slog.LevelWarn
	}
}

// Logger returns the underlying slog logger.
func Logger() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// ForRepo returns a logger that tags every record with the repository name.
func ForRepo(name string) *slog.Logger {
	return Logger().With("repo", name)
}

func emit(min int, level slog.Level, msg string, args ...any) {
	if Verbosity() < min {
		return
	}
	Logger().Log(context.Background(), level, msg, args...)
}

// Info logs at info level (-v)
func Info(msg string, args ...any) { emit(LevelInfo, slog.LevelInfo, msg, args...) }

// Debug logs at debug level (-vv)
func Debug(msg string, args ...any) { emit(LevelDebug, slog.LevelDebug, msg, args...) }

// Trace logs at trace level (-vvv)
func Trace(msg string, args ...any) { emit(LevelTrace, SlogLevelTrace, msg, args...) }

// Warn logs at warn level (always visible)
func Warn(msg string, args ...any) { emit(LevelQuiet, slog.LevelWarn, msg, args...) }

// Error logs at error level (always visible)
func Error(msg string, args ...any) { emit(LevelQuiet, slog.LevelError, msg, args...) }

// Progress prints a progress message with carriage return (no newline).
// Only shown at info level or higher.
func Progress(format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if verbosity >= LevelInfo {
		inProgress = true
		_, _ = fmt.Fprintf(output, "\r"+format, args...)
	}
}

// ProgressDone completes a progress line with "done" and newline.
func ProgressDone() {
	mu.Lock()
	defer mu.Unlock()
	if verbosity >= LevelInfo && inProgress {
		_, _ = fmt.Fprintln(output, " done")
		inProgress = false
	}
}

// ProgressClear clears the current progress line.
func ProgressClear() {
	mu.Lock()
	defer mu.Unlock()
	if inProgress {
		_, _ = fmt.Fprint(output, "\r\033[K")
		inProgress = false
	}
}

// clearProgress keeps a log record from overwriting a progress line.
// Callers hold mu.
func clearProgress() {
	if inProgress {
		_, _ = fmt.Fprintln(output)
		inProgress = false
	}
}

// IsInfo returns true if info-level logging is enabled
func IsInfo() bool { return Verbosity() >= LevelInfo }

// IsDebug returns true if debug-level logging is enabled
func IsDebug() bool { return Verbosity() >= LevelDebug }

// IsTrace returns true if trace-level logging is enabled
func IsTrace() bool { return Verbosity() >= LevelTrace }

// Verbosity returns the current verbosity level
func Verbosity() int {
	mu.Lock()
	defer mu.Unlock()
	return verbosity
}

func init() {
	output = os.Stderr
	verbosity = LevelQuiet
	logger = slog.New(progressHandler{slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})})
}
