// Package logging sets up Scanarium's process-wide structured logger on
// top of log/slog, with a tint-colored console handler for
// local/interactive runs.
package logging

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// Setup installs the process-wide default logger. verbosity follows the
// CLI's repeated `-v` flag: 0 is Info, 1+ is Debug.
func Setup(verbosity int, w *os.File) {
	level := slog.LevelInfo
	if verbosity > 0 {
		level = slog.LevelDebug
	}

	handler := tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "2006-01-02T15:04:05.000",
		NoColor:    !isTerminal(w),
	})
	slog.SetDefault(slog.New(handler))
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// WithFields returns a child logger carrying structured fields; call sites
// attach whatever context is relevant.
func WithFields(ctx context.Context, kv ...any) *slog.Logger {
	return slog.Default().With(kv...)
}

// Elapsed is a small helper for call sites that want to log how long a
// suspension point (external process, capture grab, file I/O) took.
func Elapsed(start time.Time) time.Duration {
	return time.Since(start)
}
