package fractalview

import (
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/fractalview/internal/logging"
)

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	l := logging.Discard()
	loggerPtr.Store(l)
}

// SetLogger configures the logger for fractalview and its sub-packages.
// By default fractalview produces no log output.
//
// Views capture the logger at construction, so configure logging before
// creating views. Pass nil to restore the default silent behavior.
//
// Log levels used:
//   - [slog.LevelDebug]: per-frame diagnostics (query polls, load tiers)
//   - [slog.LevelInfo]: lifecycle events (session start/end, fallback loads)
//   - [slog.LevelWarn]: non-fatal teardown failures (framebuffer destroy)
//
// Example:
//
//	fractalview.SetLogger(slog.Default())
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = logging.Discard()
	}
	loggerPtr.Store(l)
}

// Logger returns the current fractalview logger.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
