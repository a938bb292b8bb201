// slog.go installs the process-wide structured logger. The server calls
// SetupLogger once at startup, before the database or router come up, so
// every later slog call in the codebase uses the configured handler.
package telemetry

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// parseLevel maps a configured level string to a slog.Level.
// Unknown values fall back to info rather than failing startup.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newHandler builds the slog handler for the given logging.format and
// logging.level config values. "json" selects the JSON handler; anything else
// gets the text handler for local development. Source locations are attached
// only at debug level.
func newHandler(w io.Writer, format, level string) slog.Handler {
	lvl := parseLevel(level)
	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	}

	if strings.ToLower(format) == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// SetupLogger configures and installs the default slog logger.
func SetupLogger(format, level string) {
	slog.SetDefault(slog.New(newHandler(os.Stdout, format, level)))
	slog.Info("logger initialised", "format", format, "level", parseLevel(level).String())
}
