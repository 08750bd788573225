package telemetry

import (
	"io"
	"log/slog"
	"strings"
)

// SetupLogger installs the global slog default logger writing to w, using the format
// and level strings read from configuration.
//
// format: "json"  → JSONHandler (machine readable)
//
//	anything else → TextHandler (human readable)
//
// level: "debug", "info", "warn", "error" (case-insensitive); defaults to "info".
//
// The probe passes stderr here so that structured logs never interleave with the
// transcript printed on stdout.
func SetupLogger(w io.Writer, format, level string) {
	lvl := ParseLevel(level)

	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug, // include file:line only when debugging
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
	slog.Debug("logger initialised", "format", format, "level", lvl.String())
}

// ParseLevel maps a configuration level string to a slog.Level.
func ParseLevel(level string) slog.Level {
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
