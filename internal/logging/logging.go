// Package logging builds the JSON line loggers used across the service.
//
// Every line carries ts, level and msg; ts is rendered as RFC3339Nano in the
// configured location.
package logging

import (
	"io"
	"log/slog"
	"time"
)

// New returns a JSON slog.Logger writing to w.
func New(w io.Writer, loc *time.Location, level slog.Level) *slog.Logger {
	if loc == nil {
		loc = time.UTC
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				return slog.String("ts", a.Value.Time().In(loc).Format(time.RFC3339Nano))
			case slog.LevelKey:
				return slog.String(slog.LevelKey, levelName(a.Value))
			}
			return a
		},
	})
	return slog.New(h)
}

func levelName(v slog.Value) string {
	lvl, ok := v.Any().(slog.Level)
	if !ok {
		return v.String()
	}
	switch {
	case lvl >= slog.LevelError:
		return "error"
	case lvl >= slog.LevelWarn:
		return "warn"
	case lvl >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}
