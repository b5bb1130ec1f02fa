package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is a leveled JSON logger tagged with the service name.
type Logger struct {
	l *slog.Logger
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a logger writing JSON lines to stdout.
func New(service, level string) *Logger {
	return NewWithWriter(os.Stdout, service, level)
}

// NewWithWriter creates a logger writing JSON lines to w.
func NewWithWriter(w io.Writer, service, level string) *Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)})
	return &Logger{l: slog.New(h).With("service", service)}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return NewWithWriter(io.Discard, "", "error")
}

func (lg *Logger) Debug(msg string, fields map[string]any) {
	lg.l.Debug(msg, attrs(fields)...)
}

func (lg *Logger) Info(msg string, fields map[string]any) {
	lg.l.Info(msg, attrs(fields)...)
}

func (lg *Logger) Warn(msg string, fields map[string]any) {
	lg.l.Warn(msg, attrs(fields)...)
}

func (lg *Logger) Error(msg string, fields map[string]any) {
	lg.l.Error(msg, attrs(fields)...)
}

// WithFields returns a child logger that adds base to every entry.
//
//	reqLog := log.WithFields(map[string]any{"ride_id": id})
//	reqLog.Info("ride booked", map[string]any{"user_id": uid})
func (lg *Logger) WithFields(base map[string]any) *Logger {
	return &Logger{l: lg.l.With(attrs(base)...)}
}

// Slog exposes the underlying slog logger for libraries that accept one.
func (lg *Logger) Slog() *slog.Logger {
	return lg.l
}

func attrs(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	out := make([]any, 0, len(fields))
	for k, v := range fields {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		out = append(out, slog.Any(k, v))
	}
	return out
}
