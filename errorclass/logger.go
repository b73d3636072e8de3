package errorclass

import (
	"context"
	"log/slog"
)

// Logger writes classified error records.
// The zero value and a nil *Logger write to slog.Default().
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates a new Logger that writes to l.
// If l is nil, slog.Default() is used.
func NewLogger(l *slog.Logger) *Logger {
	return &Logger{logger: l}
}

// LogError classifies err and writes one error record describing it.
// where names the operation that failed. LogError never panics, even for nil or malformed errors.
func (l *Logger) LogError(ctx context.Context, err error, where string) ClassifiedError {
	ce := Classify(err)

	raw := "<nil>"
	if err != nil {
		raw = safeMessage(err)
	}
	l.slog().LogAttrs(ctx, slog.LevelError, "error in "+where,
		slog.String("where", where),
		slog.String("type", string(ce.Kind)),
		slog.String("handled_message", ce.Message),
		slog.String("error", raw),
	)
	return ce
}

// Warn writes a warning record with the classification of err.
// It is used for failures that were absorbed, such as a failed background refresh.
func (l *Logger) Warn(ctx context.Context, err error, msg string) {
	ce := Classify(err)

	raw := "<nil>"
	if err != nil {
		raw = safeMessage(err)
	}
	l.slog().LogAttrs(ctx, slog.LevelWarn, msg,
		slog.String("type", string(ce.Kind)),
		slog.String("error", raw),
	)
}

// Info writes an informational record.
func (l *Logger) Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.slog().LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

// Debug writes a debug record.
func (l *Logger) Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.slog().LogAttrs(ctx, slog.LevelDebug, msg, attrs...)
}

func (l *Logger) slog() *slog.Logger {
	if l == nil || l.logger == nil {
		return slog.Default()
	}
	return l.logger
}
