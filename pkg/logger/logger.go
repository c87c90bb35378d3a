// Package logger builds the reviews service's JSON loggers and carries
// request-scoped logging state (correlation id, user id, the enriched
// logger itself) through context.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

const serviceName = "reviews"

type ctxKey int

const (
	correlationKey ctxKey = iota
	userKey
	loggerKey
)

// New returns the service logger writing JSON records to stdout. Every
// record carries the service field so aggregated logs stay filterable.
func New(level string) *slog.Logger {
	return NewWithWriter(level, os.Stdout)
}

// NewWithWriter returns the service logger writing to w. Tests pass a
// buffer here to assert on emitted records.
func NewWithWriter(level string, w io.Writer) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler).With(slog.String("service", serviceName))
}

// parseLevel maps the LOG_LEVEL config value to a slog level. Unknown
// values fall back to info rather than failing startup.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithCorrelationID stores the request's correlation id in the context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey, id)
}

// CorrelationIDFromContext returns the correlation id, or "" when the
// request carries none.
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey).(string)
	return id
}

// WithUserID stores the session's user id in the context for log
// enrichment.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userKey, id)
}

// UserIDFromContext returns the user id, or "" for anonymous sessions.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userKey).(string)
	return id
}

// IntoContext stores a request-scoped logger in the context.
func IntoContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the request-scoped logger, or slog.Default when
// the request log middleware is not mounted (as in tests).
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// Enrich returns l with every context-derived field that is present:
// correlation_id, user_id, and the active trace/span ids.
func Enrich(ctx context.Context, l *slog.Logger) *slog.Logger {
	if id := CorrelationIDFromContext(ctx); id != "" {
		l = l.With(slog.String("correlation_id", id))
	}
	if id := UserIDFromContext(ctx); id != "" {
		l = l.With(slog.String("user_id", id))
	}
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		l = l.With(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return l
}
