package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	return record
}

func TestNewWithWriter_EmitsServiceField(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("info", &buf)

	l.Info("review appended", slog.String("product_id", "gid://shopify/Product/1"))

	record := logLine(t, &buf)
	assert.Equal(t, "reviews", record["service"])
	assert.Equal(t, "review appended", record["msg"])
	assert.Equal(t, "gid://shopify/Product/1", record["product_id"])
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("warn", &buf)

	l.Info("suppressed")
	assert.Zero(t, buf.Len())

	l.Warn("submission rolled back")
	record := logLine(t, &buf)
	assert.Equal(t, "WARN", record["level"])
}

func TestNewWithWriter_DebugEnablesDebugRecords(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("debug", &buf)

	l.Debug("event published")
	assert.NotZero(t, buf.Len())
}

func TestParseLevel_UnknownFallsBackToInfo(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, parseLevel("verbose"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
	assert.Equal(t, slog.LevelError, parseLevel("ERROR"))
}

func TestCorrelationID_RoundTrip(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "corr-42")
	assert.Equal(t, "corr-42", CorrelationIDFromContext(ctx))
	assert.Empty(t, CorrelationIDFromContext(context.Background()))
}

func TestUserID_RoundTrip(t *testing.T) {
	ctx := WithUserID(context.Background(), "user-7")
	assert.Equal(t, "user-7", UserIDFromContext(ctx))
	assert.Empty(t, UserIDFromContext(context.Background()))
}

func TestFromContext_DefaultWhenUnset(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}

func TestFromContext_ReturnsStoredLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("info", &buf)
	ctx := IntoContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
}

func TestEnrich_AddsContextFields(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithWriter("info", &buf)

	ctx := WithCorrelationID(context.Background(), "corr-abc")
	ctx = WithUserID(ctx, "user-1")

	Enrich(ctx, base).Info("helpful count incremented")

	record := logLine(t, &buf)
	assert.Equal(t, "corr-abc", record["correlation_id"])
	assert.Equal(t, "user-1", record["user_id"])
}

func TestEnrich_NoFieldsWithoutContextState(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithWriter("info", &buf)

	Enrich(context.Background(), base).Info("plain")

	record := logLine(t, &buf)
	assert.NotContains(t, record, "correlation_id")
	assert.NotContains(t, record, "user_id")
	assert.NotContains(t, record, "trace_id")
}
