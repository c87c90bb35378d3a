package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopfront/reviews/pkg/logger"
)

func accessLog(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	return record
}

func TestRequestLog_GeneratesCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	base := logger.NewWithWriter("info", &buf)

	var seen string
	h := RequestLog(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.CorrelationIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reviews?productId=p1", nil))

	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Correlation-ID"))

	record := accessLog(t, &buf)
	assert.Equal(t, seen, record["correlation_id"])
	assert.Equal(t, "/api/reviews", record["path"])
	assert.Equal(t, "GET", record["method"])
	assert.Equal(t, float64(http.StatusOK), record["status"])
}

func TestRequestLog_PropagatesInboundCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	base := logger.NewWithWriter("info", &buf)

	h := RequestLog(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/reviews", nil)
	req.Header.Set("X-Correlation-ID", "corr-inbound")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "corr-inbound", rec.Header().Get("X-Correlation-ID"))
	assert.Equal(t, "corr-inbound", accessLog(t, &buf)["correlation_id"])
}

func TestRequestLog_UserIDFromSessionContext(t *testing.T) {
	var buf bytes.Buffer
	base := logger.NewWithWriter("info", &buf)

	session := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), "user-9")))
		})
	}
	h := session(RequestLog(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/reviews", nil))

	assert.Equal(t, "user-9", accessLog(t, &buf)["user_id"])
}

func TestRequestLog_UserIDHeaderFallback(t *testing.T) {
	var buf bytes.Buffer
	base := logger.NewWithWriter("info", &buf)

	h := RequestLog(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/products/mug", nil)
	req.Header.Set("X-User-ID", "user-header")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "user-header", accessLog(t, &buf)["user_id"])
}

func TestRequestLog_ScopedLoggerInContext(t *testing.T) {
	var buf bytes.Buffer
	base := logger.NewWithWriter("info", &buf)

	h := RequestLog(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.FromContext(r.Context()).Info("handler line")
		w.WriteHeader(http.StatusOK)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/reviews", nil))

	// Two records: the handler's line and the access log, both carrying
	// the same correlation id.
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var first, second map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &first))
	require.NoError(t, json.Unmarshal(lines[1], &second))
	assert.Equal(t, "handler line", first["msg"])
	assert.Equal(t, first["correlation_id"], second["correlation_id"])
	assert.NotEmpty(t, first["correlation_id"])
}

func TestRequestLog_RecordsErrorStatus(t *testing.T) {
	var buf bytes.Buffer
	base := logger.NewWithWriter("info", &buf)

	h := RequestLog(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPatch, "/api/reviews", nil))

	record := accessLog(t, &buf)
	assert.Equal(t, float64(http.StatusInternalServerError), record["status"])
	assert.Positive(t, record["bytes"])
}
