package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopfront/reviews/pkg/logger"
)

func TestRecovery_PanicBecomes500(t *testing.T) {
	var buf bytes.Buffer
	l := logger.NewWithWriter("info", &buf)

	h := Recovery(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("review store exploded")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reviews", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t,
		`{"error":{"code":"INTERNAL_ERROR","message":"an internal error occurred"}}`,
		rec.Body.String(),
	)
	assert.Contains(t, buf.String(), "panic recovered")
	assert.Contains(t, buf.String(), "review store exploded")
}

func TestRecovery_NoPanicPassesThrough(t *testing.T) {
	var buf bytes.Buffer
	l := logger.NewWithWriter("info", &buf)

	h := Recovery(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reviews", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, buf.Len())
}

func TestRecovery_AbortHandlerRePanics(t *testing.T) {
	var buf bytes.Buffer
	l := logger.NewWithWriter("info", &buf)

	h := Recovery(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/reviews", nil))
	})
}
