package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pprofRouter(cidrs []string) chi.Router {
	r := chi.NewRouter()
	RegisterPprof(r, cidrs, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return r
}

func TestRegisterPprof_AllowsLoopback(t *testing.T) {
	router := pprofRouter([]string{"127.0.0.0/8"})

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/cmdline", nil)
	req.RemoteAddr = "127.0.0.1:54321"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterPprof_RefusesOutsideRange(t *testing.T) {
	router := pprofRouter([]string{"10.0.0.0/8"})

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/cmdline", nil)
	req.RemoteAddr = "203.0.113.10:443"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t,
		`{"error":{"code":"FORBIDDEN","message":"profiling endpoints are restricted"}}`,
		rec.Body.String(),
	)
}

func TestRegisterPprof_InvalidCIDRsRefuseEverything(t *testing.T) {
	router := pprofRouter([]string{"not-a-cidr"})

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/cmdline", nil)
	req.RemoteAddr = "127.0.0.1:54321"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRegisterPprof_IndexBehindAllowlist(t *testing.T) {
	router := pprofRouter([]string{"192.168.0.0/16"})

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	req.RemoteAddr = "192.168.1.50:9000"
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "profiles")
}
