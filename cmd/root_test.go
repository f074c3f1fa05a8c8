package cmd

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewMetricsServer(t *testing.T) {
	t.Parallel()

	srv := newMetricsServer(9091)
	require.Equal(t, ":9091", srv.Addr)
	require.NotZero(t, srv.ReadHeaderTimeout, "listener must bound slow clients")
	require.NotZero(t, srv.ReadTimeout)
	require.NotZero(t, srv.WriteTimeout)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
