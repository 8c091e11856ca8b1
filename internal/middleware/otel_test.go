package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Imdraks/faxcloud-analyzer/internal/config"
	"github.com/Imdraks/faxcloud-analyzer/internal/infrastructure"
	"github.com/Imdraks/faxcloud-analyzer/internal/shared/testutil"
)

func TestOTelMiddleware_RecordsRouteMetrics(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	providers, err := infrastructure.InitializeOTel(config.TelemetryConfig{
		ServiceName:    "test",
		TraceExporter:  "none",
		MetricsEnabled: true,
	}, logger)
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	metrics, err := infrastructure.NewAnalysisMetrics(providers.Meter)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(NewOTelMiddleware(providers, metrics).Handler)
	r.Get("/api/reports/{id}", okHandler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reports/abc", nil))
	require.Equal(t, http.StatusOK, w.Code)

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, "http_requests_total")
	assert.Contains(t, body, `route="/api/reports/{id}"`)
	assert.Contains(t, body, `status_code="200"`)
}

func TestOTelMiddleware_NilMetrics(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	providers, err := infrastructure.InitializeOTel(config.TelemetryConfig{ServiceName: "test"}, logger)
	require.NoError(t, err)

	h := NewOTelMiddleware(providers, nil).Handler(http.HandlerFunc(okHandler))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetRealIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "10.0.0.1:1234", GetRealIP(r))

	r.Header.Set("X-Real-IP", "192.0.2.7")
	assert.Equal(t, "192.0.2.7", GetRealIP(r))

	r.Header.Set("X-Forwarded-For", "198.51.100.2")
	assert.Equal(t, "198.51.100.2", GetRealIP(r))
}
