package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Imdraks/faxcloud-analyzer/internal/config"
	"github.com/Imdraks/faxcloud-analyzer/internal/shared/testutil"
	ws "github.com/Imdraks/faxcloud-analyzer/internal/websocket"
	"github.com/Imdraks/faxcloud-analyzer/pkg/contracts/domain"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Storage.Driver = config.StorageMemory
	cfg.Security.RateLimit.Enabled = false
	cfg.Security.AllowedOrigins = []string{"*"}
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) (*Application, *httptest.Server) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	app, err := New(context.Background(), cfg, logger)
	require.NoError(t, err)

	srv := httptest.NewServer(app.Router)
	t.Cleanup(func() {
		srv.Close()
		assert.NoError(t, app.Stop(context.Background()))
	})
	return app, srv
}

func upload(t *testing.T, srv *httptest.Server, name, content string) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/api/reports", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestApplication_ReportLifecycle(t *testing.T) {
	_, srv := newTestApp(t, testConfig(t))

	resp := upload(t, srv, "march.csv", testutil.SampleExport())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))

	var report domain.StoredReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, 2, report.Statistics.Total)

	get, err := http.Get(srv.URL + "/api/reports/" + report.ID + "/entries?status=invalid")
	require.NoError(t, err)
	defer get.Body.Close()
	require.Equal(t, http.StatusOK, get.StatusCode)

	var page struct {
		Total   int                    `json:"total"`
		Entries []domain.AnalyzedEntry `json:"entries"`
	}
	require.NoError(t, json.NewDecoder(get.Body).Decode(&page))
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, "bob", page.Entries[0].User)
}

func TestApplication_Routes(t *testing.T) {
	_, srv := newTestApp(t, testConfig(t))

	tests := []struct {
		name        string
		method      string
		path        string
		wantStatus  int
		wantProblem bool
	}{
		{"health", http.MethodGet, "/api/health", http.StatusOK, false},
		{"ready", http.MethodGet, "/api/health/ready", http.StatusOK, false},
		{"version", http.MethodGet, "/api/version", http.StatusOK, false},
		{"list", http.MethodGet, "/api/reports", http.StatusOK, false},
		{"unknown report", http.MethodGet, "/api/reports/nope", http.StatusNotFound, true},
		{"unknown route", http.MethodGet, "/api/nope", http.StatusNotFound, true},
		{"wrong method", http.MethodPut, "/api/reports", http.StatusMethodNotAllowed, true},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.path, nil)
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantProblem {
				assert.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))
			}
		})
	}
}

func TestApplication_MetricsExposeHTTPTraffic(t *testing.T) {
	_, srv := newTestApp(t, testConfig(t))

	resp := upload(t, srv, "march.csv", testutil.SampleExport())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	metrics, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer metrics.Body.Close()
	body, err := io.ReadAll(metrics.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "http_requests_total")
	assert.Contains(t, string(body), `route="/api/reports`)
	assert.Contains(t, string(body), "analysis_runs_total")
}

func TestApplication_WebSocketBroadcast(t *testing.T) {
	_, srv := newTestApp(t, testConfig(t))

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	readEvent := func() ws.Event {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var ev ws.Event
		require.NoError(t, conn.ReadJSON(&ev))
		return ev
	}

	assert.Equal(t, ws.TypeConnection, readEvent().Type)

	resp := upload(t, srv, "march.csv", testutil.SampleExport())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	ev := readEvent()
	assert.Equal(t, ws.TypeReportCreated, ev.Type)
	data, ok := ev.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "march.csv", data["file_name"])
	assert.EqualValues(t, 2, data["total"])
}

func TestApplication_RedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Cache.Enabled = true
	cfg.Cache.Addr = mr.Addr()

	_, srv := newTestApp(t, cfg)

	resp := upload(t, srv, "march.csv", testutil.SampleExport())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var report domain.StoredReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))

	for i := 0; i < 2; i++ {
		get, err := http.Get(srv.URL + "/api/reports/" + report.ID)
		require.NoError(t, err)
		get.Body.Close()
		assert.Equal(t, http.StatusOK, get.StatusCode)
	}
	assert.NotEmpty(t, mr.Keys())
}

func TestApplication_StartStop(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	app, err := New(context.Background(), testConfig(t), logger)
	require.NoError(t, err)
	app.Server.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, app.Start(ctx, cancel))
	require.NoError(t, app.Stop(context.Background()))

	testutil.AssertLogContains(t, logs, slog.LevelInfo, "Application shutdown complete")
	assert.NoError(t, ctx.Err())
}

func TestNew_UnknownStorageDriver(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	cfg := testConfig(t)
	cfg.Storage.Driver = "mongo"

	_, err := New(context.Background(), cfg, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage driver")
}
