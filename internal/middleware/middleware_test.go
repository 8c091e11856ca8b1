package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Imdraks/faxcloud-analyzer/internal/infrastructure"
	"github.com/Imdraks/faxcloud-analyzer/internal/shared/testutil"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func TestRequestID(t *testing.T) {
	var seenReqID, seenTrace string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenReqID = GetReqID(r.Context())
		seenTrace = infrastructure.GetTraceID(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		require.NotEmpty(t, seenReqID)
		assert.Equal(t, seenReqID, w.Header().Get(RequestIDHeader))
		assert.Equal(t, seenReqID, seenTrace)
		assert.Equal(t, seenReqID, chimw.GetReqID(context.WithValue(context.Background(), chimw.RequestIDKey, seenReqID)))
	})

	t.Run("propagated", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set(RequestIDHeader, "upstream-1")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		assert.Equal(t, "upstream-1", seenReqID)
		assert.Equal(t, "upstream-1", w.Header().Get(RequestIDHeader))
	})
}

func TestStructuredLogger(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := StructuredLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/reports", nil))

	testutil.AssertLogContains(t, logs, slog.LevelError, "request completed")
	testutil.AssertLogAttr(t, logs, "status", int64(http.StatusInternalServerError))
}

func TestRecoverer(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := RequestID(Recoverer(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("nil map")
	})))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, w.Header().Get(RequestIDHeader), body["trace_id"])
	testutil.AssertLogContains(t, logs, slog.LevelError, "panic recovered")
}

func TestRateLimiter(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewRateLimiter(0.001, 1, logger).Handler(http.HandlerFunc(okHandler))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	testutil.AssertLogContains(t, logs, slog.LevelWarn, "rate limit exceeded")
}

func TestTimeout(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	t.Run("handler honours deadline", func(t *testing.T) {
		h := Timeout(10*time.Millisecond, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		}))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	})

	t.Run("fast handler untouched", func(t *testing.T) {
		h := Timeout(time.Second, logger)(http.HandlerFunc(okHandler))
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", w.Body.String())
	})
}

func TestCORS(t *testing.T) {
	h := CORS(CORSConfig{AllowedOrigins: []string{"http://app.test"}})(http.HandlerFunc(okHandler))

	tests := []struct {
		name       string
		method     string
		origin     string
		wantOrigin string
		wantStatus int
	}{
		{"allowed origin", http.MethodGet, "http://app.test", "http://app.test", http.StatusOK},
		{"other origin", http.MethodGet, "http://evil.test", "", http.StatusOK},
		{"preflight", http.MethodOptions, "http://app.test", "http://app.test", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, "/api/reports", nil)
			r.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	SecurityHeaders(http.HandlerFunc(okHandler)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}
