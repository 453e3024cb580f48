package middleware_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/maxsports/internal/middleware"
)

func captureLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantLevel string
	}{
		{"ok", http.StatusOK, "hello", "INFO"},
		{"implicit ok", 0, "hi", "INFO"},
		{"client error", http.StatusNotFound, "", "WARN"},
		{"server error", http.StatusBadGateway, "", "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := middleware.Logger(captureLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.status != 0 {
					w.WriteHeader(tt.status)
				}
				w.Write([]byte(tt.body))
			}))

			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/exercises?page=2", nil))

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, "request completed", entry["msg"])
			assert.Equal(t, "GET", entry["method"])
			assert.Equal(t, "/api/exercises", entry["path"])
			wantStatus := tt.status
			if wantStatus == 0 {
				wantStatus = http.StatusOK
			}
			assert.EqualValues(t, wantStatus, entry["status"])
			assert.EqualValues(t, len(tt.body), entry["bytes"])
			assert.NotContains(t, entry, "requestID")
		})
	}
}

func TestLogger_RequestID(t *testing.T) {
	var buf bytes.Buffer
	h := chimiddleware.RequestID(middleware.Logger(captureLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	req.Header.Set(chimiddleware.RequestIDHeader, "req-42")
	h.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-42", entry["requestID"])
}

func TestEchoRequestID(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("generated id", func(t *testing.T) {
		rr := httptest.NewRecorder()
		chimiddleware.RequestID(middleware.EchoRequestID(ok)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.NotEmpty(t, rr.Header().Get(chimiddleware.RequestIDHeader))
	})

	t.Run("incoming id is kept", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set(chimiddleware.RequestIDHeader, "req-7")
		rr := httptest.NewRecorder()
		chimiddleware.RequestID(middleware.EchoRequestID(ok)).ServeHTTP(rr, req)
		assert.Equal(t, "req-7", rr.Header().Get(chimiddleware.RequestIDHeader))
	})

	t.Run("no id in context", func(t *testing.T) {
		rr := httptest.NewRecorder()
		middleware.EchoRequestID(ok).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Empty(t, rr.Header().Get(chimiddleware.RequestIDHeader))
	})
}
