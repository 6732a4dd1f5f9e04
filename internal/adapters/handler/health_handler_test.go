package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reservaespacios/reservation-service/internal/adapters/handler"
	"github.com/reservaespacios/reservation-service/internal/adapters/session"
	"github.com/reservaespacios/reservation-service/test/mocks"
)

type stubDB struct{ err error }

func (s stubDB) PingContext(ctx context.Context) error { return s.err }

func TestHealth_Liveness(t *testing.T) {
	h := handler.NewHealthHandler(nil, nil, mocks.DiscardLogger())

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp handler.HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "UP", resp.Status)
	assert.Contains(t, resp.Checks, "process")
	assert.NotEmpty(t, resp.Uptime)
}

func TestHealth_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		db         handler.DatabasePinger
		cacheDown  bool
		noCache    bool
		wantStatus int
		wantDown   []string
	}{
		{"all dependencies up", stubDB{}, false, false, http.StatusOK, nil},
		{"database down", stubDB{err: errors.New("refused")}, false, false, http.StatusServiceUnavailable, []string{"database"}},
		{"redis down", stubDB{}, true, false, http.StatusServiceUnavailable, []string{"redis"}},
		{"nothing initialized", nil, false, true, http.StatusServiceUnavailable, []string{"database", "redis"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cache handler.CachePinger
			if !tt.noCache {
				client := mocks.NewMockRedisClient()
				if tt.cacheDown {
					client.PingError = errors.New("connection refused")
				}
				cache = session.NewRedisRevoker(client)
			}
			h := handler.NewHealthHandler(tt.db, cache, mocks.DiscardLogger())

			rec := httptest.NewRecorder()
			h.Ready(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			require.Equal(t, tt.wantStatus, rec.Code)
			var resp handler.HealthResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			for _, dep := range tt.wantDown {
				assert.Equal(t, "DOWN", resp.Checks[dep].Status, dep)
				assert.NotEmpty(t, resp.Checks[dep].Message)
			}
			if tt.wantDown == nil {
				assert.Equal(t, "UP", resp.Status)
			}
		})
	}
}

func TestRouter_HealthAndMetricsArePublic(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{"/health", "/health/live", "/metrics"} {
		t.Run(path, func(t *testing.T) {
			rec := api.do(t, http.MethodGet, path, "", nil)
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/reservas", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}
