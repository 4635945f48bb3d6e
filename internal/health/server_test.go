package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	err error
}

func (p *stubPinger) Ping(ctx context.Context) error { return p.err }

type stubModel struct {
	ready bool
}

func (m *stubModel) ModelReady() bool { return m.ready }

func newTestServer(db DatabasePinger, model ModelChecker) *Server {
	return NewServer(Config{
		ServiceName: "predictor",
		Version:     "test",
		Commit:      "abc1234",
		DB:          db,
		Model:       model,
	})
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(nil, nil)

	rec := httptest.NewRecorder()
	srv.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "predictor", resp.Service)
	assert.Equal(t, "test", resp.Version)
}

func TestHandleReadyAllHealthy(t *testing.T) {
	srv := newTestServer(&stubPinger{}, &stubModel{ready: true})
	srv.SetReady(true)

	rec := httptest.NewRecorder()
	srv.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp ReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "ok", resp.Checks["service"])
	assert.Equal(t, "ok", resp.Checks["database"])
	assert.Equal(t, "ok", resp.Checks["model"])
}

func TestHandleReadyModelNotTrained(t *testing.T) {
	srv := newTestServer(&stubPinger{}, &stubModel{ready: false})
	srv.SetReady(true)

	rec := httptest.NewRecorder()
	srv.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "not_ready", resp.Status)
	assert.Equal(t, "not_trained", resp.Checks["model"])
}

func TestHandleReadyDatabaseDown(t *testing.T) {
	srv := newTestServer(&stubPinger{err: errors.New("connection refused")}, nil)
	srv.SetReady(true)

	rec := httptest.NewRecorder()
	srv.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp ReadyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Checks["database"], "connection refused")
}

func TestHandleReadyNotMarkedReady(t *testing.T) {
	srv := newTestServer(nil, nil)

	rec := httptest.NewRecorder()
	srv.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
