package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainprobe/chainprobe/internal/cache"
	"github.com/chainprobe/chainprobe/internal/provider"
)

func newTestChecker() *Checker {
	return NewChecker(provider.NewRegistry(provider.Options{}), cache.New(cache.DefaultTTL))
}

func TestCheckAllHealthy(t *testing.T) {
	checker := newTestChecker()

	resp := checker.Check()
	assert.Equal(t, StatusOK, resp.Status)
	assert.Equal(t, StatusOK, resp.Checks["providers"].Status)
	assert.Equal(t, StatusOK, resp.Checks["cache"].Status)
	assert.Equal(t, StatusOK, resp.Checks["last_resolution"].Status)
	assert.Contains(t, resp.Checks["providers"].Message, "9 providers across 3 asset classes")
}

func TestCheckMissingDependencies(t *testing.T) {
	checker := NewChecker(nil, nil)

	resp := checker.Check()
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, StatusError, resp.Checks["providers"].Status)
	assert.Equal(t, StatusError, resp.Checks["cache"].Status)
}

func TestCheckDegradedAfterFailedResolution(t *testing.T) {
	checker := newTestChecker()
	checker.UpdateLastResolution(false)

	resp := checker.Check()
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.Equal(t, StatusDegraded, resp.Checks["last_resolution"].Status)

	checker.UpdateLastResolution(true)
	resp = checker.Check()
	assert.Equal(t, StatusOK, resp.Status)
}

func TestHandler(t *testing.T) {
	checker := newTestChecker()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	checker.Handler()(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, StatusOK, resp.Status)
	assert.NotEmpty(t, resp.Uptime)
}

func TestHandlerUnhealthy(t *testing.T) {
	checker := NewChecker(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	checker.Handler()(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandlerRejectsNonGet(t *testing.T) {
	checker := newTestChecker()

	req := httptest.NewRequest(http.MethodPost, "/health", nil)
	rec := httptest.NewRecorder()
	checker.Handler()(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
