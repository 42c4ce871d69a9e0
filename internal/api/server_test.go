package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainprobe/chainprobe/internal/cache"
	"github.com/chainprobe/chainprobe/internal/health"
	"github.com/chainprobe/chainprobe/internal/resolver"
)

type stubFetcher struct {
	respond func(url string) (any, error)
}

func (f stubFetcher) GetJSON(ctx context.Context, url string) (any, error) {
	return f.respond(url)
}

func newTestServer(respond func(url string) (any, error)) *Server {
	engine := resolver.New(resolver.Options{
		Fetcher: stubFetcher{respond: respond},
		Cache:   cache.New(time.Minute),
		Sleep:   func(ctx context.Context, d time.Duration) error { return nil },
		IntN:    func(n int) int { return 0 },
	})
	checker := health.NewChecker(engine.Registry(), engine.Cache())
	return NewServer(0, engine, checker, slog.New(slog.DiscardHandler))
}

func respondTronscan(url string) (any, error) {
	var v any
	raw := `{"data":[{"tokenAbbr":"USDT","tokenId":"TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t","balance":"1500000","tokenDecimal":6}]}`
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, err
	}
	return v, nil
}

func doRequest(s *Server, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestBalanceEndpoint(t *testing.T) {
	s := newTestServer(respondTronscan)

	rec := doRequest(s, "/api/v1/balance/usdt-trc20/TXYZAddr")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "TXYZAddr", body["address"])
	assert.Equal(t, "usdt-trc20", body["asset"])
	assert.Equal(t, "tron", body["chain"])
	assert.Equal(t, "1.5", body["balance"])
	assert.Equal(t, "tronscan", body["source"])
	assert.Equal(t, false, body["cached"])
	assert.NotContains(t, body, "reason")
}

func TestBalanceEndpointServesCache(t *testing.T) {
	s := newTestServer(respondTronscan)

	first := doRequest(s, "/api/v1/balance/usdt-trc20/TXYZAddr")
	require.Equal(t, http.StatusOK, first.Code)

	second := doRequest(s, "/api/v1/balance/usdt-trc20/TXYZAddr")
	require.Equal(t, http.StatusOK, second.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &body))
	assert.Equal(t, true, body["cached"])
	assert.Equal(t, "1.5", body["balance"])
}

func TestBalanceEndpointAllProvidersFailed(t *testing.T) {
	s := newTestServer(func(url string) (any, error) {
		return nil, errors.New("connection refused")
	})

	rec := doRequest(s, "/api/v1/balance/usdt-erc20/0xabc")
	require.Equal(t, http.StatusBadGateway, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "all providers failed", body["source"])
	assert.Equal(t, "connection refused", body["reason"])
	assert.NotContains(t, body, "balance")
}

func TestBalanceEndpointUnknownAsset(t *testing.T) {
	s := newTestServer(respondTronscan)

	rec := doRequest(s, "/api/v1/balance/doge/D6abc")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Error, "unknown asset class")
}

func TestAssetsEndpoint(t *testing.T) {
	s := newTestServer(respondTronscan)

	rec := doRequest(s, "/api/v1/assets")
	require.Equal(t, http.StatusOK, rec.Code)

	var assets []assetInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &assets))
	require.Len(t, assets, 3)

	assert.Equal(t, "btc", assets[0].Asset)
	assert.Equal(t, "bitcoin", assets[0].Chain)
	assert.True(t, assets[0].Shuffled)
	assert.Len(t, assets[0].Providers, 4)

	assert.Equal(t, "usdt-trc20", assets[1].Asset)
	assert.False(t, assets[1].Shuffled)
	assert.Equal(t, []string{"tronscan", "trongrid", "tronscan-account"}, assets[1].Providers)

	assert.Equal(t, "usdt-erc20", assets[2].Asset)
	assert.Equal(t, []string{"ethplorer", "blockscout"}, assets[2].Providers)
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(respondTronscan)

	rec := doRequest(s, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(respondTronscan)

	// Resolve once so the engine's counters exist.
	doRequest(s, "/api/v1/balance/usdt-trc20/TXYZAddr")

	rec := doRequest(s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "chainprobe_resolutions_total")
}
