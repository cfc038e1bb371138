package dcahttp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stacker/internal/dca"
	"stacker/internal/market"
	"stacker/internal/series"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	candles []market.Candle
	klineE  error
	price   float64
	priceE  error
}

func (f *fakeSource) FetchKlines(context.Context, market.KlineRequest) ([]market.Candle, error) {
	return f.candles, f.klineE
}

func (f *fakeSource) TickerPrice(context.Context, string) (float64, error) {
	return f.price, f.priceE
}

func (f *fakeSource) Name() string { return "fake" }

func threeDailyCandles() []market.Candle {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	closes := []float64{100, 110, 90}
	out := make([]market.Candle, len(closes))
	for i, close := range closes {
		day := start.AddDate(0, 0, i)
		out[i] = market.Candle{OpenTime: day.UnixMilli(), Close: close}
	}
	return out
}

func newTestServer(t *testing.T, src market.KlineSource) (*Server, *dca.RunStore) {
	t.Helper()
	fetcher, err := series.NewFetcher(series.FetcherConfig{Source: src, RateLimitPerMin: 600000})
	require.NoError(t, err)
	cache, err := series.NewCache(fetcher)
	require.NoError(t, err)
	prices, err := market.NewPriceService(src)
	require.NoError(t, err)
	runs := dca.NewRunStore()
	engine, err := dca.NewEngine(dca.EngineConfig{Series: cache, Prices: prices, Runs: runs})
	require.NoError(t, err)
	srv, err := NewServer(Config{Engine: engine, Runs: runs})
	require.NoError(t, err)
	return srv, runs
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

const validSimulateBody = `{
	"total_investment": 1000,
	"symbol": "BTCUSDT",
	"start": "2023-01-01",
	"end": "2023-01-03",
	"cadence": {"every": 1, "unit": "daily"}
}`

func TestHandleSimulate(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv, runs := newTestServer(t, &fakeSource{candles: threeDailyCandles(), price: 120})
		rec := doJSON(t, srv, http.MethodPost, "/api/dca/simulate", validSimulateBody)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp struct {
			Result dca.Result `json:"result"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 3, resp.Result.NumberOfInvestments)
		assert.InDelta(t, 20.8080808, resp.Result.ROIPercent, 1e-6)
		assert.Len(t, runs.List(), 1)
	})

	t.Run("schema rejects malformed body", func(t *testing.T) {
		srv, _ := newTestServer(t, &fakeSource{candles: threeDailyCandles(), price: 120})
		for name, body := range map[string]string{
			"not json":          `{`,
			"unknown field":     `{"total_investment": 1, "symbol": "X", "start": "2023-01-01", "end": "2023-01-02", "cadence": {"every":1,"unit":"daily"}, "bogus": true}`,
			"negative amount":   strings.Replace(validSimulateBody, "1000", "-5", 1),
			"bad cadence unit":  strings.Replace(validSimulateBody, "daily", "weekly", 1),
			"cadence not whole": strings.Replace(validSimulateBody, `"every": 1`, `"every": 0`, 1),
			"missing cadence":   `{"total_investment": 1000, "symbol": "BTCUSDT", "start": "2023-01-01", "end": "2023-01-03"}`,
		} {
			rec := doJSON(t, srv, http.MethodPost, "/api/dca/simulate", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, name)
		}
	})

	t.Run("invalid window maps to 400", func(t *testing.T) {
		srv, _ := newTestServer(t, &fakeSource{candles: threeDailyCandles(), price: 120})
		body := strings.Replace(validSimulateBody, `"start": "2023-01-01"`, `"start": "2023-02-01"`, 1)
		rec := doJSON(t, srv, http.MethodPost, "/api/dca/simulate", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("no data maps to 422", func(t *testing.T) {
		srv, _ := newTestServer(t, &fakeSource{candles: nil, price: 120})
		rec := doJSON(t, srv, http.MethodPost, "/api/dca/simulate", validSimulateBody)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("price unavailable maps to 502", func(t *testing.T) {
		srv, _ := newTestServer(t, &fakeSource{candles: threeDailyCandles(), priceE: fmt.Errorf("ticker down")})
		rec := doJSON(t, srv, http.MethodPost, "/api/dca/simulate", validSimulateBody)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("default fee applies when omitted", func(t *testing.T) {
		src := &fakeSource{candles: threeDailyCandles(), price: 120}
		fetcher, err := series.NewFetcher(series.FetcherConfig{Source: src, RateLimitPerMin: 600000})
		require.NoError(t, err)
		cache, err := series.NewCache(fetcher)
		require.NoError(t, err)
		prices, err := market.NewPriceService(src)
		require.NoError(t, err)
		runs := dca.NewRunStore()
		engine, err := dca.NewEngine(dca.EngineConfig{Series: cache, Prices: prices, Runs: runs})
		require.NoError(t, err)
		srv, err := NewServer(Config{Engine: engine, Runs: runs, DefaultFee: 0.5})
		require.NoError(t, err)

		rec := doJSON(t, srv, http.MethodPost, "/api/dca/simulate", validSimulateBody)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Result dca.Result `json:"result"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 0.5, resp.Result.FeePercent)

		// explicit zero beats the configured default
		body := strings.Replace(validSimulateBody, `"total_investment": 1000,`, `"total_investment": 1000, "fee_percent": 0,`, 1)
		rec = doJSON(t, srv, http.MethodPost, "/api/dca/simulate", body)
		require.Equal(t, http.StatusOK, rec.Code)
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 0.0, resp.Result.FeePercent)
	})

	t.Run("preset without registry is 400", func(t *testing.T) {
		srv, _ := newTestServer(t, &fakeSource{candles: threeDailyCandles(), price: 120})
		rec := doJSON(t, srv, http.MethodPost, "/api/dca/simulate", `{"preset": "btc-weekly-1y"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRunEndpoints(t *testing.T) {
	srv, runs := newTestServer(t, &fakeSource{candles: threeDailyCandles(), price: 120})

	rec := doJSON(t, srv, http.MethodPost, "/api/dca/simulate", validSimulateBody)
	require.Equal(t, http.StatusOK, rec.Code)
	stored := runs.List()
	require.Len(t, stored, 1)
	id := stored[0].ID

	t.Run("list", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/api/dca/runs", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), id)
	})

	t.Run("detail", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/api/dca/runs/"+id, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "BTCUSDT")
	})

	t.Run("detail missing", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/api/dca/runs/nope", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("chart renders html", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/api/dca/runs/"+id+"/chart", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, rec.Body.String(), "echarts")
	})

	t.Run("chart missing run", func(t *testing.T) {
		rec := doJSON(t, srv, http.MethodGet, "/api/dca/runs/nope/chart", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestPriceEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &fakeSource{price: 43000.5})

	rec := doJSON(t, srv, http.MethodGet, "/api/dca/price?symbol=btcusdt", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "BTCUSDT")
	assert.Contains(t, rec.Body.String(), "43000.5")

	rec = doJSON(t, srv, http.MethodGet, "/api/dca/price", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, &fakeSource{})
	rec := doJSON(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPresetsEndpointWithoutRegistry(t *testing.T) {
	srv, _ := newTestServer(t, &fakeSource{})
	rec := doJSON(t, srv, http.MethodGet, "/api/dca/presets", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "presets")
}
