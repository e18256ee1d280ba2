package proxy

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"StockTracker/internal/config"
	"StockTracker/internal/model"
)

func newProxy(t *testing.T, upstream http.HandlerFunc) *Proxy {
	t.Helper()
	up := httptest.NewServer(upstream)
	t.Cleanup(up.Close)

	p := New(config.ProxyConfig{
		FinnhubBaseURL: up.URL,
		FinnhubAPIKey:  "test-key",
		AllowedOrigins: []string{"http://localhost:5173"},
		Timeout:        time.Second,
		HistoryDays:    30,
	}, "", zap.NewNop())
	p.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	return p
}

func serve(p *Proxy, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	p.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestQuote(t *testing.T) {
	p := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote", r.URL.Path)
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		assert.Equal(t, "test-key", r.URL.Query().Get("token"))
		_, _ = w.Write([]byte(`{"c":150.25,"d":1.5,"dp":1.01,"h":151,"l":149,"o":149.5,"pc":148.75,"t":1700000000}`))
	})

	rr := serve(p, "/api/quote/aapl")
	require.Equal(t, http.StatusOK, rr.Code)

	var q Quote
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &q))
	assert.Equal(t, "AAPL", q.Symbol)
	assert.Equal(t, 150.25, q.Current)
	assert.Equal(t, int64(1_700_000_000), q.Timestamp)
}

func TestQuoteErrors(t *testing.T) {
	tests := []struct {
		upstream int
		want     int
		message  string
	}{
		{http.StatusUnauthorized, http.StatusUnauthorized, "API key invalid or expired"},
		{http.StatusForbidden, http.StatusForbidden, "API access forbidden - check your plan limits"},
		{http.StatusTooManyRequests, http.StatusTooManyRequests, "Rate limit exceeded"},
		{http.StatusServiceUnavailable, http.StatusServiceUnavailable, "Failed to fetch data from Finnhub"},
	}
	for _, tt := range tests {
		p := newProxy(t, func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(tt.upstream) })
		rr := serve(p, "/api/quote/AAPL")
		assert.Equal(t, tt.want, rr.Code)

		var body model.APIError
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, tt.message, body.Message)
		assert.Equal(t, tt.want, body.Code)
	}
}

func TestCandles(t *testing.T) {
	p := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/stock/candle", r.URL.Path)
		assert.Equal(t, "D", q.Get("resolution"))
		assert.Equal(t, "1700000000", q.Get("to"))
		assert.Equal(t, "1697408000", q.Get("from"))
		_, _ = w.Write([]byte(`{"c":[1],"h":[1],"l":[1],"o":[1],"s":"ok","t":[1700000000],"v":[10]}`))
	})

	rr := serve(p, "/api/candles/msft")
	require.Equal(t, http.StatusOK, rr.Code)
	var h model.HistoricalCandles
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &h))
	assert.Equal(t, 1, h.Len())
}

func TestCandlesFallBackToMock(t *testing.T) {
	for _, status := range []int{http.StatusForbidden, http.StatusInternalServerError} {
		p := newProxy(t, func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(status) })
		rr := serve(p, "/api/candles/AAPL")
		require.Equal(t, http.StatusOK, rr.Code)

		var h model.HistoricalCandles
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &h))
		assert.Equal(t, model.StatusOK, h.Status)
		assert.Equal(t, 5, h.Len())
		assert.Equal(t, int64(1_700_000_000), h.Timestamp[4])
	}
}

func TestCandlesRateLimited(t *testing.T) {
	p := newProxy(t, func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTooManyRequests) })
	rr := serve(p, "/api/candles/AAPL")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
}

func TestSearch(t *testing.T) {
	p := newProxy(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "apple inc", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{"count":1,"result":[{"description":"APPLE INC","displaySymbol":"AAPL","symbol":"AAPL","type":"Common Stock"}]}`))
	})

	rr := serve(p, "/api/search/apple%20inc")
	require.Equal(t, http.StatusOK, rr.Code)
	var resp model.SearchResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Result, 1)
	assert.Equal(t, "AAPL", resp.Result[0].Symbol)
}

func TestHealth(t *testing.T) {
	p := newProxy(t, func(w http.ResponseWriter, r *http.Request) {})
	rr := serve(p, "/api/health")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"healthy"`)
}
