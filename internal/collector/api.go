package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"StockTracker/internal/model"
)

// APIFetcher implements Fetcher against the quote API
// (/api/quote/{symbol}, /api/candles/{symbol}, /api/search/{query}).
type APIFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewAPIFetcher creates a fetcher with optional proxy support.
func NewAPIFetcher(baseURL string, timeout time.Duration, proxyURL string) *APIFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &APIFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (f *APIFetcher) Name() string { return "api" }

func (f *APIFetcher) FetchQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	var q model.Quote
	if err := f.getJSON(ctx, "quote", symbol, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

func (f *APIFetcher) FetchCandles(ctx context.Context, symbol string) (*model.HistoricalCandles, error) {
	var h model.HistoricalCandles
	if err := f.getJSON(ctx, "candles", symbol, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (f *APIFetcher) Search(ctx context.Context, query string) (*model.SearchResponse, error) {
	var r model.SearchResponse
	if err := f.getJSON(ctx, "search", query, &r); err != nil {
		return nil, err
	}
	if r.Result == nil {
		r.Result = []model.SearchResult{}
	}
	return &r, nil
}

func (f *APIFetcher) getJSON(ctx context.Context, op, arg string, out any) error {
	u := fmt.Sprintf("%s/api/%s/%s", f.BaseURL, op, url.PathEscape(arg))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &FetchError{Op: op, Target: arg, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return &FetchError{Op: op, Target: arg, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &FetchError{Op: op, Target: arg, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &FetchError{Op: op, Target: arg, Status: resp.StatusCode}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &FetchError{Op: op, Target: arg, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}
