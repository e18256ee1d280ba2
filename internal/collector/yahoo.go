package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"StockTracker/internal/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using the Yahoo Finance public chart and search API.
type YahooFetcher struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps tracked symbol to Yahoo ticker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(timeout time.Duration, proxyURL string) *YahooFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooFetcher{
		BaseURL: yahooBaseURL,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type yahooSearch struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		ShortName string `json:"shortname"`
		LongName  string `json:"longname"`
		QuoteType string `json:"quoteType"`
	} `json:"quotes"`
}

func at(v []*float64, i int) float64 {
	if i >= len(v) || v[i] == nil {
		return 0
	}
	return *v[i]
}

type yahooMeta struct {
	price, prevClose float64
	time             int64
}

func (f *YahooFetcher) get(ctx context.Context, op, target, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return &FetchError{Op: op, Target: target, Err: err}
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return &FetchError{Op: op, Target: target, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &FetchError{Op: op, Target: target, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return &FetchError{Op: op, Target: target, Status: resp.StatusCode}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &FetchError{Op: op, Target: target, Err: fmt.Errorf("decode: %w", err)}
	}
	return nil
}

func (f *YahooFetcher) fetchChart(ctx context.Context, op, symbol, interval, rng string) ([]model.Candle, yahooMeta, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		strings.TrimRight(f.BaseURL, "/"), url.PathEscape(f.yahooSymbol(symbol)), interval, rng)

	var chart yahooChart
	if err := f.get(ctx, op, symbol, u, &chart); err != nil {
		return nil, yahooMeta{}, err
	}
	if chart.Chart.Error != nil {
		return nil, yahooMeta{}, &FetchError{Op: op, Target: symbol, Err: fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)}
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, yahooMeta{}, &FetchError{Op: op, Target: symbol, Err: fmt.Errorf("yahoo: no data returned")}
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	bars := make([]model.Candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o, h, l, c := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i)
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue // null bars on holidays
		}
		bars = append(bars, model.Candle{
			Timestamp: ts * 1000,
			Open:      o,
			High:      h,
			Low:       l,
			Close:     c,
			Volume:    at(quote.Volume, i),
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp < bars[j].Timestamp })

	meta := yahooMeta{
		price:     result.Meta.RegularMarketPrice,
		prevClose: result.Meta.ChartPreviousClose,
		time:      result.Meta.RegularMarketTime,
	}
	return bars, meta, nil
}

// FetchQuote derives a quote from the last five daily bars and the chart metadata.
func (f *YahooFetcher) FetchQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	bars, meta, err := f.fetchChart(ctx, "quote", symbol, "1d", "5d")
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 && meta.price == 0 {
		return nil, &FetchError{Op: "quote", Target: symbol, Err: fmt.Errorf("yahoo: no price data")}
	}

	q := &model.Quote{Current: meta.price, PreviousClose: meta.prevClose, Timestamp: meta.time}
	if n := len(bars); n > 0 {
		last := bars[n-1]
		q.Open, q.High, q.Low = last.Open, last.High, last.Low
		if q.Current == 0 {
			q.Current = last.Close
		}
		if n > 1 {
			q.PreviousClose = bars[n-2].Close
		}
		if q.Timestamp == 0 {
			q.Timestamp = last.Timestamp / 1000
		}
	}
	if q.PreviousClose != 0 {
		q.Change = q.Current - q.PreviousClose
		q.PercentChange = q.Change / q.PreviousClose * 100
	}
	return q, nil
}

// FetchCandles returns one month of daily bars in the parallel-array payload.
func (f *YahooFetcher) FetchCandles(ctx context.Context, symbol string) (*model.HistoricalCandles, error) {
	bars, _, err := f.fetchChart(ctx, "candles", symbol, "1d", "1mo")
	if err != nil {
		return nil, err
	}
	h := model.NoData()
	if len(bars) == 0 {
		return h, nil
	}
	h.Status = model.StatusOK
	for _, b := range bars {
		h.Timestamp = append(h.Timestamp, b.Timestamp/1000)
		h.Open = append(h.Open, b.Open)
		h.High = append(h.High, b.High)
		h.Low = append(h.Low, b.Low)
		h.Close = append(h.Close, b.Close)
		h.Volume = append(h.Volume, b.Volume)
	}
	return h, nil
}

func (f *YahooFetcher) Search(ctx context.Context, query string) (*model.SearchResponse, error) {
	u := fmt.Sprintf("%s/v1/finance/search?q=%s&quotesCount=10&newsCount=0",
		strings.TrimRight(f.BaseURL, "/"), url.QueryEscape(query))

	var raw yahooSearch
	if err := f.get(ctx, "search", query, u, &raw); err != nil {
		return nil, err
	}
	resp := model.EmptySearch()
	for _, q := range raw.Quotes {
		desc := q.LongName
		if desc == "" {
			desc = q.ShortName
		}
		resp.Result = append(resp.Result, model.SearchResult{
			Description:   desc,
			DisplaySymbol: q.Symbol,
			Symbol:        q.Symbol,
			Type:          q.QuoteType,
		})
	}
	resp.Count = len(resp.Result)
	return resp, nil
}
