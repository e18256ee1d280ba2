package collector

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"StockTracker/internal/model"
)

// StaticFetcher returns controllable synthetic data for development and testing.
// Each quote call moves the price by Step percent of the base.
type StaticFetcher struct {
	Prices map[string]float64
	Step   float64
	Now    func() time.Time

	mu    sync.Mutex
	calls map[string]int
}

// NewStaticFetcher seeds a fetcher with base prices.
func NewStaticFetcher(prices map[string]float64) *StaticFetcher {
	return &StaticFetcher{Prices: prices, Step: 0.001, Now: time.Now, calls: make(map[string]int)}
}

func (m *StaticFetcher) Name() string { return "static" }

func (m *StaticFetcher) base(symbol string) float64 {
	if p, ok := m.Prices[symbol]; ok {
		return p
	}
	return 100
}

func (m *StaticFetcher) FetchQuote(_ context.Context, symbol string) (*model.Quote, error) {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	n := m.calls[symbol]
	m.calls[symbol] = n + 1
	m.mu.Unlock()

	base := m.base(symbol)
	offset := float64(n%21 - 10)
	p := base * (1 + offset*m.Step)
	return &model.Quote{
		Current:       p,
		Change:        p - base,
		PercentChange: (p - base) / base * 100,
		High:          base * 1.01,
		Low:           base * 0.99,
		Open:          base,
		PreviousClose: base,
		Timestamp:     m.Now().Unix(),
	}, nil
}

func (m *StaticFetcher) FetchCandles(_ context.Context, symbol string) (*model.HistoricalCandles, error) {
	return MockCandles(m.base(symbol), 5, m.Now()), nil
}

func (m *StaticFetcher) Search(_ context.Context, query string) (*model.SearchResponse, error) {
	q := strings.ToUpper(query)
	resp := model.EmptySearch()
	for sym := range m.Prices {
		if strings.Contains(sym, q) {
			resp.Result = append(resp.Result, model.SearchResult{
				Description:   sym,
				DisplaySymbol: sym,
				Symbol:        sym,
				Type:          "Common Stock",
			})
		}
	}
	sort.Slice(resp.Result, func(i, j int) bool { return resp.Result[i].Symbol < resp.Result[j].Symbol })
	resp.Count = len(resp.Result)
	return resp, nil
}

// MockCandles builds count daily candles around basePrice, the last one stamped at now.
func MockCandles(basePrice float64, count int, now time.Time) *model.HistoricalCandles {
	h := model.NoData()
	h.Status = model.StatusOK
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.01)
		h.Timestamp = append(h.Timestamp, now.AddDate(0, 0, -(count-1-i)).Unix())
		h.Open = append(h.Open, p*0.995)
		h.High = append(h.High, p*1.02)
		h.Low = append(h.Low, p*0.98)
		h.Close = append(h.Close, p)
		h.Volume = append(h.Volume, float64(1_000_000+i*100_000))
	}
	return h
}

// Sample is the result of collecting one symbol.
type Sample struct {
	Symbol  string
	Quote   model.Quote
	History *model.HistoricalCandles
}

// Collector fetches per-symbol samples and classifies failures.
type Collector struct {
	Fetcher Fetcher
	log     *zap.Logger
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, log *zap.Logger) *Collector {
	return &Collector{Fetcher: fetcher, log: log}
}

// Collect fetches the quote and, when asked, historical candles for symbol.
// A quote failure fails the sample. A candle failure degrades to a no_data payload.
func (c *Collector) Collect(ctx context.Context, symbol string, withHistory bool) (*Sample, error) {
	q, err := c.Fetcher.FetchQuote(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch quote: %w", err)
	}
	s := &Sample{Symbol: symbol, Quote: *q}
	if !withHistory {
		return s, nil
	}

	h, err := c.Fetcher.FetchCandles(ctx, symbol)
	if err != nil || h == nil {
		c.log.Warn("fetch candles failed, keeping local history",
			zap.String("symbol", symbol), zap.Error(err))
		h = model.NoData()
	}
	s.History = h
	return s, nil
}

// Search looks up symbols. Blank queries return no results without a network call,
// and failures degrade to an empty response.
func (c *Collector) Search(ctx context.Context, query string) *model.SearchResponse {
	query = strings.TrimSpace(query)
	if query == "" {
		return model.EmptySearch()
	}
	resp, err := c.Fetcher.Search(ctx, query)
	if err != nil || resp == nil {
		c.log.Warn("search failed", zap.String("query", query), zap.Error(err))
		return model.EmptySearch()
	}
	return resp
}
