package model

import "slices"

// SymbolState is everything retained for one followed symbol.
//
// PriceHistory and CandleHistory are ordered by timestamp. CandleHistory only holds
// committed buckets; the bucket still forming lives in OpenCandle. Published states are
// treated as immutable: writers build a new state and swap it in.
type SymbolState struct {
	Quote            Quote             `json:"quote"`
	Candles          HistoricalCandles `json:"candles"`
	PriceHistory     []PricePoint      `json:"priceHistory"`
	CandleHistory    []Candle          `json:"candleHistory"`
	OpenCandle       *Candle           `json:"openCandle,omitempty"`
	HistoryFetchedAt int64             `json:"historyFetchedAt,omitempty"`
}

// NewSymbolState returns an empty state holding the given quote.
func NewSymbolState(q Quote) *SymbolState {
	return &SymbolState{
		Quote:         q,
		Candles:       HistoricalCandles{Status: StatusOK},
		PriceHistory:  []PricePoint{},
		CandleHistory: []Candle{},
	}
}

// Clone returns a deep copy of the state.
func (s *SymbolState) Clone() *SymbolState {
	if s == nil {
		return nil
	}
	c := *s
	c.Candles = HistoricalCandles{
		Close:     slices.Clone(s.Candles.Close),
		High:      slices.Clone(s.Candles.High),
		Low:       slices.Clone(s.Candles.Low),
		Open:      slices.Clone(s.Candles.Open),
		Status:    s.Candles.Status,
		Timestamp: slices.Clone(s.Candles.Timestamp),
		Volume:    slices.Clone(s.Candles.Volume),
	}
	c.PriceHistory = slices.Clone(s.PriceHistory)
	c.CandleHistory = slices.Clone(s.CandleHistory)
	if s.OpenCandle != nil {
		oc := *s.OpenCandle
		c.OpenCandle = &oc
	}
	return &c
}

// LastPrice returns the most recent traced price, falling back to the quote.
func (s *SymbolState) LastPrice() float64 {
	if n := len(s.PriceHistory); n > 0 {
		return s.PriceHistory[n-1].Price
	}
	return s.Quote.Current
}
