package model

// PricePoint is a single observed price. Timestamps are unix milliseconds.
type PricePoint struct {
	Timestamp int64   `json:"timestamp"`
	Price     float64 `json:"price"`
}

// TS returns the point timestamp in milliseconds.
func (p PricePoint) TS() int64 { return p.Timestamp }

// Candle is a fixed-width OHLCV bucket. Timestamp is the bucket start in unix milliseconds.
type Candle struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// TS returns the bucket start in milliseconds.
func (c Candle) TS() int64 { return c.Timestamp }

// Candle feed statuses.
const (
	StatusOK     = "ok"
	StatusNoData = "no_data"
)

// HistoricalCandles is the parallel-array candle payload served by the quote API.
// Timestamps are unix seconds.
type HistoricalCandles struct {
	Close     []float64 `json:"c"`
	High      []float64 `json:"h"`
	Low       []float64 `json:"l"`
	Open      []float64 `json:"o"`
	Status    string    `json:"s"`
	Timestamp []int64   `json:"t"`
	Volume    []float64 `json:"v"`
}

// NoData returns the empty payload used when the candle feed is unavailable.
func NoData() *HistoricalCandles {
	return &HistoricalCandles{
		Close:     []float64{},
		High:      []float64{},
		Low:       []float64{},
		Open:      []float64{},
		Status:    StatusNoData,
		Timestamp: []int64{},
		Volume:    []float64{},
	}
}

// Len returns the number of complete rows, i.e. the length of the shortest array.
func (h *HistoricalCandles) Len() int {
	if h == nil {
		return 0
	}
	n := len(h.Timestamp)
	for _, l := range []int{len(h.Open), len(h.High), len(h.Low), len(h.Close), len(h.Volume)} {
		if l < n {
			n = l
		}
	}
	return n
}

// Candles converts the payload into candles with millisecond timestamps.
// Rows missing from any of the parallel arrays are ignored.
func (h *HistoricalCandles) Candles() []Candle {
	n := h.Len()
	if n == 0 {
		return nil
	}
	out := make([]Candle, n)
	for i := 0; i < n; i++ {
		out[i] = Candle{
			Timestamp: h.Timestamp[i] * 1000,
			Open:      h.Open[i],
			High:      h.High[i],
			Low:       h.Low[i],
			Close:     h.Close[i],
			Volume:    h.Volume[i],
		}
	}
	return out
}
