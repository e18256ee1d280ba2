package window

import (
	"encoding/json"
	"fmt"
	"time"

	"StockTracker/internal/display"
	"StockTracker/internal/model"
)

// Point is one rendered sample. A single value marshals as [t, v];
// OHLC values marshal as {"x": t, "y": [o, h, l, c]}.
type Point struct {
	Time   int64
	Values []float64
}

func (p Point) MarshalJSON() ([]byte, error) {
	if len(p.Values) == 1 {
		return json.Marshal([2]any{p.Time, p.Values[0]})
	}
	return json.Marshal(struct {
		X int64     `json:"x"`
		Y []float64 `json:"y"`
	}{p.Time, p.Values})
}

func (p *Point) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err == nil {
		if len(pair) != 2 {
			return fmt.Errorf("decode point: want 2 elements, got %d", len(pair))
		}
		var v float64
		if err := json.Unmarshal(pair[0], &p.Time); err != nil {
			return fmt.Errorf("decode point time: %w", err)
		}
		if err := json.Unmarshal(pair[1], &v); err != nil {
			return fmt.Errorf("decode point value: %w", err)
		}
		p.Values = []float64{v}
		return nil
	}
	var ohlc struct {
		X int64     `json:"x"`
		Y []float64 `json:"y"`
	}
	if err := json.Unmarshal(data, &ohlc); err != nil {
		return fmt.Errorf("decode point: %w", err)
	}
	p.Time, p.Values = ohlc.X, ohlc.Y
	return nil
}

// Series is the projected data of one symbol.
type Series struct {
	Name string  `json:"name"`
	Data []Point `json:"data"`
}

// View is a read-only projection for one chart request. Start and End are the same
// bounds used to filter the data, so the time axis can be set from them directly.
type View struct {
	Kind       model.ChartKind `json:"kind"`
	Timeframe  int             `json:"timeframeMinutes"`
	Start      int64           `json:"start"`
	End        int64           `json:"end"`
	AxisFormat string          `json:"axisFormat"`
	Series     []Series        `json:"series"`
}

// Projector slices retained series into chart windows.
type Projector struct {
	Now func() time.Time
}

// NewProjector returns a projector reading the wall clock.
func NewProjector() *Projector {
	return &Projector{Now: time.Now}
}

// Project computes the window ending at the current time. The clock is read on
// every call so consecutive calls slide forward.
func (p *Projector) Project(kind model.ChartKind, timeframe int, symbols []string, states map[string]*model.SymbolState) View {
	return ProjectAt(kind, timeframe, symbols, states, p.Now().UnixMilli())
}

// ProjectAt computes the window [now - timeframe minutes, now], inclusive on both ends.
// Every symbol gets a series, empty when nothing falls in the window.
func ProjectAt(kind model.ChartKind, timeframe int, symbols []string, states map[string]*model.SymbolState, now int64) View {
	if timeframe < 0 {
		timeframe = 0
	}
	start := now - int64(timeframe)*60_000
	v := View{
		Kind:       kind,
		Timeframe:  timeframe,
		Start:      start,
		End:        now,
		AxisFormat: display.AxisFormat(timeframe),
		Series:     make([]Series, 0, len(symbols)),
	}
	for _, sym := range symbols {
		v.Series = append(v.Series, Series{Name: sym, Data: shape(kind, states[sym], start, now)})
	}
	return v
}

func shape(kind model.ChartKind, s *model.SymbolState, start, end int64) []Point {
	data := []Point{}
	if s == nil {
		return data
	}
	switch kind {
	case model.ChartCandlestick:
		for _, c := range s.CandleHistory {
			if in(c.Timestamp, start, end) {
				data = append(data, Point{Time: c.Timestamp, Values: []float64{c.Open, c.High, c.Low, c.Close}})
			}
		}
	case model.ChartVolume:
		for _, c := range s.CandleHistory {
			if in(c.Timestamp, start, end) {
				data = append(data, Point{Time: c.Timestamp, Values: []float64{c.Volume}})
			}
		}
	default:
		for _, pp := range s.PriceHistory {
			if in(pp.Timestamp, start, end) {
				data = append(data, Point{Time: pp.Timestamp, Values: []float64{pp.Price}})
			}
		}
	}
	return data
}

func in(ts, start, end int64) bool {
	return start <= ts && ts <= end
}
