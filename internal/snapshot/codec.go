package snapshot

import (
	"encoding/json"
	"fmt"
	"strings"

	"StockTracker/internal/model"
	"StockTracker/internal/retention"
)

// Record keys of the persistence surface.
const (
	KeyStockData = "stockTrackerData"
	KeyFollowed  = "followedStocks"
)

// Codec converts symbol states to and from their persisted form.
type Codec struct {
	Trimmer retention.Trimmer
}

// NewCodec returns a codec using the given trimmer's age bound.
func NewCodec(t retention.Trimmer) *Codec {
	return &Codec{Trimmer: t}
}

// Encode serializes all states. Entries older than the retention window relative to
// now are dropped from copies; the inputs are left untouched.
func (c *Codec) Encode(states map[string]*model.SymbolState, now int64) ([]byte, error) {
	out := make(map[string]*model.SymbolState, len(states))
	for sym, s := range states {
		if s == nil {
			continue
		}
		cp := *s
		c.Trimmer.Age(&cp, now)
		out[sym] = &cp
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses a persisted snapshot. Records missing priceHistory or candleHistory get
// empty sequences. Candle values are taken as stored.
func (c *Codec) Decode(data []byte) (map[string]*model.SymbolState, error) {
	states := make(map[string]*model.SymbolState)
	if len(strings.TrimSpace(string(data))) == 0 {
		return states, nil
	}
	var raw map[string]*model.SymbolState
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	for sym, s := range raw {
		if s == nil {
			s = &model.SymbolState{}
		}
		Repair(s)
		states[sym] = s
	}
	return states, nil
}

// Repair fills structurally missing parts of a state with empty values.
func Repair(s *model.SymbolState) {
	if s.PriceHistory == nil {
		s.PriceHistory = []model.PricePoint{}
	}
	if s.CandleHistory == nil {
		s.CandleHistory = []model.Candle{}
	}
	if s.Candles.Status == "" {
		s.Candles.Status = model.StatusOK
	}
}

// EncodeFollowed serializes the ordered followed list.
func EncodeFollowed(symbols []string) ([]byte, error) {
	if symbols == nil {
		symbols = []string{}
	}
	data, err := json.Marshal(symbols)
	if err != nil {
		return nil, fmt.Errorf("encode followed: %w", err)
	}
	return data, nil
}

// DecodeFollowed parses the followed list, dropping blank and duplicate entries.
func DecodeFollowed(data []byte) ([]string, error) {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode followed: %w", err)
	}
	out := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, s := range raw {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out, nil
}
