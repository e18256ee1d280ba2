package snapshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockTracker/internal/model"
	"StockTracker/internal/retention"
)

func sampleStates(now int64) map[string]*model.SymbolState {
	day := retention.Window.Milliseconds()
	s := model.NewSymbolState(model.Quote{Current: 150, Change: 1.5, PercentChange: 1, Timestamp: now / 1000})
	s.PriceHistory = []model.PricePoint{
		{Timestamp: now - day - 1000, Price: 140},
		{Timestamp: now - day, Price: 141},
		{Timestamp: now - 1000, Price: 149},
		{Timestamp: now, Price: 150},
	}
	s.CandleHistory = []model.Candle{
		{Timestamp: now - day - 60_000, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
		{Timestamp: now - 60_000, Open: 148, High: 151, Low: 147, Close: 150, Volume: 1000},
	}
	s.OpenCandle = &model.Candle{Timestamp: now, Open: 150, High: 150, Low: 150, Close: 150}
	return map[string]*model.SymbolState{"AAPL": s}
}

func TestEncode_AppliesAgeBound(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC).UnixMilli()
	states := sampleStates(now)
	codec := NewCodec(retention.Default())

	data, err := codec.Encode(states, now)
	require.NoError(t, err)

	decoded, err := codec.Decode(data)
	require.NoError(t, err)
	got := decoded["AAPL"]
	require.NotNil(t, got)
	assert.Len(t, got.PriceHistory, 2)
	assert.Len(t, got.CandleHistory, 1)
	for _, p := range got.PriceHistory {
		assert.Greater(t, p.Timestamp, now-retention.Window.Milliseconds())
	}
	assert.Len(t, states["AAPL"].PriceHistory, 4, "encode must not trim the live state")
}

func TestRoundTrip(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC).UnixMilli()
	states := sampleStates(now)
	codec := NewCodec(retention.Default())

	data, err := codec.Encode(states, now)
	require.NoError(t, err)
	decoded, err := codec.Decode(data)
	require.NoError(t, err)

	want := states["AAPL"].Clone()
	codec.Trimmer.Age(want, now)
	assert.Equal(t, want, decoded["AAPL"])
}

func TestDecode_RepairsMissingArrays(t *testing.T) {
	codec := NewCodec(retention.Default())
	data := []byte(`{
		"AAPL": {"quote": {"c": 10}},
		"GOOGL": {"quote": {"c": 20}, "priceHistory": [{"timestamp": 1, "price": 20}]},
		"MSFT": null
	}`)
	states, err := codec.Decode(data)
	require.NoError(t, err)
	require.Len(t, states, 3)

	assert.Equal(t, 10.0, states["AAPL"].Quote.Current)
	assert.NotNil(t, states["AAPL"].PriceHistory)
	assert.NotNil(t, states["AAPL"].CandleHistory)
	assert.Len(t, states["GOOGL"].PriceHistory, 1)
	assert.Empty(t, states["GOOGL"].CandleHistory)
	assert.NotNil(t, states["MSFT"].CandleHistory)
}

func TestDecode_PassesMalformedCandlesThrough(t *testing.T) {
	codec := NewCodec(retention.Default())
	states, err := codec.Decode([]byte(`{"AAPL":{"candleHistory":[{"timestamp":0,"open":5,"high":1,"low":9,"close":3}]}}`))
	require.NoError(t, err)
	require.Len(t, states["AAPL"].CandleHistory, 1)
	assert.Equal(t, 1.0, states["AAPL"].CandleHistory[0].High)
}

func TestDecode_EmptyAndInvalid(t *testing.T) {
	codec := NewCodec(retention.Default())
	states, err := codec.Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, states)

	_, err = codec.Decode([]byte(`{not json`))
	assert.Error(t, err)
}

func TestFollowed(t *testing.T) {
	data, err := EncodeFollowed(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))

	got, err := DecodeFollowed([]byte(`["aapl", " GOOGL ", "", "AAPL"]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "GOOGL"}, got)

	_, err = DecodeFollowed([]byte(`{}`))
	assert.Error(t, err)
}
