package retention

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"StockTracker/internal/model"
)

func points(ts ...int64) []model.PricePoint {
	out := make([]model.PricePoint, len(ts))
	for i, t := range ts {
		out[i] = model.PricePoint{Timestamp: t, Price: float64(t)}
	}
	return out
}

func TestKeepLast(t *testing.T) {
	seq := points(1, 2, 3, 4, 5)
	tests := []struct {
		max  int
		want []int64
	}{
		{10, []int64{1, 2, 3, 4, 5}},
		{5, []int64{1, 2, 3, 4, 5}},
		{3, []int64{3, 4, 5}},
		{0, []int64{}},
		{-1, []int64{}},
	}
	for _, tt := range tests {
		got := KeepLast(seq, tt.max)
		ts := make([]int64, len(got))
		for i, p := range got {
			ts[i] = p.Timestamp
		}
		assert.Equal(t, tt.want, ts, "max=%d", tt.max)
		assert.LessOrEqual(t, len(got), max(tt.max, 0))
	}
}

func TestDropOlder(t *testing.T) {
	now := int64(100 * time.Hour / time.Millisecond)
	day := Window.Milliseconds()
	seq := points(now-day-1, now-day, now-day+1, now)

	got := DropOlder(seq, now-day)
	assert.Len(t, got, 2)
	for _, p := range got {
		assert.Greater(t, p.Timestamp, now-day)
	}
}

func TestTrimmer(t *testing.T) {
	s := model.NewSymbolState(model.Quote{})
	for i := int64(0); i < 600; i++ {
		s.PriceHistory = append(s.PriceHistory, model.PricePoint{Timestamp: i * 1000})
		s.CandleHistory = append(s.CandleHistory, model.Candle{Timestamp: i * 1000})
	}

	tr := Default()
	tr.Count(s)
	assert.Len(t, s.PriceHistory, MaxPoints)
	assert.Len(t, s.CandleHistory, MaxPoints)
	assert.Equal(t, int64(100_000), s.PriceHistory[0].Timestamp)

	tr = Trimmer{MaxPoints: MaxPoints, Window: time.Minute}
	tr.Age(s, 599_000)
	assert.Equal(t, int64(540_000), s.PriceHistory[0].Timestamp)
	assert.Equal(t, int64(599_000), s.PriceHistory[len(s.PriceHistory)-1].Timestamp)
	assert.Len(t, s.PriceHistory, 60)
	assert.Len(t, s.CandleHistory, 60)
}
