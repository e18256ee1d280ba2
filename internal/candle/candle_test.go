package candle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockTracker/internal/model"
)

func TestBucketStart(t *testing.T) {
	tests := []struct {
		ts   int64
		want int64
	}{
		{0, 0},
		{59_999, 0},
		{60_000, 60_000},
		{1_700_000_012_345, 1_699_999_980_000},
		{-1, -60_000},
		{-60_000, -60_000},
	}
	for _, tt := range tests {
		if got := BucketStart(tt.ts, Interval); got != tt.want {
			t.Errorf("BucketStart(%d) = %d, want %d", tt.ts, got, tt.want)
		}
	}
}

func TestObserve_SingleBucketCommitsNearEnd(t *testing.T) {
	b := NewBucketer(nil)
	var open *model.Candle
	var hist []model.Candle

	open, hist = b.Observe("AAPL", open, 0, 100, hist)
	assert.Empty(t, hist)
	open, hist = b.Observe("AAPL", open, 30_000, 105, hist)
	assert.Empty(t, hist)
	open, hist = b.Observe("AAPL", open, 59_999, 98, hist)

	want := model.Candle{Timestamp: 0, Open: 100, High: 105, Low: 98, Close: 98}
	assert.Equal(t, want, *open)
	require.Len(t, hist, 1)
	assert.Equal(t, want, hist[0])
}

func TestObserve_CommitThreshold(t *testing.T) {
	b := NewBucketer(nil)
	open, hist := b.Observe("AAPL", nil, 54_999, 10, nil)
	assert.Empty(t, hist, "sample before the slack window must not commit")

	_, hist = b.Observe("AAPL", open, 55_000, 11, hist)
	require.Len(t, hist, 1)
	assert.Equal(t, 11.0, hist[0].Close)
}

func TestObserve_RepeatedCommitReplacesInPlace(t *testing.T) {
	b := NewBucketer(nil)
	open, hist := b.Observe("AAPL", nil, 56_000, 100, nil)
	open, hist = b.Observe("AAPL", open, 58_000, 90, hist)
	_, hist = b.Observe("AAPL", open, 59_000, 95, hist)

	require.Len(t, hist, 1)
	assert.Equal(t, model.Candle{Timestamp: 0, Open: 100, High: 100, Low: 90, Close: 95}, hist[0])
}

func TestObserve_NextBucketCommitsPrevious(t *testing.T) {
	b := NewBucketer(nil)
	open, hist := b.Observe("AAPL", nil, 10_000, 100, nil)
	open, hist = b.Observe("AAPL", open, 30_000, 104, hist)
	assert.Empty(t, hist)

	open, hist = b.Observe("AAPL", open, 70_000, 101, hist)
	require.Len(t, hist, 1)
	assert.Equal(t, model.Candle{Timestamp: 0, Open: 100, High: 104, Low: 100, Close: 104}, hist[0])
	assert.Equal(t, int64(60_000), open.Timestamp)
	assert.Equal(t, 101.0, open.Open)
}

func TestObserve_StaleSampleDoesNotCommitNewerBucket(t *testing.T) {
	b := NewBucketer(nil)
	open, hist := b.Observe("AAPL", nil, 70_000, 100, nil)
	_, hist = b.Observe("AAPL", open, 10_000, 99, hist)
	assert.Empty(t, hist)
}

func TestObserve_DoesNotMutateInputs(t *testing.T) {
	b := NewBucketer(nil)
	open := &model.Candle{Timestamp: 0, Open: 100, High: 100, Low: 100, Close: 100}
	hist := make([]model.Candle, 0, 4)
	next, out := b.Observe("AAPL", open, 57_000, 120, hist)

	assert.Equal(t, 100.0, open.High)
	assert.Equal(t, 120.0, next.High)
	assert.Empty(t, hist)
	require.Len(t, out, 1)
}

func TestObserve_UsesVolumeSource(t *testing.T) {
	calls := 0
	b := NewBucketer(VolumeFunc(func(symbol string, start int64) float64 {
		calls++
		assert.Equal(t, "MSFT", symbol)
		return float64(start) + 1
	}))
	open, _ := b.Observe("MSFT", nil, 60_500, 1, nil)
	open, _ = b.Observe("MSFT", open, 61_000, 2, nil)

	assert.Equal(t, 1, calls, "volume is assigned once per bucket")
	assert.Equal(t, 60_001.0, open.Volume)
}

func TestCommit_Idempotent(t *testing.T) {
	c := model.Candle{Timestamp: 60_000, Open: 1, High: 2, Low: 1, Close: 2}
	hist := Commit(nil, c)
	hist = Commit(hist, c)
	assert.Len(t, hist, 1)
}

func TestCommit_KeepsOrder(t *testing.T) {
	hist := []model.Candle{{Timestamp: 0}, {Timestamp: 120_000}}
	out := Commit(hist, model.Candle{Timestamp: 60_000})
	require.Len(t, out, 3)
	assert.Equal(t, []int64{0, 60_000, 120_000}, []int64{out[0].Timestamp, out[1].Timestamp, out[2].Timestamp})
	assert.Len(t, hist, 2)
}

func TestMerge(t *testing.T) {
	local := []model.Candle{{Timestamp: 0, Close: 1}, {Timestamp: 60_000, Close: 2}}
	server := []model.Candle{{Timestamp: 120_000, Close: 9, Volume: 500}, {Timestamp: 0, Close: 7, Volume: 100}}

	t.Run("empty server keeps local", func(t *testing.T) {
		got := Merge(local, nil)
		assert.Equal(t, local, got)
		assert.IsType(t, LocalOnly{}, Choose(local, nil))
	})

	t.Run("server replaces wholesale", func(t *testing.T) {
		got := Merge(local, server)
		require.Len(t, got, 2)
		assert.Equal(t, int64(0), got[0].Timestamp)
		assert.Equal(t, 7.0, got[0].Close)
		assert.Equal(t, "server", Choose(local, server).Source())
	})

	t.Run("idempotent", func(t *testing.T) {
		once := Merge(local, server)
		twice := Merge(once, server)
		assert.Equal(t, once, twice)
	})

	t.Run("duplicate server starts collapse", func(t *testing.T) {
		dup := []model.Candle{{Timestamp: 0, Close: 1}, {Timestamp: 0, Close: 3}}
		got := Merge(nil, dup)
		require.Len(t, got, 1)
		assert.Equal(t, 3.0, got[0].Close)
	})

	t.Run("commits apply after the choice", func(t *testing.T) {
		got := Merge(local, nil, model.Candle{Timestamp: 180_000, Close: 4})
		require.Len(t, got, 3)
		assert.Equal(t, 4.0, got[2].Close)
		assert.Len(t, local, 2)
	})
}

func TestRandomVolume_Bounds(t *testing.T) {
	r := NewRandomVolume(42, 10)
	for i := 0; i < 100; i++ {
		v := r.Volume("AAPL", int64(i))
		if v < 0 || v >= 10 {
			t.Fatalf("volume %v out of range", v)
		}
	}
	assert.IsType(t, ZeroVolume{}, NewVolumeSource("", 1))
	assert.IsType(t, &RandomVolume{}, NewVolumeSource("random", 1))
}
