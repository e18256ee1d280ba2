package candle

import (
	"slices"

	"StockTracker/internal/model"
)

const (
	// Interval is the bucket width in milliseconds.
	Interval int64 = 60_000
	// CommitSlack is how early before the interval end a bucket may commit.
	CommitSlack int64 = 5_000
)

// BucketStart aligns ts down to the start of its bucket.
func BucketStart(ts, width int64) int64 {
	q := ts / width
	if ts%width != 0 && ts < 0 {
		q--
	}
	return q * width
}

// Bucketer folds price samples into fixed-width OHLCV buckets.
type Bucketer struct {
	Width  int64
	Slack  int64
	Volume VolumeSource
}

// NewBucketer returns a one-minute bucketer. A nil source assigns zero volume.
func NewBucketer(vs VolumeSource) *Bucketer {
	if vs == nil {
		vs = ZeroVolume{}
	}
	return &Bucketer{Width: Interval, Slack: CommitSlack, Volume: vs}
}

// Observe folds one sample into the symbol's open candle.
//
// The returned candle is always a fresh value; open is never modified. When the sample
// lands in a later bucket the previous open candle is committed as it stands and a new
// one starts. Once the sample is within Slack of the bucket end the candle is committed
// into history, which is returned as a new slice when it changes.
func (b *Bucketer) Observe(symbol string, open *model.Candle, ts int64, price float64, history []model.Candle) (*model.Candle, []model.Candle) {
	start := BucketStart(ts, b.Width)

	var next model.Candle
	if open != nil && open.Timestamp < start {
		history = Commit(history, *open)
	}
	if open == nil || open.Timestamp != start {
		next = model.Candle{
			Timestamp: start,
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
			Volume:    b.Volume.Volume(symbol, start),
		}
	} else {
		next = *open
		next.High = max(next.High, price)
		next.Low = min(next.Low, price)
		next.Close = price
	}

	if b.ShouldCommit(start, ts) {
		history = Commit(history, next)
	}
	return &next, history
}

// ShouldCommit reports whether a sample at ts is late enough in the bucket to commit it.
func (b *Bucketer) ShouldCommit(bucketStart, ts int64) bool {
	return ts-bucketStart >= b.Width-b.Slack
}

// Commit inserts c into history keyed by bucket start. An existing entry with the same
// start is replaced; otherwise c is inserted in timestamp order. The input slice is
// never written to.
func Commit(history []model.Candle, c model.Candle) []model.Candle {
	i, found := slices.BinarySearchFunc(history, c.Timestamp, func(e model.Candle, ts int64) int {
		switch {
		case e.Timestamp < ts:
			return -1
		case e.Timestamp > ts:
			return 1
		}
		return 0
	})
	if found {
		out := slices.Clone(history)
		out[i] = c
		return out
	}
	if i == len(history) {
		return append(slices.Clip(history), c)
	}
	out := make([]model.Candle, 0, len(history)+1)
	out = append(out, history[:i]...)
	out = append(out, c)
	return append(out, history[i:]...)
}
