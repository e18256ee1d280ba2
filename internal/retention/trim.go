package retention

import (
	"time"

	"StockTracker/internal/model"
)

const (
	// MaxPoints bounds every retained sequence.
	MaxPoints = 500
	// Window is the maximum age of persisted entries.
	Window = 24 * time.Hour
)

// Stamped is anything carrying a millisecond timestamp.
type Stamped interface {
	TS() int64
}

// KeepLast returns the most recent n entries of an ordered sequence.
func KeepLast[T any](seq []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if len(seq) <= n {
		return seq
	}
	return seq[len(seq)-n:]
}

// DropOlder removes entries from the front while they are at or before cutoff.
// It relies on seq being ordered by timestamp and never reorders.
func DropOlder[T Stamped](seq []T, cutoff int64) []T {
	i := 0
	for i < len(seq) && seq[i].TS() <= cutoff {
		i++
	}
	return seq[i:]
}

// Trimmer applies the count and age bounds to both sequences of a symbol state.
type Trimmer struct {
	MaxPoints int
	Window    time.Duration
}

// Default returns the standard 500 point, 24 hour trimmer.
func Default() Trimmer {
	return Trimmer{MaxPoints: MaxPoints, Window: Window}
}

// Count enforces the count bound in place on s.
func (t Trimmer) Count(s *model.SymbolState) {
	s.PriceHistory = KeepLast(s.PriceHistory, t.MaxPoints)
	s.CandleHistory = KeepLast(s.CandleHistory, t.MaxPoints)
}

// Age drops entries that are not newer than now minus the window.
func (t Trimmer) Age(s *model.SymbolState, now int64) {
	cutoff := now - t.Window.Milliseconds()
	s.PriceHistory = DropOlder(s.PriceHistory, cutoff)
	s.CandleHistory = DropOlder(s.CandleHistory, cutoff)
}
