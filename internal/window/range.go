package window

import "math"

// Bounds scans projected series and returns the lowest and highest value.
// For OHLC points the low and high components are used. ok is false when no series
// has any data.
func Bounds(series []Series) (low, high float64, ok bool) {
	low = math.Inf(1)
	high = math.Inf(-1)
	for _, s := range series {
		for _, p := range s.Data {
			lo, hi := pointRange(p)
			if lo < low {
				low = lo
			}
			if hi > high {
				high = hi
			}
			ok = true
		}
	}
	if !ok {
		return 0, 0, false
	}
	return low, high, true
}

func pointRange(p Point) (lo, hi float64) {
	if len(p.Values) == 4 {
		return p.Values[2], p.Values[1]
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range p.Values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}
