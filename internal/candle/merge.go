package candle

import (
	"slices"
	"sort"

	"StockTracker/internal/model"
)

// Choice is the precedence decision between server history and local aggregation.
type Choice interface {
	Series() []model.Candle
	Source() string
}

// Authoritative wins whenever the server returned any candles. It carries true volume.
type Authoritative struct{ Server []model.Candle }

// LocalOnly keeps the locally committed history when the server had nothing.
type LocalOnly struct{ Local []model.Candle }

// Series returns the server candles ordered by timestamp with duplicate starts collapsed
// to the last occurrence.
func (a Authoritative) Series() []model.Candle {
	out := slices.Clone(a.Server)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	w := 0
	for i := range out {
		if w > 0 && out[w-1].Timestamp == out[i].Timestamp {
			out[w-1] = out[i]
			continue
		}
		out[w] = out[i]
		w++
	}
	return out[:w]
}

func (a Authoritative) Source() string { return "server" }

func (l LocalOnly) Series() []model.Candle { return l.Local }

func (l LocalOnly) Source() string { return "local" }

// Choose picks the source of truth for committed history.
func Choose(local, server []model.Candle) Choice {
	if len(server) > 0 {
		return Authoritative{Server: server}
	}
	return LocalOnly{Local: local}
}

// Merge reconciles committed history with a server payload and then applies any pending
// bucket commits on top. An empty server payload leaves local history untouched.
// Merging the same inputs again yields the same result.
func Merge(local, server []model.Candle, commits ...model.Candle) []model.Candle {
	out := Choose(local, server).Series()
	for _, c := range commits {
		out = Commit(out, c)
	}
	return out
}
