package tracker

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"StockTracker/internal/candle"
	"StockTracker/internal/collector"
	"StockTracker/internal/display"
	"StockTracker/internal/model"
)

// Report summarizes one tick.
type Report struct {
	ID        string
	Updated   int
	Failed    int
	Discarded int
	Took      time.Duration
}

type pending struct {
	symbol string
	gen    uint64
	state  *model.SymbolState
}

// Tick runs one ingest cycle over the followed symbols. Symbols are fetched in order;
// a failed symbol keeps its prior state. All results are published together, and a
// result is dropped when its symbol was unfollowed or cleared while the tick ran.
// Callers must not run ticks concurrently.
func (t *Tracker) Tick(ctx context.Context) Report {
	started := t.now()
	rep := Report{ID: uuid.NewString()}
	log := t.log.With(zap.String("tick_id", rep.ID))

	t.mu.RLock()
	symbols := slices.Clone(t.followed)
	gens := make(map[string]uint64, len(symbols))
	prev := make(map[string]*model.SymbolState, len(symbols))
	for _, sym := range symbols {
		gens[sym] = t.gens[sym]
		prev[sym] = t.states[sym]
	}
	t.mu.RUnlock()

	now := started.UnixMilli()
	results := make([]pending, 0, len(symbols))
	for _, sym := range symbols {
		if ctx.Err() != nil {
			log.Warn("tick cancelled", zap.Error(ctx.Err()))
			break
		}
		old := prev[sym]
		sample, err := t.col.Collect(ctx, sym, t.needsHistory(old, now))
		if err != nil {
			rep.Failed++
			log.Warn("fetch quote failed", zap.String("symbol", sym), zap.Error(err))
			continue
		}
		next := t.apply(sym, old, sample, now)
		log.Debug("symbol sampled", zap.String("summary", display.FormatSummary(display.Summarize(sym, next))))
		results = append(results, pending{symbol: sym, gen: gens[sym], state: next})
	}

	t.mu.Lock()
	for _, r := range results {
		if g, ok := t.gens[r.symbol]; !ok || g != r.gen {
			rep.Discarded++
			continue
		}
		t.states[r.symbol] = r.state
		rep.Updated++
	}
	t.lastTick = t.now()
	t.mu.Unlock()

	t.persist(ctx)
	rep.Took = time.Since(started)
	log.Info("tick finished",
		zap.Int("symbols", len(symbols)),
		zap.Int("updated", rep.Updated),
		zap.Int("failed", rep.Failed),
		zap.Int("discarded", rep.Discarded))
	t.notify()
	return rep
}

func (t *Tracker) needsHistory(s *model.SymbolState, now int64) bool {
	if s == nil || s.HistoryFetchedAt == 0 {
		return true
	}
	return t.refresh > 0 && now-s.HistoryFetchedAt >= t.refresh.Milliseconds()
}

// apply builds the next state of symbol from its previous state and a fresh sample.
// prev is only read.
func (t *Tracker) apply(symbol string, prev *model.SymbolState, sample *collector.Sample, now int64) *model.SymbolState {
	var next model.SymbolState
	if prev == nil {
		next = *model.NewSymbolState(sample.Quote)
	} else {
		next = *prev
	}

	price := sample.Quote.Current
	next.Quote = sample.Quote
	next.Quote.Current = price

	next.PriceHistory = append(slices.Clip(next.PriceHistory), model.PricePoint{Timestamp: now, Price: price})

	open, history := t.bucketer.Observe(symbol, next.OpenCandle, now, price, next.CandleHistory)
	next.OpenCandle = open

	if h := sample.History; h != nil && h.Status != model.StatusNoData {
		var commits []model.Candle
		if t.bucketer.ShouldCommit(open.Timestamp, now) {
			commits = append(commits, *open)
		}
		history = candle.Merge(history, h.Candles(), commits...)
		next.Candles = *h
		next.HistoryFetchedAt = now
	}
	next.CandleHistory = history

	t.trim.Count(&next)
	return &next
}
