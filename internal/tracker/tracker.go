package tracker

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"StockTracker/internal/candle"
	"StockTracker/internal/collector"
	"StockTracker/internal/display"
	"StockTracker/internal/model"
	"StockTracker/internal/retention"
	"StockTracker/internal/snapshot"
	"StockTracker/internal/store"
	"StockTracker/internal/window"
)

var (
	ErrInvalidSymbol = errors.New("invalid symbol")
	ErrNotFollowed   = errors.New("symbol not followed")
)

// Options tunes a Tracker. Zero values select the defaults.
type Options struct {
	DefaultSymbols []string
	HistoryRefresh time.Duration
	Trimmer        retention.Trimmer
	Volume         candle.VolumeSource
	Now            func() time.Time
}

// Tracker owns the followed list and every symbol state. It is the only writer:
// published states are never modified, updates build a new state and swap the pointer.
type Tracker struct {
	col      *collector.Collector
	store    store.Store
	codec    *snapshot.Codec
	bucketer *candle.Bucketer
	trim     retention.Trimmer
	refresh  time.Duration
	defaults []string
	now      func() time.Time
	log      *zap.Logger

	mu       sync.RWMutex
	followed []string
	gens     map[string]uint64
	nextGen  uint64
	states   map[string]*model.SymbolState
	lastTick time.Time

	saveMu sync.Mutex

	lmu       sync.Mutex
	listeners []func()
}

// New creates a Tracker with an empty followed list. Call Load to restore persisted state.
func New(col *collector.Collector, st store.Store, opts Options, log *zap.Logger) *Tracker {
	if opts.Trimmer.MaxPoints <= 0 || opts.Trimmer.Window <= 0 {
		opts.Trimmer = retention.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Tracker{
		col:      col,
		store:    st,
		codec:    snapshot.NewCodec(opts.Trimmer),
		bucketer: candle.NewBucketer(opts.Volume),
		trim:     opts.Trimmer,
		refresh:  opts.HistoryRefresh,
		defaults: normalizeList(opts.DefaultSymbols),
		now:      opts.Now,
		log:      log,
		gens:     make(map[string]uint64),
		states:   make(map[string]*model.SymbolState),
	}
}

// NormalizeSymbol upper-cases and trims a ticker, rejecting empty or malformed input.
func NormalizeSymbol(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" || len(s) > 20 {
		return "", ErrInvalidSymbol
	}
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.', r == '-', r == '^', r == ':', r == '=':
		default:
			return "", ErrInvalidSymbol
		}
	}
	return s, nil
}

func normalizeList(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		n, err := NormalizeSymbol(s)
		if err != nil || slices.Contains(out, n) {
			continue
		}
		out = append(out, n)
	}
	return out
}

// OnUpdate registers fn to run after every tick and every follow, unfollow or clear.
func (t *Tracker) OnUpdate(fn func()) {
	t.lmu.Lock()
	defer t.lmu.Unlock()
	t.listeners = append(t.listeners, fn)
}

func (t *Tracker) notify() {
	t.lmu.Lock()
	fns := slices.Clone(t.listeners)
	t.lmu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// must hold t.mu
func (t *Tracker) bump(symbol string) {
	t.nextGen++
	t.gens[symbol] = t.nextGen
}

// Follow adds symbol to the followed list. It reports false when the symbol was
// already followed.
func (t *Tracker) Follow(ctx context.Context, symbol string) (bool, error) {
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return false, err
	}

	t.mu.Lock()
	if slices.Contains(t.followed, sym) {
		t.mu.Unlock()
		return false, nil
	}
	t.followed = append(slices.Clip(t.followed), sym)
	t.bump(sym)
	t.mu.Unlock()

	t.log.Info("symbol followed", zap.String("symbol", sym))
	t.persist(ctx)
	t.notify()
	return true, nil
}

// Unfollow removes symbol and its state. Results of a tick already fetching the
// symbol are discarded when that tick publishes.
func (t *Tracker) Unfollow(ctx context.Context, symbol string) error {
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return err
	}

	t.mu.Lock()
	i := slices.Index(t.followed, sym)
	if i < 0 {
		t.mu.Unlock()
		return ErrNotFollowed
	}
	t.followed = slices.Delete(slices.Clone(t.followed), i, i+1)
	delete(t.gens, sym)
	delete(t.states, sym)
	t.mu.Unlock()

	t.log.Info("symbol unfollowed", zap.String("symbol", sym))
	t.persist(ctx)
	t.notify()
	return nil
}

// Clear drops every price trace, candle history and open candle and removes both
// persisted records. The followed list is kept in memory so the next tick repopulates.
func (t *Tracker) Clear(ctx context.Context) {
	t.mu.Lock()
	next := make(map[string]*model.SymbolState, len(t.states))
	for sym, s := range t.states {
		cleared := model.NewSymbolState(s.Quote)
		cleared.Candles = s.Candles
		next[sym] = cleared
	}
	t.states = next
	for _, sym := range t.followed {
		t.bump(sym)
	}
	t.mu.Unlock()

	t.saveMu.Lock()
	for _, key := range []string{snapshot.KeyStockData, snapshot.KeyFollowed} {
		if err := t.store.Clear(ctx, key); err != nil {
			t.log.Error("clear record failed", zap.String("key", key), zap.Error(err))
		}
	}
	t.saveMu.Unlock()

	t.log.Info("history cleared")
	t.notify()
}

// Followed returns a copy of the followed list in follow order.
func (t *Tracker) Followed() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.followed)
}

// State returns a deep copy of the symbol's state.
func (t *Tracker) State(symbol string) (*model.SymbolState, bool) {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.states[sym]
	if !ok {
		return nil, false
	}
	return s.Clone(), true
}

// LastTick returns when the last tick published, zero before the first.
func (t *Tracker) LastTick() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastTick
}

// Project renders the chart window ending now for every followed symbol.
func (t *Tracker) Project(kind model.ChartKind, timeframe int) window.View {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return window.ProjectAt(kind, timeframe, t.followed, t.states, t.now().UnixMilli())
}

// Summaries returns the watch list rows in follow order.
func (t *Tracker) Summaries() []display.Summary {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]display.Summary, 0, len(t.followed))
	for _, sym := range t.followed {
		out = append(out, display.Summarize(sym, t.states[sym]))
	}
	return out
}

// Search looks up symbols through the collector.
func (t *Tracker) Search(ctx context.Context, query string) *model.SearchResponse {
	return t.col.Search(ctx, query)
}
