package tracker

import (
	"context"
	"errors"
	"maps"
	"slices"

	"go.uber.org/zap"

	"StockTracker/internal/model"
	"StockTracker/internal/snapshot"
	"StockTracker/internal/store"
)

// Load restores the followed list and symbol states from the store. A missing or
// unreadable followed list falls back to the default symbols; an unreadable state
// record starts empty. States of symbols that are not followed are dropped.
func (t *Tracker) Load(ctx context.Context) {
	followed := t.loadFollowed(ctx)
	states := t.loadStates(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.followed = followed
	t.gens = make(map[string]uint64, len(followed))
	t.states = make(map[string]*model.SymbolState, len(followed))
	for _, sym := range followed {
		t.bump(sym)
		if s, ok := states[sym]; ok {
			t.trim.Count(s)
			t.states[sym] = s
		}
	}
	t.log.Info("state loaded",
		zap.String("store", t.store.Name()),
		zap.Strings("followed", followed),
		zap.Int("states", len(t.states)))
}

func (t *Tracker) loadFollowed(ctx context.Context) []string {
	data, err := t.store.Load(ctx, snapshot.KeyFollowed)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			t.log.Error("load followed list failed", zap.Error(err))
		}
		return slices.Clone(t.defaults)
	}
	list, err := snapshot.DecodeFollowed(data)
	if err != nil {
		t.log.Error("decode followed list failed", zap.Error(err))
		return slices.Clone(t.defaults)
	}
	return normalizeList(list)
}

func (t *Tracker) loadStates(ctx context.Context) map[string]*model.SymbolState {
	data, err := t.store.Load(ctx, snapshot.KeyStockData)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			t.log.Error("load stock data failed", zap.Error(err))
		}
		return nil
	}
	states, err := t.codec.Decode(data)
	if err != nil {
		t.log.Error("decode stock data failed, starting empty", zap.Error(err))
		return nil
	}
	return states
}

// persist writes both records from one consistent view of the published state.
// Saves are serialized so the last writer always holds the newest view.
func (t *Tracker) persist(ctx context.Context) {
	t.saveMu.Lock()
	defer t.saveMu.Unlock()

	t.mu.RLock()
	followed := slices.Clone(t.followed)
	states := maps.Clone(t.states)
	t.mu.RUnlock()

	data, err := t.codec.Encode(states, t.now().UnixMilli())
	if err != nil {
		t.log.Error("encode stock data failed", zap.Error(err))
	} else if err := t.store.Save(ctx, snapshot.KeyStockData, data); err != nil {
		t.log.Error("save stock data failed", zap.String("store", t.store.Name()), zap.Error(err))
	}

	list, err := snapshot.EncodeFollowed(followed)
	if err != nil {
		t.log.Error("encode followed list failed", zap.Error(err))
		return
	}
	if err := t.store.Save(ctx, snapshot.KeyFollowed, list); err != nil {
		t.log.Error("save followed list failed", zap.String("store", t.store.Name()), zap.Error(err))
	}
}
