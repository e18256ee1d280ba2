package collector

import (
	"context"
	"fmt"

	"StockTracker/internal/model"
)

// Fetcher defines the interface for fetching market data.
//
//go:generate mockgen -source fetcher.go -destination=mock/fetcher_mock.go -package=mock_collector
type Fetcher interface {
	FetchQuote(ctx context.Context, symbol string) (*model.Quote, error)
	FetchCandles(ctx context.Context, symbol string) (*model.HistoricalCandles, error)
	Search(ctx context.Context, query string) (*model.SearchResponse, error)
	Name() string
}

// FetchError describes a failed upstream call. Every fetch error is transient: the
// next tick retries naturally.
type FetchError struct {
	Op     string
	Target string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: status %d", e.Op, e.Target, e.Status)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Transient reports whether the failure should be retried on a later tick.
func (e *FetchError) Transient() bool { return true }
