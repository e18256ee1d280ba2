package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	mock_collector "StockTracker/internal/collector/mock"
	"StockTracker/internal/model"
)

func TestCollectQuoteFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := mock_collector.NewMockFetcher(ctrl)
	f.EXPECT().FetchQuote(gomock.Any(), "AAPL").Return(nil, &FetchError{Op: "quote", Target: "AAPL", Status: 500})

	c := NewCollector(f, zap.NewNop())
	_, err := c.Collect(context.Background(), "AAPL", true)
	require.Error(t, err)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 500, fe.Status)
	assert.True(t, fe.Transient())
}

func TestCollectCandleFailureDegrades(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := mock_collector.NewMockFetcher(ctrl)
	f.EXPECT().FetchQuote(gomock.Any(), "AAPL").Return(&model.Quote{Current: 150}, nil)
	f.EXPECT().FetchCandles(gomock.Any(), "AAPL").Return(nil, errors.New("boom"))

	c := NewCollector(f, zap.NewNop())
	s, err := c.Collect(context.Background(), "AAPL", true)
	require.NoError(t, err)
	assert.Equal(t, 150.0, s.Quote.Current)
	require.NotNil(t, s.History)
	assert.Equal(t, model.StatusNoData, s.History.Status)
	assert.Zero(t, s.History.Len())
}

func TestCollectWithoutHistory(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := mock_collector.NewMockFetcher(ctrl)
	f.EXPECT().FetchQuote(gomock.Any(), "MSFT").Return(&model.Quote{Current: 300}, nil)

	c := NewCollector(f, zap.NewNop())
	s, err := c.Collect(context.Background(), "MSFT", false)
	require.NoError(t, err)
	assert.Nil(t, s.History)
	assert.Equal(t, "MSFT", s.Symbol)
}

func TestSearch(t *testing.T) {
	t.Run("blank query skips network", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		f := mock_collector.NewMockFetcher(ctrl)
		c := NewCollector(f, zap.NewNop())

		r := c.Search(context.Background(), "   ")
		assert.Equal(t, 0, r.Count)
		assert.NotNil(t, r.Result)
	})

	t.Run("failure degrades to empty", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		f := mock_collector.NewMockFetcher(ctrl)
		f.EXPECT().Search(gomock.Any(), "app").Return(nil, errors.New("down"))
		c := NewCollector(f, zap.NewNop())

		r := c.Search(context.Background(), " app ")
		assert.Equal(t, 0, r.Count)
		assert.Empty(t, r.Result)
	})

	t.Run("passes results through", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		f := mock_collector.NewMockFetcher(ctrl)
		want := &model.SearchResponse{Count: 1, Result: []model.SearchResult{{Symbol: "AAPL"}}}
		f.EXPECT().Search(gomock.Any(), "apple").Return(want, nil)
		c := NewCollector(f, zap.NewNop())

		assert.Equal(t, want, c.Search(context.Background(), "apple"))
	})
}

func TestStaticFetcher(t *testing.T) {
	now := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	f := NewStaticFetcher(map[string]float64{"AAPL": 150, "GOOGL": 2800})
	f.Now = func() time.Time { return now }
	ctx := context.Background()

	q, err := f.FetchQuote(ctx, "AAPL")
	require.NoError(t, err)
	assert.InDelta(t, 150*0.99, q.Current, 1e-9)
	assert.Equal(t, now.Unix(), q.Timestamp)

	h, err := f.FetchCandles(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, model.StatusOK, h.Status)
	assert.Equal(t, 5, h.Len())
	assert.Equal(t, now.Unix(), h.Timestamp[4])

	r, err := f.Search(ctx, "oo")
	require.NoError(t, err)
	require.Equal(t, 1, r.Count)
	assert.Equal(t, "GOOGL", r.Result[0].Symbol)
}

func TestAPIFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/quote/AAPL":
			_, _ = w.Write([]byte(`{"c":150.25,"d":1.5,"dp":1.01,"h":151,"l":149,"o":149.5,"pc":148.75,"t":1700000000}`))
		case "/api/candles/AAPL":
			_, _ = w.Write([]byte(`{"c":[150],"h":[151],"l":[149],"o":[149.5],"s":"ok","t":[1700000000],"v":[1000]}`))
		case "/api/search/apple":
			_, _ = w.Write([]byte(`{"count":0}`))
		default:
			http.Error(w, "nope", http.StatusTooManyRequests)
		}
	}))
	defer srv.Close()

	f := NewAPIFetcher(srv.URL+"/", time.Second, "")
	ctx := context.Background()

	q, err := f.FetchQuote(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 150.25, q.Current)
	assert.Equal(t, 148.75, q.PreviousClose)

	h, err := f.FetchCandles(ctx, "AAPL")
	require.NoError(t, err)
	require.Len(t, h.Candles(), 1)
	assert.Equal(t, int64(1700000000000), h.Candles()[0].Timestamp)

	s, err := f.Search(ctx, "apple")
	require.NoError(t, err)
	assert.NotNil(t, s.Result)

	_, err = f.FetchQuote(ctx, "ZZZ")
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusTooManyRequests, fe.Status)
	assert.Equal(t, "api", f.Name())
}
