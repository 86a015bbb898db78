package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/newthinker/stockscan/internal/core"
	"github.com/newthinker/stockscan/internal/provider"
	"github.com/newthinker/stockscan/internal/provider/mocks"
	"github.com/newthinker/stockscan/internal/storage/cache"
)

type progress struct {
	step  string
	index int
	total int
	err   error
}

func recorder() (*core.Steps, *[]progress) {
	var events []progress
	steps := core.NewSteps(ScanSteps, func(step string, index, total int, err error) {
		events = append(events, progress{step, index, total, err})
	})
	return steps, &events
}

func adapter(ctrl *gomock.Controller, name string) *mocks.MockAdapter {
	a := mocks.NewMockAdapter(ctrl)
	a.EXPECT().Name().Return(name).AnyTimes()
	return a
}

func bars(n int) []core.OHLCV {
	out := make([]core.OHLCV, n)
	d := core.NewDate(2023, 1, 2)
	for i := range out {
		out[i] = core.OHLCV{Date: d.AddDays(i), Close: core.Float(100 + float64(i))}
	}
	return out
}

func TestScan_StageFailureIsNotFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	primary := adapter(ctrl, "primary")
	secondary := adapter(ctrl, "secondary")

	primary.EXPECT().Quote(gomock.Any(), "XYZ").Return(nil, false)
	secondary.EXPECT().Quote(gomock.Any(), "XYZ").Return(nil, false)
	primary.EXPECT().Series(gomock.Any(), "XYZ", core.CategoryDaily).Return(bars(5), true)
	primary.EXPECT().Fundamentals(gomock.Any(), "XYZ").Return(nil, false)
	secondary.EXPECT().Fundamentals(gomock.Any(), "XYZ").Return(core.Fundamentals{"Name": "XYZ Corp"}, true)
	primary.EXPECT().News(gomock.Any(), "XYZ", DefaultNewsLimit).Return(nil, false)
	secondary.EXPECT().News(gomock.Any(), "XYZ", DefaultNewsLimit).Return(nil, false)

	o := New(provider.NewRegistry(primary, secondary), cache.NewMemoryStore())
	steps, events := recorder()

	sc := o.Scan(context.Background(), "XYZ", steps)
	require.NotNil(t, sc)
	assert.Equal(t, "XYZ", sc.Symbol)
	assert.Nil(t, sc.Quote)
	assert.Len(t, sc.Daily, 5)
	assert.Equal(t, "XYZ Corp", sc.Fundamentals["Name"])
	assert.Nil(t, sc.News)

	require.Len(t, *events, 8)
	failed := map[string]bool{}
	for _, e := range *events {
		assert.Equal(t, ScanSteps, e.total)
		if e.err != nil {
			failed[e.step] = true
			assert.ErrorIs(t, e.err, core.ErrNoData)
		}
	}
	assert.Equal(t, map[string]bool{StepQuote: true, StepNews: true}, failed)
	assert.Equal(t, 4, (*events)[7].index)
}

func TestQuote_FallsBackAndCaches(t *testing.T) {
	ctrl := gomock.NewController(t)
	primary := adapter(ctrl, "primary")
	secondary := adapter(ctrl, "secondary")

	primary.EXPECT().Quote(gomock.Any(), "AAPL").Return(nil, false).Times(1)
	secondary.EXPECT().Quote(gomock.Any(), "AAPL").
		Return(&core.Quote{Symbol: "AAPL", Price: 190.5, Volume: 1000}, true).Times(1)

	store := cache.NewMemoryStore()
	o := New(provider.NewRegistry(primary, secondary), store)
	ctx := context.Background()

	q, ok := o.Quote(ctx, "AAPL")
	require.True(t, ok)
	assert.Equal(t, 190.5, q.Price)

	// Served from cache; the mocks would fail on a second call.
	q, ok = o.Quote(ctx, "AAPL")
	require.True(t, ok)
	assert.Equal(t, int64(1000), q.Volume)
	assert.Equal(t, 1, store.Len())
}

func TestSeries_PersistsWrappedPayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	a := adapter(ctrl, "primary")
	a.EXPECT().Series(gomock.Any(), "AAPL", core.CategoryWeekly).Return(bars(3), true)

	store := cache.NewMemoryStore()
	o := New(provider.NewRegistry(a), store)

	s, ok := o.Series(context.Background(), "AAPL", core.CategoryWeekly)
	require.True(t, ok)
	assert.Len(t, s, 3)

	raw, err := store.Get(context.Background(), cache.NewKey("AAPL", core.CategoryWeekly), time.Hour)
	require.NoError(t, err)
	var payload map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.Contains(t, payload, "series")
}

func TestSeries_RejectsNonSeriesCategory(t *testing.T) {
	ctrl := gomock.NewController(t)
	o := New(provider.NewRegistry(adapter(ctrl, "primary")), cache.NewMemoryStore())
	_, ok := o.Series(context.Background(), "AAPL", core.CategoryQuote)
	assert.False(t, ok)
}

func TestFundamentals_UnsafePayloadFallsBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	primary := adapter(ctrl, "primary")
	secondary := adapter(ctrl, "secondary")

	primary.EXPECT().Fundamentals(gomock.Any(), "AAPL").
		Return(core.Fundamentals{"Information": "Thank you for using our API. Please subscribe to premium."}, true)
	secondary.EXPECT().Fundamentals(gomock.Any(), "AAPL").
		Return(core.Fundamentals{"Symbol": "AAPL", "PERatio": 28.5}, true)

	o := New(provider.NewRegistry(primary, secondary), cache.NewMemoryStore())
	f, ok := o.Fundamentals(context.Background(), "AAPL")
	require.True(t, ok)
	assert.Equal(t, "AAPL", f["Symbol"])
	assert.NotContains(t, f, "Information")
}

func TestNews_CachedUnderItems(t *testing.T) {
	ctrl := gomock.NewController(t)
	a := adapter(ctrl, "primary")
	items := []core.NewsItem{{Title: "Rate limits on imports eased", URL: "https://example.com/a"}}
	a.EXPECT().News(gomock.Any(), "AAPL", 5).Return(items, true).Times(1)

	store := cache.NewMemoryStore()
	o := New(provider.NewRegistry(a), store, WithNewsLimit(5))

	got, ok := o.News(context.Background(), "AAPL")
	require.True(t, ok)
	assert.Equal(t, items, got)

	got, ok = o.News(context.Background(), "AAPL")
	require.True(t, ok)
	assert.Equal(t, items, got)
}

// staleStore reports every key as stale and counts writes.
type staleStore struct {
	writes int
}

func (s *staleStore) Get(context.Context, cache.Key, time.Duration) (json.RawMessage, error) {
	return nil, core.ErrCacheMiss
}

func (s *staleStore) Set(context.Context, cache.Key, json.RawMessage) error {
	s.writes++
	return nil
}

func TestQuote_StaleEntryRefetched(t *testing.T) {
	ctrl := gomock.NewController(t)
	a := adapter(ctrl, "primary")
	a.EXPECT().Quote(gomock.Any(), "AAPL").Return(&core.Quote{Symbol: "AAPL", Price: 1}, true).Times(2)

	store := &staleStore{}
	o := New(provider.NewRegistry(a), store)
	o.Quote(context.Background(), "AAPL")
	o.Quote(context.Background(), "AAPL")
	assert.Equal(t, 2, store.writes)
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, cache.Key, time.Duration) (json.RawMessage, error) {
	return nil, errors.New("connection refused")
}

func (brokenStore) Set(context.Context, cache.Key, json.RawMessage) error {
	return errors.New("connection refused")
}

func TestQuote_CacheErrorsDoNotBlockFetch(t *testing.T) {
	ctrl := gomock.NewController(t)
	a := adapter(ctrl, "primary")
	a.EXPECT().Quote(gomock.Any(), "AAPL").Return(&core.Quote{Symbol: "AAPL", Price: 1}, true)

	o := New(provider.NewRegistry(a), brokenStore{})
	q, ok := o.Quote(context.Background(), "AAPL")
	require.True(t, ok)
	assert.Equal(t, "AAPL", q.Symbol)
}

func TestQuote_InvalidQuoteRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	a := adapter(ctrl, "primary")
	a.EXPECT().Quote(gomock.Any(), "AAPL").Return(&core.Quote{Symbol: "AAPL"}, true)

	o := New(provider.NewRegistry(a), cache.NewMemoryStore())
	_, ok := o.Quote(context.Background(), "AAPL")
	assert.False(t, ok)
}

func TestQuote_CancelledCallerDoesNotFailSharedFetch(t *testing.T) {
	ctrl := gomock.NewController(t)
	primary := adapter(ctrl, "primary")

	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	walkCancelled := make(chan bool, 1)
	primary.EXPECT().Quote(gomock.Any(), "XYZ").DoAndReturn(func(ctx context.Context, _ string) (*core.Quote, bool) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
			walkCancelled <- ctx.Err() != nil
		}
		return &core.Quote{Symbol: "XYZ", Price: 42, Volume: 10}, true
	}).MinTimes(1)

	o := New(provider.NewRegistry(primary), cache.NewMemoryStore())

	first, cancel := context.WithCancel(context.Background())
	firstDone := make(chan bool, 1)
	go func() {
		_, ok := o.Quote(first, "XYZ")
		firstDone <- ok
	}()
	<-started
	cancel()

	select {
	case ok := <-firstDone:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller still waiting on the shared fetch")
	}

	secondDone := make(chan *core.Quote, 1)
	go func() {
		q, _ := o.Quote(context.Background(), "XYZ")
		secondDone <- q
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)

	select {
	case q := <-secondDone:
		require.NotNil(t, q)
		assert.Equal(t, 42.0, q.Price)
	case <-time.After(2 * time.Second):
		t.Fatal("second caller never received the quote")
	}
	select {
	case cancelled := <-walkCancelled:
		assert.False(t, cancelled, "shared fetch saw the first caller's cancellation")
	case <-time.After(2 * time.Second):
		t.Fatal("shared fetch never finished")
	}
}
