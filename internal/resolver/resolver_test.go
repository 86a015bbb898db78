package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/newthinker/stockscan/internal/core"
	"github.com/newthinker/stockscan/internal/provider"
	"github.com/newthinker/stockscan/internal/provider/mocks"
	"github.com/newthinker/stockscan/internal/storage/catalog"
	"github.com/newthinker/stockscan/internal/storage/resolution"
)

const isin = "IE00B4ND3602"

func resolving(ctrl *gomock.Controller, name string) *mocks.MockResolvingAdapter {
	a := mocks.NewMockResolvingAdapter(ctrl)
	a.EXPECT().Name().Return(name).AnyTimes()
	return a
}

func TestLooksLikeTicker(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"AAPL", true},
		{"BRK-B", true},
		{"SAP.DE", true},
		{"A", true},
		{"", false},
		{"aapl", false},
		{"TOOLONG", false},
		{"AB CD", false},
		{"123456", false},
		{isin, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LooksLikeTicker(tt.in), tt.in)
	}
}

func TestNameVariants(t *testing.T) {
	tests := []struct {
		name string
		want []string
	}{
		{"", nil},
		{"Apple", []string{"Apple"}},
		{"iShares Physical Gold", []string{"iShares Physical Gold", "iShares Physical"}},
		{
			"iShares Physical Gold ETC (Acc)",
			[]string{"iShares Physical Gold ETC (Acc)", "iShares Physical Gold ETC", "iShares Physical", "iShares Physical Gold"},
		},
		{"Gold (EUR Hedged) Fund", []string{"Gold (EUR Hedged) Fund", "Gold Fund", "Gold (EUR", "Gold (EUR Hedged)"}},
		{"Two Words", []string{"Two Words"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NameVariants(tt.name), tt.name)
	}
}

func TestResolve_TickerPassesThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	a := resolving(ctrl, "yahoo")
	r := New(provider.NewRegistry(a), resolution.NewMemoryStore(), nil)

	sym, ok := r.Resolve(context.Background(), "MSFT")
	assert.True(t, ok)
	assert.Equal(t, "MSFT", sym)
}

func TestResolve_ByIDPersistsAndShortCircuits(t *testing.T) {
	ctrl := gomock.NewController(t)
	primary := mocks.NewMockAdapter(ctrl) // no resolution capability
	primary.EXPECT().Name().Return("alphavantage").AnyTimes()
	secondary := resolving(ctrl, "yahoo")
	secondary.EXPECT().ResolveByID(gomock.Any(), isin).
		Return(&core.SymbolMatch{Symbol: "SGLN.L", Name: "iShares Physical Gold"}, true).
		Times(1)

	store := resolution.NewMemoryStore()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	r := New(provider.NewRegistry(primary, secondary), store, nil, WithClock(func() time.Time { return now }))

	ctx := context.Background()
	sym, ok := r.Resolve(ctx, isin)
	require.True(t, ok)
	assert.Equal(t, "SGLN.L", sym)

	stored, err := store.Get(ctx, isin)
	require.NoError(t, err)
	assert.Equal(t, "yahoo", stored.Source)
	assert.Equal(t, "iShares Physical Gold", stored.Name)
	assert.Equal(t, now, stored.ResolvedAt)

	// Second call within the TTL must not reach any adapter.
	now = now.Add(29 * 24 * time.Hour)
	sym, ok = r.Resolve(ctx, isin)
	require.True(t, ok)
	assert.Equal(t, "SGLN.L", sym)
}

func TestResolve_ExpiredEntryRefetches(t *testing.T) {
	ctrl := gomock.NewController(t)
	a := resolving(ctrl, "yahoo")
	a.EXPECT().ResolveByID(gomock.Any(), isin).Return(&core.SymbolMatch{Symbol: "NEW"}, true)

	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	store := resolution.NewMemoryStore()
	require.NoError(t, store.Upsert(context.Background(), core.Resolution{
		Identifier: isin, Symbol: "OLD", Source: "yahoo", ResolvedAt: now.Add(-31 * 24 * time.Hour),
	}))

	r := New(provider.NewRegistry(a), store, nil, WithClock(func() time.Time { return now }))
	sym, ok := r.Resolve(context.Background(), isin)
	require.True(t, ok)
	assert.Equal(t, "NEW", sym)
}

func TestResolve_FirstAdapterWinsByID(t *testing.T) {
	ctrl := gomock.NewController(t)
	first := resolving(ctrl, "first")
	second := resolving(ctrl, "second")
	first.EXPECT().ResolveByID(gomock.Any(), isin).Return(&core.SymbolMatch{Symbol: "ONE"}, true)

	r := New(provider.NewRegistry(first, second), resolution.NewMemoryStore(), nil)
	sym, ok := r.Resolve(context.Background(), isin)
	require.True(t, ok)
	assert.Equal(t, "ONE", sym)
}

func TestResolve_NameFallbackAdapterThenVariantOrder(t *testing.T) {
	ctrl := gomock.NewController(t)
	first := resolving(ctrl, "first")
	second := resolving(ctrl, "second")

	first.EXPECT().ResolveByID(gomock.Any(), isin).Return(nil, false)
	second.EXPECT().ResolveByID(gomock.Any(), isin).Return(nil, false)

	// The first adapter exhausts every variant before the second is asked.
	gomock.InOrder(
		first.EXPECT().ResolveByName(gomock.Any(), "Physical Gold USD ETC (Acc)").Return(nil, false),
		first.EXPECT().ResolveByName(gomock.Any(), "Physical Gold USD ETC").Return(nil, false),
		first.EXPECT().ResolveByName(gomock.Any(), "Physical Gold").Return(nil, false),
		first.EXPECT().ResolveByName(gomock.Any(), "Physical Gold USD").Return(nil, false),
		second.EXPECT().ResolveByName(gomock.Any(), "Physical Gold USD ETC (Acc)").Return(nil, false),
		second.EXPECT().ResolveByName(gomock.Any(), "Physical Gold USD ETC").
			Return(&core.SymbolMatch{Symbol: "PHGP.L", Name: "Physical Gold"}, true),
	)

	store := resolution.NewMemoryStore()
	cat := catalog.NewStatic(map[string]string{isin: "Physical Gold USD ETC (Acc)"})
	r := New(provider.NewRegistry(first, second), store, cat)

	sym, ok := r.Resolve(context.Background(), isin)
	require.True(t, ok)
	assert.Equal(t, "PHGP.L", sym)

	stored, err := store.Get(context.Background(), isin)
	require.NoError(t, err)
	assert.Equal(t, "second", stored.Source)
}

func TestResolve_Unresolved(t *testing.T) {
	ctrl := gomock.NewController(t)
	a := resolving(ctrl, "yahoo")
	a.EXPECT().ResolveByID(gomock.Any(), isin).Return(nil, false)

	store := resolution.NewMemoryStore()
	r := New(provider.NewRegistry(a), store, catalog.NewStatic(nil))

	_, ok := r.Resolve(context.Background(), isin)
	assert.False(t, ok)

	_, err := store.Get(context.Background(), isin)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestResolve_EmptySymbolIsNotAMatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	a := resolving(ctrl, "yahoo")
	a.EXPECT().ResolveByID(gomock.Any(), isin).Return(&core.SymbolMatch{Name: "x"}, true)
	a.EXPECT().ResolveByName(gomock.Any(), "Acme").Return(nil, false)

	r := New(provider.NewRegistry(a), nil, catalog.NewStatic(map[string]string{isin: "Acme"}))
	_, ok := r.Resolve(context.Background(), isin)
	assert.False(t, ok)
}

func TestResolve_DevMode(t *testing.T) {
	ctrl := gomock.NewController(t)
	a := resolving(ctrl, "yahoo") // must never be called

	store := resolution.NewMemoryStore()
	r := New(provider.NewRegistry(a), store, nil, WithDevMode(true))
	ctx := context.Background()

	sym, ok := r.Resolve(ctx, isin)
	require.True(t, ok)
	assert.Equal(t, "MOCK", sym)

	sym, ok = r.Resolve(ctx, "sap")
	require.True(t, ok)
	assert.Equal(t, "SAP", sym)

	// Stored entries win in dev mode regardless of age.
	require.NoError(t, store.Upsert(ctx, core.Resolution{
		Identifier: isin, Symbol: "SGLN.L", ResolvedAt: time.Now().AddDate(-1, 0, 0),
	}))
	sym, ok = r.Resolve(ctx, isin)
	require.True(t, ok)
	assert.Equal(t, "SGLN.L", sym)
}
