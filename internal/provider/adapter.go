// Package provider defines the market data adapter contract shared by every
// upstream source.
package provider

import (
	"context"

	"github.com/newthinker/stockscan/internal/core"
)

// Adapter fetches market data from one upstream source.
//
// No operation returns an error: transport failures, malformed payloads and
// provider error or rate-limit markers all come back as ok == false, which
// tells the caller to fall back to the next adapter.
type Adapter interface {
	// Name identifies the adapter in logs, metrics and stored resolutions.
	Name() string

	Quote(ctx context.Context, symbol string) (*core.Quote, bool)
	// Series returns bars sorted by date ascending without duplicate dates.
	Series(ctx context.Context, symbol string, category core.Category) ([]core.OHLCV, bool)
	Fundamentals(ctx context.Context, symbol string) (core.Fundamentals, bool)
	// News returns at most limit items; items without title, summary and URL are dropped.
	News(ctx context.Context, symbol string, limit int) ([]core.NewsItem, bool)
}

// IDResolver is implemented by adapters that can map an ISIN to a symbol.
type IDResolver interface {
	ResolveByID(ctx context.Context, id string) (*core.SymbolMatch, bool)
}

// NameResolver is implemented by adapters that can search by company name.
type NameResolver interface {
	ResolveByName(ctx context.Context, name string) (*core.SymbolMatch, bool)
}

// ResolvingAdapter is an adapter with both resolution capabilities.
type ResolvingAdapter interface {
	Adapter
	IDResolver
	NameResolver
}
