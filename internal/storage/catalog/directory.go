package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/newthinker/stockscan/internal/core"
)

// Stock is a catalog entry with the symbol it resolved to. Symbol is nil
// until the identifier has been resolved once.
type Stock struct {
	ISIN   string  `json:"isin"`
	Name   string  `json:"name"`
	Symbol *string `json:"symbol"`
}

// ResolutionLister enumerates stored identifier to symbol mappings.
type ResolutionLister interface {
	List(ctx context.Context) ([]core.Resolution, error)
}

// Directory joins the reference entries with stored resolutions.
type Directory struct {
	entries     Lister
	resolutions ResolutionLister
}

// NewDirectory creates a directory. resolutions may be nil.
func NewDirectory(entries Lister, resolutions ResolutionLister) *Directory {
	return &Directory{entries: entries, resolutions: resolutions}
}

// Stocks lists every entry ordered by name.
func (d *Directory) Stocks(ctx context.Context) ([]Stock, error) {
	entries, err := d.entries.List(ctx)
	if err != nil {
		return nil, err
	}

	symbols := make(map[string]string)
	if d.resolutions != nil {
		resolved, err := d.resolutions.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing resolutions: %w", err)
		}
		for _, r := range resolved {
			symbols[strings.ToUpper(r.Identifier)] = r.Symbol
		}
	}

	out := make([]Stock, len(entries))
	for i, e := range entries {
		out[i] = Stock{ISIN: e.ISIN, Name: e.Name}
		if sym, ok := symbols[strings.ToUpper(e.ISIN)]; ok && sym != "" {
			out[i].Symbol = &sym
		}
	}
	return out, nil
}
