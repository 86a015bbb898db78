// Package catalog looks up reference display names for identifiers, used
// when no provider can resolve an ISIN directly.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Catalog returns the display name recorded for an identifier.
type Catalog interface {
	Name(ctx context.Context, identifier string) (string, bool)
}

// Entry is one reference row.
type Entry struct {
	ISIN string `json:"isin"`
	Name string `json:"name"`
}

// Lister is a catalog that can enumerate its entries, ordered by name.
type Lister interface {
	List(ctx context.Context) ([]Entry, error)
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Name != entries[j].Name {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].ISIN < entries[j].ISIN
	})
}

// Static is a fixed identifier to name table, typically from configuration.
type Static map[string]string

// NewStatic builds a static catalog. Identifiers are matched case-insensitively.
func NewStatic(entries map[string]string) Static {
	s := make(Static, len(entries))
	for id, name := range entries {
		if name = strings.TrimSpace(name); name != "" {
			s[strings.ToUpper(strings.TrimSpace(id))] = name
		}
	}
	return s
}

func (s Static) Name(_ context.Context, identifier string) (string, bool) {
	name, ok := s[strings.ToUpper(strings.TrimSpace(identifier))]
	return name, ok
}

func (s Static) List(_ context.Context) ([]Entry, error) {
	out := make([]Entry, 0, len(s))
	for id, name := range s {
		out = append(out, Entry{ISIN: id, Name: name})
	}
	sortEntries(out)
	return out, nil
}

// Chain asks each catalog in order and returns the first name found.
type Chain []Catalog

func (c Chain) Name(ctx context.Context, identifier string) (string, bool) {
	for _, cat := range c {
		if cat == nil {
			continue
		}
		if name, ok := cat.Name(ctx, identifier); ok {
			return name, true
		}
	}
	return "", false
}

// List merges the entries of every listable member. When an identifier
// appears twice the earlier member's name wins, as it does for Name.
func (c Chain) List(ctx context.Context) ([]Entry, error) {
	seen := make(map[string]bool)
	var out []Entry
	for _, cat := range c {
		l, ok := cat.(Lister)
		if !ok {
			continue
		}
		entries, err := l.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing catalog: %w", err)
		}
		for _, e := range entries {
			if seen[e.ISIN] {
				continue
			}
			seen[e.ISIN] = true
			out = append(out, e)
		}
	}
	sortEntries(out)
	return out, nil
}
