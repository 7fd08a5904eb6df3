// Package listview derives presentation projections from an item mirror.
// Projections are pure functions of the current mirror and must be recomputed
// after every push, since each push replaces the mirror wholesale.
package listview

import (
	"sort"
	"strings"

	"github.com/pantryline/pantryline-backend/internal/items"
)

// Query selects and orders a slice of the mirror for display.
type Query struct {
	// Search filters by case-insensitive substring match on the item name.
	// Empty means no filter.
	Search string
	// StoreID keeps only items tagged with the store. Empty means no filter.
	StoreID string
}

// Project returns the items sorted by category, with the "other" category
// always last regardless of its alphabetical position, then filtered by the
// query. The input slice is not modified.
func Project(mirror []items.Item, query Query) []items.Item {
	out := make([]items.Item, 0, len(mirror))
	search := strings.ToLower(strings.TrimSpace(query.Search))
	for _, item := range mirror {
		if search != "" && !strings.Contains(strings.ToLower(item.Name), search) {
			continue
		}
		if query.StoreID != "" && item.StoreID != query.StoreID {
			continue
		}
		out = append(out, item)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Category.SortKey() < out[j].Category.SortKey()
	})
	return out
}

// GroupByCategory splits a projected slice into per-category runs, preserving
// the projection order.
func GroupByCategory(projected []items.Item) [][]items.Item {
	groups := [][]items.Item{}
	for _, item := range projected {
		if n := len(groups); n > 0 && groups[n-1][0].Category == item.Category {
			groups[n-1] = append(groups[n-1], item)
			continue
		}
		groups = append(groups, []items.Item{item})
	}
	return groups
}
