// Package listing holds the client-side search, filter and sort rules shared
// by the catalog page and the favorites page.
//
// Both lists hold something that can present itself as a model.ExerciseCard
// (ExerciseCard itself, or a FavoriteEntry that embeds one), so the rules are
// written once as generic functions over the Item constraint.
package listing

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/sakif/maxsports/internal/model"
)

// Sort keys.
const (
	SortAddedAt = "addedAt"
	SortTitle   = "title"
	SortLevel   = "level"
)

// Sort orders.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// Item is anything a list shows as a card.
type Item interface {
	Card() model.ExerciseCard
}

// dated items can be sorted by when they were added.
type dated interface {
	Added() time.Time
}

// Query is the search / category / sort state of a list.
type Query struct {
	Search   string
	Category string
	Sort     string
	Order    string
}

// Apply filters items by q.Search and q.Category and then sorts the result.
// The input slice is never modified.
func Apply[T Item](items []T, q Query) []T {
	out := Filter(items, q.Search, q.Category)
	SortItems(out, q.Sort, q.Order)
	return out
}

// Filter returns the items matching search (case-insensitive substring of
// title, level, equipment or a tag) and category (exact tag or level).
func Filter[T Item](items []T, search, category string) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		c := it.Card()
		if c.Matches(search) && c.InCategory(category) {
			out = append(out, it)
		}
	}
	return out
}

// SortItems sorts items in place. An unknown key leaves the order alone, and
// SortAddedAt is a no-op for items that carry no timestamp. The sort is
// stable so equal keys keep their stored order.
func SortItems[T Item](items []T, key, order string) {
	var compare func(a, b T) int

	switch key {
	case SortTitle:
		compare = func(a, b T) int {
			return cmp.Compare(strings.ToLower(a.Card().Title), strings.ToLower(b.Card().Title))
		}
	case SortLevel:
		compare = func(a, b T) int {
			return cmp.Compare(a.Card().Level, b.Card().Level)
		}
	case SortAddedAt:
		compare = func(a, b T) int {
			da, okA := any(a).(dated)
			db, okB := any(b).(dated)
			if !okA || !okB {
				return 0
			}
			return da.Added().Compare(db.Added())
		}
	default:
		return
	}

	if order == OrderDesc {
		asc := compare
		compare = func(a, b T) int { return asc(b, a) }
	}
	slices.SortStableFunc(items, compare)
}

// Categories returns the sorted distinct tags and levels of items plus any
// extra values (remote categories), skipping empty strings.
func Categories[T Item](items []T, extra ...string) []string {
	seen := make(map[string]struct{})
	for _, it := range items {
		c := it.Card()
		seen[c.Level] = struct{}{}
		for _, tag := range c.Tags {
			seen[tag] = struct{}{}
		}
	}
	for _, e := range extra {
		seen[e] = struct{}{}
	}
	delete(seen, "")

	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// Page returns the 1-based page of size limit from items, and the total
// number of pages. A page past the end is empty.
func Page[T any](items []T, page, limit int) ([]T, int) {
	if limit <= 0 {
		return items, 1
	}
	if page < 1 {
		page = 1
	}
	totalPages := (len(items) + limit - 1) / limit
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}, totalPages
	}
	end := min(start+limit, len(items))
	return items[start:end], totalPages
}
