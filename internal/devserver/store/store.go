// Package store defines the notes table storage behind the devserver, plus
// the filter/sort/page logic shared by its implementations.
package store

import (
	"context"
	"sort"
	"strings"

	"github.com/itsDongki/quicknotes/internal/model"
)

// ListQuery is the parsed shape of a table read: equality filters, optional
// substring search, single-key sort and an inclusive item range.
type ListQuery struct {
	Owner  string
	ID     string // optional id equality filter
	Search string // case-insensitive substring over title/content, "" = none

	SortField model.SortField
	Desc      bool

	From, To int // inclusive range, active when HasRange
	HasRange bool
}

// Store persists the notes table.
type Store interface {
	Insert(ctx context.Context, note model.Note) error
	Get(ctx context.Context, id string) (model.Note, bool, error)
	// Select returns the page matching q plus the exact total of matching
	// rows (before ranging).
	Select(ctx context.Context, q ListQuery) ([]model.Note, int, error)
	Update(ctx context.Context, note model.Note) error
	Delete(ctx context.Context, id string) (bool, error)
}

// Matches applies the query's filter predicates to one note. Ownership is a
// filter like any other: a note outside q.Owner simply does not match.
func Matches(n model.Note, q ListQuery) bool {
	if q.Owner != "" && n.Owner != q.Owner {
		return false
	}
	if q.ID != "" && n.ID != q.ID {
		return false
	}
	if q.Search != "" {
		term := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(n.Title), term) &&
			!strings.Contains(strings.ToLower(n.Content), term) {
			return false
		}
	}
	return true
}

// Sort orders notes by the query's sort key, ties broken by id ascending so
// pagination is reproducible.
func Sort(items []model.Note, field model.SortField, desc bool) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		var ta, tb = a.CreatedAt, b.CreatedAt
		if field == model.SortByUpdatedAt || field == "" {
			ta, tb = a.UpdatedAt, b.UpdatedAt
		}
		if !ta.Equal(tb) {
			if desc {
				return ta.After(tb)
			}
			return ta.Before(tb)
		}
		return a.ID < b.ID
	})
}

// Page slices the inclusive [from, to] item range out of sorted items.
func Page(items []model.Note, from, to int) []model.Note {
	if from < 0 {
		from = 0
	}
	if from >= len(items) {
		return []model.Note{}
	}
	if to >= len(items) {
		to = len(items) - 1
	}
	return items[from : to+1]
}

// Apply runs the full filter/sort/range pipeline over a raw row set.
func Apply(all []model.Note, q ListQuery) ([]model.Note, int) {
	matched := make([]model.Note, 0, len(all))
	for _, n := range all {
		if Matches(n, q) {
			matched = append(matched, n)
		}
	}
	Sort(matched, q.SortField, q.Desc)
	total := len(matched)
	if q.HasRange {
		matched = Page(matched, q.From, q.To)
	}
	return matched, total
}
