package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsDongki/quicknotes/internal/model"
)

func note(id, owner, title, content string, at time.Time) model.Note {
	return model.Note{
		ID:        id,
		Owner:     owner,
		Title:     title,
		Content:   content,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func TestMatches(t *testing.T) {
	base := time.Now()
	n := note("n1", "alice", "Grocery List", "milk and EGGS", base)

	tests := []struct {
		name string
		q    ListQuery
		want bool
	}{
		{name: "no filters", q: ListQuery{}, want: true},
		{name: "owner match", q: ListQuery{Owner: "alice"}, want: true},
		{name: "owner mismatch", q: ListQuery{Owner: "bob"}, want: false},
		{name: "id match", q: ListQuery{ID: "n1"}, want: true},
		{name: "id mismatch", q: ListQuery{ID: "n2"}, want: false},
		{name: "search in title, case-insensitive", q: ListQuery{Search: "grocery"}, want: true},
		{name: "search in content, case-insensitive", q: ListQuery{Search: "eggs"}, want: true},
		{name: "search miss", q: ListQuery{Search: "butter"}, want: false},
		{name: "owner and search both required", q: ListQuery{Owner: "bob", Search: "grocery"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(n, tt.q))
		})
	}
}

func TestSortBreaksTiesByID(t *testing.T) {
	at := time.Now()
	items := []model.Note{
		note("c", "o", "", "", at),
		note("a", "o", "", "", at),
		note("b", "o", "", "", at),
	}

	Sort(items, model.SortByUpdatedAt, true)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, "b", items[1].ID)
	assert.Equal(t, "c", items[2].ID)

	// Direction does not flip the tie-break.
	Sort(items, model.SortByUpdatedAt, false)
	assert.Equal(t, "a", items[0].ID)
}

func TestSortByField(t *testing.T) {
	t0 := time.Now()
	a := note("a", "o", "", "", t0)
	b := note("b", "o", "", "", t0.Add(time.Minute))
	b.UpdatedAt = t0.Add(-time.Minute) // created later, updated earlier

	items := []model.Note{a, b}
	Sort(items, model.SortByCreatedAt, true)
	assert.Equal(t, "b", items[0].ID)

	items = []model.Note{a, b}
	Sort(items, model.SortByUpdatedAt, true)
	assert.Equal(t, "a", items[0].ID)
}

func TestPageBounds(t *testing.T) {
	at := time.Now()
	items := []model.Note{
		note("a", "o", "", "", at),
		note("b", "o", "", "", at),
		note("c", "o", "", "", at),
	}

	assert.Len(t, Page(items, 0, 1), 2)
	assert.Len(t, Page(items, 2, 9), 1)
	assert.Empty(t, Page(items, 3, 9))
	assert.Len(t, Page(items, -1, 0), 1)
}

func TestApplyCountsBeforeRanging(t *testing.T) {
	t0 := time.Now()
	var all []model.Note
	for i := 0; i < 7; i++ {
		all = append(all, note(string(rune('a'+i)), "alice", "match", "", t0.Add(time.Duration(i)*time.Second)))
	}
	all = append(all, note("z", "bob", "match", "", t0))

	items, total := Apply(all, ListQuery{
		Owner:     "alice",
		SortField: model.SortByCreatedAt,
		From:      0, To: 2, HasRange: true,
	})

	require.Equal(t, 7, total, "total counts every matching row, not just the page")
	require.Len(t, items, 3)
	assert.Equal(t, "a", items[0].ID)
}
