package remote

import (
	"fmt"
	"net/url"
	"strings"
)

// Query accumulates filter, order and range clauses for a table request,
// mirroring the query-builder shape of the remote service's REST dialect:
// equality filters become "col=eq.value", substring search becomes an
// "or=(col.ilike.*term*,...)" disjunction, ordering "order=col.asc|desc",
// and ranging travels in the Range header alongside "Prefer: count=exact".
type Query struct {
	filters  []string // pre-encoded "col=eq.value" pairs
	or       string   // or=(...) disjunction, at most one
	order    []string // "col.asc" / "col.desc", applied in sequence
	from, to int      // inclusive item range
	ranged   bool
	counted  bool
}

// Eq adds an equality filter on a column.
func (q Query) Eq(column, value string) Query {
	q.filters = append(q.filters, column+"=eq."+url.QueryEscape(value))
	return q
}

// OrContains adds a case-insensitive substring disjunction across columns.
func (q Query) OrContains(term string, columns ...string) Query {
	pattern := "*" + escapePattern(term) + "*"
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = col + ".ilike." + pattern
	}
	q.or = "or=" + url.QueryEscape("("+strings.Join(parts, ",")+")")
	return q
}

// Order appends a sort key. Earlier keys take precedence.
func (q Query) Order(column string, descending bool) Query {
	dir := "asc"
	if descending {
		dir = "desc"
	}
	q.order = append(q.order, column+"."+dir)
	return q
}

// Range restricts the response to the inclusive item range [from, to] and
// requests the exact total of matching rows.
func (q Query) Range(from, to int) Query {
	q.from, q.to, q.ranged, q.counted = from, to, true, true
	return q
}

// encode renders the accumulated clauses as a URL query string.
func (q Query) encode() string {
	parts := make([]string, 0, len(q.filters)+2)
	parts = append(parts, q.filters...)
	if q.or != "" {
		parts = append(parts, q.or)
	}
	if len(q.order) > 0 {
		parts = append(parts, "order="+strings.Join(q.order, ","))
	}
	return strings.Join(parts, "&")
}

// rangeHeader renders the Range header value, or "" when the query is
// unranged.
func (q Query) rangeHeader() string {
	if !q.ranged {
		return ""
	}
	return fmt.Sprintf("%d-%d", q.from, q.to)
}

// escapePattern neutralizes the dialect's pattern metacharacters so a search
// term only ever matches literally.
func escapePattern(term string) string {
	r := strings.NewReplacer("%", `\%`, "_", `\_`, "*", `\*`, ",", `\,`, "(", `\(`, ")", `\)`)
	return r.Replace(term)
}
