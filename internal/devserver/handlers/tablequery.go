package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/itsDongki/quicknotes/internal/devserver/store"
	"github.com/itsDongki/quicknotes/internal/model"
)

// parseListQuery translates the REST dialect's query parameters and Range
// header into a store query.
//
// Supported shape: "id=eq.<v>", "user_id=eq.<v>",
// "or=(title.ilike.*t*,content.ilike.*t*)", "order=<col>.<asc|desc>[,...]",
// plus "Range: from-to" with "Prefer: count=exact".
func parseListQuery(r *http.Request) (store.ListQuery, error) {
	vals := r.URL.Query()
	q := store.ListQuery{SortField: model.SortByCreatedAt}

	if v, ok := eqParam(vals, "id"); ok {
		q.ID = v
	}
	if v, ok := eqParam(vals, "user_id"); ok {
		q.Owner = v
	}

	if or := vals.Get("or"); or != "" {
		term, err := parseOrIlike(or)
		if err != nil {
			return q, err
		}
		q.Search = term
	}

	if order := vals.Get("order"); order != "" {
		field, desc, err := parseOrder(order)
		if err != nil {
			return q, err
		}
		q.SortField, q.Desc = field, desc
	}

	if rng := r.Header.Get("Range"); rng != "" {
		from, to, err := parseRange(rng)
		if err != nil {
			return q, err
		}
		q.From, q.To, q.HasRange = from, to, true
	}

	return q, nil
}

// eqParam extracts an "eq."-prefixed equality filter value.
func eqParam(vals url.Values, name string) (string, bool) {
	v := vals.Get(name)
	if !strings.HasPrefix(v, "eq.") {
		return "", false
	}
	return strings.TrimPrefix(v, "eq."), true
}

// parseOrIlike extracts the search term from an ilike disjunction like
// "(title.ilike.*term*,content.ilike.*term*)". Every branch carries the same
// term, so the first one is enough.
func parseOrIlike(v string) (string, error) {
	v = strings.TrimPrefix(v, "(")
	v = strings.TrimSuffix(v, ")")

	for _, branch := range splitEscaped(v, ',') {
		idx := strings.Index(branch, ".ilike.")
		if idx < 0 {
			continue
		}
		return unescapePattern(branch[idx+len(".ilike."):]), nil
	}
	return "", fmt.Errorf("unsupported or filter: %q", v)
}

// splitEscaped splits on sep, honoring backslash escapes.
func splitEscaped(s string, sep byte) []string {
	var parts []string
	var cur strings.Builder
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '\\' && i+1 < len(s):
			cur.WriteByte(s[i])
			cur.WriteByte(s[i+1])
			i++
		case s[i] == sep:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(s[i])
		}
	}
	parts = append(parts, cur.String())
	return parts
}

// unescapePattern strips the surrounding wildcards and backslash escapes from
// an ilike pattern, recovering the literal search term.
func unescapePattern(p string) string {
	p = strings.TrimPrefix(p, "*")
	p = strings.TrimSuffix(p, "*")
	var out strings.Builder
	for i := 0; i < len(p); i++ {
		if p[i] == '\\' && i+1 < len(p) {
			i++
		}
		out.WriteByte(p[i])
	}
	return out.String()
}

// parseOrder reads the primary sort key. An "id" segment is the tie-break the
// store applies unconditionally, so it is skipped here.
func parseOrder(v string) (model.SortField, bool, error) {
	for _, seg := range strings.Split(v, ",") {
		col, dir, _ := strings.Cut(seg, ".")
		if col == "id" {
			continue
		}
		var field model.SortField
		switch col {
		case string(model.SortByCreatedAt):
			field = model.SortByCreatedAt
		case string(model.SortByUpdatedAt):
			field = model.SortByUpdatedAt
		default:
			return "", false, fmt.Errorf("unsupported order column: %q", col)
		}
		switch dir {
		case "asc", "":
			return field, false, nil
		case "desc":
			return field, true, nil
		default:
			return "", false, fmt.Errorf("unsupported order direction: %q", dir)
		}
	}
	return model.SortByCreatedAt, false, nil
}

// parseRange reads an inclusive "from-to" item range.
func parseRange(v string) (int, int, error) {
	fromStr, toStr, ok := strings.Cut(v, "-")
	if !ok {
		return 0, 0, fmt.Errorf("malformed range: %q", v)
	}
	from, err := strconv.Atoi(fromStr)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed range start: %q", v)
	}
	to, err := strconv.Atoi(toStr)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed range end: %q", v)
	}
	if to < from || from < 0 {
		return 0, 0, fmt.Errorf("invalid range: %q", v)
	}
	return from, to, nil
}

// prefersCount reports whether the request asked for an exact total.
func prefersCount(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Prefer"), "count=exact")
}

// contentRange renders the Content-Range header for a returned page.
func contentRange(from, returned, total int) string {
	if returned == 0 {
		return fmt.Sprintf("*/%d", total)
	}
	return fmt.Sprintf("%d-%d/%d", from, from+returned-1, total)
}
