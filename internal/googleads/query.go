package googleads

import (
	"strconv"
	"strings"
)

// Query is a declarative GAQL-style query: a field list, a resource, and
// filter predicates. It stays a value type so the executor can derive
// narrowed copies without mutating the caller's query.
type Query struct {
	Resource string
	Fields   []string
	Where    []string
}

func (q Query) GAQL() string {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(q.Fields, ", "))
	b.WriteString(" FROM ")
	b.WriteString(q.Resource)
	if len(q.Where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(q.Where, " AND "))
	}
	return b.String()
}

// WithoutFields returns a copy of q with the named fields removed.
func (q Query) WithoutFields(excluded map[string]bool) Query {
	if len(excluded) == 0 {
		return q
	}
	fields := make([]string, 0, len(q.Fields))
	for _, f := range q.Fields {
		if !excluded[f] {
			fields = append(fields, f)
		}
	}
	out := q
	out.Fields = fields
	return out
}

func (q Query) HasField(name string) bool {
	for _, f := range q.Fields {
		if f == name {
			return true
		}
	}
	return false
}

// Row is one result row keyed by field path. A field missing from the map
// means it was not collected in this access tier — callers must not read
// that as zero.
type Row map[string]any

func (r Row) Has(field string) bool {
	_, ok := r[field]
	return ok
}

func (r Row) Str(field string) string {
	v, ok := r[field]
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	default:
		return ""
	}
}

func (r Row) Int64(field string) int64 {
	v, ok := r[field]
	if !ok {
		return 0
	}
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		// The REST transport serializes int64 metrics as strings.
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func (r Row) Float64(field string) (float64, bool) {
	v, ok := r[field]
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func (r Row) Strings(field string) []string {
	v, ok := r[field]
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
