package triplestore

import (
	"net/url"
	"strings"

	"catgraph/internal/domain"
	"catgraph/internal/ontology"
)

// DisplayOptions controls how result values are rendered for people.
type DisplayOptions struct {
	// Compact rewrites IRIs as prefix:local.
	Compact bool
	// Unquote percent-decodes values.
	Unquote bool
}

// Display renders a result for output. Single-column results are
// de-duplicated, keeping the first occurrence of each value.
func Display(res *domain.QueryResult, prefixes ontology.Prefixes, opts DisplayOptions) *domain.QueryResult {
	out := &domain.QueryResult{
		Columns:      res.Columns,
		RowsAffected: res.RowsAffected,
		Write:        res.Write,
	}
	seen := make(map[string]struct{})
	for _, row := range res.Rows {
		r := make([]string, len(row))
		for i, v := range row {
			r[i] = displayValue(v, prefixes, opts)
		}
		if len(r) == 1 {
			if _, dup := seen[r[0]]; dup {
				continue
			}
			seen[r[0]] = struct{}{}
		}
		out.Rows = append(out.Rows, r)
	}
	return out
}

func displayValue(v string, prefixes ontology.Prefixes, opts DisplayOptions) string {
	if opts.Compact && prefixes != nil && strings.Contains(v, "://") {
		v = prefixes.Compact(v)
	}
	if opts.Unquote {
		if u, err := url.PathUnescape(v); err == nil {
			v = u
		}
	}
	return v
}
