// Package schema rebuilds a CSN entity/relationship document from the graph
// with a table of parameterized query templates.
package schema

import (
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"catgraph/internal/domain"
	"catgraph/internal/ontology"
)

//go:embed queries.csv
var defaultQueries []byte

// Template names used by the reconstructor.
const (
	QueryTables           = "GET_TABLES"
	QueryTableColumns     = "GET_TABLE_COLUMNS"
	QueryColumnAttributes = "GET_COLUMN_ATTRIBUTES"
)

var placeholderRE = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Template is a named query with {NAME} substitution points.
type Template struct {
	Name  string
	Query string
	Vars  []string
}

// Build substitutes vars into the query. Every declared variable must be
// supplied and no others; substitution is a literal replace.
func (t *Template) Build(vars map[string]string) (string, error) {
	for k := range vars {
		if !t.declares(k) {
			return "", domain.ErrValidation("query %s: unknown variable %q", t.Name, k)
		}
	}
	q := t.Query
	for _, name := range t.Vars {
		v, ok := vars[name]
		if !ok {
			return "", domain.ErrValidation("query %s: missing variable %q", t.Name, name)
		}
		if strings.Contains(v, "'") {
			return "", domain.ErrValidation("query %s: value of %s contains a quote", t.Name, name)
		}
		q = strings.ReplaceAll(q, "{"+name+"}", v)
	}
	return q, nil
}

func (t *Template) declares(name string) bool {
	for _, v := range t.Vars {
		if v == name {
			return true
		}
	}
	return false
}

// Templates is an ordered table of query templates.
type Templates struct {
	order  []string
	byName map[string]*Template
}

// ParseTemplates reads rows of "name,query[,VAR...]". Lines starting with #
// are comments. Namespace placeholders are resolved here; any other
// placeholder not declared as a variable of its row is an error.
func ParseTemplates(r io.Reader) (*Templates, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	ts := &Templates{byName: make(map[string]*Template)}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domain.ErrValidation("read query templates: %v", err)
		}
		if len(rec) < 2 {
			return nil, domain.ErrValidation("query template %q: expected name and query", rec[0])
		}
		t := &Template{Name: strings.TrimSpace(rec[0]), Query: ontology.ExpandNamespaces(rec[1])}
		for _, v := range rec[2:] {
			if v = strings.TrimSpace(v); v != "" {
				t.Vars = append(t.Vars, v)
			}
		}
		if err := validate(t); err != nil {
			return nil, err
		}
		if _, dup := ts.byName[t.Name]; dup {
			return nil, domain.ErrValidation("duplicate query template %q", t.Name)
		}
		ts.order = append(ts.order, t.Name)
		ts.byName[t.Name] = t
	}
	return ts, nil
}

func validate(t *Template) error {
	if t.Name == "" {
		return domain.ErrValidation("query template without name")
	}
	if strings.TrimSpace(t.Query) == "" {
		return domain.ErrValidation("query template %s: empty query", t.Name)
	}
	used := make(map[string]bool)
	for _, m := range placeholderRE.FindAllStringSubmatch(t.Query, -1) {
		name := m[1]
		if ontology.IsNamespacePlaceholder(name) {
			continue
		}
		if !t.declares(name) {
			return domain.ErrValidation("query template %s: undeclared placeholder {%s}", t.Name, name)
		}
		used[name] = true
	}
	for _, v := range t.Vars {
		if !used[v] {
			return domain.ErrValidation("query template %s: variable %s is never used", t.Name, v)
		}
	}
	return nil
}

// LoadTemplates reads a template file.
func LoadTemplates(path string) (*Templates, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open query templates: %w", err)
	}
	defer f.Close()
	return ParseTemplates(f)
}

// DefaultTemplates returns the built-in reconstruction queries.
func DefaultTemplates() *Templates {
	ts, err := ParseTemplates(strings.NewReader(string(defaultQueries)))
	if err != nil {
		panic(fmt.Sprintf("embedded queries.csv: %v", err))
	}
	return ts
}

// Get returns the template called name.
func (ts *Templates) Get(name string) (*Template, error) {
	t, ok := ts.byName[name]
	if !ok {
		return nil, domain.ErrNotFound("query template %q not found", name)
	}
	return t, nil
}

// Names returns the template names in file order.
func (ts *Templates) Names() []string {
	out := make([]string, len(ts.order))
	copy(out, ts.order)
	return out
}

// Require checks that each named template exists and declares exactly the
// given variables.
func (ts *Templates) Require(name string, vars ...string) error {
	t, err := ts.Get(name)
	if err != nil {
		return err
	}
	if len(t.Vars) != len(vars) {
		return domain.ErrValidation("query template %s: expected variables %v, got %v", name, vars, t.Vars)
	}
	for _, v := range vars {
		if !t.declares(v) {
			return domain.ErrValidation("query template %s: expected variables %v, got %v", name, vars, t.Vars)
		}
	}
	return nil
}
