package schema

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"catgraph/internal/domain"
)

// Document header values.
const (
	CSNVersion   = "1.0"
	Creator      = "catgraph"
	DocumentKind = "sap.dwc.ermodel"
	EntityKind   = "entity"
)

// Querier runs read statements against the graph.
type Querier interface {
	Select(ctx context.Context, stmt string, args ...any) (*domain.QueryResult, error)
}

// Reconstructor rebuilds schema documents from the graph.
type Reconstructor struct {
	templates *Templates
	logger    *slog.Logger
}

// NewReconstructor validates that templates define the three reconstruction
// queries with their variables.
func NewReconstructor(templates *Templates, logger *slog.Logger) (*Reconstructor, error) {
	if templates == nil {
		templates = DefaultTemplates()
	}
	if err := templates.Require(QueryTables); err != nil {
		return nil, err
	}
	if err := templates.Require(QueryTableColumns, "TABLE"); err != nil {
		return nil, err
	}
	if err := templates.Require(QueryColumnAttributes, "COLUMN"); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconstructor{templates: templates, logger: logger}, nil
}

// Reconstruct is a convenience wrapper around NewReconstructor and
// (*Reconstructor).Reconstruct.
func Reconstruct(ctx context.Context, q Querier, templates *Templates, name string) (*domain.SchemaDocument, error) {
	r, err := NewReconstructor(templates, nil)
	if err != nil {
		return nil, err
	}
	return r.Reconstruct(ctx, q, name)
}

// DocumentLabel derives the meta label from a model name or file name.
func DocumentLabel(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Reconstruct runs the table, column and attribute queries and assembles the
// schema document. Tables and elements keep query order, so identical graphs
// produce identical documents.
func (r *Reconstructor) Reconstruct(ctx context.Context, q Querier, name string) (*domain.SchemaDocument, error) {
	tables, err := r.run(ctx, q, QueryTables, nil)
	if err != nil {
		return nil, err
	}

	defs := domain.NewOrderedMap[*domain.TableDefinition]()
	for _, table := range rowsOf(tables, "url", "label", "comment") {
		tableLabel := table["label"]
		if _, exists := defs.Get(tableLabel); exists {
			r.logger.Warn("duplicate table label, keeping the last table", "label", tableLabel, "url", table["url"])
		}
		def := &domain.TableDefinition{
			Kind:     EntityKind,
			Label:    table["comment"],
			Elements: domain.NewOrderedMap[*domain.Element](),
		}
		defs.Set(tableLabel, def)

		if err := r.addColumns(ctx, q, def, tableLabel, table["url"]); err != nil {
			return nil, err
		}
	}

	r.logger.Debug("schema reconstructed", "name", name, "tables", defs.Len())
	return &domain.SchemaDocument{
		Version:   domain.SchemaVersion{CSN: CSNVersion},
		DollarVer: CSNVersion,
		Meta: domain.SchemaMeta{
			Creator: Creator,
			Kind:    DocumentKind,
			Label:   DocumentLabel(name),
		},
		Definitions: defs,
	}, nil
}

func (r *Reconstructor) addColumns(ctx context.Context, q Querier, def *domain.TableDefinition, tableLabel, tableURL string) error {
	cols, err := r.run(ctx, q, QueryTableColumns, map[string]string{"TABLE": tableURL})
	if err != nil {
		return err
	}
	for _, col := range rowsOf(cols, "url", "label", "comment") {
		el := &domain.Element{Label: col["comment"]}
		def.Elements.Set(col["label"], el)

		attrs, err := r.run(ctx, q, QueryColumnAttributes, map[string]string{"COLUMN": col["url"]})
		if err != nil {
			return err
		}
		cc := &columnContext{
			table:      def,
			tableLabel: tableLabel,
			colLabel:   col["label"],
			colURL:     col["url"],
			element:    el,
		}
		for _, attr := range rowsOf(attrs, "pred", "obj") {
			kind, known, err := classify(col["url"], attr["pred"])
			if err != nil {
				return err
			}
			if !known {
				r.logger.Debug("ignoring foreign predicate", "column", col["url"], "predicate", attr["pred"])
				continue
			}
			if err := handlers[kind](cc, attr["obj"]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Reconstructor) run(ctx context.Context, q Querier, name string, vars map[string]string) (*domain.QueryResult, error) {
	t, err := r.templates.Get(name)
	if err != nil {
		return nil, err
	}
	stmt, err := t.Build(vars)
	if err != nil {
		return nil, err
	}
	res, err := q.Select(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", name, err)
	}
	return res, nil
}

// rowsOf maps result rows to the requested column names. Missing columns
// read as the empty string.
func rowsOf(res *domain.QueryResult, names ...string) []map[string]string {
	idx := make(map[string]int, len(names))
	for _, n := range names {
		idx[n] = -1
	}
	for i, c := range res.Columns {
		if _, ok := idx[c]; ok {
			idx[c] = i
		}
	}
	out := make([]map[string]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		m := make(map[string]string, len(names))
		for n, i := range idx {
			if i >= 0 && i < len(row) {
				m[n] = row[i]
			}
		}
		out = append(out, m)
	}
	return out
}
