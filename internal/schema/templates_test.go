package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catgraph/internal/domain"
	"catgraph/internal/ontology"
)

func TestDefaultTemplates(t *testing.T) {
	ts := DefaultTemplates()
	assert.Equal(t, []string{QueryTables, QueryTableColumns, QueryColumnAttributes}, ts.Names())

	tables, err := ts.Get(QueryTables)
	require.NoError(t, err)
	assert.Contains(t, tables.Query, ontology.RDFType)
	assert.NotContains(t, tables.Query, "{RDF}")
	assert.Empty(t, tables.Vars)

	cols, err := ts.Get(QueryTableColumns)
	require.NoError(t, err)
	assert.Equal(t, []string{"TABLE"}, cols.Vars)
}

func TestTemplate_Build(t *testing.T) {
	ts, err := ParseTemplates(strings.NewReader(`# comment line
Q,"SELECT * FROM triples WHERE subject = '{S}' AND predicate = '{P}'",S,P
`))
	require.NoError(t, err)
	q, err := ts.Get("Q")
	require.NoError(t, err)

	got, err := q.Build(map[string]string{"S": "urn:a", "P": "urn:b"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM triples WHERE subject = 'urn:a' AND predicate = 'urn:b'", got)

	var ve *domain.ValidationError
	_, err = q.Build(map[string]string{"S": "urn:a"})
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, err.Error(), "missing variable")

	_, err = q.Build(map[string]string{"S": "urn:a", "P": "urn:b", "X": "1"})
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, err.Error(), "unknown variable")

	_, err = q.Build(map[string]string{"S": "urn:a' OR '1'='1", "P": "urn:b"})
	require.ErrorAs(t, err, &ve)
}

func TestParseTemplates_Errors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		want string
	}{
		{"undeclared placeholder", `Q,"SELECT '{TABLE}'"`, "undeclared placeholder {TABLE}"},
		{"unused variable", `Q,"SELECT 1",TABLE`, "never used"},
		{"duplicate", "Q,SELECT 1\nQ,SELECT 2", "duplicate"},
		{"missing query", "Q", "expected name and query"},
		{"empty query", `Q," "`, "empty query"},
		{"bad csv", `Q,"SELECT 1`, "read query templates"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTemplates(strings.NewReader(tt.csv))
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestTemplates_Require(t *testing.T) {
	ts, err := ParseTemplates(strings.NewReader(`GET_TABLES,SELECT 1
GET_TABLE_COLUMNS,"SELECT '{T}'",T
`))
	require.NoError(t, err)

	require.NoError(t, ts.Require(QueryTables))
	require.Error(t, ts.Require(QueryTableColumns, "TABLE"))

	var nf *domain.NotFoundError
	require.ErrorAs(t, ts.Require(QueryColumnAttributes, "COLUMN"), &nf)

	_, err = NewReconstructor(ts, nil)
	require.Error(t, err)
}
