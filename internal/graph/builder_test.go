package graph

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catgraph/internal/domain"
	"catgraph/internal/ontology"
)

const testNS = "https://di.example.com/acme/"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestBuilder(t *testing.T) *Builder {
	t.Helper()
	b, err := NewBuilder(testNS, discardLogger())
	require.NoError(t, err)
	return b
}

func int64Ptr(v int64) *int64 { return &v }

func countPredicate(g *Graph, p string) int { return len(g.WithPredicate(p)) }

func TestNewBuilder_Namespace(t *testing.T) {
	b, err := NewBuilder("https://di.example.com/acme", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://di.example.com/acme/", b.Namespace())

	_, err = NewBuilder("acme", nil)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestBuild_MinimalRecord(t *testing.T) {
	records := []domain.DatasetRecord{{
		Metadata: domain.DatasetMetadata{URI: "/TABLES/CUSTOMER", Name: "CUSTOMER", Type: "TABLE"},
		Columns:  []domain.ColumnRecord{{Name: "ID", Type: "STRING", TemplateType: "STRING"}},
	}}

	g, err := Build(records, testNS, discardLogger())
	require.NoError(t, err)

	dataset := testNS + "TABLES%2FCUSTOMER"
	col := testNS + "TABLES%2FCUSTOMER%2FID"
	want := []domain.Triple{
		{Subject: domain.IRI(dataset), Predicate: ontology.RDFType, Object: domain.IRI(ontology.DIMD + "Table")},
		{Subject: domain.IRI(dataset), Predicate: ontology.RDFSLabel, Object: domain.Literal("CUSTOMER")},
		{Subject: domain.IRI(dataset), Predicate: ontology.RDFSComment, Object: domain.Literal(ontology.NoDescription)},
		{Subject: domain.IRI(col), Predicate: ontology.RDFSLabel, Object: domain.Literal("ID")},
		{Subject: domain.IRI(dataset), Predicate: ontology.PropColumn, Object: domain.IRI(col)},
		{Subject: domain.IRI(col), Predicate: ontology.RDFType, Object: domain.IRI(ontology.ClassColumn)},
		{Subject: domain.IRI(col), Predicate: ontology.PropDatatype, Object: domain.Literal("STRING")},
		{Subject: domain.IRI(col), Predicate: ontology.RDFSRange, Object: domain.Literal("xsd:string")},
		{Subject: domain.IRI(col), Predicate: ontology.PropTemplateDataType, Object: domain.Literal("STRING")},
	}
	assert.Equal(t, want, g.Triples())
	assert.Zero(t, countPredicate(g, ontology.PropTag))
	assert.Zero(t, countPredicate(g, ontology.PropLineage))
	assert.Zero(t, countPredicate(g, ontology.PropPrimaryKey))
	assert.Zero(t, countPredicate(g, ontology.PropKey))
}

func TestBuild_ColumnDetails(t *testing.T) {
	b := newTestBuilder(t)
	g := b.Build([]domain.DatasetRecord{{
		Metadata: domain.DatasetMetadata{
			URI:          "/TABLES/ORDERS",
			Name:         "ORDERS",
			Type:         "VIEW",
			Descriptions: []domain.Description{{Type: "LONG", Value: "long text"}, {Type: "SHORT", Value: "Orders"}},
		},
		Columns: []domain.ColumnRecord{
			{Name: "AMOUNT", Type: "DECIMAL", Precision: int64Ptr(15), Scale: int64Ptr(2),
				Descriptions: []domain.Description{{Type: "SHORT", Value: "Net amount"}}},
			{Name: "NOTE", Type: "NVARCHAR", Length: int64Ptr(40)},
			{Name: "SHAPE", Type: "GEOMETRY"},
		},
	}})

	dataset := testNS + "TABLES%2FORDERS"
	amount := testNS + "TABLES%2FORDERS%2FAMOUNT"
	note := testNS + "TABLES%2FORDERS%2FNOTE"
	shape := testNS + "TABLES%2FORDERS%2FSHAPE"

	assert.Equal(t, []domain.Term{domain.IRI(ontology.DIMD + "View")}, g.Objects(dataset, ontology.RDFType))
	assert.Equal(t, []domain.Term{domain.Literal("Orders")}, g.Objects(dataset, ontology.RDFSComment))
	assert.Equal(t, []domain.Term{domain.TypedLiteral("15", ontology.XSDInteger)}, g.Objects(amount, ontology.PropPrecision))
	assert.Equal(t, []domain.Term{domain.TypedLiteral("2", ontology.XSDInteger)}, g.Objects(amount, ontology.PropScale))
	assert.Equal(t, []domain.Term{domain.Literal("Net amount")}, g.Objects(amount, ontology.RDFSComment))
	assert.Equal(t, []domain.Term{domain.Literal("xsd:decimal")}, g.Objects(amount, ontology.RDFSRange))
	assert.Equal(t, []domain.Term{domain.TypedLiteral("40", ontology.XSDInteger)}, g.Objects(note, ontology.PropLength))
	assert.Empty(t, g.Objects(note, ontology.PropTemplateDataType))

	// Unmapped column types keep their datatype but get no range.
	assert.Equal(t, []domain.Term{domain.Literal("GEOMETRY")}, g.Objects(shape, ontology.PropDatatype))
	assert.Empty(t, g.Objects(shape, ontology.RDFSRange))
	assert.Empty(t, g.Objects(shape, ontology.RDFSComment))

	st := b.Stats()
	assert.Equal(t, 1, st.Datasets)
	assert.Equal(t, 3, st.Columns)
}

func TestBuild_PrimaryKeyFromReferenceName(t *testing.T) {
	var md domain.DatasetMetadata
	require.NoError(t, json.Unmarshal([]byte(`{
		"uri": "/TABLES/CUSTOMER",
		"name": "CUSTOMER",
		"type": "TABLE",
		"uniqueKeys": [{"attributeReferences": ["ID", {"name": "REGION"}]}]
	}`), &md))

	g := newTestBuilder(t).Build([]domain.DatasetRecord{{Metadata: md}})

	dataset := testNS + "TABLES%2FCUSTOMER"
	assert.Equal(t, []domain.Term{
		domain.IRI(testNS + "TABLES%2FCUSTOMER%2FID"),
		domain.IRI(testNS + "TABLES%2FCUSTOMER%2FREGION"),
	}, g.Objects(dataset, ontology.PropPrimaryKey))
	assert.Equal(t, []domain.Term{domain.TypedLiteral("true", ontology.XSDBoolean)},
		g.Objects(testNS+"TABLES%2FCUSTOMER%2FREGION", ontology.PropKey))
}

func TestBuild_Tags(t *testing.T) {
	g := newTestBuilder(t).Build([]domain.DatasetRecord{{
		Metadata: domain.DatasetMetadata{URI: "/TABLES/CUSTOMER", Name: "CUSTOMER", Type: "TABLE"},
		Columns:  []domain.ColumnRecord{{Name: "NAME1", Type: "STRING"}},
		Tags: &domain.TagsPayload{
			TagsOnDataset: []domain.HierarchyTags{{
				HierarchyName: "Domain",
				Tags:          []domain.TagRef{{Tag: domain.TagInfo{Path: "Sales/EMEA", Name: "EMEA"}}},
			}},
			TagsOnAttribute: []domain.AttributeTags{{
				AttributeQualifiedName: "NAME1",
				Tags: []domain.HierarchyTags{
					{HierarchyName: "Quality", Tags: []domain.TagRef{{Tag: domain.TagInfo{Path: "Checked.Manual", Name: "Manual"}}}},
					{HierarchyName: "AlternativeLabels", Tags: []domain.TagRef{{Tag: domain.TagInfo{Path: "CustomerName", Name: "Customer Name"}}}},
				},
			}},
		},
	}})

	dataset := testNS + "TABLES%2FCUSTOMER"
	col := testNS + "TABLES%2FCUSTOMER%2FNAME1"
	assert.Equal(t, []domain.Term{domain.IRI(testNS + "%2Fhierarchy%2FDomain%2FSales%2FEMEA")}, g.Objects(dataset, ontology.PropTag))
	assert.Equal(t, []domain.Term{
		domain.IRI(testNS + "%2Fhierarchy%2FQuality%2FChecked%2FManual"),
		domain.IRI(testNS + "%2Fhierarchy%2FAlternativeLabels%2FCustomerName"),
	}, g.Objects(col, ontology.PropTag))
	assert.Equal(t, []domain.Term{domain.Literal("NAME1"), domain.Literal("Customer Name")}, g.Objects(col, ontology.RDFSLabel))
}

func TestBuild_LineageCrossProduct(t *testing.T) {
	lineage := `{"publicComputationNodes": [{"transforms": [{"datasetComputation": [
		{"computationType": "TRANSFORM",
		 "inputDatasets": [{"externalDatasetRef": "/TABLES/A"}, {"externalDatasetRef": "/files/b.csv"}],
		 "outputDatasets": [{"externalDatasetRef": "/TABLES/X"}, {"externalDatasetRef": "/TABLES/Y"}, {"externalDatasetRef": "%2FTABLES%2FZ"}]},
		{"computationType": "COPY", "inputDatasets": [{"externalDatasetRef": "/TABLES/A"}]}
	]}]}]}`

	b := newTestBuilder(t)
	g := b.Build([]domain.DatasetRecord{{
		Metadata: domain.DatasetMetadata{URI: "/TABLES/X", Name: "X", Type: "TABLE"},
		Lineage:  json.RawMessage(lineage),
	}})

	assert.Equal(t, 6, countPredicate(g, ontology.PropLineage))
	assert.Equal(t, 6, countPredicate(g, ontology.PropImpact))
	assert.Equal(t, 6, b.Stats().Emitted[ontology.PropComputationType])
	// One distinct computationType per input dataset survives set semantics.
	assert.Equal(t, 2, countPredicate(g, ontology.PropComputationType))

	for _, tr := range g.WithPredicate(ontology.PropLineage) {
		inverse := domain.Triple{Subject: tr.Object, Predicate: ontology.PropImpact, Object: tr.Subject}
		assert.True(t, g.Has(inverse), "missing impact for %s", tr.Subject)
	}
	assert.Equal(t, []domain.Term{domain.IRI(testNS + "TABLES%2FA")}, g.Objects(testNS+"TABLES%2FZ", ontology.PropImpact)[:1])
	assert.Equal(t, []domain.Term{domain.Literal("TRANSFORM")}, g.Objects(testNS+"files%2Fb", ontology.PropComputationType))
}

func TestBuild_LineageShapes(t *testing.T) {
	for name, raw := range map[string]string{
		"absent": "",
		"array":  `[{"publicComputationNodes": []}]`,
		"string": `"no lineage"`,
		"null":   `null`,
	} {
		t.Run(name, func(t *testing.T) {
			g := newTestBuilder(t).Build([]domain.DatasetRecord{{
				Metadata: domain.DatasetMetadata{URI: "/TABLES/X", Name: "X"},
				Lineage:  json.RawMessage(raw),
			}})
			assert.Zero(t, countPredicate(g, ontology.PropLineage))
			assert.Equal(t, []domain.Term{domain.IRI(ontology.ClassDataset)}, g.Objects(testNS+"TABLES%2FX", ontology.RDFType))
		})
	}
}

func TestBuild_SkipsRecordWithoutPath(t *testing.T) {
	b := newTestBuilder(t)
	g := b.Build([]domain.DatasetRecord{
		{Metadata: domain.DatasetMetadata{URI: "/", Name: "root"}},
		{Metadata: domain.DatasetMetadata{URI: "/TABLES/X", Name: "X", Type: "TABLE"}},
	})
	assert.Equal(t, 3, g.Len())
	assert.Equal(t, 1, b.Stats().Skipped)
}

func TestBuild_ColumnsBelongToOneDataset(t *testing.T) {
	g := newTestBuilder(t).Build([]domain.DatasetRecord{
		{
			Metadata: domain.DatasetMetadata{URI: "/TABLES/A", Name: "A", Type: "TABLE"},
			Columns:  []domain.ColumnRecord{{Name: "ID", Type: "INTEGER"}},
		},
		{
			Metadata: domain.DatasetMetadata{URI: "/TABLES/B", Name: "B", Type: "TABLE"},
			Columns:  []domain.ColumnRecord{{Name: "ID", Type: "INTEGER"}},
		},
	})

	owners := map[string]int{}
	for _, tr := range g.WithPredicate(ontology.PropColumn) {
		owners[tr.Object.Value]++
	}
	for col, n := range owners {
		assert.Equal(t, 1, n, col)
	}
	assert.Len(t, owners, 2)
}
