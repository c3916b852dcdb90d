package ontology

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassIRI(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"TABLE", DIMD + "Table"},
		{"view", DIMD + "View"},
		{"File", DIMD + "File"},
		{"", ClassDataset},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassIRI(tt.in))
		})
	}
}

func TestXSDDatatype(t *testing.T) {
	for colType, want := range XSDDatatypes() {
		got, ok := XSDDatatype(colType)
		assert.True(t, ok, colType)
		assert.Equal(t, want, got)
	}
	assert.Len(t, XSDDatatypes(), 10)

	_, ok := XSDDatatype("GEOMETRY")
	assert.False(t, ok)
}

func TestCDSDatatype(t *testing.T) {
	got, ok := CDSDatatype("DATETIME")
	assert.True(t, ok)
	assert.Equal(t, "cds.UTCTimestamp", got)

	_, ok = CDSDatatype("DOUBLE")
	assert.False(t, ok, "DOUBLE has no CDS mapping")
}

func TestPrefixes_Compact(t *testing.T) {
	p := DefaultPrefixes()
	p["instance"] = "https://di.example.com/tenant/"

	assert.Equal(t, "dimd:column", p.Compact(PropColumn))
	assert.Equal(t, "rdfs:label", p.Compact(RDFSLabel))
	assert.Equal(t, "instance:TABLES%2FCUSTOMER", p.Compact("https://di.example.com/tenant/TABLES%2FCUSTOMER"))
	assert.Equal(t, "urn:other", p.Compact("urn:other"))
	assert.Equal(t, []string{"dimd", "instance", "owl", "rdf", "rdfs", "xsd"}, p.Names())
}

func TestExpandNamespaces(t *testing.T) {
	got := ExpandNamespaces("SELECT subject FROM triples WHERE predicate = '{RDF}type' AND object = '{DIMD}Column'")
	assert.Equal(t, "SELECT subject FROM triples WHERE predicate = '"+RDFType+"' AND object = '"+ClassColumn+"'", got)

	assert.True(t, IsNamespacePlaceholder("OWL"))
	assert.False(t, IsNamespacePlaceholder("TABLE"))
}

func TestBaseTurtleEmbedded(t *testing.T) {
	assert.Contains(t, string(BaseTurtle), "dimd:impact owl:inverseOf dimd:lineage")
}
