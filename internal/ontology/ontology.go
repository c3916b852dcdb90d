// Package ontology provides the fixed vocabulary of the catalog graph: namespace
// IRIs, the dimd classes and properties, and the datatype lookup tables.
package ontology

import (
	"sort"
	"strings"
)

// Namespace IRIs.
const (
	DIMD = "https://www.sap.com/products/data-intelligence#"
	RDF  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFS = "http://www.w3.org/2000/01/rdf-schema#"
	OWL  = "http://www.w3.org/2002/07/owl#"
	XSD  = "http://www.w3.org/2001/XMLSchema#"
)

// Standard vocabulary IRIs used by the builder and the rule sets.
const (
	RDFType = RDF + "type"

	RDFSLabel         = RDFS + "label"
	RDFSComment       = RDFS + "comment"
	RDFSRange         = RDFS + "range"
	RDFSDomain        = RDFS + "domain"
	RDFSSubClassOf    = RDFS + "subClassOf"
	RDFSSubPropertyOf = RDFS + "subPropertyOf"
	RDFSSeeAlso       = RDFS + "seeAlso"

	OWLSameAs             = OWL + "sameAs"
	OWLInverseOf          = OWL + "inverseOf"
	OWLEquivalentClass    = OWL + "equivalentClass"
	OWLEquivalentProperty = OWL + "equivalentProperty"
	OWLSymmetricProperty  = OWL + "SymmetricProperty"
	OWLTransitiveProperty = OWL + "TransitiveProperty"

	XSDString  = XSD + "string"
	XSDInteger = XSD + "integer"
	XSDBoolean = XSD + "boolean"
)

// dimd classes.
const (
	ClassDataset = DIMD + "Dataset"
	ClassColumn  = DIMD + "Column"
	ClassTag     = DIMD + "Tag"
)

// dimd properties.
const (
	PropColumn           = DIMD + "column"
	PropPrimaryKey       = DIMD + "primaryKey"
	PropKey              = DIMD + "key"
	PropDatatype         = DIMD + "datatype"
	PropTemplateDataType = DIMD + "templateDataType"
	PropLength           = DIMD + "length"
	PropPrecision        = DIMD + "precision"
	PropScale            = DIMD + "scale"
	PropTag              = DIMD + "tag"
	PropLineage          = DIMD + "lineage"
	PropImpact           = DIMD + "impact"
	PropComputationType  = DIMD + "computationType"
	PropForeignReference = DIMD + "foreignReference"
)

// NoDescription is the comment emitted for datasets without a SHORT description.
const NoDescription = "No Description"

// AlternativeLabelsHierarchy is the tag hierarchy whose tags relabel columns.
const AlternativeLabelsHierarchy = "AlternativeLabels"

// ClassIRI returns the dimd class for a catalog dataset type ("TABLE" -> dimd:Table).
func ClassIRI(datasetType string) string {
	if datasetType == "" {
		return ClassDataset
	}
	lower := strings.ToLower(datasetType)
	return DIMD + strings.ToUpper(lower[:1]) + lower[1:]
}

var xsdDatatypes = map[string]string{
	"TIME":     "xsd:time",
	"DATE":     "xsd:date",
	"DECIMAL":  "xsd:decimal",
	"BINARY":   "xsd:base64Binary",
	"INTEGER":  "xsd:integer",
	"STRING":   "xsd:string",
	"DATETIME": "xsd:dateTime",
	"BOOLEAN":  "xsd:boolean",
	"FLOAT":    "xsd:float",
	"DOUBLE":   "xsd:double",
}

// XSDDatatype maps a catalog column type to its XSD datatype label.
func XSDDatatype(columnType string) (string, bool) {
	v, ok := xsdDatatypes[columnType]
	return v, ok
}

// XSDDatatypes returns a copy of the column type -> XSD label table.
func XSDDatatypes() map[string]string {
	out := make(map[string]string, len(xsdDatatypes))
	for k, v := range xsdDatatypes {
		out[k] = v
	}
	return out
}

var cdsDatatypes = map[string]string{
	"TIME":     "cds.LocalTime",
	"DATE":     "cds.LocalDate",
	"DECIMAL":  "cds.Decimal",
	"BINARY":   "cds.Binary",
	"INTEGER":  "cds.Integer",
	"STRING":   "cds.String",
	"DATETIME": "cds.UTCTimestamp",
	"BOOLEAN":  "cds.Boolean",
}

// CDSDatatype maps a catalog column type to its CDS type.
func CDSDatatype(columnType string) (string, bool) {
	v, ok := cdsDatatypes[columnType]
	return v, ok
}

// Prefixes maps prefix names to namespace IRIs.
type Prefixes map[string]string

// DefaultPrefixes returns the bindings of the fixed namespaces.
func DefaultPrefixes() Prefixes {
	return Prefixes{
		"dimd": DIMD,
		"rdf":  RDF,
		"rdfs": RDFS,
		"owl":  OWL,
		"xsd":  XSD,
	}
}

// Compact rewrites iri as prefix:local using the longest matching namespace.
// IRIs outside every namespace are returned unchanged.
func (p Prefixes) Compact(iri string) string {
	best, bestNS := "", ""
	for prefix, ns := range p {
		if strings.HasPrefix(iri, ns) && len(ns) > len(bestNS) {
			best, bestNS = prefix, ns
		}
	}
	if bestNS == "" {
		return iri
	}
	return best + ":" + iri[len(bestNS):]
}

// Names returns the prefix names in sorted order.
func (p Prefixes) Names() []string {
	names := make([]string, 0, len(p))
	for k := range p {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

var placeholders = strings.NewReplacer(
	"{DIMD}", DIMD,
	"{RDF}", RDF,
	"{RDFS}", RDFS,
	"{OWL}", OWL,
	"{XSD}", XSD,
)

// ExpandNamespaces replaces the {DIMD}, {RDF}, {RDFS}, {OWL} and {XSD}
// placeholders of a statement with their namespace IRIs.
func ExpandNamespaces(stmt string) string {
	return placeholders.Replace(stmt)
}

// IsNamespacePlaceholder reports whether name (without braces) is one of the
// namespace placeholders resolved by ExpandNamespaces.
func IsNamespacePlaceholder(name string) bool {
	switch name {
	case "DIMD", "RDF", "RDFS", "OWL", "XSD":
		return true
	}
	return false
}
