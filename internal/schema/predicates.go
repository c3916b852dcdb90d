package schema

import (
	"regexp"
	"strconv"
	"strings"

	"catgraph/internal/domain"
	"catgraph/internal/graph"
	"catgraph/internal/ontology"
)

// predicateKind classifies a column attribute predicate.
type predicateKind int

const (
	predIgnored predicateKind = iota
	predLength
	predDatatype
	predPrecision
	predScale
	predForeignReference
)

var predicateKinds = map[string]predicateKind{
	ontology.PropLength:           predLength,
	ontology.PropDatatype:         predDatatype,
	ontology.PropPrecision:        predPrecision,
	ontology.PropScale:            predScale,
	ontology.PropForeignReference: predForeignReference,

	ontology.RDFType:              predIgnored,
	ontology.RDFSLabel:            predIgnored,
	ontology.RDFSComment:          predIgnored,
	ontology.RDFSRange:            predIgnored,
	ontology.RDFSSeeAlso:          predIgnored,
	ontology.OWLSameAs:            predIgnored,
	ontology.PropKey:              predIgnored,
	ontology.PropTemplateDataType: predIgnored,
	ontology.PropTag:              predIgnored,
}

// vocabularies whose predicates must all be classified.
var closedNamespaces = []string{ontology.DIMD, ontology.RDF, ontology.RDFS, ontology.OWL}

// classify returns the kind of pred. Unknown predicates of the closed
// vocabularies are an integrity error; predicates of other vocabularies are
// ignored (known=false).
func classify(column, pred string) (kind predicateKind, known bool, err error) {
	if k, ok := predicateKinds[pred]; ok {
		return k, true, nil
	}
	for _, ns := range closedNamespaces {
		if strings.HasPrefix(pred, ns) {
			return predIgnored, false, domain.ErrIntegrity(column, "unknown predicate %s", pred)
		}
	}
	return predIgnored, false, nil
}

// columnContext is what an attribute handler may change.
type columnContext struct {
	table      *domain.TableDefinition
	tableLabel string
	colLabel   string
	colURL     string
	element    *domain.Element
}

type attributeHandler func(c *columnContext, obj string) error

// handlers is total over predicateKind.
var handlers = map[predicateKind]attributeHandler{
	predIgnored:          func(*columnContext, string) error { return nil },
	predLength:           handleLength,
	predDatatype:         handleDatatype,
	predPrecision:        handleInt(func(e *domain.Element, v int) { e.Precision = &v }, "precision"),
	predScale:            handleInt(func(e *domain.Element, v int) { e.Scale = &v }, "scale"),
	predForeignReference: handleForeignReference,
}

// handleLength degrades non-numeric lengths to 1; an empty value sets nothing.
func handleLength(c *columnContext, obj string) error {
	obj = strings.TrimSpace(obj)
	if obj == "" {
		return nil
	}
	v, err := strconv.Atoi(obj)
	if err != nil {
		v = 1
	}
	c.element.Length = &v
	return nil
}

func handleDatatype(c *columnContext, obj string) error {
	cds, ok := ontology.CDSDatatype(obj)
	if !ok {
		return domain.ErrIntegrity(c.colURL, "datatype %q has no CDS mapping", obj)
	}
	c.element.Type = cds
	return nil
}

func handleInt(set func(*domain.Element, int), name string) attributeHandler {
	return func(c *columnContext, obj string) error {
		v, err := strconv.Atoi(strings.TrimSpace(obj))
		if err != nil {
			return domain.ErrIntegrity(c.colURL, "invalid %s %q", name, obj)
		}
		set(c.element, v)
		return nil
	}
}

var (
	targetTableRE  = regexp.MustCompile(`.*/(\w+)/\w+$`)
	targetColumnRE = regexp.MustCompile(`.*/(\w+)$`)
)

// parseForeignReference extracts table and column names from a reference of
// the shape .../<table>/<column>. The reference is percent-decoded first.
func parseForeignReference(ref string) (table, column string, ok bool) {
	decoded := graph.Unescape(ref)
	tm := targetTableRE.FindStringSubmatch(decoded)
	cm := targetColumnRE.FindStringSubmatch(decoded)
	if tm == nil || cm == nil {
		return "", "", false
	}
	return tm[1], cm[1], true
}

// handleForeignReference marks the column as foreign key and adds an
// equality clause to the association with the target table, creating the
// association on first use.
func handleForeignReference(c *columnContext, obj string) error {
	targetTable, targetColumn, ok := parseForeignReference(obj)
	if !ok {
		return domain.ErrIntegrity(c.colURL, "malformed foreign reference %q: expected .../<table>/<column>", obj)
	}
	assocName := "_" + targetTable
	c.element.ForeignKeyAssociation = &domain.AssociationRef{Ref: assocName}

	assoc, exists := c.table.Elements.Get(assocName)
	if !exists {
		assoc = &domain.Element{
			Label:  c.tableLabel + " to " + targetTable,
			Target: targetTable,
			Type:   "cds.Association",
		}
		c.table.Elements.Set(assocName, assoc)
	}
	assoc.On = append(assoc.On, domain.OnClause{
		Column:       c.colLabel,
		Association:  assocName,
		TargetColumn: targetColumn,
	})
	return nil
}
