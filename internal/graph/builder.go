package graph

import (
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"catgraph/internal/domain"
	"catgraph/internal/ontology"
)

// Builder converts harvested dataset records into triples under the dimd
// ontology. Record-level problems are logged and skipped.
type Builder struct {
	ns     string
	logger *slog.Logger
	stats  Stats
}

// Stats counts what a build emitted. Emitted counts every emission per
// predicate, including emissions the graph already held.
type Stats struct {
	Datasets int
	Columns  int
	Skipped  int
	Emitted  map[string]int
}

// NewBuilder creates a Builder minting instance IRIs under instanceNS.
func NewBuilder(instanceNS string, logger *slog.Logger) (*Builder, error) {
	u, err := url.Parse(instanceNS)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, domain.ErrValidation("invalid instance namespace %q: must be an absolute URL", instanceNS)
	}
	if !strings.HasSuffix(instanceNS, "/") && !strings.HasSuffix(instanceNS, "#") {
		instanceNS += "/"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{ns: instanceNS, logger: logger}, nil
}

// Build converts records into a new graph.
func Build(records []domain.DatasetRecord, instanceNS string, logger *slog.Logger) (*Graph, error) {
	b, err := NewBuilder(instanceNS, logger)
	if err != nil {
		return nil, err
	}
	return b.Build(records), nil
}

// Namespace returns the instance namespace.
func (b *Builder) Namespace() string { return b.ns }

// Stats returns the counters of the builds run so far.
func (b *Builder) Stats() Stats { return b.stats }

func (b *Builder) emit(g *Graph, s domain.Term, p string, o domain.Term) {
	if b.stats.Emitted == nil {
		b.stats.Emitted = make(map[string]int)
	}
	b.stats.Emitted[p]++
	g.Add(s, p, o)
}

// Build converts records into a new graph, in record order.
func (b *Builder) Build(records []domain.DatasetRecord) *Graph {
	g := New()
	for i := range records {
		b.AddRecord(g, &records[i])
	}
	return g
}

// IRI mints the instance IRI of a logical path.
func (b *Builder) IRI(path string) domain.Term {
	return domain.IRI(b.ns + EscapeSegment(path))
}

// AddRecord emits the triples of one dataset record into g.
func (b *Builder) AddRecord(g *Graph, rec *domain.DatasetRecord) {
	md := rec.Metadata
	datasetPath := DatasetPath(md.URI)
	if datasetPath == "" {
		b.logger.Warn("skipping dataset without path", "uri", md.URI, "name", md.Name)
		b.stats.Skipped++
		return
	}
	b.stats.Datasets++
	dataset := b.IRI(datasetPath)

	b.emit(g, dataset, ontology.RDFType, domain.IRI(ontology.ClassIRI(md.Type)))
	b.emit(g, dataset, ontology.RDFSLabel, domain.Literal(md.Name))
	if comment, ok := domain.ShortDescription(md.Descriptions); ok {
		b.emit(g, dataset, ontology.RDFSComment, domain.Literal(comment))
	} else {
		b.emit(g, dataset, ontology.RDFSComment, domain.Literal(ontology.NoDescription))
	}

	for _, uk := range md.UniqueKeys {
		for _, ref := range uk.AttributeReferences {
			if ref.Name == "" {
				b.logger.Warn("skipping unnamed key attribute", "dataset", datasetPath)
				continue
			}
			col := b.IRI(datasetPath + "/" + ref.Name)
			b.emit(g, dataset, ontology.PropPrimaryKey, col)
			b.emit(g, col, ontology.PropKey, domain.TypedLiteral("true", ontology.XSDBoolean))
		}
	}

	for i := range rec.Columns {
		b.addColumn(g, dataset, datasetPath, &rec.Columns[i])
	}

	if rec.Tags != nil {
		b.addTags(g, dataset, datasetPath, rec.Tags)
	}

	if lineage, ok := domain.ParseLineage(rec.Lineage); ok {
		b.logger.Info("lineage of dataset", "uri", md.URI)
		b.addLineage(g, md.URI, lineage)
	}
}

func (b *Builder) addColumn(g *Graph, dataset domain.Term, datasetPath string, c *domain.ColumnRecord) {
	col := b.IRI(datasetPath + "/" + c.Name)
	b.stats.Columns++
	b.emit(g, col, ontology.RDFSLabel, domain.Literal(c.Name))
	b.emit(g, dataset, ontology.PropColumn, col)
	b.emit(g, col, ontology.RDFType, domain.IRI(ontology.ClassColumn))
	b.emit(g, col, ontology.PropDatatype, domain.Literal(c.Type))
	if xsd, ok := ontology.XSDDatatype(c.Type); ok {
		b.emit(g, col, ontology.RDFSRange, domain.Literal(xsd))
	} else {
		b.logger.Warn("no XSD mapping for column type", "type", c.Type, "column", c.Name, "dataset", datasetPath)
	}
	if c.TemplateType != "" {
		b.emit(g, col, ontology.PropTemplateDataType, domain.Literal(c.TemplateType))
	}
	if c.Length != nil {
		b.emit(g, col, ontology.PropLength, intLiteral(*c.Length))
	}
	if c.Precision != nil {
		b.emit(g, col, ontology.PropPrecision, intLiteral(*c.Precision))
	}
	if c.Scale != nil {
		b.emit(g, col, ontology.PropScale, intLiteral(*c.Scale))
	}
	if comment, ok := domain.ShortDescription(c.Descriptions); ok {
		b.emit(g, col, ontology.RDFSComment, domain.Literal(comment))
	}
}

func (b *Builder) addTags(g *Graph, dataset domain.Term, datasetPath string, tags *domain.TagsPayload) {
	for _, dt := range tags.TagsOnDataset {
		for _, tag := range dt.Tags {
			b.emit(g, dataset, ontology.PropTag, b.IRI(TagPath(dt.HierarchyName, tag.Tag.Path)))
		}
	}
	for _, at := range tags.TagsOnAttribute {
		col := b.IRI(datasetPath + "/" + at.AttributeQualifiedName)
		for _, ht := range at.Tags {
			for _, tag := range ht.Tags {
				tagPath := TagPath(ht.HierarchyName, strings.ReplaceAll(tag.Tag.Path, ".", "/"))
				b.emit(g, col, ontology.PropTag, b.IRI(tagPath))
				if ht.HierarchyName == ontology.AlternativeLabelsHierarchy {
					b.emit(g, col, ontology.RDFSLabel, domain.Literal(tag.Tag.Name))
				}
			}
		}
	}
}

// addLineage emits the full input x output cross product of every computation.
func (b *Builder) addLineage(g *Graph, uri string, lineage *domain.LineagePayload) {
	for _, node := range lineage.PublicComputationNodes {
		for _, tr := range node.Transforms {
			for _, comp := range tr.DatasetComputation {
				if len(comp.InputDatasets) == 0 || len(comp.OutputDatasets) == 0 {
					b.logger.Info("no input or output datasets in lineage", "uri", uri)
					continue
				}
				inputs := b.datasetRefs(comp.InputDatasets)
				outputs := b.datasetRefs(comp.OutputDatasets)
				for _, in := range inputs {
					for _, out := range outputs {
						b.emit(g, in, ontology.PropLineage, out)
						b.emit(g, in, ontology.PropComputationType, domain.Literal(comp.ComputationType))
						b.emit(g, out, ontology.PropImpact, in)
					}
				}
			}
		}
	}
}

// datasetRefs maps lineage refs through DatasetPath so edges land on the same
// IRIs as the datasets they name.
func (b *Builder) datasetRefs(refs []domain.DatasetRef) []domain.Term {
	out := make([]domain.Term, 0, len(refs))
	for _, r := range refs {
		out = append(out, b.IRI(DatasetPath(r.ExternalDatasetRef)))
	}
	return out
}

func intLiteral(v int64) domain.Term {
	return domain.TypedLiteral(strconv.FormatInt(v, 10), ontology.XSDInteger)
}
