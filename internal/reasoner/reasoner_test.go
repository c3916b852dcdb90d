package reasoner

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catgraph/internal/db"
	"catgraph/internal/domain"
	"catgraph/internal/graph"
	"catgraph/internal/ontology"
	"catgraph/internal/triplestore"
)

const ex = "http://example.com/"

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newStore(t *testing.T, g *graph.Graph) *triplestore.Store {
	t.Helper()
	writeDB, readDB := db.OpenTestSQLite(t)
	s := triplestore.New(writeDB, readDB, quietLogger())
	_, err := s.Insert(context.Background(), g)
	require.NoError(t, err)
	return s
}

func has(t *testing.T, s *triplestore.Store, subj, pred string, obj domain.Term) bool {
	t.Helper()
	g, err := s.Graph(context.Background())
	require.NoError(t, err)
	return g.Has(domain.Triple{Subject: domain.IRI(subj), Predicate: pred, Object: obj})
}

func catalogGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.BaseOntology()
	require.NoError(t, err)
	g.Add(domain.IRI(ex+"orders"), ontology.RDFType, domain.IRI(ontology.DIMD+"Table"))
	g.Add(domain.IRI(ex+"orders"), ontology.PropPrimaryKey, domain.IRI(ex+"orders/ID"))
	g.Add(domain.IRI(ex+"orders"), ontology.RDFSLabel, domain.Literal("ORDERS"))
	return g
}

func TestExpand_RDFS(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, catalogGraph(t))

	res, err := New(quietLogger(), 0).Expand(ctx, s, RDFS)
	require.NoError(t, err)
	assert.Positive(t, res.Added)
	assert.GreaterOrEqual(t, res.Passes, 2)

	// rdfs9: Table subClassOf Dataset.
	assert.True(t, has(t, s, ex+"orders", ontology.RDFType, domain.IRI(ontology.ClassDataset)))
	// rdfs7: primaryKey subPropertyOf column.
	assert.True(t, has(t, s, ex+"orders", ontology.PropColumn, domain.IRI(ex+"orders/ID")))
	// rdfs3 on the derived column edge: range dimd:Column.
	assert.True(t, has(t, s, ex+"orders/ID", ontology.RDFType, domain.IRI(ontology.ClassColumn)))
	// Literals never get typed.
	assert.False(t, has(t, s, "ORDERS", ontology.RDFType, domain.IRI(ontology.ClassColumn)))
}

func TestExpand_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, catalogGraph(t))
	r := New(quietLogger(), 0)

	_, err := r.ExpandAll(ctx, s)
	require.NoError(t, err)
	before, err := s.Len(ctx)
	require.NoError(t, err)

	results, err := r.ExpandAll(ctx, s)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, res := range results {
		assert.Zero(t, res.Added, res.Ruleset)
		assert.Equal(t, 1, res.Passes, res.Ruleset)
	}

	after, err := s.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestExpand_Additive(t *testing.T) {
	ctx := context.Background()
	base := catalogGraph(t)
	s := newStore(t, base)

	_, err := New(quietLogger(), 0).ExpandAll(ctx, s)
	require.NoError(t, err)

	expanded, err := s.Graph(ctx)
	require.NoError(t, err)
	for _, tr := range base.Triples() {
		assert.True(t, expanded.Has(tr), "lost %v", tr)
	}
}

func TestExpand_OWLRL(t *testing.T) {
	ctx := context.Background()
	g := graph.New()
	g.Add(domain.IRI(ex+"feeds"), ontology.OWLInverseOf, domain.IRI(ex+"fedBy"))
	g.Add(domain.IRI(ex+"a"), ex+"feeds", domain.IRI(ex+"b"))
	g.Add(domain.IRI(ex+"c"), ex+"fedBy", domain.IRI(ex+"d"))

	g.Add(domain.IRI(ex+"near"), ontology.RDFType, domain.IRI(ontology.OWLSymmetricProperty))
	g.Add(domain.IRI(ex+"x"), ex+"near", domain.IRI(ex+"y"))

	g.Add(domain.IRI(ex+"partOf"), ontology.RDFType, domain.IRI(ontology.OWLTransitiveProperty))
	g.Add(domain.IRI(ex+"p1"), ex+"partOf", domain.IRI(ex+"p2"))
	g.Add(domain.IRI(ex+"p2"), ex+"partOf", domain.IRI(ex+"p3"))
	g.Add(domain.IRI(ex+"p3"), ex+"partOf", domain.IRI(ex+"p4"))

	g.Add(domain.IRI(ex+"Record"), ontology.OWLEquivalentClass, domain.IRI(ontology.ClassDataset))
	g.Add(domain.IRI(ex+"r1"), ontology.RDFType, domain.IRI(ex+"Record"))

	g.Add(domain.IRI(ex+"s1"), ontology.OWLSameAs, domain.IRI(ex+"s2"))
	g.Add(domain.IRI(ex+"s2"), ontology.OWLSameAs, domain.IRI(ex+"s3"))

	s := newStore(t, g)
	_, err := New(quietLogger(), 0).ExpandAll(ctx, s)
	require.NoError(t, err)

	assert.True(t, has(t, s, ex+"b", ex+"fedBy", domain.IRI(ex+"a")))
	assert.True(t, has(t, s, ex+"d", ex+"feeds", domain.IRI(ex+"c")))
	assert.True(t, has(t, s, ex+"y", ex+"near", domain.IRI(ex+"x")))
	assert.True(t, has(t, s, ex+"p1", ex+"partOf", domain.IRI(ex+"p4")))
	assert.True(t, has(t, s, ex+"Record", ontology.RDFSSubClassOf, domain.IRI(ontology.ClassDataset)))
	assert.True(t, has(t, s, ontology.ClassDataset, ontology.RDFSSubClassOf, domain.IRI(ex+"Record")))
	assert.True(t, has(t, s, ex+"s3", ontology.OWLSameAs, domain.IRI(ex+"s1")))

	// The OWL pass derives subClassOf; rdfs9 runs before it, so the type
	// only follows from a second ExpandAll.
	assert.False(t, has(t, s, ex+"r1", ontology.RDFType, domain.IRI(ontology.ClassDataset)))
	_, err = New(quietLogger(), 0).ExpandAll(ctx, s)
	require.NoError(t, err)
	assert.True(t, has(t, s, ex+"r1", ontology.RDFType, domain.IRI(ontology.ClassDataset)))
}

func TestExpand_LineageInverse(t *testing.T) {
	ctx := context.Background()
	g, err := graph.BaseOntology()
	require.NoError(t, err)
	g.Add(domain.IRI(ex+"in"), ontology.PropLineage, domain.IRI(ex+"out"))

	s := newStore(t, g)
	_, err = New(quietLogger(), 0).Expand(ctx, s, OWLRL)
	require.NoError(t, err)
	assert.True(t, has(t, s, ex+"out", ontology.PropImpact, domain.IRI(ex+"in")))
}

type failingTx struct{ err error }

func (f failingTx) WithTx(context.Context, func(*sql.Tx) error) error { return f.err }

func TestExpand_Error(t *testing.T) {
	boom := errors.New("disk full")
	res, err := New(quietLogger(), 0).Expand(context.Background(), failingTx{err: boom}, RDFS)
	require.ErrorIs(t, err, boom)
	assert.Zero(t, res.Added)
}

func TestExpand_RollsBackBrokenRule(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, catalogGraph(t))
	before, err := s.Len(ctx)
	require.NoError(t, err)

	broken := Ruleset{Name: "broken", Rules: append(append([]Rule{}, RDFS.Rules...), Rule{Name: "bad", SQL: "INSERT INTO nowhere SELECT 1"})}
	_, err = New(quietLogger(), 0).Expand(ctx, s, broken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken/bad")

	after, err := s.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after, "a failed expansion keeps nothing")
}

func TestExpand_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := newStore(t, catalogGraph(t))
	_, err := New(quietLogger(), 0).Expand(ctx, s, RDFS)
	require.Error(t, err)
}

func TestExpandGraph(t *testing.T) {
	g := catalogGraph(t)
	before := g.Len()

	added, err := New(quietLogger(), 0).ExpandGraph(context.Background(), g, RDFS)
	require.NoError(t, err)
	assert.Equal(t, before+added, g.Len())
	assert.True(t, g.Has(domain.Triple{Subject: domain.IRI(ex + "orders"), Predicate: ontology.RDFType, Object: domain.IRI(ontology.ClassDataset)}))
}

func TestRulesetByName(t *testing.T) {
	rs, ok := RulesetByName("owl-rl")
	require.True(t, ok)
	assert.Equal(t, OWLRL.Name, rs.Name)
	_, ok = RulesetByName("owl-full")
	assert.False(t, ok)
}
