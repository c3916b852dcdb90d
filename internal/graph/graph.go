// Package graph holds the in-memory semantic graph, the catalog graph builder
// and the RDF text codec.
package graph

import "catgraph/internal/domain"

// Graph is an insertion-ordered set of triples. It is append-only: triples
// are never removed. A Graph is not safe for concurrent use.
type Graph struct {
	triples []domain.Triple
	index   map[string]struct{}
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{index: make(map[string]struct{})}
}

// Add inserts (s, p, o) and reports whether it was new.
func (g *Graph) Add(s domain.Term, p string, o domain.Term) bool {
	return g.AddTriple(domain.Triple{Subject: s, Predicate: p, Object: o})
}

// AddTriple inserts t and reports whether it was new.
func (g *Graph) AddTriple(t domain.Triple) bool {
	k := t.Key()
	if _, ok := g.index[k]; ok {
		return false
	}
	g.index[k] = struct{}{}
	g.triples = append(g.triples, t)
	return true
}

// Has reports whether t is in the graph.
func (g *Graph) Has(t domain.Triple) bool {
	_, ok := g.index[t.Key()]
	return ok
}

// Len returns the number of triples.
func (g *Graph) Len() int { return len(g.triples) }

// Triples returns the triples in insertion order.
func (g *Graph) Triples() []domain.Triple {
	out := make([]domain.Triple, len(g.triples))
	copy(out, g.triples)
	return out
}

// Union appends every triple of other that g does not hold yet and returns
// the number added.
func (g *Graph) Union(other *Graph) int {
	if other == nil {
		return 0
	}
	n := 0
	for _, t := range other.triples {
		if g.AddTriple(t) {
			n++
		}
	}
	return n
}

// Objects returns the objects of (subject, predicate, *) in insertion order.
func (g *Graph) Objects(subject, predicate string) []domain.Term {
	var out []domain.Term
	for _, t := range g.triples {
		if t.Subject.Value == subject && t.Predicate == predicate {
			out = append(out, t.Object)
		}
	}
	return out
}

// WithPredicate returns the triples using predicate, in insertion order.
func (g *Graph) WithPredicate(predicate string) []domain.Triple {
	var out []domain.Triple
	for _, t := range g.triples {
		if t.Predicate == predicate {
			out = append(out, t)
		}
	}
	return out
}
