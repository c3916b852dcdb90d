package graph

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/knakk/rdf"

	"catgraph/internal/domain"
	"catgraph/internal/ontology"
)

// Format is an RDF text serialization.
type Format string

// Supported serializations. RDFXML can only be decoded.
const (
	Turtle   Format = "turtle"
	NTriples Format = "nt"
	RDFXML   Format = "rdfxml"
)

// ParseFormat resolves a user-supplied format name.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "ttl", "turtle":
		return Turtle, nil
	case "nt", "ntriples", "n-triples":
		return NTriples, nil
	case "rdf", "xml", "rdfxml", "rdf/xml":
		return RDFXML, nil
	}
	return "", domain.ErrValidation("unsupported RDF format %q (supported: turtle, nt, rdfxml)", name)
}

// FormatFromPath infers the serialization from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ttl", ".turtle":
		return Turtle, nil
	case ".nt":
		return NTriples, nil
	case ".rdf", ".xml":
		return RDFXML, nil
	}
	return "", domain.ErrValidation("cannot infer RDF format of %q", path)
}

// Encodable reports whether graphs can be written in f.
func (f Format) Encodable() bool { return f == Turtle || f == NTriples }

func (f Format) rdfFormat() rdf.Format {
	switch f {
	case NTriples:
		return rdf.NTriples
	case RDFXML:
		return rdf.RDFXML
	}
	return rdf.Turtle
}

// Decode parses r into a graph. Blank node labels are prefixed with
// blankPrefix so that separate loads never share blank nodes.
func Decode(r io.Reader, format Format, blankPrefix string) (*Graph, error) {
	dec := rdf.NewTripleDecoder(r, format.rdfFormat())
	g := New()
	for {
		tr, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			return g, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", format, err)
		}
		s, err := fromRDF(tr.Subj, blankPrefix)
		if err != nil {
			return nil, err
		}
		o, err := fromRDF(tr.Obj, blankPrefix)
		if err != nil {
			return nil, err
		}
		g.Add(s, tr.Pred.String(), o)
	}
}

// Encode writes every triple of g to w in insertion order.
func Encode(w io.Writer, g *Graph, format Format) error {
	if !format.Encodable() {
		return domain.ErrValidation("cannot write RDF format %q (supported: turtle, nt)", format)
	}
	enc := rdf.NewTripleEncoder(w, format.rdfFormat())
	for _, t := range g.Triples() {
		tr, err := toRDF(t)
		if err != nil {
			return err
		}
		if err := enc.Encode(tr); err != nil {
			return fmt.Errorf("encode triple %s: %w", t.Subject, err)
		}
	}
	return enc.Close()
}

// BaseOntology returns the dimd base ontology as a graph.
func BaseOntology() (*Graph, error) {
	g, err := Decode(bytes.NewReader(ontology.BaseTurtle), Turtle, "dimd")
	if err != nil {
		return nil, fmt.Errorf("base ontology: %w", err)
	}
	return g, nil
}

func fromRDF(term rdf.Term, blankPrefix string) (domain.Term, error) {
	switch v := term.(type) {
	case rdf.IRI:
		return domain.IRI(v.String()), nil
	case rdf.Blank:
		id := strings.TrimPrefix(v.String(), "_:")
		if blankPrefix != "" {
			id = blankPrefix + "_" + id
		}
		return domain.Blank(id), nil
	case rdf.Literal:
		lit := domain.Term{Kind: domain.TermLiteral, Value: v.String(), Lang: v.Lang()}
		if lit.Lang == "" {
			if dt := v.DataType.String(); dt != ontology.XSDString {
				lit.Datatype = dt
			}
		}
		return lit, nil
	}
	return domain.Term{}, fmt.Errorf("unsupported RDF term %v", term)
}

func toRDF(t domain.Triple) (rdf.Triple, error) {
	s, err := toSubject(t.Subject)
	if err != nil {
		return rdf.Triple{}, err
	}
	p, err := rdf.NewIRI(t.Predicate)
	if err != nil {
		return rdf.Triple{}, fmt.Errorf("predicate %q: %w", t.Predicate, err)
	}
	o, err := toObject(t.Object)
	if err != nil {
		return rdf.Triple{}, err
	}
	return rdf.Triple{Subj: s, Pred: p, Obj: o}, nil
}

func toSubject(t domain.Term) (rdf.Subject, error) {
	switch t.Kind {
	case domain.TermIRI:
		iri, err := rdf.NewIRI(t.Value)
		if err != nil {
			return nil, fmt.Errorf("subject %q: %w", t.Value, err)
		}
		return iri, nil
	case domain.TermBlank:
		b, err := rdf.NewBlank(t.Value)
		if err != nil {
			return nil, fmt.Errorf("blank node %q: %w", t.Value, err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("literal %q cannot be a subject", t.Value)
}

func toObject(t domain.Term) (rdf.Object, error) {
	switch t.Kind {
	case domain.TermIRI:
		iri, err := rdf.NewIRI(t.Value)
		if err != nil {
			return nil, fmt.Errorf("object %q: %w", t.Value, err)
		}
		return iri, nil
	case domain.TermBlank:
		b, err := rdf.NewBlank(t.Value)
		if err != nil {
			return nil, fmt.Errorf("blank node %q: %w", t.Value, err)
		}
		return b, nil
	}
	if t.Lang != "" {
		lit, err := rdf.NewLangLiteral(t.Value, t.Lang)
		if err != nil {
			return nil, fmt.Errorf("literal %q: %w", t.Value, err)
		}
		return lit, nil
	}
	datatype := t.Datatype
	if datatype == "" {
		datatype = ontology.XSDString
	}
	dt, err := rdf.NewIRI(datatype)
	if err != nil {
		return nil, fmt.Errorf("datatype %q: %w", datatype, err)
	}
	return rdf.NewTypedLiteral(t.Value, dt), nil
}
