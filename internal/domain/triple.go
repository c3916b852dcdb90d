package domain

import "strings"

// TermKind classifies a graph term.
type TermKind string

// Term kinds stored in the triple table.
const (
	TermIRI     TermKind = "iri"
	TermLiteral TermKind = "literal"
	TermBlank   TermKind = "blank"
)

// Term is a node of the semantic graph: an IRI, a literal or a blank node.
type Term struct {
	Kind     TermKind
	Value    string
	Datatype string // literals only; empty means plain string
	Lang     string // literals only
}

// IRI returns an IRI term.
func IRI(v string) Term { return Term{Kind: TermIRI, Value: v} }

// Literal returns a plain literal term.
func Literal(v string) Term { return Term{Kind: TermLiteral, Value: v} }

// TypedLiteral returns a literal with an explicit datatype IRI.
func TypedLiteral(v, datatype string) Term {
	return Term{Kind: TermLiteral, Value: v, Datatype: datatype}
}

// Blank returns a blank node term.
func Blank(id string) Term { return Term{Kind: TermBlank, Value: id} }

// IsIRI reports whether the term is an IRI.
func (t Term) IsIRI() bool { return t.Kind == TermIRI }

// Key returns a string that identifies the term for set membership.
func (t Term) Key() string {
	var b strings.Builder
	b.WriteString(string(t.Kind))
	b.WriteByte(0)
	b.WriteString(t.Value)
	if t.Kind == TermLiteral {
		b.WriteByte(0)
		b.WriteString(t.Datatype)
		b.WriteByte(0)
		b.WriteString(t.Lang)
	}
	return b.String()
}

func (t Term) String() string {
	switch t.Kind {
	case TermIRI:
		return "<" + t.Value + ">"
	case TermBlank:
		return "_:" + t.Value
	default:
		return t.Value
	}
}

// Triple is a single subject-predicate-object fact.
type Triple struct {
	Subject   Term
	Predicate string
	Object    Term
}

// Key identifies the triple for set membership.
func (t Triple) Key() string {
	return t.Subject.Key() + "\x01" + t.Predicate + "\x01" + t.Object.Key()
}

// QueryResult is the tabular result of a store statement.
// Write statements return no columns and report RowsAffected.
type QueryResult struct {
	Columns      []string
	Rows         [][]string
	RowsAffected int64
	Write        bool
}
