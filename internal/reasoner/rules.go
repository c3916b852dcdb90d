package reasoner

import "catgraph/internal/ontology"

// Rule derives triples with one INSERT OR IGNORE ... SELECT statement over
// the triples table.
type Rule struct {
	Name string
	SQL  string
	Args []any
}

// Ruleset is a named, ordered group of rules expanded to a fixpoint together.
type Ruleset struct {
	Name  string
	Rules []Rule
}

const insertDerived = `INSERT OR IGNORE INTO triples (subject, subject_kind, predicate, object, object_kind, datatype, lang) `

// RDFS is the structural subsumption rule set: domain and range typing plus
// the class and property hierarchies.
var RDFS = Ruleset{
	Name: "rdfs",
	Rules: []Rule{
		{
			Name: "rdfs2",
			SQL: insertDerived + `SELECT t.subject, t.subject_kind, ?, d.object, 'iri', '', ''
				FROM triples d JOIN triples t ON t.predicate = d.subject
				WHERE d.predicate = ? AND d.object_kind = 'iri'`,
			Args: []any{ontology.RDFType, ontology.RDFSDomain},
		},
		{
			Name: "rdfs3",
			SQL: insertDerived + `SELECT t.object, t.object_kind, ?, r.object, 'iri', '', ''
				FROM triples r JOIN triples t ON t.predicate = r.subject
				WHERE r.predicate = ? AND r.object_kind = 'iri' AND t.object_kind <> 'literal'`,
			Args: []any{ontology.RDFType, ontology.RDFSRange},
		},
		{
			Name: "rdfs5",
			SQL: insertDerived + `SELECT a.subject, a.subject_kind, ?, b.object, 'iri', '', ''
				FROM triples a JOIN triples b ON b.subject = a.object
				WHERE a.predicate = ? AND b.predicate = ? AND a.object_kind = 'iri' AND b.object_kind = 'iri'`,
			Args: []any{ontology.RDFSSubPropertyOf, ontology.RDFSSubPropertyOf, ontology.RDFSSubPropertyOf},
		},
		{
			Name: "rdfs7",
			SQL: insertDerived + `SELECT t.subject, t.subject_kind, sp.object, t.object, t.object_kind, t.datatype, t.lang
				FROM triples sp JOIN triples t ON t.predicate = sp.subject
				WHERE sp.predicate = ? AND sp.object_kind = 'iri'`,
			Args: []any{ontology.RDFSSubPropertyOf},
		},
		{
			Name: "rdfs9",
			SQL: insertDerived + `SELECT t.subject, t.subject_kind, ?, sc.object, 'iri', '', ''
				FROM triples sc JOIN triples t ON t.object = sc.subject AND t.object_kind = 'iri'
				WHERE sc.predicate = ? AND sc.object_kind = 'iri' AND t.predicate = ?`,
			Args: []any{ontology.RDFType, ontology.RDFSSubClassOf, ontology.RDFType},
		},
		{
			Name: "rdfs11",
			SQL: insertDerived + `SELECT a.subject, a.subject_kind, ?, b.object, 'iri', '', ''
				FROM triples a JOIN triples b ON b.subject = a.object
				WHERE a.predicate = ? AND b.predicate = ? AND a.object_kind = 'iri' AND b.object_kind = 'iri'`,
			Args: []any{ontology.RDFSSubClassOf, ontology.RDFSSubClassOf, ontology.RDFSSubClassOf},
		},
	},
}

// OWLRL is the description-logic rule set: a subset of OWL 2 RL covering
// inverse, symmetric and transitive properties, equivalence and sameAs.
var OWLRL = Ruleset{
	Name: "owl-rl",
	Rules: []Rule{
		{
			Name: "prp-inv1",
			SQL: insertDerived + `SELECT t.object, t.object_kind, inv.object, t.subject, t.subject_kind, '', ''
				FROM triples inv JOIN triples t ON t.predicate = inv.subject
				WHERE inv.predicate = ? AND inv.object_kind = 'iri' AND t.object_kind <> 'literal'`,
			Args: []any{ontology.OWLInverseOf},
		},
		{
			Name: "prp-inv2",
			SQL: insertDerived + `SELECT t.object, t.object_kind, inv.subject, t.subject, t.subject_kind, '', ''
				FROM triples inv JOIN triples t ON t.predicate = inv.object
				WHERE inv.predicate = ? AND inv.object_kind = 'iri' AND t.object_kind <> 'literal'`,
			Args: []any{ontology.OWLInverseOf},
		},
		{
			Name: "prp-symp",
			SQL: insertDerived + `SELECT t.object, t.object_kind, t.predicate, t.subject, t.subject_kind, '', ''
				FROM triples sym JOIN triples t ON t.predicate = sym.subject
				WHERE sym.predicate = ? AND sym.object = ? AND t.object_kind <> 'literal'`,
			Args: []any{ontology.RDFType, ontology.OWLSymmetricProperty},
		},
		{
			Name: "prp-trp",
			SQL: insertDerived + `SELECT a.subject, a.subject_kind, a.predicate, b.object, b.object_kind, b.datatype, b.lang
				FROM triples tr
				JOIN triples a ON a.predicate = tr.subject AND a.object_kind <> 'literal'
				JOIN triples b ON b.predicate = a.predicate AND b.subject = a.object
				WHERE tr.predicate = ? AND tr.object = ?`,
			Args: []any{ontology.RDFType, ontology.OWLTransitiveProperty},
		},
		{
			Name: "cax-eqc",
			SQL: insertDerived + `SELECT subject, subject_kind, ?, object, 'iri', '', '' FROM triples
				WHERE predicate = ? AND object_kind = 'iri'
				UNION
				SELECT object, 'iri', ?, subject, subject_kind, '', '' FROM triples
				WHERE predicate = ? AND object_kind = 'iri' AND subject_kind = 'iri'`,
			Args: []any{ontology.RDFSSubClassOf, ontology.OWLEquivalentClass, ontology.RDFSSubClassOf, ontology.OWLEquivalentClass},
		},
		{
			Name: "prp-eqp",
			SQL: insertDerived + `SELECT subject, subject_kind, ?, object, 'iri', '', '' FROM triples
				WHERE predicate = ? AND object_kind = 'iri'
				UNION
				SELECT object, 'iri', ?, subject, subject_kind, '', '' FROM triples
				WHERE predicate = ? AND object_kind = 'iri' AND subject_kind = 'iri'`,
			Args: []any{ontology.RDFSSubPropertyOf, ontology.OWLEquivalentProperty, ontology.RDFSSubPropertyOf, ontology.OWLEquivalentProperty},
		},
		{
			Name: "eq-sym",
			SQL: insertDerived + `SELECT object, object_kind, predicate, subject, subject_kind, '', '' FROM triples
				WHERE predicate = ? AND object_kind <> 'literal'`,
			Args: []any{ontology.OWLSameAs},
		},
		{
			Name: "eq-trans",
			SQL: insertDerived + `SELECT a.subject, a.subject_kind, a.predicate, b.object, b.object_kind, '', ''
				FROM triples a JOIN triples b ON b.subject = a.object AND b.predicate = a.predicate
				WHERE a.predicate = ? AND a.object_kind <> 'literal' AND b.object_kind <> 'literal'`,
			Args: []any{ontology.OWLSameAs},
		},
	},
}

// Rulesets returns the rule sets run by ExpandAll, in order.
func Rulesets() []Ruleset { return []Ruleset{RDFS, OWLRL} }

// RulesetByName looks up a rule set by name.
func RulesetByName(name string) (Ruleset, bool) {
	for _, rs := range Rulesets() {
		if rs.Name == name {
			return rs, true
		}
	}
	return Ruleset{}, false
}
