package domain

import (
	"bytes"
	"encoding/json"
)

// SchemaDocument is the CSN-like entity/relationship document rebuilt from the graph.
type SchemaDocument struct {
	Version     SchemaVersion                 `json:"version"`
	DollarVer   string                        `json:"$version"`
	Meta        SchemaMeta                    `json:"meta"`
	Definitions *OrderedMap[*TableDefinition] `json:"definitions"`
}

// SchemaVersion carries the document format version.
type SchemaVersion struct {
	CSN string `json:"csn"`
}

// SchemaMeta is the fixed metadata header of a schema document.
type SchemaMeta struct {
	Creator string `json:"creator"`
	Kind    string `json:"kind"`
	Label   string `json:"label"`
}

// TableDefinition is one top-level entity of the schema document.
type TableDefinition struct {
	Kind     string                `json:"kind"`
	Label    string                `json:"@EndUserText.label"`
	Elements *OrderedMap[*Element] `json:"elements"`
}

// Element is a column or a synthesized association of a table.
type Element struct {
	Label                 string          `json:"@EndUserText.label"`
	Type                  string          `json:"type,omitempty"`
	Length                *int            `json:"length,omitempty"`
	Precision             *int            `json:"precision,omitempty"`
	Scale                 *int            `json:"scale,omitempty"`
	ForeignKeyAssociation *AssociationRef `json:"@ObjectModel.foreignKey.association,omitempty"`
	Target                string          `json:"target,omitempty"`
	On                    OnCondition     `json:"on,omitempty"`
}

// AssociationRef points a foreign key column at its association element.
type AssociationRef struct {
	Ref string `json:"="`
}

// OnClause is one column equality of an association condition.
type OnClause struct {
	Column       string
	Association  string
	TargetColumn string
}

// OnCondition is a conjunction of column equalities. It marshals to the
// flattened CSN form: [{ref}, "=", {ref}, "and", {ref}, "=", {ref}, ...].
type OnCondition []OnClause

type csnRef struct {
	Ref []string `json:"ref"`
}

// Flatten returns the CSN token list of the condition.
func (c OnCondition) Flatten() []interface{} {
	out := make([]interface{}, 0, len(c)*4)
	for i, cl := range c {
		if i > 0 {
			out = append(out, "and")
		}
		out = append(out,
			csnRef{Ref: []string{cl.Column}},
			"=",
			csnRef{Ref: []string{cl.Association, cl.TargetColumn}},
		)
	}
	return out
}

// MarshalJSON writes the flattened token list.
func (c OnCondition) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Flatten())
}

// OrderedMap is a string-keyed map that remembers insertion order and
// marshals its entries in that order.
type OrderedMap[V any] struct {
	keys   []string
	values map[string]V
}

// NewOrderedMap returns an empty OrderedMap.
func NewOrderedMap[V any]() *OrderedMap[V] {
	return &OrderedMap[V]{values: make(map[string]V)}
}

// Set stores v under key. Re-setting an existing key keeps its position.
func (m *OrderedMap[V]) Set(key string, v V) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Get returns the value stored under key.
func (m *OrderedMap[V]) Get(key string) (V, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m *OrderedMap[V]) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of entries.
func (m *OrderedMap[V]) Len() int { return len(m.keys) }

// MarshalJSON writes the entries as a JSON object in insertion order.
func (m *OrderedMap[V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
