package entitytype

import (
	"fmt"
	"io"
	"sort"

	"github.com/dfleischhacker/spart/internal/owl"
)

type Kind int

const (
	Unknown Kind = iota
	Class
	ObjectProperty
	DataProperty
)

func (k Kind) String() string {
	switch k {
	case Class:
		return "class"
	case ObjectProperty:
		return "objectproperty"
	case DataProperty:
		return "dataproperty"
	}
	return "unknown type"
}

// Classifier answers the syntactic category of an IRI over the union of two
// ontologies, and per ontology through Kind1 and Kind2. It is built once and
// read-only afterwards, so concurrent use is safe.
type Classifier struct {
	kinds map[string]Kind
	sides [2]map[string]Kind
}

// New indexes the classes, data properties and object properties of both
// ontologies. An IRI punned across categories resolves to the first of class,
// data property, object property.
func New(o1, o2 *owl.Ontology) *Classifier {
	c := &Classifier{kinds: make(map[string]Kind)}
	for i, o := range []*owl.Ontology{o1, o2} {
		c.sides[i] = make(map[string]Kind)
		if o == nil {
			continue
		}
		for _, k := range []struct {
			kind owl.EntityKind
			as   Kind
		}{
			{owl.KindObjectProperty, ObjectProperty},
			{owl.KindDataProperty, DataProperty},
			{owl.KindClass, Class},
		} {
			for _, iri := range o.Entities(k.kind) {
				put(c.kinds, iri, k.as)
				put(c.sides[i], iri, k.as)
			}
		}
	}
	return c
}

func put(m map[string]Kind, iri string, as Kind) {
	if prev, ok := m[iri]; ok && precedence(prev) < precedence(as) {
		return
	}
	m[iri] = as
}

func precedence(k Kind) int {
	switch k {
	case Class:
		return 0
	case DataProperty:
		return 1
	case ObjectProperty:
		return 2
	}
	return 3
}

func (c *Classifier) KindOf(iri string) Kind {
	return c.kinds[iri]
}

// Kind1 classifies iri by the first ontology alone.
func (c *Classifier) Kind1(iri string) Kind { return c.sides[0][iri] }

// Kind2 classifies iri by the second ontology alone.
func (c *Classifier) Kind2(iri string) Kind { return c.sides[1][iri] }

func (c *Classifier) IsClass(iri string) bool          { return c.KindOf(iri) == Class }
func (c *Classifier) IsObjectProperty(iri string) bool { return c.KindOf(iri) == ObjectProperty }
func (c *Classifier) IsDataProperty(iri string) bool   { return c.KindOf(iri) == DataProperty }

// Len returns the number of classified IRIs.
func (c *Classifier) Len() int { return len(c.kinds) }

// Dump lists every classified IRI with its kind, sorted by IRI.
func (c *Classifier) Dump(w io.Writer) error {
	iris := make([]string, 0, len(c.kinds))
	for iri := range c.kinds {
		iris = append(iris, iri)
	}
	sort.Strings(iris)
	for _, iri := range iris {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", c.kinds[iri], iri); err != nil {
			return err
		}
	}
	return nil
}
