package owl

import (
	"sort"
)

// Ontology is an insertion-ordered set of axioms together with the entities
// they reference. Built-in vocabulary (owl:Thing, xsd:string, ...) is never
// part of the signature.
type Ontology struct {
	IRI string

	axioms   []Axiom
	keys     map[string]struct{}
	entities map[Entity]struct{}
}

func NewOntology(iri string) *Ontology {
	return &Ontology{
		IRI:      iri,
		keys:     make(map[string]struct{}),
		entities: make(map[Entity]struct{}),
	}
}

// Add inserts axioms that are not yet present and returns how many were new.
func (o *Ontology) Add(axioms ...Axiom) int {
	added := 0
	for _, a := range axioms {
		key := a.String()
		if _, ok := o.keys[key]; ok {
			continue
		}
		o.keys[key] = struct{}{}
		o.axioms = append(o.axioms, a)
		for _, e := range a.Signature() {
			if IsBuiltin(e.IRI) {
				continue
			}
			o.entities[e] = struct{}{}
		}
		added++
	}
	return added
}

func (o *Ontology) Contains(a Axiom) bool {
	_, ok := o.keys[a.String()]
	return ok
}

// Axioms returns the axioms in insertion order.
func (o *Ontology) Axioms() []Axiom {
	out := make([]Axiom, len(o.axioms))
	copy(out, o.axioms)
	return out
}

func (o *Ontology) Len() int { return len(o.axioms) }

// HasEntity reports whether iri is referenced with the given kind.
func (o *Ontology) HasEntity(kind EntityKind, iri string) bool {
	_, ok := o.entities[Entity{Kind: kind, IRI: iri}]
	return ok
}

// References reports whether iri is referenced with any kind.
func (o *Ontology) References(iri string) bool {
	for _, k := range []EntityKind{KindClass, KindObjectProperty, KindDataProperty, KindIndividual} {
		if o.HasEntity(k, iri) {
			return true
		}
	}
	return false
}

// Entities returns the sorted IRIs referenced with the given kind.
func (o *Ontology) Entities(kind EntityKind) []string {
	var out []string
	for e := range o.entities {
		if e.Kind == kind {
			out = append(out, e.IRI)
		}
	}
	sort.Strings(out)
	return out
}

// ReferencedIRIs returns every distinct IRI in the signature, sorted.
func (o *Ontology) ReferencedIRIs() []string {
	seen := make(map[string]struct{}, len(o.entities))
	out := make([]string, 0, len(o.entities))
	for e := range o.entities {
		if _, ok := seen[e.IRI]; ok {
			continue
		}
		seen[e.IRI] = struct{}{}
		out = append(out, e.IRI)
	}
	sort.Strings(out)
	return out
}

// Signature returns all referenced entities ordered by IRI, then kind.
func (o *Ontology) Signature() []Entity {
	out := make([]Entity, 0, len(o.entities))
	for e := range o.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IRI != out[j].IRI {
			return out[i].IRI < out[j].IRI
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

func (o *Ontology) Clone() *Ontology {
	c := NewOntology(o.IRI)
	c.Add(o.axioms...)
	return c
}

// Rename returns a copy whose non built-in IRIs have been passed through f.
func (o *Ontology) Rename(f RenameFunc) *Ontology {
	g := func(iri string) string {
		if IsBuiltin(iri) {
			return iri
		}
		return f(iri)
	}
	c := NewOntology(o.IRI)
	for _, a := range o.axioms {
		c.Add(a.MapIRIs(g))
	}
	return c
}

// Merge builds a new ontology holding the axioms of all parts.
func Merge(iri string, parts ...*Ontology) *Ontology {
	m := NewOntology(iri)
	for _, p := range parts {
		m.Add(p.axioms...)
	}
	return m
}
