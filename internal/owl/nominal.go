package owl

import "fmt"

// WithoutIndividuals returns a copy of o that carries no ABox. Class
// expressions using nominals are transcribed first: ObjectOneOf becomes a
// fresh substitute class and ObjectHasValue(p a) becomes
// ObjectSomeValuesFrom(p substitute). A substitute is declared a subclass of
// the asserted type of its individuals when exactly one such type exists.
// Afterwards every axiom that still mentions an individual is dropped.
func (o *Ontology) WithoutIndividuals() *Ontology {
	t := &nominalTranscriber{types: make(map[string][]ClassExpression)}
	for _, a := range o.axioms {
		if ca, ok := a.(ClassAssertion); ok {
			t.types[ca.Individual] = append(t.types[ca.Individual], ca.Class)
		}
	}

	out := NewOntology(o.IRI)
	for _, a := range o.axioms {
		if IsAssertion(a) {
			continue
		}
		rebuilt := []Axiom{a}
		if mentionsIndividual(a) {
			rebuilt = t.rebuild(a)
		}
		for _, r := range rebuilt {
			if mentionsIndividual(r) {
				continue
			}
			out.Add(r)
		}
	}
	return out
}

type nominalTranscriber struct {
	types   map[string][]ClassExpression
	counter int
	extra   []Axiom
}

func (t *nominalTranscriber) rebuild(a Axiom) []Axiom {
	t.extra = nil
	var main Axiom
	switch ax := a.(type) {
	case SubClassOf:
		main = SubClassOf{Sub: t.expr(ax.Sub), Super: t.expr(ax.Super)}
	case EquivalentClasses:
		main = EquivalentClasses{Classes: t.exprs(ax.Classes)}
	case DisjointClasses:
		main = DisjointClasses{Classes: t.exprs(ax.Classes)}
	case ObjectPropertyDomain:
		main = ObjectPropertyDomain{Property: ax.Property, Domain: t.expr(ax.Domain)}
	case ObjectPropertyRange:
		main = ObjectPropertyRange{Property: ax.Property, Range: t.expr(ax.Range)}
	case DataPropertyDomain:
		main = DataPropertyDomain{Property: ax.Property, Domain: t.expr(ax.Domain)}
	default:
		return []Axiom{a}
	}
	return append([]Axiom{main}, t.extra...)
}

func (t *nominalTranscriber) exprs(in []ClassExpression) []ClassExpression {
	out := make([]ClassExpression, len(in))
	for i, e := range in {
		out[i] = t.expr(e)
	}
	return out
}

func (t *nominalTranscriber) expr(e ClassExpression) ClassExpression {
	switch ce := e.(type) {
	case ObjectIntersectionOf:
		return ObjectIntersectionOf{Operands: t.exprs(ce.Operands)}
	case ObjectSomeValuesFrom:
		return ObjectSomeValuesFrom{Property: ce.Property, Filler: t.expr(ce.Filler)}
	case ObjectOneOf:
		sub := t.substitute("OneOfSubstitute")
		t.constrain(sub, ce.Individuals)
		return sub
	case ObjectHasValue:
		sub := t.substitute("ValueRestrictionSubstitute")
		t.constrain(sub, []string{ce.Individual})
		return ObjectSomeValuesFrom{Property: ce.Property, Filler: sub}
	}
	return e
}

func (t *nominalTranscriber) substitute(kind string) Class {
	c := Class{IRI: fmt.Sprintf("%s#%s_%d", NominalPrefix, kind, t.counter)}
	t.counter++
	return c
}

// constrain records sub ⊑ T when the individuals share exactly one asserted
// type. Several types would need a union, which the model cannot express.
func (t *nominalTranscriber) constrain(sub Class, inds []string) {
	seen := make(map[string]ClassExpression)
	for _, ind := range inds {
		for _, ty := range t.types[ind] {
			seen[ty.String()] = ty
		}
	}
	if len(seen) != 1 {
		return
	}
	for _, ty := range seen {
		t.extra = append(t.extra, SubClassOf{Sub: sub, Super: ty})
	}
}

func mentionsIndividual(a Axiom) bool {
	for _, e := range a.Signature() {
		if e.Kind == KindIndividual {
			return true
		}
	}
	return false
}
