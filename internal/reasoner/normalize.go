package reasoner

import (
	"github.com/dfleischhacker/spart/internal/owl"
)

// load translates the axioms of o into normal forms. Role axioms are read
// first so that the role hierarchy is closed before class axioms refer to it.
func (r *Reasoner) load(o *owl.Ontology) {
	axioms := o.Axioms()
	for _, a := range axioms {
		switch ax := a.(type) {
		case owl.SubObjectPropertyOf:
			r.addChain([]int{r.objectRole(ax.Sub)}, r.objectRole(ax.Super))
		case owl.SubObjectPropertyChainOf:
			chain := make([]int, len(ax.Chain))
			for i, p := range ax.Chain {
				chain[i] = r.objectRole(p)
			}
			r.addChain(chain, r.objectRole(ax.Super))
		case owl.EquivalentObjectProperties:
			r.equivalentRoles(ax.Properties, r.objectRole)
		case owl.TransitiveObjectProperty:
			p := r.objectRole(ax.Property)
			r.addChain([]int{p, p}, p)
		case owl.SubDataPropertyOf:
			r.addChain([]int{r.dataRole(ax.Sub)}, r.dataRole(ax.Super))
		case owl.EquivalentDataProperties:
			r.equivalentRoles(ax.Properties, r.dataRole)
		}
	}
	r.closeRoles()

	for _, a := range axioms {
		switch ax := a.(type) {
		case owl.Declaration:
			r.declare(ax.Entity)
		case owl.SubClassOf:
			r.addGCI(ax.Sub, ax.Super)
		case owl.EquivalentClasses:
			for _, c := range ax.Classes[1:] {
				r.addGCI(ax.Classes[0], c)
				r.addGCI(c, ax.Classes[0])
			}
		case owl.DisjointClasses:
			for i := range ax.Classes {
				for j := i + 1; j < len(ax.Classes); j++ {
					r.addGCI(owl.ObjectIntersectionOf{Operands: []owl.ClassExpression{ax.Classes[i], ax.Classes[j]}}, owl.Nothing)
				}
			}
		case owl.ObjectPropertyDomain:
			r.addGCI(owl.ObjectSomeValuesFrom{Property: ax.Property, Filler: owl.Thing}, ax.Domain)
		case owl.DataPropertyDomain:
			r.addGCI(owl.DataSomeValuesFrom{Property: ax.Property}, ax.Domain)
		case owl.ClassAssertion:
			r.addGCI(owl.ObjectOneOf{Individuals: []string{ax.Individual}}, ax.Class)
		case owl.ObjectPropertyAssertion:
			r.addGCI(owl.ObjectOneOf{Individuals: []string{ax.Subject}},
				owl.ObjectHasValue{Property: ax.Property, Individual: ax.Object})
		case owl.DataPropertyAssertion:
			r.addGCI(owl.ObjectOneOf{Individuals: []string{ax.Subject}}, owl.DataSomeValuesFrom{Property: ax.Property})
		case owl.SameIndividual:
			for _, ind := range ax.Individuals[1:] {
				a, b := r.nominalID(ax.Individuals[0]), r.nominalID(ind)
				r.addTold(a, b)
				r.addTold(b, a)
			}
		case owl.DifferentIndividuals:
			for i := range ax.Individuals {
				for j := i + 1; j < len(ax.Individuals); j++ {
					r.addConj(r.nominalID(ax.Individuals[i]), r.nominalID(ax.Individuals[j]), bottomID)
				}
			}
		case owl.SubObjectPropertyOf, owl.SubObjectPropertyChainOf, owl.EquivalentObjectProperties,
			owl.TransitiveObjectProperty, owl.SubDataPropertyOf, owl.EquivalentDataProperties:
		default:
			// ranges and opaque constructs
			r.ignored++
		}
	}
}

func (r *Reasoner) equivalentRoles(props []string, role func(string) int) {
	for _, p := range props[1:] {
		a, b := role(props[0]), role(p)
		r.addChain([]int{a}, b)
		r.addChain([]int{b}, a)
	}
}

func (r *Reasoner) declare(e owl.Entity) {
	switch e.Kind {
	case owl.KindClass:
		r.classID(e.IRI)
	case owl.KindIndividual:
		r.nominalID(e.IRI)
	case owl.KindObjectProperty:
		r.objectRole(e.IRI)
	case owl.KindDataProperty:
		r.dataRole(e.IRI)
	}
}

// addGCI normalises c ⊑ d.
func (r *Reasoner) addGCI(c, d owl.ClassExpression) {
	switch de := d.(type) {
	case owl.ObjectIntersectionOf:
		for _, op := range de.Operands {
			r.addGCI(c, op)
		}
		return
	case owl.ObjectSomeValuesFrom:
		r.addExists(r.leftName(c), r.objectRole(de.Property), r.rightName(de.Filler))
		return
	case owl.DataSomeValuesFrom:
		r.addExists(r.leftName(c), r.dataRole(de.Property), r.datatypeID(de.Range))
		return
	case owl.ObjectHasValue:
		r.addExists(r.leftName(c), r.objectRole(de.Property), r.nominalID(de.Individual))
		return
	}

	if oneOf, ok := c.(owl.ObjectOneOf); ok && len(oneOf.Individuals) > 1 {
		for _, ind := range oneOf.Individuals {
			r.addGCI(owl.ObjectOneOf{Individuals: []string{ind}}, d)
		}
		return
	}

	b := r.rightName(d)
	switch ce := c.(type) {
	case owl.ObjectSomeValuesFrom:
		r.addExistsLeft(r.objectRole(ce.Property), r.leftName(ce.Filler), b)
	case owl.DataSomeValuesFrom:
		r.addExistsLeft(r.dataRole(ce.Property), r.datatypeID(ce.Range), b)
	case owl.ObjectHasValue:
		r.addExistsLeft(r.objectRole(ce.Property), r.nominalID(ce.Individual), b)
	case owl.ObjectIntersectionOf:
		r.addConjunction(r.leftNamesOf(ce.Operands), b)
	default:
		r.addTold(r.leftName(c), b)
	}
}

// addConjunction records ops[0] ⊓ ... ⊓ ops[n-1] ⊑ b using binary rules.
func (r *Reasoner) addConjunction(ops []int, b int) {
	if len(ops) == 1 {
		r.addTold(ops[0], b)
		return
	}
	x := ops[0]
	for i := 1; i < len(ops)-1; i++ {
		y := r.fresh()
		r.addConj(x, ops[i], y)
		x = y
	}
	r.addConj(x, ops[len(ops)-1], b)
}

func (r *Reasoner) leftNamesOf(exprs []owl.ClassExpression) []int {
	out := make([]int, len(exprs))
	for i, e := range exprs {
		out[i] = r.leftName(e)
	}
	return out
}

// basicID returns the concept standing for e when e needs no fresh name.
func (r *Reasoner) basicID(e owl.ClassExpression) (int, bool) {
	switch ce := e.(type) {
	case owl.Class:
		return r.classID(ce.IRI), true
	case owl.ObjectOneOf:
		switch len(ce.Individuals) {
		case 0:
			return bottomID, true
		case 1:
			return r.nominalID(ce.Individuals[0]), true
		}
	}
	return 0, false
}

// leftName returns a concept X with e ⊑ X.
func (r *Reasoner) leftName(e owl.ClassExpression) int {
	if id, ok := r.basicID(e); ok {
		return id
	}
	key := e.String()
	if id, ok := r.leftNames[key]; ok {
		return id
	}

	var x int
	switch ce := e.(type) {
	case owl.ObjectIntersectionOf:
		x = r.fresh()
		r.addConjunction(r.leftNamesOf(ce.Operands), x)
	case owl.ObjectSomeValuesFrom:
		filler := r.leftName(ce.Filler)
		x = r.fresh()
		r.addExistsLeft(r.objectRole(ce.Property), filler, x)
	case owl.DataSomeValuesFrom:
		x = r.fresh()
		r.addExistsLeft(r.dataRole(ce.Property), r.datatypeID(ce.Range), x)
	case owl.ObjectHasValue:
		x = r.fresh()
		r.addExistsLeft(r.objectRole(ce.Property), r.nominalID(ce.Individual), x)
	case owl.ObjectOneOf:
		x = r.fresh()
		for _, ind := range ce.Individuals {
			r.addTold(r.nominalID(ind), x)
		}
	default:
		x = r.fresh()
		r.ignored++
	}
	r.leftNames[key] = x
	return x
}

// rightName returns a concept X with X ⊑ e.
func (r *Reasoner) rightName(e owl.ClassExpression) int {
	if id, ok := r.basicID(e); ok {
		return id
	}
	key := e.String()
	if id, ok := r.rightNames[key]; ok {
		return id
	}

	x := r.fresh()
	r.rightNames[key] = x
	switch ce := e.(type) {
	case owl.ObjectIntersectionOf:
		for _, op := range ce.Operands {
			r.addTold(x, r.rightName(op))
		}
	case owl.ObjectSomeValuesFrom:
		r.addExists(x, r.objectRole(ce.Property), r.rightName(ce.Filler))
	case owl.DataSomeValuesFrom:
		r.addExists(x, r.dataRole(ce.Property), r.datatypeID(ce.Range))
	case owl.ObjectHasValue:
		r.addExists(x, r.objectRole(ce.Property), r.nominalID(ce.Individual))
	default:
		// X ⊑ {a, b} needs a union; leaving X unconstrained is sound.
		r.ignored++
	}
	return x
}

// lookupName is the read-only counterpart of leftName/rightName.
func (r *Reasoner) lookupName(e owl.ClassExpression, left bool) (int, bool) {
	switch ce := e.(type) {
	case owl.Class:
		switch ce.IRI {
		case owl.ThingIRI:
			return topID, true
		case owl.NothingIRI:
			return bottomID, true
		}
		id, ok := r.conceptIDs["c:"+ce.IRI]
		return id, ok
	case owl.ObjectOneOf:
		switch len(ce.Individuals) {
		case 0:
			return bottomID, true
		case 1:
			id, ok := r.conceptIDs["i:"+ce.Individuals[0]]
			return id, ok
		}
	}
	names := r.rightNames
	if left {
		names = r.leftNames
	}
	id, ok := names[e.String()]
	return id, ok
}
