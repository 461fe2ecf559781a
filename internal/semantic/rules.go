package semantic

import (
	"strings"

	"github.com/dfleischhacker/spart/internal/alignment"
	"github.com/dfleischhacker/spart/internal/entitytype"
	"github.com/dfleischhacker/spart/internal/owl"
)

type ruleKey struct {
	kind1, kind2 entitytype.Kind
	relation     alignment.Relation
}

// rule builds the axioms for a correspondence between iri1 and iri2.
type rule func(iri1, iri2 string) []owl.Axiom

type ruleTable map[ruleKey]rule

// normalizeRelation maps a relation symbol onto one of the supported
// constants. Unknown symbols are returned trimmed and never match a rule.
func normalizeRelation(r alignment.Relation) alignment.Relation {
	for _, s := range supportedRelations {
		if r.Matches(s) {
			return s
		}
	}
	return alignment.Relation(strings.TrimSpace(string(r)))
}

// addTriple registers the three relations between kind1 and kind2 given the
// constructors for equivalence and for "first is narrower than second".
func (t ruleTable) addTriple(kind1, kind2 entitytype.Kind, equiv func(a, b string) owl.Axiom, sub func(a, b string) owl.Axiom) {
	t[ruleKey{kind1, kind2, alignment.Equivalent}] = func(a, b string) []owl.Axiom {
		return []owl.Axiom{equiv(a, b)}
	}
	t[ruleKey{kind1, kind2, alignment.Subsumed}] = func(a, b string) []owl.Axiom {
		return []owl.Axiom{sub(a, b)}
	}
	t[ruleKey{kind1, kind2, alignment.Subsumes}] = func(a, b string) []owl.Axiom {
		return []owl.Axiom{sub(b, a)}
	}
}

func classEquivalence(a, b string) owl.Axiom {
	return owl.EquivalentClasses{Classes: []owl.ClassExpression{owl.Class{IRI: a}, owl.Class{IRI: b}}}
}

func classSubsumption(a, b string) owl.Axiom {
	return owl.SubClassOf{Sub: owl.Class{IRI: a}, Super: owl.Class{IRI: b}}
}

func objectPropertyEquivalence(a, b string) owl.Axiom {
	return owl.EquivalentObjectProperties{Properties: []string{a, b}}
}

func objectPropertySubsumption(a, b string) owl.Axiom {
	return owl.SubObjectPropertyOf{Sub: a, Super: b}
}

func dataPropertyEquivalence(a, b string) owl.Axiom {
	return owl.EquivalentDataProperties{Properties: []string{a, b}}
}

func dataPropertySubsumption(a, b string) owl.Axiom {
	return owl.SubDataPropertyOf{Sub: a, Super: b}
}

// lift turns an entity into a class expression: a class stands for itself,
// a property for the existential restriction over it.
func lift(kind entitytype.Kind, iri string) owl.ClassExpression {
	switch kind {
	case entitytype.ObjectProperty:
		return owl.ObjectSomeValuesFrom{Property: iri, Filler: owl.Thing}
	case entitytype.DataProperty:
		return owl.DataSomeValuesFrom{Property: iri}
	}
	return owl.Class{IRI: iri}
}

// addLifted relates the lifted forms of kind1 and kind2. A correspondence
// "e1 < e2" reads as lift(e2) ⊑ lift(e1).
func (t ruleTable) addLifted(kind1, kind2 entitytype.Kind) {
	equiv := func(a, b string) owl.Axiom {
		return owl.EquivalentClasses{Classes: []owl.ClassExpression{lift(kind1, a), lift(kind2, b)}}
	}
	t[ruleKey{kind1, kind2, alignment.Equivalent}] = func(a, b string) []owl.Axiom {
		return []owl.Axiom{equiv(a, b)}
	}
	t[ruleKey{kind1, kind2, alignment.Subsumed}] = func(a, b string) []owl.Axiom {
		return []owl.Axiom{owl.SubClassOf{Sub: lift(kind2, b), Super: lift(kind1, a)}}
	}
	t[ruleKey{kind1, kind2, alignment.Subsumes}] = func(a, b string) []owl.Axiom {
		return []owl.Axiom{owl.SubClassOf{Sub: lift(kind1, a), Super: lift(kind2, b)}}
	}
}
