package owl

import (
	"fmt"
	"strings"
)

// Axiom is a logical statement of an ontology. Two axioms are the same
// statement iff their String forms are equal.
type Axiom interface {
	fmt.Stringer
	Signature() []Entity
	MapIRIs(f RenameFunc) Axiom
}

type Declaration struct {
	Entity Entity
}

func (a Declaration) String() string      { return fmt.Sprintf("Declaration(%s)", a.Entity) }
func (a Declaration) Signature() []Entity { return []Entity{a.Entity} }
func (a Declaration) MapIRIs(f RenameFunc) Axiom {
	return Declaration{Entity: Entity{Kind: a.Entity.Kind, IRI: f(a.Entity.IRI)}}
}

type SubClassOf struct {
	Sub   ClassExpression
	Super ClassExpression
}

func (a SubClassOf) String() string { return fmt.Sprintf("SubClassOf(%s %s)", a.Sub, a.Super) }
func (a SubClassOf) Signature() []Entity {
	return append(a.Sub.Signature(), a.Super.Signature()...)
}
func (a SubClassOf) MapIRIs(f RenameFunc) Axiom {
	return SubClassOf{Sub: a.Sub.MapIRIs(f), Super: a.Super.MapIRIs(f)}
}

type EquivalentClasses struct {
	Classes []ClassExpression
}

func (a EquivalentClasses) String() string {
	return fmt.Sprintf("EquivalentClasses(%s)", joinExpressions(a.Classes))
}
func (a EquivalentClasses) Signature() []Entity { return signatureOf(a.Classes) }
func (a EquivalentClasses) MapIRIs(f RenameFunc) Axiom {
	return EquivalentClasses{Classes: mapExpressions(a.Classes, f)}
}

type DisjointClasses struct {
	Classes []ClassExpression
}

func (a DisjointClasses) String() string {
	return fmt.Sprintf("DisjointClasses(%s)", joinExpressions(a.Classes))
}
func (a DisjointClasses) Signature() []Entity { return signatureOf(a.Classes) }
func (a DisjointClasses) MapIRIs(f RenameFunc) Axiom {
	return DisjointClasses{Classes: mapExpressions(a.Classes, f)}
}

type SubObjectPropertyOf struct {
	Sub   string
	Super string
}

func (a SubObjectPropertyOf) String() string {
	return fmt.Sprintf("SubObjectPropertyOf(%s %s)", formatIRI(a.Sub), formatIRI(a.Super))
}
func (a SubObjectPropertyOf) Signature() []Entity {
	return objectProperties(a.Sub, a.Super)
}
func (a SubObjectPropertyOf) MapIRIs(f RenameFunc) Axiom {
	return SubObjectPropertyOf{Sub: f(a.Sub), Super: f(a.Super)}
}

// SubObjectPropertyChainOf states that the composition of Chain is contained in Super.
type SubObjectPropertyChainOf struct {
	Chain []string
	Super string
}

func (a SubObjectPropertyChainOf) String() string {
	return fmt.Sprintf("SubObjectPropertyOf(ObjectPropertyChain(%s) %s)", formatIRIs(a.Chain), formatIRI(a.Super))
}
func (a SubObjectPropertyChainOf) Signature() []Entity {
	return objectProperties(append(append([]string{}, a.Chain...), a.Super)...)
}
func (a SubObjectPropertyChainOf) MapIRIs(f RenameFunc) Axiom {
	return SubObjectPropertyChainOf{Chain: mapAll(a.Chain, f), Super: f(a.Super)}
}

type EquivalentObjectProperties struct {
	Properties []string
}

func (a EquivalentObjectProperties) String() string {
	return fmt.Sprintf("EquivalentObjectProperties(%s)", formatIRIs(a.Properties))
}
func (a EquivalentObjectProperties) Signature() []Entity { return objectProperties(a.Properties...) }
func (a EquivalentObjectProperties) MapIRIs(f RenameFunc) Axiom {
	return EquivalentObjectProperties{Properties: mapAll(a.Properties, f)}
}

type TransitiveObjectProperty struct {
	Property string
}

func (a TransitiveObjectProperty) String() string {
	return fmt.Sprintf("TransitiveObjectProperty(%s)", formatIRI(a.Property))
}
func (a TransitiveObjectProperty) Signature() []Entity { return objectProperties(a.Property) }
func (a TransitiveObjectProperty) MapIRIs(f RenameFunc) Axiom {
	return TransitiveObjectProperty{Property: f(a.Property)}
}

type ObjectPropertyDomain struct {
	Property string
	Domain   ClassExpression
}

func (a ObjectPropertyDomain) String() string {
	return fmt.Sprintf("ObjectPropertyDomain(%s %s)", formatIRI(a.Property), a.Domain)
}
func (a ObjectPropertyDomain) Signature() []Entity {
	return append(objectProperties(a.Property), a.Domain.Signature()...)
}
func (a ObjectPropertyDomain) MapIRIs(f RenameFunc) Axiom {
	return ObjectPropertyDomain{Property: f(a.Property), Domain: a.Domain.MapIRIs(f)}
}

type ObjectPropertyRange struct {
	Property string
	Range    ClassExpression
}

func (a ObjectPropertyRange) String() string {
	return fmt.Sprintf("ObjectPropertyRange(%s %s)", formatIRI(a.Property), a.Range)
}
func (a ObjectPropertyRange) Signature() []Entity {
	return append(objectProperties(a.Property), a.Range.Signature()...)
}
func (a ObjectPropertyRange) MapIRIs(f RenameFunc) Axiom {
	return ObjectPropertyRange{Property: f(a.Property), Range: a.Range.MapIRIs(f)}
}

type SubDataPropertyOf struct {
	Sub   string
	Super string
}

func (a SubDataPropertyOf) String() string {
	return fmt.Sprintf("SubDataPropertyOf(%s %s)", formatIRI(a.Sub), formatIRI(a.Super))
}
func (a SubDataPropertyOf) Signature() []Entity { return dataProperties(a.Sub, a.Super) }
func (a SubDataPropertyOf) MapIRIs(f RenameFunc) Axiom {
	return SubDataPropertyOf{Sub: f(a.Sub), Super: f(a.Super)}
}

type EquivalentDataProperties struct {
	Properties []string
}

func (a EquivalentDataProperties) String() string {
	return fmt.Sprintf("EquivalentDataProperties(%s)", formatIRIs(a.Properties))
}
func (a EquivalentDataProperties) Signature() []Entity { return dataProperties(a.Properties...) }
func (a EquivalentDataProperties) MapIRIs(f RenameFunc) Axiom {
	return EquivalentDataProperties{Properties: mapAll(a.Properties, f)}
}

type DataPropertyDomain struct {
	Property string
	Domain   ClassExpression
}

func (a DataPropertyDomain) String() string {
	return fmt.Sprintf("DataPropertyDomain(%s %s)", formatIRI(a.Property), a.Domain)
}
func (a DataPropertyDomain) Signature() []Entity {
	return append(dataProperties(a.Property), a.Domain.Signature()...)
}
func (a DataPropertyDomain) MapIRIs(f RenameFunc) Axiom {
	return DataPropertyDomain{Property: f(a.Property), Domain: a.Domain.MapIRIs(f)}
}

type DataPropertyRange struct {
	Property string
	Range    string
}

func (a DataPropertyRange) String() string {
	return fmt.Sprintf("DataPropertyRange(%s %s)", formatIRI(a.Property), formatIRI(a.Range))
}
func (a DataPropertyRange) Signature() []Entity { return dataProperties(a.Property) }
func (a DataPropertyRange) MapIRIs(f RenameFunc) Axiom {
	return DataPropertyRange{Property: f(a.Property), Range: a.Range}
}

type ClassAssertion struct {
	Class      ClassExpression
	Individual string
}

func (a ClassAssertion) String() string {
	return fmt.Sprintf("ClassAssertion(%s %s)", a.Class, formatIRI(a.Individual))
}
func (a ClassAssertion) Signature() []Entity {
	return append(a.Class.Signature(), Entity{Kind: KindIndividual, IRI: a.Individual})
}
func (a ClassAssertion) MapIRIs(f RenameFunc) Axiom {
	return ClassAssertion{Class: a.Class.MapIRIs(f), Individual: f(a.Individual)}
}

type ObjectPropertyAssertion struct {
	Property string
	Subject  string
	Object   string
}

func (a ObjectPropertyAssertion) String() string {
	return fmt.Sprintf("ObjectPropertyAssertion(%s %s %s)", formatIRI(a.Property), formatIRI(a.Subject), formatIRI(a.Object))
}
func (a ObjectPropertyAssertion) Signature() []Entity {
	return []Entity{
		{Kind: KindObjectProperty, IRI: a.Property},
		{Kind: KindIndividual, IRI: a.Subject},
		{Kind: KindIndividual, IRI: a.Object},
	}
}
func (a ObjectPropertyAssertion) MapIRIs(f RenameFunc) Axiom {
	return ObjectPropertyAssertion{Property: f(a.Property), Subject: f(a.Subject), Object: f(a.Object)}
}

// DataPropertyAssertion keeps the literal in its lexical functional-syntax form.
type DataPropertyAssertion struct {
	Property string
	Subject  string
	Value    string
}

func (a DataPropertyAssertion) String() string {
	return fmt.Sprintf("DataPropertyAssertion(%s %s %s)", formatIRI(a.Property), formatIRI(a.Subject), a.Value)
}
func (a DataPropertyAssertion) Signature() []Entity {
	return []Entity{
		{Kind: KindDataProperty, IRI: a.Property},
		{Kind: KindIndividual, IRI: a.Subject},
	}
}
func (a DataPropertyAssertion) MapIRIs(f RenameFunc) Axiom {
	return DataPropertyAssertion{Property: f(a.Property), Subject: f(a.Subject), Value: a.Value}
}

type SameIndividual struct {
	Individuals []string
}

func (a SameIndividual) String() string {
	return fmt.Sprintf("SameIndividual(%s)", formatIRIs(a.Individuals))
}
func (a SameIndividual) Signature() []Entity { return individuals(a.Individuals...) }
func (a SameIndividual) MapIRIs(f RenameFunc) Axiom {
	return SameIndividual{Individuals: mapAll(a.Individuals, f)}
}

type DifferentIndividuals struct {
	Individuals []string
}

func (a DifferentIndividuals) String() string {
	return fmt.Sprintf("DifferentIndividuals(%s)", formatIRIs(a.Individuals))
}
func (a DifferentIndividuals) Signature() []Entity { return individuals(a.Individuals...) }
func (a DifferentIndividuals) MapIRIs(f RenameFunc) Axiom {
	return DifferentIndividuals{Individuals: mapAll(a.Individuals, f)}
}

// Opaque carries an axiom whose constructs the model does not cover. It is kept
// verbatim so that documents survive a read/write cycle; reasoners skip it.
type Opaque struct {
	Text string
}

func (a Opaque) String() string           { return a.Text }
func (a Opaque) Signature() []Entity      { return nil }
func (a Opaque) MapIRIs(RenameFunc) Axiom { return a }

// IsAssertion reports whether a is an ABox statement about individuals.
func IsAssertion(a Axiom) bool {
	switch ax := a.(type) {
	case ClassAssertion, ObjectPropertyAssertion, DataPropertyAssertion, SameIndividual, DifferentIndividuals:
		return true
	case Declaration:
		return ax.Entity.Kind == KindIndividual
	}
	return false
}

func objectProperties(iris ...string) []Entity { return entitiesOf(KindObjectProperty, iris) }
func dataProperties(iris ...string) []Entity   { return entitiesOf(KindDataProperty, iris) }
func individuals(iris ...string) []Entity      { return entitiesOf(KindIndividual, iris) }

func entitiesOf(kind EntityKind, iris []string) []Entity {
	out := make([]Entity, len(iris))
	for i, iri := range iris {
		out[i] = Entity{Kind: kind, IRI: iri}
	}
	return out
}

// Format renders a list of axioms one per line.
func Format(axioms []Axiom) string {
	var b strings.Builder
	for _, a := range axioms {
		b.WriteString(a.String())
		b.WriteByte('\n')
	}
	return b.String()
}
