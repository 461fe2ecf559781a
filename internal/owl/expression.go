package owl

import (
	"fmt"
	"strings"
)

// ClassExpression is a class description built from the supported constructors.
type ClassExpression interface {
	fmt.Stringer
	Signature() []Entity
	MapIRIs(f RenameFunc) ClassExpression
}

type Class struct {
	IRI string
}

var (
	Thing   = Class{IRI: ThingIRI}
	Nothing = Class{IRI: NothingIRI}
)

func (c Class) String() string { return formatIRI(c.IRI) }

func (c Class) Signature() []Entity {
	return []Entity{{Kind: KindClass, IRI: c.IRI}}
}

func (c Class) MapIRIs(f RenameFunc) ClassExpression { return Class{IRI: f(c.IRI)} }

func (c Class) IsThing() bool   { return c.IRI == ThingIRI }
func (c Class) IsNothing() bool { return c.IRI == NothingIRI }

type ObjectIntersectionOf struct {
	Operands []ClassExpression
}

func (c ObjectIntersectionOf) String() string {
	return fmt.Sprintf("ObjectIntersectionOf(%s)", joinExpressions(c.Operands))
}

func (c ObjectIntersectionOf) Signature() []Entity { return signatureOf(c.Operands) }

func (c ObjectIntersectionOf) MapIRIs(f RenameFunc) ClassExpression {
	return ObjectIntersectionOf{Operands: mapExpressions(c.Operands, f)}
}

// ObjectSomeValuesFrom is the existential restriction ∃Property.Filler.
type ObjectSomeValuesFrom struct {
	Property string
	Filler   ClassExpression
}

func (c ObjectSomeValuesFrom) String() string {
	return fmt.Sprintf("ObjectSomeValuesFrom(%s %s)", formatIRI(c.Property), c.Filler)
}

func (c ObjectSomeValuesFrom) Signature() []Entity {
	return append([]Entity{{Kind: KindObjectProperty, IRI: c.Property}}, c.Filler.Signature()...)
}

func (c ObjectSomeValuesFrom) MapIRIs(f RenameFunc) ClassExpression {
	return ObjectSomeValuesFrom{Property: f(c.Property), Filler: c.Filler.MapIRIs(f)}
}

// DataSomeValuesFrom is ∃Property.Range for a datatype IRI. rdfs:Literal stands
// for the unrestricted data range.
type DataSomeValuesFrom struct {
	Property string
	Range    string
}

func (c DataSomeValuesFrom) String() string {
	return fmt.Sprintf("DataSomeValuesFrom(%s %s)", formatIRI(c.Property), formatIRI(c.dataRange()))
}

func (c DataSomeValuesFrom) Signature() []Entity {
	return []Entity{{Kind: KindDataProperty, IRI: c.Property}}
}

func (c DataSomeValuesFrom) MapIRIs(f RenameFunc) ClassExpression {
	return DataSomeValuesFrom{Property: f(c.Property), Range: c.Range}
}

func (c DataSomeValuesFrom) dataRange() string {
	if c.Range == "" {
		return LiteralIRI
	}
	return c.Range
}

type ObjectOneOf struct {
	Individuals []string
}

func (c ObjectOneOf) String() string {
	return fmt.Sprintf("ObjectOneOf(%s)", formatIRIs(c.Individuals))
}

func (c ObjectOneOf) Signature() []Entity {
	out := make([]Entity, len(c.Individuals))
	for i, ind := range c.Individuals {
		out[i] = Entity{Kind: KindIndividual, IRI: ind}
	}
	return out
}

func (c ObjectOneOf) MapIRIs(f RenameFunc) ClassExpression {
	return ObjectOneOf{Individuals: mapAll(c.Individuals, f)}
}

type ObjectHasValue struct {
	Property   string
	Individual string
}

func (c ObjectHasValue) String() string {
	return fmt.Sprintf("ObjectHasValue(%s %s)", formatIRI(c.Property), formatIRI(c.Individual))
}

func (c ObjectHasValue) Signature() []Entity {
	return []Entity{
		{Kind: KindObjectProperty, IRI: c.Property},
		{Kind: KindIndividual, IRI: c.Individual},
	}
}

func (c ObjectHasValue) MapIRIs(f RenameFunc) ClassExpression {
	return ObjectHasValue{Property: f(c.Property), Individual: f(c.Individual)}
}

func joinExpressions(exprs []ClassExpression) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, " ")
}

func signatureOf(exprs []ClassExpression) []Entity {
	var out []Entity
	for _, e := range exprs {
		out = append(out, e.Signature()...)
	}
	return out
}

func mapExpressions(exprs []ClassExpression, f RenameFunc) []ClassExpression {
	out := make([]ClassExpression, len(exprs))
	for i, e := range exprs {
		out[i] = e.MapIRIs(f)
	}
	return out
}
