package entitytype

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dfleischhacker/spart/internal/owl"
)

func ontology(iri string, axioms ...owl.Axiom) *owl.Ontology {
	o := owl.NewOntology(iri)
	o.Add(axioms...)
	return o
}

func decl(kind owl.EntityKind, iri string) owl.Axiom {
	return owl.Declaration{Entity: owl.Entity{Kind: kind, IRI: iri}}
}

func TestClassifier_UnionOfBothOntologies(t *testing.T) {
	o1 := ontology("o1",
		decl(owl.KindClass, "http://a#Paper"),
		decl(owl.KindObjectProperty, "http://a#writes"),
		decl(owl.KindIndividual, "http://a#bob"),
	)
	o2 := ontology("o2",
		decl(owl.KindClass, "http://b#Article"),
		decl(owl.KindDataProperty, "http://b#title"),
	)

	c := New(o1, o2)

	assert.True(t, c.IsClass("http://a#Paper"))
	assert.True(t, c.IsClass("http://b#Article"))
	assert.True(t, c.IsObjectProperty("http://a#writes"))
	assert.True(t, c.IsDataProperty("http://b#title"))
	assert.Equal(t, Unknown, c.KindOf("http://a#bob"))
	assert.Equal(t, Unknown, c.KindOf("http://nowhere#x"))
	assert.Equal(t, "unknown type", c.KindOf("http://nowhere#x").String())
	assert.Equal(t, 4, c.Len())
}

func TestClassifier_PunningPrefersClass(t *testing.T) {
	o1 := ontology("o1", decl(owl.KindObjectProperty, "http://a#x"), decl(owl.KindDataProperty, "http://a#y"))
	o2 := ontology("o2", decl(owl.KindClass, "http://a#x"), decl(owl.KindObjectProperty, "http://a#y"))

	c := New(o1, o2)

	assert.Equal(t, Class, c.KindOf("http://a#x"))
	assert.Equal(t, DataProperty, c.KindOf("http://a#y"))
}

func TestClassifier_KindsPerSide(t *testing.T) {
	o1 := ontology("o1", decl(owl.KindClass, "http://a#x"), decl(owl.KindObjectProperty, "http://a#y"))
	o2 := ontology("o2", decl(owl.KindObjectProperty, "http://a#x"))

	c := New(o1, o2)

	assert.Equal(t, Class, c.Kind1("http://a#x"))
	assert.Equal(t, ObjectProperty, c.Kind2("http://a#x"))
	assert.Equal(t, ObjectProperty, c.Kind1("http://a#y"))
	assert.Equal(t, Unknown, c.Kind2("http://a#y"))
	assert.Equal(t, Class, c.KindOf("http://a#x"))
}

func TestClassifier_Dump(t *testing.T) {
	c := New(ontology("o1", decl(owl.KindClass, "http://a#B"), decl(owl.KindDataProperty, "http://a#A")), nil)

	var buf bytes.Buffer
	assert.NoError(t, c.Dump(&buf))
	assert.Equal(t, "dataproperty\thttp://a#A\nclass\thttp://a#B\n", buf.String())
}
