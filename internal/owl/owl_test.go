package owl

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const conferenceDoc = `
# a small conference schema
Prefix(:=<http://example.org/conf#>)
Prefix(owl:=<http://www.w3.org/2002/07/owl#>)
Prefix(xsd:=<http://www.w3.org/2001/XMLSchema#>)

Ontology(<http://example.org/conf>
  Import(<http://example.org/other>)
  Annotation(rdfs:comment "test ontology")
  Declaration(Class(:Paper))
  Declaration(Class(:Document))
  Declaration(Class(:Person))
  Declaration(ObjectProperty(:writtenBy))
  Declaration(DataProperty(:hasTitle))
  Declaration(NamedIndividual(:alice))
  Declaration(AnnotationProperty(:note))
  SubClassOf(Annotation(:note "axiom note") :Paper :Document)
  SubClassOf(:Paper ObjectSomeValuesFrom(:writtenBy :Person))
  EquivalentClasses(:Document ObjectIntersectionOf(:Document DataSomeValuesFrom(:hasTitle xsd:string)))
  SubClassOf(:Paper ObjectUnionOf(:Document :Person))
  ClassAssertion(:Person :alice)
  DataPropertyAssertion(:hasTitle :alice "Dr \"A\""@en)
  AnnotationAssertion(:note :Paper "ignored")
)
`

func TestParse_Document(t *testing.T) {
	o, err := Parse(strings.NewReader(conferenceDoc))
	require.NoError(t, err)

	assert.Equal(t, "http://example.org/conf", o.IRI)
	assert.Equal(t, []string{
		"http://example.org/conf#Document",
		"http://example.org/conf#Paper",
		"http://example.org/conf#Person",
	}, o.Entities(KindClass))
	assert.Equal(t, []string{"http://example.org/conf#writtenBy"}, o.Entities(KindObjectProperty))
	assert.Equal(t, []string{"http://example.org/conf#hasTitle"}, o.Entities(KindDataProperty))
	assert.Equal(t, []string{"http://example.org/conf#alice"}, o.Entities(KindIndividual))

	paper := Class{IRI: "http://example.org/conf#Paper"}
	doc := Class{IRI: "http://example.org/conf#Document"}
	assert.True(t, o.Contains(SubClassOf{Sub: paper, Super: doc}))

	var opaque []Axiom
	for _, a := range o.Axioms() {
		if _, ok := a.(Opaque); ok {
			opaque = append(opaque, a)
		}
	}
	require.Len(t, opaque, 1)
	assert.Contains(t, opaque[0].String(), "ObjectUnionOf(<http://example.org/conf#Document>")

	assert.True(t, o.Contains(DataPropertyAssertion{
		Property: "http://example.org/conf#hasTitle",
		Subject:  "http://example.org/conf#alice",
		Value:    `"Dr \"A\""@en`,
	}))
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]string{
		"no ontology":      `Prefix(:=<http://x#>)`,
		"unknown prefix":   `Ontology(<http://x> SubClassOf(ex:A ex:B))`,
		"unterminated iri": `Ontology(<http://x`,
		"bad arity":        `Ontology(<http://x> SubClassOf(<http://x#A>))`,
		"stray token":      `Ontology(<http://x> <http://x#v> <http://x#A>)`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestWrite_RoundTrip(t *testing.T) {
	o, err := Parse(strings.NewReader(conferenceDoc))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, o))

	again, err := Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, o.IRI, again.IRI)
	assert.Equal(t, Format(o.Axioms()), Format(again.Axioms()))
}

func TestOntology_AddIsIdempotent(t *testing.T) {
	o := NewOntology("http://x")
	a := SubClassOf{Sub: Class{IRI: "http://x#A"}, Super: Class{IRI: "http://x#B"}}

	assert.Equal(t, 1, o.Add(a))
	assert.Equal(t, 0, o.Add(a))
	assert.Equal(t, 1, o.Len())
}

func TestOntology_BuiltinsNotInSignature(t *testing.T) {
	o := NewOntology("http://x")
	o.Add(SubClassOf{Sub: Class{IRI: "http://x#A"}, Super: Thing})
	o.Add(DataPropertyRange{Property: "http://x#p", Range: XSDNamespace + "string"})

	assert.Equal(t, []string{"http://x#A", "http://x#p"}, o.ReferencedIRIs())
	assert.False(t, o.References(ThingIRI))
}

func TestOntology_RenameAndMerge(t *testing.T) {
	o1 := NewOntology("http://a")
	o1.Add(SubClassOf{Sub: Class{IRI: "http://x#A"}, Super: Thing})
	o2 := NewOntology("http://b")
	o2.Add(SubClassOf{Sub: Class{IRI: "http://x#A"}, Super: Class{IRI: "http://x#B"}})

	r1 := o1.Rename(func(iri string) string { return "urn:one:" + iri })
	r2 := o2.Rename(func(iri string) string { return "urn:two:" + iri })
	m := Merge("urn:merged", r1, r2)

	assert.Equal(t, 2, m.Len())
	assert.True(t, m.HasEntity(KindClass, "urn:one:http://x#A"))
	assert.True(t, m.HasEntity(KindClass, "urn:two:http://x#A"))
	assert.True(t, m.Contains(SubClassOf{Sub: Class{IRI: "urn:one:http://x#A"}, Super: Thing}))
	// inputs untouched
	assert.True(t, o1.HasEntity(KindClass, "http://x#A"))
}

func TestWithoutIndividuals_TranscribesNominals(t *testing.T) {
	ns := "http://x#"
	o := NewOntology("http://x")
	o.Add(
		Declaration{Entity: Entity{Kind: KindIndividual, IRI: ns + "rome"}},
		ClassAssertion{Class: Class{IRI: ns + "City"}, Individual: ns + "rome"},
		ObjectPropertyAssertion{Property: ns + "near", Subject: ns + "rome", Object: ns + "ostia"},
		EquivalentClasses{Classes: []ClassExpression{
			Class{IRI: ns + "Roman"},
			ObjectHasValue{Property: ns + "bornIn", Individual: ns + "rome"},
		}},
		SubClassOf{Sub: ObjectOneOf{Individuals: []string{ns + "ostia"}}, Super: Class{IRI: ns + "Port"}},
		SubClassOf{Sub: Class{IRI: ns + "Port"}, Super: Class{IRI: ns + "Place"}},
	)

	stripped := o.WithoutIndividuals()

	assert.Empty(t, stripped.Entities(KindIndividual))
	sub0 := Class{IRI: NominalPrefix + "#ValueRestrictionSubstitute_0"}
	sub1 := Class{IRI: NominalPrefix + "#OneOfSubstitute_1"}
	assert.True(t, stripped.Contains(EquivalentClasses{Classes: []ClassExpression{
		Class{IRI: ns + "Roman"},
		ObjectSomeValuesFrom{Property: ns + "bornIn", Filler: sub0},
	}}))
	assert.True(t, stripped.Contains(SubClassOf{Sub: sub0, Super: Class{IRI: ns + "City"}}))
	assert.True(t, stripped.Contains(SubClassOf{Sub: sub1, Super: Class{IRI: ns + "Port"}}))
	assert.True(t, stripped.Contains(SubClassOf{Sub: Class{IRI: ns + "Port"}, Super: Class{IRI: ns + "Place"}}))
	// ostia has no asserted type, so only the rewritten axiom mentions sub1
	uses := 0
	for _, a := range stripped.Axioms() {
		if sc, ok := a.(SubClassOf); ok && sc.Sub == ClassExpression(sub1) {
			uses++
		}
	}
	assert.Equal(t, 1, uses)
	assert.Equal(t, 6, o.Len())
}
