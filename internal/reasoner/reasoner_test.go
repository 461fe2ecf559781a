package reasoner

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfleischhacker/spart/internal/oracle"
	"github.com/dfleischhacker/spart/internal/owl"
)

const ns = "http://example.org/test#"

func cls(name string) owl.Class { return owl.Class{IRI: ns + name} }

func some(prop string, filler owl.ClassExpression) owl.ObjectSomeValuesFrom {
	return owl.ObjectSomeValuesFrom{Property: ns + prop, Filler: filler}
}

func dataSome(prop string) owl.DataSomeValuesFrom {
	return owl.DataSomeValuesFrom{Property: ns + prop}
}

func sub(a, b owl.ClassExpression) owl.SubClassOf { return owl.SubClassOf{Sub: a, Super: b} }

func classified(t *testing.T, axioms ...owl.Axiom) *Reasoner {
	t.Helper()
	o := owl.NewOntology("http://example.org/test")
	o.Add(axioms...)
	r := New(o, nil)
	require.NoError(t, r.Classify(context.Background()))
	return r
}

func entailed(t *testing.T, r *Reasoner, a owl.Axiom) bool {
	t.Helper()
	ok, err := r.IsEntailed(context.Background(), a)
	require.NoError(t, err)
	return ok
}

func TestTransitiveSubsumption(t *testing.T) {
	r := classified(t, sub(cls("A"), cls("B")), sub(cls("B"), cls("C")))

	assert.True(t, entailed(t, r, sub(cls("A"), cls("C"))))
	assert.False(t, entailed(t, r, sub(cls("C"), cls("A"))))
	assert.True(t, entailed(t, r, sub(cls("A"), owl.Thing)))
	assert.Equal(t, []string{ns + "B", ns + "C", owl.ThingIRI}, r.Subsumers(ns+"A"))
}

func TestEquivalentClasses(t *testing.T) {
	r := classified(t,
		owl.EquivalentClasses{Classes: []owl.ClassExpression{cls("Paper"), cls("Article")}},
		sub(cls("Article"), cls("Document")),
	)

	assert.True(t, entailed(t, r, owl.EquivalentClasses{Classes: []owl.ClassExpression{cls("Article"), cls("Paper")}}))
	assert.True(t, entailed(t, r, sub(cls("Paper"), cls("Document"))))
	assert.False(t, entailed(t, r, owl.EquivalentClasses{Classes: []owl.ClassExpression{cls("Paper"), cls("Document")}}))
}

func TestExistentialAndConjunction(t *testing.T) {
	r := classified(t,
		sub(cls("A"), some("r", cls("B"))),
		sub(some("r", cls("B")), cls("D")),
		sub(cls("A"), cls("E")),
		sub(owl.ObjectIntersectionOf{Operands: []owl.ClassExpression{cls("D"), cls("E")}}, cls("F")),
	)

	assert.True(t, entailed(t, r, sub(cls("A"), cls("D"))))
	assert.True(t, entailed(t, r, sub(cls("A"), cls("F"))))
	assert.False(t, entailed(t, r, sub(cls("B"), cls("D"))))
}

func TestNestedConjunctionOnLeft(t *testing.T) {
	bc := owl.ObjectIntersectionOf{Operands: []owl.ClassExpression{cls("B"), cls("C")}}
	r := classified(t,
		sub(cls("A"), some("r", cls("B"))),
		sub(cls("B"), cls("C")),
		sub(some("r", bc), cls("D")),
		sub(some("s", bc), cls("E")),
		sub(cls("G"), some("s", cls("C"))),
	)

	assert.True(t, entailed(t, r, sub(cls("A"), cls("D"))))
	assert.False(t, entailed(t, r, sub(cls("A"), cls("E"))))
	assert.False(t, entailed(t, r, sub(cls("G"), cls("E"))))
}

func TestRoleHierarchyAndDomain(t *testing.T) {
	r := classified(t,
		owl.SubObjectPropertyOf{Sub: ns + "r", Super: ns + "s"},
		owl.ObjectPropertyDomain{Property: ns + "s", Domain: cls("Agent")},
		sub(cls("A"), some("r", cls("B"))),
	)

	assert.True(t, entailed(t, r, sub(cls("A"), cls("Agent"))))
	assert.True(t, entailed(t, r, owl.SubObjectPropertyOf{Sub: ns + "r", Super: ns + "s"}))
	assert.False(t, entailed(t, r, owl.SubObjectPropertyOf{Sub: ns + "s", Super: ns + "r"}))
	assert.True(t, entailed(t, r, sub(some("r", owl.Thing), some("s", owl.Thing))))
	assert.False(t, entailed(t, r, sub(some("s", owl.Thing), some("r", owl.Thing))))
}

func TestTransitiveRole(t *testing.T) {
	r := classified(t,
		owl.TransitiveObjectProperty{Property: ns + "part"},
		sub(cls("A"), some("part", cls("B"))),
		sub(cls("B"), some("part", cls("C"))),
		sub(some("part", cls("C")), cls("D")),
	)

	assert.True(t, entailed(t, r, sub(cls("A"), cls("D"))))
	assert.False(t, entailed(t, r, sub(cls("C"), cls("D"))))
}

func TestPropertyChain(t *testing.T) {
	r := classified(t,
		owl.SubObjectPropertyChainOf{Chain: []string{ns + "parent", ns + "brother"}, Super: ns + "uncle"},
		sub(cls("Child"), some("parent", cls("Parent"))),
		sub(cls("Parent"), some("brother", cls("Man"))),
	)

	assert.True(t, entailed(t, r, sub(cls("Child"), some("uncle", cls("Man")))))
}

func TestDataPropertiesAsExistentials(t *testing.T) {
	r := classified(t,
		owl.SubDataPropertyOf{Sub: ns + "title", Super: ns + "name"},
		owl.SubDataPropertyOf{Sub: ns + "name", Super: ns + "title"},
		owl.DataPropertyDomain{Property: ns + "isbn", Domain: cls("Book")},
		sub(dataSome("email"), some("contact", owl.Thing)),
	)

	assert.True(t, entailed(t, r, owl.EquivalentDataProperties{Properties: []string{ns + "title", ns + "name"}}))
	assert.True(t, entailed(t, r, owl.EquivalentClasses{Classes: []owl.ClassExpression{dataSome("title"), dataSome("name")}}))
	assert.True(t, entailed(t, r, sub(dataSome("isbn"), cls("Book"))))
	assert.True(t, entailed(t, r, sub(dataSome("email"), some("contact", owl.Thing))))
	assert.False(t, entailed(t, r, sub(some("contact", owl.Thing), dataSome("email"))))
}

func TestUnsatisfiableClass(t *testing.T) {
	r := classified(t,
		owl.DisjointClasses{Classes: []owl.ClassExpression{cls("A"), cls("B")}},
		sub(cls("C"), cls("A")),
		sub(cls("C"), cls("B")),
	)

	assert.True(t, entailed(t, r, sub(cls("C"), owl.Nothing)))
	assert.True(t, entailed(t, r, sub(cls("C"), cls("Unrelated"))))
	assert.True(t, entailed(t, r, owl.DisjointClasses{Classes: []owl.ClassExpression{cls("A"), cls("B")}}))
	consistent, err := r.IsConsistent(context.Background())
	require.NoError(t, err)
	assert.True(t, consistent)
}

func TestInconsistentOntology(t *testing.T) {
	o := owl.NewOntology("http://example.org/test")
	o.Add(
		owl.DisjointClasses{Classes: []owl.ClassExpression{cls("A"), cls("B")}},
		owl.ClassAssertion{Class: cls("A"), Individual: ns + "x"},
		owl.ClassAssertion{Class: cls("B"), Individual: ns + "x"},
	)
	r := New(o, nil)

	err := r.Classify(context.Background())
	var inc *oracle.InconsistentError
	require.True(t, errors.As(err, &inc))
	assert.Contains(t, inc.Explanation, ns+"x")
	consistent, err := r.IsConsistent(context.Background())
	require.NoError(t, err)
	assert.False(t, consistent)
}

func TestNominals(t *testing.T) {
	r := classified(t,
		owl.ClassAssertion{Class: cls("City"), Individual: ns + "rome"},
		owl.ObjectPropertyAssertion{Property: ns + "bornIn", Subject: ns + "cesar", Object: ns + "rome"},
		sub(some("bornIn", cls("City")), cls("Citizen")),
		owl.EquivalentClasses{Classes: []owl.ClassExpression{
			cls("Roman"),
			owl.ObjectHasValue{Property: ns + "bornIn", Individual: ns + "rome"},
		}},
	)

	assert.True(t, entailed(t, r, owl.ClassAssertion{Class: cls("Citizen"), Individual: ns + "cesar"}))
	assert.True(t, entailed(t, r, owl.ClassAssertion{Class: cls("Roman"), Individual: ns + "cesar"}))
	assert.True(t, entailed(t, r, sub(cls("Roman"), cls("Citizen"))))
}

func TestIgnoredConstructsStaySound(t *testing.T) {
	r := classified(t,
		owl.ObjectPropertyRange{Property: ns + "r", Range: cls("B")},
		owl.Opaque{Text: "SubClassOf(<" + ns + "A> ObjectUnionOf(<" + ns + "B> <" + ns + "C>))"},
		sub(cls("A"), some("r", owl.Thing)),
	)

	assert.False(t, entailed(t, r, sub(cls("A"), cls("B"))))
	assert.Equal(t, 2, r.ignored)
}

func TestQueriesBeforeClassify(t *testing.T) {
	r := New(owl.NewOntology("x"), nil)
	_, err := r.IsEntailed(context.Background(), sub(cls("A"), cls("B")))
	assert.ErrorIs(t, err, ErrNotClassified)
	_, err = r.IsConsistent(context.Background())
	assert.ErrorIs(t, err, ErrNotClassified)
}

func TestUnsupportedQuery(t *testing.T) {
	r := classified(t)
	_, err := r.IsEntailed(context.Background(), owl.TransitiveObjectProperty{Property: ns + "r"})
	assert.ErrorIs(t, err, ErrUnsupportedQuery)
}

func TestCancelledContext(t *testing.T) {
	r := classified(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.IsEntailed(ctx, sub(cls("A"), cls("B")))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConcurrentQueries(t *testing.T) {
	r := classified(t,
		sub(cls("A"), cls("B")),
		sub(dataSome("p"), some("q", owl.Thing)),
	)
	require.True(t, oracle.SupportsConcurrentQueries(r))

	var wg sync.WaitGroup
	results := make([]bool, 64)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var a owl.Axiom = sub(cls("A"), cls("B"))
			if i%2 == 1 {
				a = sub(dataSome("p"), some("q", owl.Thing))
			}
			ok, err := r.IsEntailed(context.Background(), a)
			assert.NoError(t, err)
			results[i] = ok
		}(i)
	}
	wg.Wait()
	for i, ok := range results {
		assert.True(t, ok, "query %d", i)
	}
}
