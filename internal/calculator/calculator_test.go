package calculator

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dfleischhacker/spart/internal/alignment"
)

func build(prefix string, n int) []alignment.Correspondence {
	out := make([]alignment.Correspondence, n)
	for i := range out {
		out[i] = alignment.NewCorrespondence(
			fmt.Sprintf("http://a#%s%d", prefix, i),
			fmt.Sprintf("http://b#%s%d", prefix, i),
			alignment.Equivalent)
	}
	return out
}

func alignmentOf(cs ...alignment.Correspondence) *alignment.Alignment {
	a := alignment.New("http://a", "http://b")
	for _, c := range cs {
		a.Add(c)
	}
	return a
}

func TestPartialOverlap(t *testing.T) {
	shared := build("s", 4)
	eval := alignmentOf(append(append([]alignment.Correspondence{}, shared...), build("e", 2)...)...)
	ref := alignmentOf(append(append([]alignment.Correspondence{}, shared...), build("r", 6)...)...)

	c := New(eval, ref)
	assert.InDelta(t, 0.667, c.Precision(), 0.001)
	assert.InDelta(t, 0.4, c.Recall(), 0.001)
	assert.Equal(t, shared, c.Intersection().Correspondences())

	e, r, i := c.Sizes()
	assert.Equal(t, []int{6, 10, 4}, []int{e, r, i})
}

func TestIdentical(t *testing.T) {
	a := alignmentOf(build("x", 3)...)
	c := New(a, alignmentOf(build("x", 3)...))
	assert.Equal(t, 1.0, c.Precision())
	assert.Equal(t, 1.0, c.Recall())
}

func TestDisjoint(t *testing.T) {
	c := New(alignmentOf(build("x", 3)...), alignmentOf(build("y", 2)...))
	assert.Equal(t, 0.0, c.Precision())
	assert.Equal(t, 0.0, c.Recall())
	assert.Zero(t, c.Intersection().Len())
}

func TestMeasureDoesNotAffectIdentity(t *testing.T) {
	weak := alignment.NewCorrespondence("http://a#x", "http://b#y", alignment.Subsumed)
	weak.Measure = 0.3
	c := New(alignmentOf(weak), alignmentOf(alignment.NewCorrespondence("http://a#x", "http://b#y", alignment.Subsumed)))
	assert.Equal(t, 1.0, c.Precision())
}

func TestEmptyAlignmentsYieldNaN(t *testing.T) {
	c := New(alignmentOf(), alignmentOf())
	assert.True(t, math.IsNaN(c.Precision()))
	assert.True(t, math.IsNaN(c.Recall()))

	c = New(alignmentOf(), alignmentOf(build("x", 1)...))
	assert.True(t, math.IsNaN(c.Precision()))
	assert.Equal(t, 0.0, c.Recall())
}

func TestIntersectionUsesEvaluationOntologies(t *testing.T) {
	eval := alignment.New("http://eval1", "http://eval2")
	eval.Add(alignment.NewCorrespondence("http://a#x", "http://b#y", alignment.Equivalent))
	ref := alignment.New("http://ref1", "http://ref2")
	ref.Add(alignment.NewCorrespondence("http://a#x", "http://b#y", alignment.Equivalent))

	got := New(eval, ref).Intersection()
	assert.Equal(t, "http://eval1", got.Onto1)
	assert.Equal(t, "http://eval2", got.Onto2)
	assert.Equal(t, 1, eval.Len())
}
