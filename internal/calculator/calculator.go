// Package calculator scores an evaluation alignment against a reference
// alignment.
package calculator

import (
	"github.com/dfleischhacker/spart/internal/alignment"
)

// Calculator holds the intersection of an evaluation and a reference
// alignment. Precision and Recall divide without guarding against empty
// alignments, so either may be NaN; aggregating callers must filter those.
type Calculator struct {
	eval         *alignment.Alignment
	ref          *alignment.Alignment
	intersection []alignment.Correspondence
}

// New computes the intersection of eval and ref by correspondence identity.
// The inputs are not modified.
func New(eval, ref *alignment.Alignment) *Calculator {
	c := &Calculator{eval: eval, ref: ref}
	for _, corr := range eval.Correspondences() {
		if ref.Contains(corr) {
			c.intersection = append(c.intersection, corr)
		}
	}
	return c
}

func (c *Calculator) Precision() float64 {
	return float64(len(c.intersection)) / float64(c.eval.Len())
}

func (c *Calculator) Recall() float64 {
	return float64(len(c.intersection)) / float64(c.ref.Len())
}

// Intersection returns the shared correspondences as an alignment between the
// evaluation alignment's ontologies, in evaluation order.
func (c *Calculator) Intersection() *alignment.Alignment {
	out := alignment.New(c.eval.Onto1, c.eval.Onto2)
	for _, corr := range c.intersection {
		out.Add(corr)
	}
	return out
}

// Sizes reports |eval|, |ref| and the size of their intersection.
func (c *Calculator) Sizes() (eval, ref, intersection int) {
	return c.eval.Len(), c.ref.Len(), len(c.intersection)
}
