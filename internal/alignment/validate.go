package alignment

import "fmt"

// EntitySet answers whether an ontology references an IRI.
type EntitySet interface {
	References(iri string) bool
}

// InvalidAlignmentError names the first correspondence that refers to an
// entity missing from its ontology.
type InvalidAlignmentError struct {
	Correspondence Correspondence
	// Side is 1 or 2, the ontology that lacks Entity.
	Side   int
	Entity string
}

func (e *InvalidAlignmentError) Error() string {
	return fmt.Sprintf("ontology %d does not contain the entity '%s' which is referenced by correspondence %s",
		e.Side, e.Entity, e.Correspondence)
}

// Validate checks that every entity1 is referenced by o1 and every entity2 by
// o2. The alignment is not modified.
func (a *Alignment) Validate(o1, o2 EntitySet) error {
	for _, c := range a.cells {
		if !o1.References(c.Entity1) {
			return &InvalidAlignmentError{Correspondence: c, Side: 1, Entity: c.Entity1}
		}
		if !o2.References(c.Entity2) {
			return &InvalidAlignmentError{Correspondence: c, Side: 2, Entity: c.Entity2}
		}
	}
	return nil
}
