package alignment

import (
	"fmt"
	"strings"
)

// Relation is the semantic relation symbol of a correspondence.
type Relation string

const (
	Equivalent Relation = "="
	// Subsumed means entity1 is narrower than entity2.
	Subsumed Relation = "<"
	// Subsumes means entity1 is broader than entity2.
	Subsumes Relation = ">"
)

// Matches compares relation symbols ignoring case and surrounding whitespace.
func (r Relation) Matches(other Relation) bool {
	return strings.EqualFold(strings.TrimSpace(string(r)), strings.TrimSpace(string(other)))
}

const DefaultMeasure = 1.0

// Correspondence states that Entity1 of the first ontology stands in Relation
// to Entity2 of the second one. Measure is the matcher's confidence and plays
// no part in identity.
type Correspondence struct {
	Entity1  string   `json:"entity1"`
	Entity2  string   `json:"entity2"`
	Relation Relation `json:"relation"`
	Measure  float64  `json:"measure"`
}

func NewCorrespondence(entity1, entity2 string, relation Relation) Correspondence {
	return Correspondence{
		Entity1:  entity1,
		Entity2:  entity2,
		Relation: relation,
		Measure:  DefaultMeasure,
	}
}

// Key identifies the correspondence by (entity1, entity2, relation).
func (c Correspondence) Key() string {
	return c.Entity1 + "\x00" + c.Entity2 + "\x00" + strings.TrimSpace(string(c.Relation))
}

func (c Correspondence) Equal(other Correspondence) bool {
	return c.Key() == other.Key()
}

func (c Correspondence) String() string {
	return fmt.Sprintf("( %s , %s , %s , %g )", c.Entity1, c.Entity2, c.Relation, c.Measure)
}
