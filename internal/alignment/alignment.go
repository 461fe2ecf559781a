package alignment

import (
	"strings"
)

const (
	DefaultLevel = "0"
	DefaultType  = "**"
)

// Alignment is an insertion-ordered set of correspondences between two
// ontologies. Correspondences are never removed once added.
type Alignment struct {
	Onto1 string
	Onto2 string
	Level string
	Type  string

	cells []Correspondence
	index map[string]int
}

func New(onto1, onto2 string) *Alignment {
	return &Alignment{
		Onto1: onto1,
		Onto2: onto2,
		Level: DefaultLevel,
		Type:  DefaultType,
		index: make(map[string]int),
	}
}

// Add inserts c unless an identical correspondence is present, in which case
// the stored one (and its measure) is kept. It reports whether c was new.
func (a *Alignment) Add(c Correspondence) bool {
	if a.index == nil {
		a.index = make(map[string]int)
	}
	key := c.Key()
	if _, ok := a.index[key]; ok {
		return false
	}
	a.index[key] = len(a.cells)
	a.cells = append(a.cells, c)
	return true
}

func (a *Alignment) Contains(c Correspondence) bool {
	_, ok := a.index[c.Key()]
	return ok
}

// Correspondences returns a copy of the cells in insertion order.
func (a *Alignment) Correspondences() []Correspondence {
	out := make([]Correspondence, len(a.cells))
	copy(out, a.cells)
	return out
}

func (a *Alignment) Len() int { return len(a.cells) }

// WithThreshold returns a copy holding only correspondences whose measure is
// at least threshold.
func (a *Alignment) WithThreshold(threshold float64) *Alignment {
	out := New(a.Onto1, a.Onto2)
	out.Level, out.Type = a.Level, a.Type
	for _, c := range a.cells {
		if c.Measure >= threshold {
			out.Add(c)
		}
	}
	return out
}

func (a *Alignment) String() string {
	var b strings.Builder
	b.WriteString("Ontology 1: ")
	b.WriteString(a.Onto1)
	b.WriteString("\nOntology 2: ")
	b.WriteString(a.Onto2)
	b.WriteString("\n")
	for _, c := range a.cells {
		b.WriteString(c.String())
		b.WriteString("\n")
	}
	return b.String()
}
