package oracle

import (
	"context"
	"fmt"

	"github.com/dfleischhacker/spart/internal/owl"
)

// Oracle answers logical questions about one ontology. Classify must be called
// before IsEntailed.
type Oracle interface {
	Classify(ctx context.Context) error
	IsConsistent(ctx context.Context) (bool, error)
	IsEntailed(ctx context.Context, axiom owl.Axiom) (bool, error)
}

// ConcurrentSafe is implemented by oracles that allow IsEntailed to be called
// from several goroutines once Classify has returned.
type ConcurrentSafe interface {
	ConcurrentQueries() bool
}

// SupportsConcurrentQueries reports whether o declared itself safe for
// parallel IsEntailed calls.
func SupportsConcurrentQueries(o Oracle) bool {
	cs, ok := o.(ConcurrentSafe)
	return ok && cs.ConcurrentQueries()
}

// Factory builds an oracle over o.
type Factory func(o *owl.Ontology) (Oracle, error)

// InconsistentError is returned by Classify when the ontology has no model.
type InconsistentError struct {
	Explanation string
}

func (e *InconsistentError) Error() string {
	if e.Explanation == "" {
		return "ontology is inconsistent"
	}
	return fmt.Sprintf("ontology is inconsistent: %s", e.Explanation)
}
