package semantic

import (
	"fmt"

	"github.com/dfleischhacker/spart/internal/alignment"
	"github.com/dfleischhacker/spart/internal/entitytype"
)

type unknownError struct {
	name string
}

func (e *unknownError) Error() string {
	return fmt.Sprintf("unknown semantic %q", e.name)
}

func (e *unknownError) Unwrap() error { return ErrUnknownSemantic }

// UnsupportedCorrespondenceError reports a correspondence whose entity kinds
// and relation have no translation rule in the semantic.
type UnsupportedCorrespondenceError struct {
	Semantic       string
	Correspondence alignment.Correspondence
	Kind1          entitytype.Kind
	Kind2          entitytype.Kind
}

func (e *UnsupportedCorrespondenceError) Error() string {
	return fmt.Sprintf("correspondence from %s to %s using the relation %s is unsupported by the %s: %s",
		e.Kind1, e.Kind2, e.Correspondence.Relation, e.Semantic, e.Correspondence)
}

// MergeError aborts a closure while the merged ontology is being assembled.
type MergeError struct {
	Semantic string
	Err      error
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("%s: failed to merge ontologies: %v", e.Semantic, e.Err)
}

func (e *MergeError) Unwrap() error { return e.Err }

// ClosureGenerationError wraps oracle failures, including inconsistency of
// the merged ontology, and cancellation of the enumeration. Explanation is
// the oracle's account of an inconsistency, empty otherwise.
type ClosureGenerationError struct {
	Semantic    string
	Explanation string
	Err         error
}

func (e *ClosureGenerationError) Error() string {
	return fmt.Sprintf("%s: failed to generate closure: %v", e.Semantic, e.Err)
}

func (e *ClosureGenerationError) Unwrap() error { return e.Err }
