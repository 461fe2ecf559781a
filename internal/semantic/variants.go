package semantic

import (
	"context"

	"github.com/dfleischhacker/spart/internal/alignment"
	"github.com/dfleischhacker/spart/internal/entitytype"
	"github.com/dfleischhacker/spart/internal/owl"
)

// NewNatural relates entities of the same kind only: classes by class
// axioms, object and data properties by property axioms. Correspondences
// outside these combinations are logged and left out of the merge.
func NewNatural(o1, o2 *owl.Ontology, opts Options) Semantic {
	return newEngine(NaturalName, o1, o2, opts, naturalRules(), true)
}

func naturalRules() ruleTable {
	t := ruleTable{}
	t.addTriple(entitytype.Class, entitytype.Class, classEquivalence, classSubsumption)
	t.addTriple(entitytype.ObjectProperty, entitytype.ObjectProperty, objectPropertyEquivalence, objectPropertySubsumption)
	t.addTriple(entitytype.DataProperty, entitytype.DataProperty, dataPropertyEquivalence, dataPropertySubsumption)
	return t
}

// NewPragmatic treats classes and object properties like the natural
// semantic and compares every other pairing through existential restrictions
// over the properties, so a data property can correspond to an object
// property or a class. An unsupported correspondence aborts the closure.
func NewPragmatic(o1, o2 *owl.Ontology, opts Options) Semantic {
	return newEngine(PragmaticName, o1, o2, opts, pragmaticRules(), false)
}

func pragmaticRules() ruleTable {
	t := ruleTable{}
	t.addTriple(entitytype.Class, entitytype.Class, classEquivalence, classSubsumption)
	t.addTriple(entitytype.ObjectProperty, entitytype.ObjectProperty, objectPropertyEquivalence, objectPropertySubsumption)
	t.addLifted(entitytype.DataProperty, entitytype.DataProperty)
	t.addLifted(entitytype.DataProperty, entitytype.ObjectProperty)
	t.addLifted(entitytype.ObjectProperty, entitytype.DataProperty)
	t.addLifted(entitytype.Class, entitytype.ObjectProperty)
	t.addLifted(entitytype.ObjectProperty, entitytype.Class)
	t.addLifted(entitytype.Class, entitytype.DataProperty)
	t.addLifted(entitytype.DataProperty, entitytype.Class)
	return t
}

type null struct {
	opts  Options
	types *entitytype.Classifier
}

// NewNull returns the semantic whose closure is the alignment itself, which
// reduces precision and recall to plain set overlap.
func NewNull(o1, o2 *owl.Ontology, opts Options) Semantic {
	return &null{opts: opts.withDefaults(), types: entitytype.New(o1, o2)}
}

func (n *null) Name() string { return NullName }

func (n *null) SupportedRelations() []alignment.Relation {
	out := make([]alignment.Relation, len(supportedRelations))
	copy(out, supportedRelations)
	return out
}

func (n *null) Translate(c alignment.Correspondence) ([]owl.Axiom, error) {
	return nil, &UnsupportedCorrespondenceError{
		Semantic:       NullName,
		Correspondence: c,
		Kind1:          n.types.Kind1(c.Entity1),
		Kind2:          n.types.Kind2(c.Entity2),
	}
}

func (n *null) Closure(ctx context.Context, a *alignment.Alignment) (*ClosureResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ClosureGenerationError{Semantic: NullName, Err: err}
	}
	out := a.WithThreshold(n.opts.ConfidenceThreshold)
	n.opts.Metrics.ObserveClosure(NullName, "ok", out.Len())
	return &ClosureResult{Alignment: out}, nil
}
