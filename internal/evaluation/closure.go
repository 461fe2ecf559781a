package evaluation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/dfleischhacker/spart/internal/alignment"
	"github.com/dfleischhacker/spart/internal/owl"
	"github.com/dfleischhacker/spart/internal/semantic"
)

type ClosureRequest struct {
	Ontology1         Source
	Ontology2         Source
	Alignment         Source
	Semantic          string
	Threshold         *float64
	DeleteIndividuals *bool
}

type ClosureOutcome struct {
	Semantic string
	// Input is the thresholded alignment the closure was computed from.
	Input    *alignment.Alignment
	Closure  *alignment.Alignment
	Merged   *owl.Ontology
	Duration time.Duration
}

func (e *Evaluator) resolve(name string) string {
	if name == "" {
		name = e.defaultSemantic
	}
	if canonical, ok := semantic.Canonical(name); ok {
		return canonical
	}
	return name
}

// Closure computes the closure of a single alignment. Failures are reported
// as *Error with the same stages Evaluate uses for the evaluation alignment.
func (e *Evaluator) Closure(ctx context.Context, req ClosureRequest) (*ClosureOutcome, error) {
	name := e.resolve(req.Semantic)
	ctx, span := tracer.Start(ctx, "evaluation.Closure")
	span.SetAttributes(
		attribute.String("semantic", name),
		attribute.String("alignment", req.Alignment.Name),
	)
	defer span.End()

	if _, ok := semantic.Canonical(name); !ok {
		err := &Error{Stage: StageSemantic, Err: fmt.Errorf("%w %q", semantic.ErrUnknownSemantic, name)}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	start := time.Now()
	o1, o2, a, err := e.loadAligned(req.Ontology1, req.Ontology2, req.Alignment)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	a = a.WithThreshold(e.thresholdOf(req.Threshold))

	opts := e.opts
	if req.DeleteIndividuals != nil {
		opts.DeleteIndividuals = *req.DeleteIndividuals
	}
	sem, err := semantic.New(name, o1, o2, opts)
	if err != nil {
		return nil, &Error{Stage: StageSemantic, Err: err}
	}
	res, err := sem.Closure(ctx, a)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, &Error{Stage: StageClosureEvaluation, Err: err}
	}
	span.SetStatus(codes.Ok, "")

	out := &ClosureOutcome{
		Semantic: name,
		Input:    a,
		Closure:  res.Alignment,
		Merged:   res.Merged,
		Duration: time.Since(start),
	}
	e.logger.Info("closure computed",
		"semantic", name,
		"alignment", req.Alignment.Name,
		"input", a.Len(),
		"closure", out.Closure.Len(),
		"duration", out.Duration)
	return out, nil
}

// Validate loads both ontologies and the alignment and checks that every
// correspondence refers to entities of the right ontology.
func (e *Evaluator) Validate(o1, o2, a Source) (*alignment.Alignment, error) {
	_, _, align, err := e.loadAligned(o1, o2, a)
	return align, err
}

func (e *Evaluator) loadAligned(s1, s2, sa Source) (*owl.Ontology, *owl.Ontology, *alignment.Alignment, error) {
	o1, err := loadOntology(s1)
	if err != nil {
		return nil, nil, nil, &Error{Stage: StageLoadOntology1, Err: err}
	}
	o2, err := loadOntology(s2)
	if err != nil {
		return nil, nil, nil, &Error{Stage: StageLoadOntology2, Err: err}
	}
	a, err := loadAlignment(sa)
	if err != nil {
		return nil, nil, nil, &Error{Stage: StageLoadEvaluation, Err: err}
	}
	if err := a.Validate(o1, o2); err != nil {
		return nil, nil, nil, &Error{Stage: StageValidateEvaluation, Err: err}
	}
	return o1, o2, a, nil
}
