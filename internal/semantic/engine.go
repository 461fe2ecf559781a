package semantic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/dfleischhacker/spart/internal/alignment"
	"github.com/dfleischhacker/spart/internal/entitytype"
	"github.com/dfleischhacker/spart/internal/oracle"
	"github.com/dfleischhacker/spart/internal/owl"
)

const (
	MergedIRI = "urn:spart:aligned"

	side1Prefix = "urn:spart:onto1:"
	side2Prefix = "urn:spart:onto2:"
)

var tracer = otel.Tracer("spart.semantic")

func renameSide(prefix string) owl.RenameFunc {
	return func(iri string) string {
		if owl.IsBuiltin(iri) {
			return iri
		}
		return prefix + iri
	}
}

var (
	renameSide1 = renameSide(side1Prefix)
	renameSide2 = renameSide(side2Prefix)
)

// engine implements the closure protocol shared by the reasoning semantics.
// Both input ontologies are only read.
type engine struct {
	name            string
	o1, o2          *owl.Ontology
	opts            Options
	types           *entitytype.Classifier
	rules           ruleTable
	skipUnsupported bool
}

func newEngine(name string, o1, o2 *owl.Ontology, opts Options, rules ruleTable, skipUnsupported bool) *engine {
	if o1 == nil {
		o1 = owl.NewOntology("")
	}
	if o2 == nil {
		o2 = owl.NewOntology("")
	}
	return &engine{
		name:            name,
		o1:              o1,
		o2:              o2,
		opts:            opts.withDefaults(),
		types:           entitytype.New(o1, o2),
		rules:           rules,
		skipUnsupported: skipUnsupported,
	}
}

func (e *engine) Name() string { return e.name }

func (e *engine) SupportedRelations() []alignment.Relation {
	out := make([]alignment.Relation, len(supportedRelations))
	copy(out, supportedRelations)
	return out
}

func (e *engine) Translate(c alignment.Correspondence) ([]owl.Axiom, error) {
	return e.translate(c, c.Entity1, c.Entity2)
}

// translate applies the rule for c but writes the axioms over iri1 and iri2,
// which lets the closure use renamed entities.
func (e *engine) translate(c alignment.Correspondence, iri1, iri2 string) ([]owl.Axiom, error) {
	k1, k2 := e.types.Kind1(c.Entity1), e.types.Kind2(c.Entity2)
	r, ok := e.rules[ruleKey{k1, k2, normalizeRelation(c.Relation)}]
	if !ok {
		return nil, &UnsupportedCorrespondenceError{
			Semantic:       e.name,
			Correspondence: c,
			Kind1:          k1,
			Kind2:          k2,
		}
	}
	return r(iri1, iri2), nil
}

func (e *engine) Closure(ctx context.Context, a *alignment.Alignment) (*ClosureResult, error) {
	ctx, span := tracer.Start(ctx, "semantic.Closure", trace.WithAttributes(
		attribute.String("semantic", e.name),
		attribute.Int("correspondences", a.Len()),
	))
	defer span.End()

	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	res, err := e.closure(ctx, a)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.opts.Metrics.ObserveClosure(e.name, outcome(err), 0)
		return nil, err
	}
	span.SetAttributes(attribute.Int("closure_size", res.Alignment.Len()))
	span.SetStatus(codes.Ok, "")
	e.opts.Metrics.ObserveClosure(e.name, "ok", res.Alignment.Len())
	return res, nil
}

func outcome(err error) string {
	var merr *MergeError
	if errors.As(err, &merr) {
		return "merge_error"
	}
	var inconsistent *oracle.InconsistentError
	if errors.As(err, &inconsistent) {
		return "inconsistent"
	}
	return "error"
}

func (e *engine) closure(ctx context.Context, a *alignment.Alignment) (*ClosureResult, error) {
	log := e.opts.Logger.With("semantic", e.name)
	start := time.Now()

	merged, err := e.merge(a)
	if err != nil {
		return nil, err
	}
	if e.opts.DeleteIndividuals {
		merged = merged.WithoutIndividuals()
	}

	orc, err := oracle.InstrumentFactory(e.opts.Oracle, e.opts.Metrics)(merged)
	if err != nil {
		return nil, &ClosureGenerationError{Semantic: e.name, Err: fmt.Errorf("failed to create oracle: %w", err)}
	}

	log.Info("starting classification", "axioms", merged.Len())
	if err := orc.Classify(ctx); err != nil {
		return nil, e.generationError(err)
	}
	consistent, err := orc.IsConsistent(ctx)
	if err != nil {
		return nil, e.generationError(err)
	}
	if !consistent {
		return nil, e.generationError(&oracle.InconsistentError{})
	}
	log.Info("finished classification", "duration", time.Since(start))

	out, err := e.enumerate(ctx, orc)
	if err != nil {
		return nil, e.generationError(err)
	}
	log.Info("closure computed",
		"input", a.Len(),
		"entailed", out.Len(),
		"duration", time.Since(start))

	return &ClosureResult{Alignment: out, Merged: merged}, nil
}

func (e *engine) generationError(err error) error {
	cge := &ClosureGenerationError{Semantic: e.name, Err: err}
	var inconsistent *oracle.InconsistentError
	if errors.As(err, &inconsistent) {
		cge.Explanation = inconsistent.Explanation
	}
	return cge
}

// merge copies both ontologies, each renamed into its own namespace, and adds
// the translated correspondences of a that pass the confidence threshold.
func (e *engine) merge(a *alignment.Alignment) (*owl.Ontology, error) {
	merged := owl.Merge(MergedIRI, e.o1.Rename(renameSide1), e.o2.Rename(renameSide2))

	skipped := 0
	for _, c := range a.WithThreshold(e.opts.ConfidenceThreshold).Correspondences() {
		axioms, err := e.translate(c, renameSide1(c.Entity1), renameSide2(c.Entity2))
		if err != nil {
			var unsupported *UnsupportedCorrespondenceError
			if e.skipUnsupported && errors.As(err, &unsupported) {
				e.opts.Logger.Warn("ignoring unsupported correspondence",
					"semantic", e.name,
					"correspondence", c.String(),
					"kind1", unsupported.Kind1.String(),
					"kind2", unsupported.Kind2.String())
				skipped++
				continue
			}
			return nil, &MergeError{Semantic: e.name, Err: err}
		}
		merged.Add(axioms...)
	}
	if skipped > 0 {
		e.opts.Logger.Warn("correspondences skipped during merge", "semantic", e.name, "count", skipped)
	}
	return merged, nil
}

// cell is one (entity1, entity2, relation) triple that has a rule.
type cell struct {
	iri1, iri2 string
	relation   alignment.Relation
	rule       rule
}

func (e *engine) cells() []cell {
	left, right := e.o1.ReferencedIRIs(), e.o2.ReferencedIRIs()
	kinds2 := make([]entitytype.Kind, len(right))
	for j, iri := range right {
		kinds2[j] = e.types.Kind2(iri)
	}

	var out []cell
	for _, iri1 := range left {
		k1 := e.types.Kind1(iri1)
		for j, iri2 := range right {
			for _, rel := range supportedRelations {
				r, ok := e.rules[ruleKey{k1, kinds2[j], rel}]
				if !ok {
					continue
				}
				out = append(out, cell{iri1: iri1, iri2: iri2, relation: rel, rule: r})
			}
		}
	}
	return out
}

func (e *engine) enumerate(ctx context.Context, orc oracle.Oracle) (*alignment.Alignment, error) {
	cells := e.cells()
	entailed := make([]bool, len(cells))

	workers := e.opts.Workers
	if workers > 1 && !oracle.SupportsConcurrentQueries(orc) {
		e.opts.Logger.Info("oracle does not support concurrent queries, enumerating serially", "semantic", e.name)
		workers = 1
	}
	e.opts.Logger.Debug("enumerating closure candidates", "semantic", e.name, "cells", len(cells), "workers", workers)

	if workers > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i := range cells {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				ok, err := check(gctx, orc, cells[i])
				entailed[i] = ok
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	} else {
		for i := range cells {
			ok, err := check(ctx, orc, cells[i])
			if err != nil {
				return nil, err
			}
			entailed[i] = ok
		}
	}

	out := alignment.New(e.o1.IRI, e.o2.IRI)
	for i, c := range cells {
		if entailed[i] {
			out.Add(alignment.NewCorrespondence(c.iri1, c.iri2, c.relation))
		}
	}
	return out, nil
}

// check asks whether every axiom of the cell's translation is entailed.
func check(ctx context.Context, orc oracle.Oracle, c cell) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	for _, ax := range c.rule(renameSide1(c.iri1), renameSide2(c.iri2)) {
		ok, err := orc.IsEntailed(ctx, ax)
		if err != nil {
			return false, fmt.Errorf("failed to check %s: %w", ax, err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
