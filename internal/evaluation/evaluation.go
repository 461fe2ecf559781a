// Package evaluation runs one complete precision/recall evaluation: it loads
// two ontologies and two alignments, validates the alignments, computes both
// closures under a semantic and scores them.
package evaluation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/dfleischhacker/spart/internal/alignment"
	"github.com/dfleischhacker/spart/internal/calculator"
	"github.com/dfleischhacker/spart/internal/owl"
	"github.com/dfleischhacker/spart/internal/semantic"
)

var tracer = otel.Tracer("spart.evaluation")

// Stage names the step of an evaluation that failed.
type Stage string

const (
	StageLoadOntology1      Stage = "load-ontology1"
	StageLoadOntology2      Stage = "load-ontology2"
	StageLoadEvaluation     Stage = "load-evaluation"
	StageLoadReference      Stage = "load-reference"
	StageValidateReference  Stage = "validate-reference"
	StageValidateEvaluation Stage = "validate-evaluation"
	StageSemantic           Stage = "semantic"
	StageClosureEvaluation  Stage = "closure-evaluation"
	StageClosureReference   Stage = "closure-reference"
)

var stageMessages = map[Stage]string{
	StageLoadOntology1:      "error loading ontology 1",
	StageLoadOntology2:      "error loading ontology 2",
	StageLoadEvaluation:     "error loading evaluation alignment",
	StageLoadReference:      "error loading reference alignment",
	StageValidateReference:  "invalid reference alignment",
	StageValidateEvaluation: "invalid evaluation alignment",
	StageSemantic:           "error selecting semantic",
	StageClosureEvaluation:  "error generating evaluation alignment closure",
	StageClosureReference:   "error generating reference alignment closure",
}

// Error reports the stage at which an evaluation stopped.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", stageMessages[e.Stage], e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Source is a document given either by path or inline. Data wins over Path
// when both are set.
type Source struct {
	Name string
	Path string
	Data []byte
}

func File(path string) Source {
	return Source{Name: path, Path: path}
}

func Inline(name string, data []byte) Source {
	return Source{Name: name, Data: data}
}

func (s Source) read() ([]byte, error) {
	if s.Data != nil {
		return s.Data, nil
	}
	if s.Path == "" {
		return nil, errors.New("no path or content given")
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read '%s': %w", s.Path, err)
	}
	return data, nil
}

type Request struct {
	Ontology1 Source
	Ontology2 Source
	Alignment Source
	Reference Source
	// Semantic falls back to the evaluator's default when empty.
	Semantic string
	// Threshold drops evaluation correspondences with a lower measure. It
	// falls back to the evaluator's default when nil and never applies to
	// the reference alignment.
	Threshold *float64
	// DeleteIndividuals overrides the evaluator's default when set.
	DeleteIndividuals *bool
}

type CalculationResult struct {
	Semantic  string
	Precision float64
	Recall    float64

	Ontology1         string
	Ontology2         string
	Ontology1Entities int
	Ontology2Entities int
	AlignmentName     string
	ReferenceName     string

	EvaluationMerged  *owl.Ontology
	ReferenceMerged   *owl.Ontology
	EvaluationClosure *alignment.Alignment
	ReferenceClosure  *alignment.Alignment
	Intersection      *alignment.Alignment

	// OriginalAlignment is the evaluation alignment before thresholding.
	OriginalAlignment *alignment.Alignment
	OriginalReference *alignment.Alignment

	Duration time.Duration
}

type Evaluator struct {
	defaultSemantic string
	threshold       float64
	opts            semantic.Options
	logger          *slog.Logger
}

// New returns an evaluator that builds semantics with opts. The semantic
// named by defaultSemantic is used for requests that name none.
// opts.ConfidenceThreshold becomes the default threshold for evaluation
// alignments; the semantics themselves are built without one so that
// reference alignments are closed as loaded.
func New(defaultSemantic string, opts semantic.Options) *Evaluator {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	threshold := opts.ConfidenceThreshold
	opts.ConfidenceThreshold = 0
	return &Evaluator{defaultSemantic: defaultSemantic, threshold: threshold, opts: opts, logger: opts.Logger}
}

// Threshold returns v as a request threshold.
func Threshold(v float64) *float64 { return &v }

func (e *Evaluator) thresholdOf(t *float64) float64 {
	if t != nil {
		return *t
	}
	return e.threshold
}

func (e *Evaluator) Evaluate(ctx context.Context, req Request) (*CalculationResult, error) {
	name := e.resolve(req.Semantic)
	ctx, span := tracer.Start(ctx, "evaluation.Evaluate")
	span.SetAttributes(
		attribute.String("semantic", name),
		attribute.String("alignment", req.Alignment.Name),
		attribute.String("reference", req.Reference.Name),
	)
	defer span.End()

	res, err := e.evaluate(ctx, name, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.opts.Metrics.ObserveEvaluation(name, "error")
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	e.opts.Metrics.ObserveEvaluation(name, "ok")
	return res, nil
}

func (e *Evaluator) evaluate(ctx context.Context, name string, req Request) (*CalculationResult, error) {
	if _, ok := semantic.Canonical(name); !ok {
		return nil, &Error{Stage: StageSemantic, Err: fmt.Errorf("%w %q", semantic.ErrUnknownSemantic, name)}
	}

	start := time.Now()
	res := &CalculationResult{
		Semantic:      name,
		Ontology1:     req.Ontology1.Name,
		Ontology2:     req.Ontology2.Name,
		AlignmentName: req.Alignment.Name,
		ReferenceName: req.Reference.Name,
	}

	o1, err := loadOntology(req.Ontology1)
	if err != nil {
		return nil, &Error{Stage: StageLoadOntology1, Err: err}
	}
	res.Ontology1Entities = len(o1.ReferencedIRIs())
	o2, err := loadOntology(req.Ontology2)
	if err != nil {
		return nil, &Error{Stage: StageLoadOntology2, Err: err}
	}
	res.Ontology2Entities = len(o2.ReferencedIRIs())

	original, err := loadAlignment(req.Alignment)
	if err != nil {
		return nil, &Error{Stage: StageLoadEvaluation, Err: err}
	}
	res.OriginalAlignment = original
	eval := original.WithThreshold(e.thresholdOf(req.Threshold))

	ref, err := loadAlignment(req.Reference)
	if err != nil {
		return nil, &Error{Stage: StageLoadReference, Err: err}
	}
	res.OriginalReference = ref

	if err := ref.Validate(o1, o2); err != nil {
		return nil, &Error{Stage: StageValidateReference, Err: err}
	}
	if err := eval.Validate(o1, o2); err != nil {
		return nil, &Error{Stage: StageValidateEvaluation, Err: err}
	}

	opts := e.opts
	if req.DeleteIndividuals != nil {
		opts.DeleteIndividuals = *req.DeleteIndividuals
	}
	sem, err := semantic.New(name, o1, o2, opts)
	if err != nil {
		return nil, &Error{Stage: StageSemantic, Err: err}
	}

	log := e.logger.With("semantic", name, "alignment", req.Alignment.Name)
	log.Info("computing evaluation closure", "correspondences", eval.Len())
	evalClosure, err := sem.Closure(ctx, eval)
	if err != nil {
		return nil, &Error{Stage: StageClosureEvaluation, Err: err}
	}
	res.EvaluationMerged = evalClosure.Merged
	res.EvaluationClosure = evalClosure.Alignment

	log.Info("computing reference closure", "correspondences", ref.Len())
	refClosure, err := sem.Closure(ctx, ref)
	if err != nil {
		return nil, &Error{Stage: StageClosureReference, Err: err}
	}
	res.ReferenceMerged = refClosure.Merged
	res.ReferenceClosure = refClosure.Alignment

	calc := calculator.New(res.EvaluationClosure, res.ReferenceClosure)
	res.Precision = calc.Precision()
	res.Recall = calc.Recall()
	res.Intersection = calc.Intersection()
	res.Duration = time.Since(start)

	evalSize, refSize, shared := calc.Sizes()
	log.Info("evaluation finished",
		"precision", res.Precision,
		"recall", res.Recall,
		"evaluation_closure", evalSize,
		"reference_closure", refSize,
		"intersection", shared,
		"duration", res.Duration)
	return res, nil
}

func loadOntology(s Source) (*owl.Ontology, error) {
	data, err := s.read()
	if err != nil {
		return nil, err
	}
	o, err := owl.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ontology '%s': %w", s.Name, err)
	}
	return o, nil
}

func loadAlignment(s Source) (*alignment.Alignment, error) {
	data, err := s.read()
	if err != nil {
		return nil, err
	}
	a, err := alignment.Decode(bytes.NewReader(data), 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load alignment '%s': %w", s.Name, err)
	}
	return a, nil
}
