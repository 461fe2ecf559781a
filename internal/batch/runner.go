package batch

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/dfleischhacker/spart/internal/evaluation"
)

// Evaluator is the part of evaluation.Evaluator a batch run needs.
type Evaluator interface {
	Evaluate(ctx context.Context, req evaluation.Request) (*evaluation.CalculationResult, error)
}

type RunnerOptions struct {
	Semantic string
	// Parallel bounds how many cases are evaluated at once.
	Parallel int
	Logger   *slog.Logger
}

type Runner struct {
	eval Evaluator
	opts RunnerOptions
}

func NewRunner(eval Evaluator, opts RunnerOptions) *Runner {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Parallel < 1 {
		opts.Parallel = 1
	}
	return &Runner{eval: eval, opts: opts}
}

// Run evaluates all cases and collects the outcome in an aggregator labelled
// with basedir and semantic. Failing cases are recorded as errors; only
// cancellation of ctx stops the run early.
func (r *Runner) Run(ctx context.Context, basedir, semantic string, cases []Case) (*Aggregator, error) {
	agg := NewAggregator(basedir, semantic)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Parallel)
	for _, c := range cases {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			return r.runCase(gctx, agg, c)
		})
	}
	if err := g.Wait(); err != nil {
		return agg, err
	}
	return agg, ctx.Err()
}

func (r *Runner) runCase(ctx context.Context, agg *Aggregator, c Case) error {
	log := r.opts.Logger.With("subject", c.Subject, "testcase", c.Testcase)
	if c.Skip != "" {
		agg.AddError(c.Subject, c.Testcase, c.Skip)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	log.Info("processing", "alignment", c.Alignment)
	res, err := r.eval.Evaluate(ctx, evaluation.Request{
		Ontology1: evaluation.File(c.Ontology1),
		Ontology2: evaluation.File(c.Ontology2),
		Alignment: evaluation.File(c.Alignment),
		Reference: evaluation.File(c.Reference),
		Semantic:  r.opts.Semantic,
		Threshold: c.Threshold,
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("unable to calculate precision and recall", "error", err)
		agg.AddError(c.Subject, c.Testcase, fmt.Sprintf("Unable to calculate precision and recall (%v)", err))
		return nil
	}
	log.Info("evaluated", "precision", res.Precision, "recall", res.Recall)
	agg.AddResult(c.Subject, ResultOf(c.Testcase, res))
	return nil
}
