package oracle

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dfleischhacker/spart/internal/metrics"
	"github.com/dfleischhacker/spart/internal/owl"
)

var tracer = otel.Tracer("spart.oracle")

type instrumented struct {
	inner   Oracle
	metrics *metrics.Metrics
}

// Instrument wraps o so that classification is traced and timed and every
// entailment query is counted.
func Instrument(o Oracle, m *metrics.Metrics) Oracle {
	return &instrumented{inner: o, metrics: m}
}

// InstrumentFactory applies Instrument to every oracle f builds.
func InstrumentFactory(f Factory, m *metrics.Metrics) Factory {
	return func(o *owl.Ontology) (Oracle, error) {
		inner, err := f(o)
		if err != nil {
			return nil, err
		}
		return Instrument(inner, m), nil
	}
}

func (i *instrumented) Classify(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "oracle.Classify")
	defer span.End()

	start := time.Now()
	err := i.inner.Classify(ctx)
	i.metrics.ObserveClassify(time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func (i *instrumented) IsConsistent(ctx context.Context) (bool, error) {
	return i.inner.IsConsistent(ctx)
}

func (i *instrumented) IsEntailed(ctx context.Context, axiom owl.Axiom) (bool, error) {
	ok, err := i.inner.IsEntailed(ctx, axiom)
	switch {
	case err != nil:
		i.metrics.ObserveQuery("error")
		trace.SpanFromContext(ctx).AddEvent("entailment query failed",
			trace.WithAttributes(attribute.String("axiom", axiom.String())))
	case ok:
		i.metrics.ObserveQuery("entailed")
	default:
		i.metrics.ObserveQuery("not_entailed")
	}
	return ok, err
}

func (i *instrumented) ConcurrentQueries() bool {
	return SupportsConcurrentQueries(i.inner)
}
