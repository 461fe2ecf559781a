//go:build integration

package integration

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfleischhacker/spart/internal/driver"
	"github.com/dfleischhacker/spart/internal/evaluation"
	"github.com/dfleischhacker/spart/internal/semantic"
	"github.com/dfleischhacker/spart/internal/store"
)

func connect(t *testing.T) *driver.MemgraphDriver {
	t.Helper()
	_ = godotenv.Load("../../.env")

	uri := os.Getenv("SPART_MEMGRAPH_URI")
	if uri == "" {
		t.Skip("Skipping integration test: SPART_MEMGRAPH_URI not set")
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d, err := driver.NewMemgraphDriver(context.Background(), uri,
		os.Getenv("SPART_MEMGRAPH_USER"), os.Getenv("SPART_MEMGRAPH_PASSWORD"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close(context.Background()) })
	require.NoError(t, d.BuildIndices(context.Background()))
	return d
}

func TestEvaluationRoundTrip(t *testing.T) {
	d := connect(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	opts := semantic.DefaultOptions()
	opts.Logger = logger
	res, err := evaluation.New(semantic.NaturalName, opts).Evaluate(ctx, evaluation.Request{
		Ontology1: evaluation.File("../../internal/evaluation/testdata/cmt.ofn"),
		Ontology2: evaluation.File("../../internal/evaluation/testdata/ekaw.ofn"),
		Alignment: evaluation.File("../../internal/evaluation/testdata/matcher.rdf"),
		Reference: evaluation.File("../../internal/evaluation/testdata/reference.rdf"),
		Threshold: evaluation.Threshold(0.5),
	})
	require.NoError(t, err)

	s := store.New(d, logger)
	run, err := s.SaveEvaluation(ctx, res)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.DeleteRun(context.Background(), run.ID) })

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, semantic.NaturalName, got.Semantic)
	assert.InDelta(t, res.Precision, got.Precision, 1e-9)

	closure, err := s.LoadAlignment(ctx, run.ID, store.KindEvaluationClosure)
	require.NoError(t, err)
	assert.Equal(t, res.EvaluationClosure.Correspondences(), closure.Correspondences())

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	var ids []string
	for _, r := range runs {
		ids = append(ids, r.ID)
	}
	assert.Contains(t, ids, run.ID)

	require.NoError(t, s.DeleteRun(ctx, run.ID))
	_, err = s.GetRun(ctx, run.ID)
	assert.ErrorIs(t, err, store.ErrRunNotFound)
}
