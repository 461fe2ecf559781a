// Package store persists evaluation runs and their alignments in the graph
// database.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/dfleischhacker/spart/internal/alignment"
	"github.com/dfleischhacker/spart/internal/driver"
	"github.com/dfleischhacker/spart/internal/evaluation"
)

var ErrRunNotFound = errors.New("run not found")

// Alignment kinds stored per run.
const (
	KindEvaluation        = "evaluation"
	KindReference         = "reference"
	KindEvaluationClosure = "evaluation_closure"
	KindReferenceClosure  = "reference_closure"
	KindIntersection      = "intersection"
)

type Run struct {
	ID        string        `json:"id"`
	CreatedAt time.Time     `json:"created_at"`
	Semantic  string        `json:"semantic"`
	Ontology1 string        `json:"ontology1"`
	Ontology2 string        `json:"ontology2"`
	Alignment string        `json:"alignment"`
	Reference string        `json:"reference,omitempty"`
	Precision float64       `json:"-"`
	Recall    float64       `json:"-"`
	Duration  time.Duration `json:"duration"`
}

type ClosureStore struct {
	driver driver.GraphDriver
	logger *slog.Logger
	now    func() time.Time
}

func New(d driver.GraphDriver, logger *slog.Logger) *ClosureStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClosureStore{driver: d, logger: logger, now: time.Now}
}

// SaveEvaluation stores the scores of res together with both input
// alignments, both closures and their intersection.
func (s *ClosureStore) SaveEvaluation(ctx context.Context, res *evaluation.CalculationResult) (*Run, error) {
	run := &Run{
		Semantic:  res.Semantic,
		Ontology1: res.Ontology1,
		Ontology2: res.Ontology2,
		Alignment: res.AlignmentName,
		Reference: res.ReferenceName,
		Precision: res.Precision,
		Recall:    res.Recall,
		Duration:  res.Duration,
	}
	if err := s.saveRun(ctx, run); err != nil {
		return nil, err
	}
	for _, part := range []struct {
		kind string
		a    *alignment.Alignment
	}{
		{KindEvaluation, res.OriginalAlignment},
		{KindReference, res.OriginalReference},
		{KindEvaluationClosure, res.EvaluationClosure},
		{KindReferenceClosure, res.ReferenceClosure},
		{KindIntersection, res.Intersection},
	} {
		if err := s.SaveAlignment(ctx, run, part.kind, part.a); err != nil {
			return nil, err
		}
	}
	s.logger.Info("stored evaluation run", "run", run.ID, "semantic", run.Semantic)
	return run, nil
}

// SaveClosure stores a closure computed without a reference. The run has no
// scores.
func (s *ClosureStore) SaveClosure(ctx context.Context, semantic string, input, closure *alignment.Alignment) (*Run, error) {
	run := &Run{
		Semantic:  semantic,
		Ontology1: input.Onto1,
		Ontology2: input.Onto2,
		Precision: math.NaN(),
		Recall:    math.NaN(),
	}
	if err := s.saveRun(ctx, run); err != nil {
		return nil, err
	}
	if err := s.SaveAlignment(ctx, run, KindEvaluation, input); err != nil {
		return nil, err
	}
	if err := s.SaveAlignment(ctx, run, KindEvaluationClosure, closure); err != nil {
		return nil, err
	}
	s.logger.Info("stored closure run", "run", run.ID, "semantic", semantic, "size", closure.Len())
	return run, nil
}

func (s *ClosureStore) saveRun(ctx context.Context, run *Run) error {
	run.ID = uuid.NewString()
	run.CreatedAt = s.now().UTC()
	_, err := s.driver.ExecuteQuery(ctx, driver.SaveRunQuery, map[string]any{
		"uuid":        run.ID,
		"created_at":  run.CreatedAt.Format(time.RFC3339Nano),
		"semantic":    run.Semantic,
		"ontology1":   run.Ontology1,
		"ontology2":   run.Ontology2,
		"alignment":   run.Alignment,
		"reference":   run.Reference,
		"precision":   run.Precision,
		"recall":      run.Recall,
		"duration_ms": run.Duration.Milliseconds(),
	})
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// SaveAlignment stores a as CORRESPONDS edges of run tagged with kind. Cell
// order is kept.
func (s *ClosureStore) SaveAlignment(ctx context.Context, run *Run, kind string, a *alignment.Alignment) error {
	if a == nil || a.Len() == 0 {
		return nil
	}
	cells := make([]map[string]any, 0, a.Len())
	for i, c := range a.Correspondences() {
		cells = append(cells, map[string]any{
			"entity1":  c.Entity1,
			"entity2":  c.Entity2,
			"relation": string(c.Relation),
			"measure":  c.Measure,
			"seq":      int64(i),
		})
	}
	_, err := s.driver.ExecuteQuery(ctx, driver.SaveCorrespondencesQuery, map[string]any{
		"run_uuid":  run.ID,
		"kind":      kind,
		"ontology1": run.Ontology1,
		"ontology2": run.Ontology2,
		"cells":     cells,
	})
	if err != nil {
		return fmt.Errorf("failed to save %s alignment of run %s: %w", kind, run.ID, err)
	}
	return nil
}

func (s *ClosureStore) LoadAlignment(ctx context.Context, runID, kind string) (*alignment.Alignment, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	res, err := s.driver.ExecuteQuery(ctx, driver.GetCorrespondencesQuery, map[string]any{
		"run_uuid": runID,
		"kind":     kind,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load %s alignment of run %s: %w", kind, runID, err)
	}
	out := alignment.New(run.Ontology1, run.Ontology2)
	for _, rec := range res.Records {
		out.Add(alignment.Correspondence{
			Entity1:  stringValue(rec, "entity1"),
			Entity2:  stringValue(rec, "entity2"),
			Relation: alignment.Relation(stringValue(rec, "relation")),
			Measure:  floatValue(rec, "measure"),
		})
	}
	return out, nil
}

func (s *ClosureStore) GetRun(ctx context.Context, id string) (*Run, error) {
	res, err := s.driver.ExecuteQuery(ctx, driver.GetRunQuery, map[string]any{"uuid": id})
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	if len(res.Records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	run := runFromRecord(res.Records[0])
	return &run, nil
}

// ListRuns returns the most recent runs first.
func (s *ClosureStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	res, err := s.driver.ExecuteQuery(ctx, driver.ListRunsQuery, map[string]any{"limit": int64(limit)})
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	runs := make([]Run, 0, len(res.Records))
	for _, rec := range res.Records {
		runs = append(runs, runFromRecord(rec))
	}
	return runs, nil
}

func (s *ClosureStore) DeleteRun(ctx context.Context, id string) error {
	res, err := s.driver.ExecuteQuery(ctx, driver.DeleteRunQuery, map[string]any{"uuid": id})
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	if len(res.Records) == 0 || intValue(res.Records[0], "deleted") == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if _, err := s.driver.ExecuteQuery(ctx, driver.DeleteOrphanEntitiesQuery, nil); err != nil {
		s.logger.Warn("failed to prune entities", "error", err)
	}
	return nil
}

func runFromRecord(rec *neo4j.Record) Run {
	run := Run{
		ID:        stringValue(rec, "uuid"),
		Semantic:  stringValue(rec, "semantic"),
		Ontology1: stringValue(rec, "ontology1"),
		Ontology2: stringValue(rec, "ontology2"),
		Alignment: stringValue(rec, "alignment"),
		Reference: stringValue(rec, "reference"),
		Precision: floatValue(rec, "precision"),
		Recall:    floatValue(rec, "recall"),
		Duration:  time.Duration(intValue(rec, "duration_ms")) * time.Millisecond,
	}
	if t, err := time.Parse(time.RFC3339Nano, stringValue(rec, "created_at")); err == nil {
		run.CreatedAt = t
	}
	return run
}

func stringValue(rec *neo4j.Record, key string) string {
	v, _ := rec.Get(key)
	s, _ := v.(string)
	return s
}

// floatValue reads a number; missing values read as NaN.
func floatValue(rec *neo4j.Record, key string) float64 {
	v, _ := rec.Get(key)
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	}
	return math.NaN()
}

func intValue(rec *neo4j.Record, key string) int64 {
	v, _ := rec.Get(key)
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}
