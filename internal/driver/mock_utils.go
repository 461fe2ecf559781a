package driver

import (
	"context"
	"sync"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type ExecutedQuery struct {
	Query  string
	Params map[string]any
}

// MockDriver records every query. Results are handed out from Results in
// order; once it is exhausted MockResult is returned.
type MockDriver struct {
	MockResult neo4j.EagerResult
	Results    []neo4j.EagerResult
	Err        error

	mu       sync.Mutex
	Executed []ExecutedQuery
	Indexed  bool
	Closed   bool
}

func (m *MockDriver) ExecuteQuery(ctx context.Context, query string, params map[string]any) (neo4j.EagerResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Executed = append(m.Executed, ExecutedQuery{Query: query, Params: params})
	if m.Err != nil {
		return neo4j.EagerResult{}, m.Err
	}
	if len(m.Results) > 0 {
		res := m.Results[0]
		m.Results = m.Results[1:]
		return res, nil
	}
	return m.MockResult, nil
}

func (m *MockDriver) BuildIndices(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Indexed = true
	return nil
}

func (m *MockDriver) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// Record builds a result row.
func Record(keys []string, values ...any) *neo4j.Record {
	return &neo4j.Record{Keys: keys, Values: values}
}
