package oracle

import (
	"context"
	"sync"

	"github.com/dfleischhacker/spart/internal/owl"
)

// MockOracle answers entailment from a fixed set of axiom strings and records
// every query it receives.
type MockOracle struct {
	Entailed    map[string]bool
	ClassifyErr error
	QueryErr    error
	Concurrent  bool

	mu         sync.Mutex
	Classified bool
	Queries    []string
}

func NewMockOracle(entailed ...owl.Axiom) *MockOracle {
	m := &MockOracle{Entailed: make(map[string]bool)}
	for _, a := range entailed {
		m.Entailed[a.String()] = true
	}
	return m
}

// MockFactory returns a Factory that always hands out m.
func MockFactory(m *MockOracle) Factory {
	return func(*owl.Ontology) (Oracle, error) { return m, nil }
}

func (m *MockOracle) Classify(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Classified = true
	return m.ClassifyErr
}

func (m *MockOracle) IsConsistent(ctx context.Context) (bool, error) {
	if _, ok := m.ClassifyErr.(*InconsistentError); ok {
		return false, nil
	}
	return true, nil
}

func (m *MockOracle) IsEntailed(ctx context.Context, axiom owl.Axiom) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries = append(m.Queries, axiom.String())
	if m.QueryErr != nil {
		return false, m.QueryErr
	}
	return m.Entailed[axiom.String()], nil
}

func (m *MockOracle) ConcurrentQueries() bool { return m.Concurrent }

func (m *MockOracle) QueryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Queries)
}
