// Package reasoner implements a completion-based classifier for the EL++
// fragment of the ontology model. Axioms outside the fragment (ranges, unions,
// opaque constructs) are ignored, so every reported entailment holds but some
// entailments of richer ontologies may be missed.
package reasoner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/dfleischhacker/spart/internal/oracle"
	"github.com/dfleischhacker/spart/internal/owl"
)

var (
	ErrNotClassified    = errors.New("reasoner: Classify has not been called")
	ErrUnsupportedQuery = errors.New("reasoner: unsupported entailment query")
)

type Reasoner struct {
	mu     sync.RWMutex
	logger *slog.Logger
	onto   *owl.Ontology

	names      []string
	conceptIDs map[string]int
	nominalIDs []int
	leftNames  map[string]int
	rightNames map[string]int
	freshCount int

	roleIDs      map[string]int
	parents      [][]int
	sup          [][]int
	chainsFirst  [][]chainRule
	chainsSecond [][]chainRule
	freshRoles   int

	told       [][]int
	conj       [][]conjRule
	exists     [][]existsRule
	existsLeft [][]leftRule
	leftByRole [][]leftRule

	S         []map[int]struct{}
	out       []map[int]struct{}
	succ      []map[int]map[int]struct{}
	pred      []map[int]map[int]struct{}
	predRoles []map[int]struct{}

	queue      []workItem
	saturated  bool
	classified bool
	ignored    int
	consistent bool
	reason     string
}

// New prepares a reasoner over o. Nothing is computed until Classify.
func New(o *owl.Ontology, logger *slog.Logger) *Reasoner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Reasoner{
		logger:     logger,
		onto:       o,
		conceptIDs: make(map[string]int),
		leftNames:  make(map[string]int),
		rightNames: make(map[string]int),
		roleIDs:    make(map[string]int),
	}
	r.newConcept(owl.ThingIRI)
	r.newConcept(owl.NothingIRI)
	return r
}

// Factory returns an oracle.Factory producing EL reasoners.
func Factory(logger *slog.Logger) oracle.Factory {
	return func(o *owl.Ontology) (oracle.Oracle, error) {
		return New(o, logger), nil
	}
}

// ConcurrentQueries reports that IsEntailed may be called concurrently.
func (r *Reasoner) ConcurrentQueries() bool { return true }

func (r *Reasoner) Classify(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.classified {
		r.load(r.onto)
		if err := r.saturate(ctx); err != nil {
			return fmt.Errorf("classification aborted: %w", err)
		}
		r.classified = true
		r.consistent, r.reason = r.checkConsistency()
		r.logger.Debug("classified ontology",
			slog.String("ontology", r.onto.IRI),
			slog.Int("axioms", r.onto.Len()),
			slog.Int("concepts", len(r.S)),
			slog.Int("roles", len(r.sup)),
			slog.Int("ignored_axioms", r.ignored),
		)
	}
	if !r.consistent {
		return &oracle.InconsistentError{Explanation: r.reason}
	}
	return nil
}

func (r *Reasoner) checkConsistency() (bool, string) {
	if r.has(topID, bottomID) {
		return false, "owl:Thing is unsatisfiable"
	}
	for _, n := range r.nominalIDs {
		if r.has(n, bottomID) {
			return false, fmt.Sprintf("individual %s is unsatisfiable", r.names[n])
		}
	}
	return true, ""
}

func (r *Reasoner) IsConsistent(ctx context.Context) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.classified {
		return false, ErrNotClassified
	}
	return r.consistent, nil
}

// IsEntailed answers under a read lock when every expression of the query
// already has a name, and otherwise extends the completion under the write lock.
func (r *Reasoner) IsEntailed(ctx context.Context, axiom owl.Axiom) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.RLock()
	if !r.classified {
		r.mu.RUnlock()
		return false, ErrNotClassified
	}
	q := &query{r: r, ctx: ctx}
	ok, err := q.entailed(axiom)
	complete := !q.missing
	r.mu.RUnlock()
	if err != nil || complete {
		return ok, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	q = &query{r: r, ctx: ctx, create: true}
	return q.entailed(axiom)
}

// Subsumers returns the named superclasses of the class iri, sorted.
func (r *Reasoner) Subsumers(iri string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.conceptIDs["c:"+iri]
	if !ok {
		return nil
	}
	var out []string
	for a := range r.S[id] {
		if a == id {
			continue
		}
		switch a {
		case topID, bottomID:
			out = append(out, r.names[a])
			continue
		}
		if _, named := r.conceptIDs["c:"+r.names[a]]; named {
			out = append(out, r.names[a])
		}
	}
	sort.Strings(out)
	return out
}

type query struct {
	r       *Reasoner
	ctx     context.Context
	create  bool
	missing bool
}

func (q *query) entailed(axiom owl.Axiom) (bool, error) {
	switch ax := axiom.(type) {
	case owl.Declaration:
		return true, nil
	case owl.SubClassOf:
		return q.subsumes(ax.Sub, ax.Super)
	case owl.EquivalentClasses:
		for _, c := range ax.Classes[1:] {
			if ok, err := q.mutual(ax.Classes[0], c); !ok || err != nil {
				return false, err
			}
		}
		return true, nil
	case owl.DisjointClasses:
		for i := range ax.Classes {
			for j := i + 1; j < len(ax.Classes); j++ {
				both := owl.ObjectIntersectionOf{Operands: []owl.ClassExpression{ax.Classes[i], ax.Classes[j]}}
				if ok, err := q.subsumes(both, owl.Nothing); !ok || err != nil {
					return false, err
				}
			}
		}
		return true, nil
	case owl.SubObjectPropertyOf:
		return q.subRole("o:", ax.Sub, ax.Super)
	case owl.SubDataPropertyOf:
		return q.subRole("d:", ax.Sub, ax.Super)
	case owl.EquivalentObjectProperties:
		return q.equivalentRoles("o:", ax.Properties)
	case owl.EquivalentDataProperties:
		return q.equivalentRoles("d:", ax.Properties)
	case owl.ObjectPropertyDomain:
		return q.subsumes(owl.ObjectSomeValuesFrom{Property: ax.Property, Filler: owl.Thing}, ax.Domain)
	case owl.DataPropertyDomain:
		return q.subsumes(owl.DataSomeValuesFrom{Property: ax.Property}, ax.Domain)
	case owl.ClassAssertion:
		return q.subsumes(owl.ObjectOneOf{Individuals: []string{ax.Individual}}, ax.Class)
	case owl.ObjectPropertyAssertion:
		return q.subsumes(owl.ObjectOneOf{Individuals: []string{ax.Subject}},
			owl.ObjectHasValue{Property: ax.Property, Individual: ax.Object})
	}
	return false, fmt.Errorf("%w: %s", ErrUnsupportedQuery, axiom)
}

func (q *query) mutual(a, b owl.ClassExpression) (bool, error) {
	ok, err := q.subsumes(a, b)
	if !ok || err != nil {
		return false, err
	}
	return q.subsumes(b, a)
}

// subsumes decides c ⊑ d via names X ⊑ c and d ⊑ Y: the entailment holds
// iff Y ∈ S(X) or X is unsatisfiable.
func (q *query) subsumes(c, d owl.ClassExpression) (bool, error) {
	r := q.r
	var x, y int
	if q.create {
		x = r.rightName(c)
		y = r.leftName(d)
		if err := r.saturate(q.ctx); err != nil {
			return false, err
		}
	} else {
		var okx, oky bool
		x, okx = r.lookupName(c, false)
		y, oky = r.lookupName(d, true)
		if !okx || !oky {
			q.missing = true
			return false, nil
		}
	}
	return r.has(x, y) || r.has(x, bottomID), nil
}

func (q *query) subRole(prefix, sub, super string) (bool, error) {
	if sub == super {
		return true, nil
	}
	r := q.r
	s, okSub := r.roleIDs[prefix+sub]
	t, okSuper := r.roleIDs[prefix+super]
	if okSub && okSuper && r.isSubRole(s, t) {
		return true, nil
	}
	// an empty role is a subrole of everything
	var some owl.ClassExpression = owl.ObjectSomeValuesFrom{Property: sub, Filler: owl.Thing}
	if prefix == "d:" {
		some = owl.DataSomeValuesFrom{Property: sub}
	}
	return q.subsumes(some, owl.Nothing)
}

func (q *query) equivalentRoles(prefix string, props []string) (bool, error) {
	for _, p := range props[1:] {
		for _, pair := range [][2]string{{props[0], p}, {p, props[0]}} {
			ok, err := q.subRole(prefix, pair[0], pair[1])
			if !ok || err != nil {
				return false, err
			}
		}
	}
	return true, nil
}
