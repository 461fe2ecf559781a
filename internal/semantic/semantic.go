// Package semantic turns alignments into logical axioms under a chosen
// interpretation and computes the closure of an alignment: every
// correspondence between the two ontologies that follows from the ontologies
// together with the translated alignment.
package semantic

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/dfleischhacker/spart/internal/alignment"
	"github.com/dfleischhacker/spart/internal/metrics"
	"github.com/dfleischhacker/spart/internal/oracle"
	"github.com/dfleischhacker/spart/internal/owl"
	"github.com/dfleischhacker/spart/internal/reasoner"
)

// Canonical semantic names.
const (
	NullName      = "Null Semantic"
	NaturalName   = "Natural Semantic"
	PragmaticName = "Pragmatic Semantic"
)

var ErrUnknownSemantic = errors.New("unknown semantic")

// supportedRelations is the enumeration order used by every closure.
var supportedRelations = []alignment.Relation{
	alignment.Equivalent,
	alignment.Subsumes,
	alignment.Subsumed,
}

type Semantic interface {
	Name() string
	// Translate returns the axioms expressing c. Kinds of c's entities that
	// the semantic has no rule for yield *UnsupportedCorrespondenceError.
	Translate(c alignment.Correspondence) ([]owl.Axiom, error)
	SupportedRelations() []alignment.Relation
	Closure(ctx context.Context, a *alignment.Alignment) (*ClosureResult, error)
}

// ClosureResult is produced fresh by every Closure call. Merged is the
// ontology the oracle classified, with entities renamed per side; it is nil
// for semantics that do not merge.
type ClosureResult struct {
	Alignment *alignment.Alignment
	Merged    *owl.Ontology
}

type Options struct {
	// DeleteIndividuals strips the ABox of the merged ontology before
	// classification.
	DeleteIndividuals bool
	// ConfidenceThreshold drops input correspondences with a lower measure.
	ConfidenceThreshold float64
	// Workers bounds parallel entailment queries. Values below 2 keep the
	// enumeration serial.
	Workers int
	// Timeout bounds a single Closure call; zero disables it.
	Timeout time.Duration
	// Oracle builds the reasoner for the merged ontology. Defaults to the
	// built-in EL reasoner.
	Oracle  oracle.Factory
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

func DefaultOptions() Options {
	return Options{
		DeleteIndividuals: true,
		Workers:           1,
	}
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.Oracle == nil {
		o.Oracle = reasoner.Factory(o.Logger)
	}
	return o
}

// Constructor builds a semantic for the ontology pair.
type Constructor func(o1, o2 *owl.Ontology, opts Options) Semantic

type registration struct {
	name    string
	aliases []string
	build   Constructor
}

var registry = map[string]*registration{}

func init() {
	Register(NullName, []string{"null"}, NewNull)
	Register(NaturalName, []string{"natural"}, NewNatural)
	Register(PragmaticName, []string{"pragmatic"}, NewPragmatic)
}

// Register makes a semantic available under its canonical name and aliases.
// Lookups ignore case. Registering a taken name replaces the previous entry.
func Register(name string, aliases []string, build Constructor) {
	r := &registration{name: name, aliases: aliases, build: build}
	registry[strings.ToLower(name)] = r
	for _, a := range aliases {
		registry[strings.ToLower(a)] = r
	}
}

func lookup(name string) (*registration, bool) {
	r, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	return r, ok
}

// Canonical resolves name or an alias to the canonical semantic name.
func Canonical(name string) (string, bool) {
	r, ok := lookup(name)
	if !ok {
		return "", false
	}
	return r.name, true
}

// New builds the semantic registered under name.
func New(name string, o1, o2 *owl.Ontology, opts Options) (Semantic, error) {
	r, ok := lookup(name)
	if !ok {
		return nil, &unknownError{name: name}
	}
	return r.build(o1, o2, opts), nil
}

// Available lists the canonical names of all registered semantics.
func Available() []string {
	seen := make(map[string]struct{})
	var names []string
	for _, r := range registry {
		if _, ok := seen[r.name]; ok {
			continue
		}
		seen[r.name] = struct{}{}
		names = append(names, r.name)
	}
	sort.Strings(names)
	return names
}

// Aliases returns the short names registered for a canonical name.
func Aliases(name string) []string {
	r, ok := lookup(name)
	if !ok {
		return nil
	}
	out := make([]string, len(r.aliases))
	copy(out, r.aliases)
	return out
}
