// Package owl holds the ontology model used by the evaluator: the EL-oriented
// subset of OWL 2 class expressions and axioms, an ordered axiom store and a
// reader/writer for OWL 2 Functional-Style Syntax.
package owl

import (
	"fmt"
	"strings"
)

const (
	OWLNamespace  = "http://www.w3.org/2002/07/owl#"
	RDFNamespace  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFSNamespace = "http://www.w3.org/2000/01/rdf-schema#"
	XSDNamespace  = "http://www.w3.org/2001/XMLSchema#"
	XMLNamespace  = "http://www.w3.org/XML/1998/namespace"

	ThingIRI   = OWLNamespace + "Thing"
	NothingIRI = OWLNamespace + "Nothing"
	LiteralIRI = RDFSNamespace + "Literal"

	// NominalPrefix names the substitute classes introduced when nominals are
	// transcribed away.
	NominalPrefix = "http://thesis.dfleischhacker.de/nominal"
)

type EntityKind int

const (
	KindClass EntityKind = iota
	KindObjectProperty
	KindDataProperty
	KindIndividual
)

func (k EntityKind) String() string {
	switch k {
	case KindClass:
		return "Class"
	case KindObjectProperty:
		return "ObjectProperty"
	case KindDataProperty:
		return "DataProperty"
	case KindIndividual:
		return "NamedIndividual"
	}
	return fmt.Sprintf("EntityKind(%d)", int(k))
}

// Entity is a named ontology element together with the role it plays.
type Entity struct {
	Kind EntityKind
	IRI  string
}

func (e Entity) String() string {
	return fmt.Sprintf("%s(%s)", e.Kind, formatIRI(e.IRI))
}

// IsBuiltin reports whether iri belongs to one of the reserved W3C vocabularies.
func IsBuiltin(iri string) bool {
	return strings.HasPrefix(iri, OWLNamespace) ||
		strings.HasPrefix(iri, RDFNamespace) ||
		strings.HasPrefix(iri, RDFSNamespace) ||
		strings.HasPrefix(iri, XSDNamespace)
}

// RenameFunc maps an entity IRI to a new one.
type RenameFunc func(iri string) string

func formatIRI(iri string) string {
	if strings.HasPrefix(iri, "_:") {
		return iri
	}
	return "<" + iri + ">"
}

func formatIRIs(iris []string) string {
	parts := make([]string, len(iris))
	for i, iri := range iris {
		parts[i] = formatIRI(iri)
	}
	return strings.Join(parts, " ")
}

func mapAll(iris []string, f RenameFunc) []string {
	out := make([]string, len(iris))
	for i, iri := range iris {
		out[i] = f(iri)
	}
	return out
}
