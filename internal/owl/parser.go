package owl

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var errUnsupported = errors.New("unsupported construct")

var defaultPrefixes = map[string]string{
	"owl:":  OWLNamespace,
	"rdf:":  RDFNamespace,
	"rdfs:": RDFSNamespace,
	"xsd:":  XSDNamespace,
	"xml:":  XMLNamespace,
}

// node is a parenthesised functional-syntax term or a single atom.
type node struct {
	tok  token
	args []*node
	list bool
}

func (n *node) head() string {
	if !n.list {
		return ""
	}
	return n.tok.text
}

type parser struct {
	lex      *lexer
	prefixes map[string]string
}

// Parse reads an ontology document in OWL 2 Functional-Style Syntax.
// Constructs outside the supported model are kept as Opaque axioms;
// annotations and imports are skipped.
func Parse(r io.Reader) (*Ontology, error) {
	p := &parser{lex: newLexer(r), prefixes: make(map[string]string)}
	for k, v := range defaultPrefixes {
		p.prefixes[k] = v
	}

	var onto *Ontology
	for {
		t, err := p.lex.Peek()
		if err != nil {
			return nil, err
		}
		if t.kind == tokEOF {
			break
		}
		n, err := p.node()
		if err != nil {
			return nil, err
		}
		switch n.head() {
		case "Prefix":
			if err := p.prefix(n); err != nil {
				return nil, err
			}
		case "Ontology":
			if onto != nil {
				return nil, p.errorf(n, "more than one Ontology block")
			}
			if onto, err = p.ontology(n); err != nil {
				return nil, err
			}
		default:
			return nil, p.errorf(n, "expected Prefix or Ontology, got %q", n.tok.text)
		}
	}
	if onto == nil {
		return nil, &SyntaxError{Line: 1, Col: 1, Msg: "document contains no Ontology block"}
	}
	return onto, nil
}

// LoadFile parses the functional-syntax ontology stored at path.
func LoadFile(path string) (*Ontology, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ontology '%s': %w", path, err)
	}
	defer f.Close()

	o, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ontology '%s': %w", path, err)
	}
	return o, nil
}

func (p *parser) errorf(n *node, format string, args ...interface{}) error {
	return &SyntaxError{Line: n.tok.line, Col: n.tok.col, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) node() (*node, error) {
	t, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	switch t.kind {
	case tokEOF:
		return nil, p.lex.errorf("unexpected end of input")
	case tokLParen, tokRParen:
		return nil, &SyntaxError{Line: t.line, Col: t.col, Msg: fmt.Sprintf("unexpected %q", t.text)}
	}

	n := &node{tok: t}
	if t.kind != tokName {
		return n, nil
	}
	next, err := p.lex.Peek()
	if err != nil {
		return nil, err
	}
	if next.kind != tokLParen {
		return n, nil
	}
	_, _ = p.lex.Next()
	n.list = true
	for {
		next, err := p.lex.Peek()
		if err != nil {
			return nil, err
		}
		if next.kind == tokRParen {
			_, _ = p.lex.Next()
			return n, nil
		}
		child, err := p.node()
		if err != nil {
			return nil, err
		}
		n.args = append(n.args, child)
	}
}

func (p *parser) prefix(n *node) error {
	if len(n.args) != 3 || n.args[1].tok.kind != tokEquals || n.args[2].tok.kind != tokIRI {
		return p.errorf(n, "malformed Prefix declaration")
	}
	name := n.args[0].tok.text
	if !strings.HasSuffix(name, ":") {
		return p.errorf(n, "prefix name %q must end with ':'", name)
	}
	p.prefixes[name] = n.args[2].tok.text
	return nil
}

func (p *parser) ontology(n *node) (*Ontology, error) {
	args := n.args
	iri := ""
	if len(args) > 0 && !args[0].list {
		var err error
		if iri, err = p.iri(args[0]); err != nil {
			return nil, err
		}
		args = args[1:]
		// version IRI
		if len(args) > 0 && !args[0].list {
			args = args[1:]
		}
	}

	o := NewOntology(iri)
	for _, a := range args {
		if !a.list {
			return nil, p.errorf(a, "unexpected %q in ontology body", a.tok.text)
		}
		switch a.head() {
		case "Import", "Annotation":
			continue
		}
		axioms, err := p.axiom(a)
		if errors.Is(err, errUnsupported) {
			o.Add(Opaque{Text: p.render(a)})
			continue
		}
		if err != nil {
			return nil, err
		}
		o.Add(axioms...)
	}
	return o, nil
}

func (p *parser) iri(n *node) (string, error) {
	if n.list {
		return "", errUnsupported
	}
	switch n.tok.kind {
	case tokIRI:
		return n.tok.text, nil
	case tokName:
		text := n.tok.text
		if strings.HasPrefix(text, "_:") {
			return text, nil
		}
		idx := strings.Index(text, ":")
		if idx < 0 {
			return "", p.errorf(n, "expected IRI, got %q", text)
		}
		ns, ok := p.prefixes[text[:idx+1]]
		if !ok {
			return "", p.errorf(n, "undeclared prefix %q", text[:idx+1])
		}
		return ns + text[idx+1:], nil
	}
	return "", p.errorf(n, "expected IRI, got %s", n.tok.kind)
}

func (p *parser) iris(nodes []*node) ([]string, error) {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		iri, err := p.iri(n)
		if err != nil {
			return nil, err
		}
		out[i] = iri
	}
	return out, nil
}

func stripAnnotations(args []*node) []*node {
	for len(args) > 0 && args[0].head() == "Annotation" {
		args = args[1:]
	}
	return args
}

func (p *parser) axiom(n *node) ([]Axiom, error) {
	args := stripAnnotations(n.args)
	arity := func(min int, exact bool) error {
		if len(args) < min || (exact && len(args) != min) {
			return p.errorf(n, "%s: unexpected number of arguments (%d)", n.head(), len(args))
		}
		return nil
	}

	switch n.head() {
	case "Declaration":
		if err := arity(1, true); err != nil {
			return nil, err
		}
		return p.declaration(args[0])

	case "SubClassOf":
		if err := arity(2, true); err != nil {
			return nil, err
		}
		sub, err := p.classExpr(args[0])
		if err != nil {
			return nil, err
		}
		super, err := p.classExpr(args[1])
		if err != nil {
			return nil, err
		}
		return []Axiom{SubClassOf{Sub: sub, Super: super}}, nil

	case "EquivalentClasses", "DisjointClasses":
		if err := arity(2, false); err != nil {
			return nil, err
		}
		classes, err := p.classExprs(args)
		if err != nil {
			return nil, err
		}
		if n.head() == "EquivalentClasses" {
			return []Axiom{EquivalentClasses{Classes: classes}}, nil
		}
		return []Axiom{DisjointClasses{Classes: classes}}, nil

	case "SubObjectPropertyOf":
		if err := arity(2, true); err != nil {
			return nil, err
		}
		super, err := p.iri(args[1])
		if err != nil {
			return nil, err
		}
		if args[0].head() == "ObjectPropertyChain" {
			chain, err := p.iris(args[0].args)
			if err != nil {
				return nil, err
			}
			return []Axiom{SubObjectPropertyChainOf{Chain: chain, Super: super}}, nil
		}
		sub, err := p.iri(args[0])
		if err != nil {
			return nil, err
		}
		return []Axiom{SubObjectPropertyOf{Sub: sub, Super: super}}, nil

	case "EquivalentObjectProperties", "EquivalentDataProperties":
		if err := arity(2, false); err != nil {
			return nil, err
		}
		props, err := p.iris(args)
		if err != nil {
			return nil, err
		}
		if n.head() == "EquivalentObjectProperties" {
			return []Axiom{EquivalentObjectProperties{Properties: props}}, nil
		}
		return []Axiom{EquivalentDataProperties{Properties: props}}, nil

	case "SubDataPropertyOf":
		if err := arity(2, true); err != nil {
			return nil, err
		}
		props, err := p.iris(args)
		if err != nil {
			return nil, err
		}
		return []Axiom{SubDataPropertyOf{Sub: props[0], Super: props[1]}}, nil

	case "TransitiveObjectProperty":
		if err := arity(1, true); err != nil {
			return nil, err
		}
		prop, err := p.iri(args[0])
		if err != nil {
			return nil, err
		}
		return []Axiom{TransitiveObjectProperty{Property: prop}}, nil

	case "ObjectPropertyDomain", "ObjectPropertyRange", "DataPropertyDomain":
		if err := arity(2, true); err != nil {
			return nil, err
		}
		prop, err := p.iri(args[0])
		if err != nil {
			return nil, err
		}
		ce, err := p.classExpr(args[1])
		if err != nil {
			return nil, err
		}
		switch n.head() {
		case "ObjectPropertyDomain":
			return []Axiom{ObjectPropertyDomain{Property: prop, Domain: ce}}, nil
		case "ObjectPropertyRange":
			return []Axiom{ObjectPropertyRange{Property: prop, Range: ce}}, nil
		}
		return []Axiom{DataPropertyDomain{Property: prop, Domain: ce}}, nil

	case "DataPropertyRange":
		if err := arity(2, true); err != nil {
			return nil, err
		}
		props, err := p.iris(args)
		if err != nil {
			return nil, err
		}
		return []Axiom{DataPropertyRange{Property: props[0], Range: props[1]}}, nil

	case "ClassAssertion":
		if err := arity(2, true); err != nil {
			return nil, err
		}
		ce, err := p.classExpr(args[0])
		if err != nil {
			return nil, err
		}
		ind, err := p.iri(args[1])
		if err != nil {
			return nil, err
		}
		return []Axiom{ClassAssertion{Class: ce, Individual: ind}}, nil

	case "ObjectPropertyAssertion":
		if err := arity(3, true); err != nil {
			return nil, err
		}
		iris, err := p.iris(args)
		if err != nil {
			return nil, err
		}
		return []Axiom{ObjectPropertyAssertion{Property: iris[0], Subject: iris[1], Object: iris[2]}}, nil

	case "DataPropertyAssertion":
		if err := arity(3, true); err != nil {
			return nil, err
		}
		iris, err := p.iris(args[:2])
		if err != nil {
			return nil, err
		}
		if args[2].tok.kind != tokLiteral {
			return nil, p.errorf(args[2], "expected literal")
		}
		return []Axiom{DataPropertyAssertion{Property: iris[0], Subject: iris[1], Value: args[2].tok.text}}, nil

	case "SameIndividual", "DifferentIndividuals":
		if err := arity(2, false); err != nil {
			return nil, err
		}
		inds, err := p.iris(args)
		if err != nil {
			return nil, err
		}
		if n.head() == "SameIndividual" {
			return []Axiom{SameIndividual{Individuals: inds}}, nil
		}
		return []Axiom{DifferentIndividuals{Individuals: inds}}, nil

	case "AnnotationAssertion", "SubAnnotationPropertyOf", "AnnotationPropertyDomain", "AnnotationPropertyRange":
		return nil, nil
	}
	return nil, errUnsupported
}

func (p *parser) declaration(n *node) ([]Axiom, error) {
	if !n.list || len(n.args) != 1 {
		return nil, p.errorf(n, "malformed Declaration")
	}
	var kind EntityKind
	switch n.head() {
	case "Class":
		kind = KindClass
	case "ObjectProperty":
		kind = KindObjectProperty
	case "DataProperty":
		kind = KindDataProperty
	case "NamedIndividual":
		kind = KindIndividual
	case "Datatype", "AnnotationProperty":
		return nil, nil
	default:
		return nil, p.errorf(n, "unknown entity type %q", n.head())
	}
	iri, err := p.iri(n.args[0])
	if err != nil {
		return nil, err
	}
	return []Axiom{Declaration{Entity: Entity{Kind: kind, IRI: iri}}}, nil
}

func (p *parser) classExprs(nodes []*node) ([]ClassExpression, error) {
	out := make([]ClassExpression, len(nodes))
	for i, n := range nodes {
		ce, err := p.classExpr(n)
		if err != nil {
			return nil, err
		}
		out[i] = ce
	}
	return out, nil
}

func (p *parser) classExpr(n *node) (ClassExpression, error) {
	if !n.list {
		iri, err := p.iri(n)
		if err != nil {
			return nil, err
		}
		return Class{IRI: iri}, nil
	}

	switch n.head() {
	case "ObjectIntersectionOf":
		if len(n.args) < 2 {
			return nil, p.errorf(n, "ObjectIntersectionOf needs at least two operands")
		}
		ops, err := p.classExprs(n.args)
		if err != nil {
			return nil, err
		}
		return ObjectIntersectionOf{Operands: ops}, nil

	case "ObjectSomeValuesFrom":
		if len(n.args) != 2 {
			return nil, p.errorf(n, "ObjectSomeValuesFrom takes two arguments")
		}
		prop, err := p.iri(n.args[0])
		if err != nil {
			return nil, err
		}
		filler, err := p.classExpr(n.args[1])
		if err != nil {
			return nil, err
		}
		return ObjectSomeValuesFrom{Property: prop, Filler: filler}, nil

	case "DataSomeValuesFrom":
		if len(n.args) != 2 {
			return nil, errUnsupported
		}
		iris, err := p.iris(n.args)
		if err != nil {
			return nil, err
		}
		return DataSomeValuesFrom{Property: iris[0], Range: iris[1]}, nil

	case "ObjectOneOf":
		inds, err := p.iris(n.args)
		if err != nil {
			return nil, err
		}
		return ObjectOneOf{Individuals: inds}, nil

	case "ObjectHasValue":
		if len(n.args) != 2 {
			return nil, p.errorf(n, "ObjectHasValue takes two arguments")
		}
		iris, err := p.iris(n.args)
		if err != nil {
			return nil, err
		}
		return ObjectHasValue{Property: iris[0], Individual: iris[1]}, nil
	}
	return nil, errUnsupported
}

// render prints n back in functional syntax with all abbreviations expanded.
func (p *parser) render(n *node) string {
	if !n.list {
		switch n.tok.kind {
		case tokIRI:
			return formatIRI(n.tok.text)
		case tokName:
			if iri, err := p.iri(n); err == nil {
				return formatIRI(iri)
			}
		}
		return n.tok.text
	}
	parts := make([]string, len(n.args))
	for i, a := range n.args {
		parts[i] = p.render(a)
	}
	return n.tok.text + "(" + strings.Join(parts, " ") + ")"
}
