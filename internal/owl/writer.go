package owl

import (
	"bufio"
	"fmt"
	"io"
)

// Write renders o as an OWL 2 Functional-Style Syntax document using full IRIs.
func Write(w io.Writer, o *Ontology) error {
	bw := bufio.NewWriter(w)
	if o.IRI != "" {
		fmt.Fprintf(bw, "Ontology(%s\n", formatIRI(o.IRI))
	} else {
		fmt.Fprintln(bw, "Ontology(")
	}
	for _, a := range o.axioms {
		fmt.Fprintf(bw, "  %s\n", a)
	}
	fmt.Fprintln(bw, ")")
	return bw.Flush()
}
