package alignment

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const (
	AlignmentNamespace = "http://knowledgeweb.semanticweb.org/heterogeneity/alignment"
	rdfNamespace       = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	xsdNamespace       = "http://www.w3.org/2001/XMLSchema#"
	floatDatatype      = xsdNamespace + "float"
)

// FormatError reports an alignment document that does not follow the
// Alignment format.
type FormatError struct {
	Msg string
}

func (e *FormatError) Error() string { return "invalid alignment document: " + e.Msg }

type xmlDocument struct {
	Alignments []xmlAlignment `xml:"Alignment"`
}

type xmlAlignment struct {
	Level []string   `xml:"level"`
	Type  []string   `xml:"type"`
	Onto1 []xmlOnto  `xml:"onto1"`
	Onto2 []xmlOnto  `xml:"onto2"`
	Maps  []xmlCells `xml:"map"`
}

type xmlOnto struct {
	Text     string `xml:",chardata"`
	Ontology *struct {
		About string `xml:"about,attr"`
	} `xml:"Ontology"`
}

func (o xmlOnto) iri() string {
	if text := strings.TrimSpace(o.Text); text != "" {
		return text
	}
	if o.Ontology != nil {
		return o.Ontology.About
	}
	return ""
}

type xmlCells struct {
	Cells []xmlCell `xml:"Cell"`
}

type xmlCell struct {
	Entity1  []xmlResource `xml:"entity1"`
	Entity2  []xmlResource `xml:"entity2"`
	Relation []string      `xml:"relation"`
	Measure  []string      `xml:"measure"`
}

type xmlResource struct {
	Resource string `xml:"resource,attr"`
}

// Decode reads an Alignment-format document. Cells whose measure is below
// threshold are dropped.
func Decode(r io.Reader, threshold float64) (*Alignment, error) {
	var doc xmlDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode alignment XML: %w", err)
	}
	if len(doc.Alignments) != 1 {
		return nil, &FormatError{Msg: "there must be exactly one Alignment element"}
	}
	src := doc.Alignments[0]
	if len(src.Level) != 1 {
		return nil, &FormatError{Msg: "there must be exactly one level element"}
	}
	if len(src.Type) != 1 {
		return nil, &FormatError{Msg: "there must be exactly one type element"}
	}

	a := New("", "")
	a.Level = strings.TrimSpace(src.Level[0])
	a.Type = strings.TrimSpace(src.Type[0])
	// onto1/onto2 are optional in the wild
	if len(src.Onto1) == 1 {
		a.Onto1 = src.Onto1[0].iri()
	}
	if len(src.Onto2) == 1 {
		a.Onto2 = src.Onto2[0].iri()
	}

	n := 0
	for _, m := range src.Maps {
		for _, cell := range m.Cells {
			n++
			c, err := decodeCell(cell)
			if err != nil {
				return nil, &FormatError{Msg: fmt.Sprintf("invalid mapping definition in cell %d: %v", n, err)}
			}
			if c.Measure < threshold {
				continue
			}
			a.Add(c)
		}
	}
	return a, nil
}

func decodeCell(cell xmlCell) (Correspondence, error) {
	if len(cell.Measure) != 1 {
		return Correspondence{}, fmt.Errorf("expected one measure, got %d", len(cell.Measure))
	}
	measure, err := strconv.ParseFloat(strings.TrimSpace(cell.Measure[0]), 64)
	if err != nil {
		return Correspondence{}, fmt.Errorf("measure: %w", err)
	}
	if len(cell.Entity1) != 1 || len(cell.Entity2) != 1 {
		return Correspondence{}, fmt.Errorf("expected one entity1 and one entity2")
	}
	if len(cell.Relation) != 1 {
		return Correspondence{}, fmt.Errorf("expected one relation, got %d", len(cell.Relation))
	}
	return Correspondence{
		Entity1:  cell.Entity1[0].Resource,
		Entity2:  cell.Entity2[0].Resource,
		Relation: Relation(strings.TrimSpace(cell.Relation[0])),
		Measure:  measure,
	}, nil
}

// LoadFile reads the alignment stored at path.
func LoadFile(path string, threshold float64) (*Alignment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open alignment '%s': %w", path, err)
	}
	defer f.Close()

	a, err := Decode(f, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to load alignment '%s': %w", path, err)
	}
	return a, nil
}

type outDocument struct {
	XMLName   xml.Name     `xml:"rdf:RDF"`
	Xmlns     string       `xml:"xmlns,attr"`
	XmlnsRDF  string       `xml:"xmlns:rdf,attr"`
	XmlnsXSD  string       `xml:"xmlns:xsd,attr"`
	Alignment outAlignment `xml:"Alignment"`
}

type outAlignment struct {
	XML   string    `xml:"xml"`
	Level string    `xml:"level"`
	Type  string    `xml:"type"`
	Onto1 string    `xml:"onto1"`
	Onto2 string    `xml:"onto2"`
	Maps  []outCell `xml:"map>Cell"`
}

type outCell struct {
	Entity1  outResource `xml:"entity1"`
	Entity2  outResource `xml:"entity2"`
	Relation string      `xml:"relation"`
	Measure  outMeasure  `xml:"measure"`
}

type outResource struct {
	Resource string `xml:"rdf:resource,attr"`
}

type outMeasure struct {
	Datatype string `xml:"rdf:datatype,attr"`
	Value    string `xml:",chardata"`
}

// WriteXML renders a in the Alignment format.
func (a *Alignment) WriteXML(w io.Writer) error {
	doc := outDocument{
		Xmlns:    AlignmentNamespace + "#",
		XmlnsRDF: rdfNamespace,
		XmlnsXSD: xsdNamespace,
		Alignment: outAlignment{
			XML:   "yes",
			Level: a.Level,
			Type:  a.Type,
			Onto1: a.Onto1,
			Onto2: a.Onto2,
		},
	}
	for _, c := range a.cells {
		doc.Alignment.Maps = append(doc.Alignment.Maps, outCell{
			Entity1:  outResource{Resource: c.Entity1},
			Entity2:  outResource{Resource: c.Entity2},
			Relation: string(c.Relation),
			Measure: outMeasure{
				Datatype: floatDatatype,
				Value:    strconv.FormatFloat(c.Measure, 'f', -1, 64),
			},
		})
	}

	if _, err := io.WriteString(w, xml.Header+`<!DOCTYPE rdf:RDF SYSTEM "align.dtd">`+"\n"); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode alignment: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// SaveFile writes a to path.
func (a *Alignment) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create alignment file '%s': %w", path, err)
	}
	if err := a.WriteXML(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close alignment file '%s': %w", path, err)
	}
	return nil
}
