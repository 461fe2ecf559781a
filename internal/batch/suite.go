package batch

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Suite is a manifest listing evaluation cases explicitly:
//
//	semantic: natural
//	threshold: 0.2
//	cases:
//	  - subject: aml
//	    testcase: cmt-ekaw
//	    ontology1: cmt.ofn
//	    ontology2: ekaw.ofn
//	    alignment: aml-cmt-ekaw.rdf
//	    reference: cmt-ekaw.rdf
//
// Relative paths are resolved against the manifest's directory. The
// unquoted alias null names the Null semantic rather than an absent value.
type Suite struct {
	Semantic  string      `yaml:"semantic"`
	Threshold *float64    `yaml:"threshold,omitempty"`
	Cases     []SuiteCase `yaml:"cases"`

	dir string
}

type SuiteCase struct {
	Subject   string   `yaml:"subject"`
	Testcase  string   `yaml:"testcase"`
	Ontology1 string   `yaml:"ontology1"`
	Ontology2 string   `yaml:"ontology2"`
	Alignment string   `yaml:"alignment"`
	Reference string   `yaml:"reference"`
	Threshold *float64 `yaml:"threshold,omitempty"`
	Skip      string   `yaml:"skip,omitempty"`
}

func (s *Suite) UnmarshalYAML(value *yaml.Node) error {
	type plain Suite
	if err := value.Decode((*plain)(s)); err != nil {
		return err
	}
	if value.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		k, v := value.Content[i], value.Content[i+1]
		if k.Value == "semantic" && v.Kind == yaml.ScalarNode && v.Tag == "!!null" && v.Value != "" && v.Value != "~" {
			s.Semantic = v.Value
		}
	}
	return nil
}

func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite '%s': %w", path, err)
	}
	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse suite '%s': %w", path, err)
	}
	s.dir = filepath.Dir(path)

	for i, c := range s.Cases {
		if c.Ontology1 == "" || c.Ontology2 == "" || c.Reference == "" {
			return nil, fmt.Errorf("suite '%s': case %d needs ontology1, ontology2 and reference", path, i+1)
		}
		if c.Alignment == "" && c.Skip == "" {
			return nil, fmt.Errorf("suite '%s': case %d has no alignment", path, i+1)
		}
	}
	return &s, nil
}

// Dir is the directory relative case paths are resolved against.
func (s *Suite) Dir() string { return s.dir }

func (s *Suite) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.dir, p)
}

// BatchCases converts the manifest entries. Subjects default to the
// alignment's file stem and testcases to the reference's.
func (s *Suite) BatchCases() []Case {
	out := make([]Case, 0, len(s.Cases))
	for _, c := range s.Cases {
		bc := Case{
			Subject:   c.Subject,
			Testcase:  c.Testcase,
			Ontology1: s.resolve(c.Ontology1),
			Ontology2: s.resolve(c.Ontology2),
			Alignment: s.resolve(c.Alignment),
			Reference: s.resolve(c.Reference),
			Threshold: s.Threshold,
			Skip:      c.Skip,
		}
		if c.Threshold != nil {
			bc.Threshold = c.Threshold
		}
		if bc.Subject == "" {
			bc.Subject = stem(c.Alignment)
		}
		if bc.Testcase == "" {
			bc.Testcase = stem(c.Reference)
		}
		out = append(out, bc)
	}
	return out
}
