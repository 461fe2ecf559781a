package batch

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"sync"

	"github.com/dfleischhacker/spart/internal/evaluation"
)

const ResultSetNamespace = "http://uni.dfleischhacker.de/thesis/resultset#"

// Result is the outcome of one testcase for one subject. Err is set for
// failed testcases, in which case the scores are meaningless.
type Result struct {
	Testcase                string
	Precision               float64
	Recall                  float64
	EvaluationAlignmentSize int
	ReferenceAlignmentSize  int
	EvaluationClosureSize   int
	ReferenceClosureSize    int
	IntersectionSize        int
	Err                     string
}

func (r Result) IsError() bool { return r.Err != "" }

// ResultOf extracts the aggregated numbers from an evaluation.
func ResultOf(testcase string, res *evaluation.CalculationResult) Result {
	return Result{
		Testcase:                testcase,
		Precision:               res.Precision,
		Recall:                  res.Recall,
		EvaluationAlignmentSize: res.OriginalAlignment.Len(),
		ReferenceAlignmentSize:  res.OriginalReference.Len(),
		EvaluationClosureSize:   res.EvaluationClosure.Len(),
		ReferenceClosureSize:    res.ReferenceClosure.Len(),
		IntersectionSize:        res.Intersection.Len(),
	}
}

// Aggregator collects results per subject (usually a matcher) and testcase
// (usually an ontology pair). It is safe for concurrent use.
type Aggregator struct {
	basedir  string
	semantic string

	mu        sync.Mutex
	results   map[string]map[string]Result
	testcases map[string]struct{}
}

func NewAggregator(basedir, semantic string) *Aggregator {
	return &Aggregator{
		basedir:   basedir,
		semantic:  semantic,
		results:   make(map[string]map[string]Result),
		testcases: make(map[string]struct{}),
	}
}

func (a *Aggregator) AddResult(subject string, r Result) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.testcases[r.Testcase] = struct{}{}
	if a.results[subject] == nil {
		a.results[subject] = make(map[string]Result)
	}
	a.results[subject][r.Testcase] = r
}

func (a *Aggregator) AddError(subject, testcase, msg string) {
	a.AddResult(subject, Result{Testcase: testcase, Err: msg})
}

func (a *Aggregator) Result(subject, testcase string) (Result, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	r, ok := a.results[subject][testcase]
	return r, ok
}

func (a *Aggregator) Subjects() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return sortedKeys(a.results)
}

func (a *Aggregator) Testcases() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return sortedKeys(a.testcases)
}

// Average returns the mean precision and recall of a subject's successful
// testcases. NaN scores count neither in the sum nor in the number of
// values; a mean over no values is NaN.
func (a *Aggregator) Average(subject string) (precision, recall float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.average(subject)
}

func (a *Aggregator) average(subject string) (float64, float64) {
	var pSum, rSum float64
	var pN, rN int
	for _, r := range a.results[subject] {
		if r.IsError() {
			continue
		}
		if !math.IsNaN(r.Precision) {
			pSum += r.Precision
			pN++
		}
		if !math.IsNaN(r.Recall) {
			rSum += r.Recall
			rN++
		}
	}
	return mean(pSum, pN), mean(rSum, rN)
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

func formatScore(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type xmlResultSet struct {
	XMLName  xml.Name     `xml:"resultset"`
	Xmlns    string       `xml:"xmlns,attr"`
	XmlnsXSD string       `xml:"xmlns:xsd,attr"`
	Metadata xmlMetadata  `xml:"metadata"`
	Subjects []xmlSubject `xml:"subject"`
}

type xmlMetadata struct {
	Basedir  string `xml:"basedir"`
	Semantic string `xml:"semantic"`
}

type xmlSubject struct {
	Name      string        `xml:"name,attr"`
	Testcases []xmlTestcase `xml:"testcase"`
	Average   xmlAverage    `xml:"average"`
}

type xmlTestcase struct {
	Name                    string `xml:"name,attr"`
	Error                   string `xml:"error,omitempty"`
	Precision               string `xml:"precision,omitempty"`
	Recall                  string `xml:"recall,omitempty"`
	EvaluationAlignmentSize *int   `xml:"evaluationAlignmentSize,omitempty"`
	EvaluationClosureSize   *int   `xml:"evaluationClosureSize,omitempty"`
	ReferenceAlignmentSize  *int   `xml:"referenceAlignmentSize,omitempty"`
	ReferenceClosureSize    *int   `xml:"referenceClosureSize,omitempty"`
	IntersectionSize        *int   `xml:"intersectionSize,omitempty"`
}

type xmlAverage struct {
	Precision string `xml:"precision"`
	Recall    string `xml:"recall"`
}

func (a *Aggregator) document() xmlResultSet {
	a.mu.Lock()
	defer a.mu.Unlock()

	doc := xmlResultSet{
		Xmlns:    ResultSetNamespace,
		XmlnsXSD: "http://www.w3.org/2001/XMLSchema#",
		Metadata: xmlMetadata{Basedir: a.basedir, Semantic: a.semantic},
	}
	testcases := sortedKeys(a.testcases)
	for _, subject := range sortedKeys(a.results) {
		xs := xmlSubject{Name: subject}
		for _, tc := range testcases {
			r, ok := a.results[subject][tc]
			switch {
			case !ok:
				xs.Testcases = append(xs.Testcases, xmlTestcase{Name: tc, Error: "unspecified error"})
			case r.IsError():
				xs.Testcases = append(xs.Testcases, xmlTestcase{Name: tc, Error: r.Err})
			default:
				xs.Testcases = append(xs.Testcases, xmlTestcase{
					Name:                    tc,
					Precision:               formatScore(r.Precision),
					Recall:                  formatScore(r.Recall),
					EvaluationAlignmentSize: intPtr(r.EvaluationAlignmentSize),
					EvaluationClosureSize:   intPtr(r.EvaluationClosureSize),
					ReferenceAlignmentSize:  intPtr(r.ReferenceAlignmentSize),
					ReferenceClosureSize:    intPtr(r.ReferenceClosureSize),
					IntersectionSize:        intPtr(r.IntersectionSize),
				})
			}
		}
		p, rc := a.average(subject)
		xs.Average = xmlAverage{Precision: formatScore(p), Recall: formatScore(rc)}
		doc.Subjects = append(doc.Subjects, xs)
	}
	return doc
}

// WriteXML renders the result set document, subjects and testcases sorted
// by name.
func (a *Aggregator) WriteXML(w io.Writer) error {
	header := xml.Header + `<?xml-stylesheet type="text/xsl" href="results.xsl"?>` + "\n"
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "    ")
	if err := enc.Encode(a.document()); err != nil {
		return fmt.Errorf("failed to encode result set: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func (a *Aggregator) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create results file '%s': %w", path, err)
	}
	if err := a.WriteXML(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func intPtr(v int) *int { return &v }

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
