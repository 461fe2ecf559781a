package batch

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfleischhacker/spart/internal/alignment"
	"github.com/dfleischhacker/spart/internal/evaluation"
	"github.com/dfleischhacker/spart/internal/semantic"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func touch(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "evaluation", "testdata", name))
	require.NoError(t, err)
	return data
}

func TestAggregatorAverageSkipsNaN(t *testing.T) {
	agg := NewAggregator("/data", semantic.NaturalName)
	agg.AddResult("aml", Result{Testcase: "cmt-ekaw", Precision: 0.5, Recall: 1})
	agg.AddResult("aml", Result{Testcase: "cmt-iasted", Precision: math.NaN(), Recall: 0.5})
	agg.AddError("lily", "cmt-ekaw", "Blacklisted")

	p, r := agg.Average("aml")
	assert.Equal(t, 0.5, p)
	assert.Equal(t, 0.75, r)

	p, r = agg.Average("lily")
	assert.True(t, math.IsNaN(p))
	assert.True(t, math.IsNaN(r))

	assert.Equal(t, []string{"aml", "lily"}, agg.Subjects())
	assert.Equal(t, []string{"cmt-ekaw", "cmt-iasted"}, agg.Testcases())

	res, ok := agg.Result("lily", "cmt-ekaw")
	require.True(t, ok)
	assert.True(t, res.IsError())
	_, ok = agg.Result("lily", "cmt-iasted")
	assert.False(t, ok)
}

func TestAggregatorWriteXML(t *testing.T) {
	agg := NewAggregator("/data", semantic.NullName)
	agg.AddResult("aml", Result{
		Testcase: "cmt-ekaw", Precision: 0.25, Recall: math.NaN(),
		EvaluationAlignmentSize: 4, ReferenceAlignmentSize: 0,
		EvaluationClosureSize: 4, IntersectionSize: 1,
	})
	agg.AddError("lily", "cmt-iasted", "Blacklisted")

	var buf bytes.Buffer
	require.NoError(t, agg.WriteXML(&buf))
	out := buf.String()

	assert.Contains(t, out, `<?xml-stylesheet type="text/xsl" href="results.xsl"?>`)
	assert.Contains(t, out, `xmlns="`+ResultSetNamespace+`"`)
	assert.Contains(t, out, "<semantic>Null Semantic</semantic>")
	assert.Contains(t, out, "<recall>NaN</recall>")
	assert.Contains(t, out, "<referenceAlignmentSize>0</referenceAlignmentSize>")

	var doc struct {
		Subjects []struct {
			Name      string `xml:"name,attr"`
			Testcases []struct {
				Name      string `xml:"name,attr"`
				Error     string `xml:"error"`
				Precision string `xml:"precision"`
			} `xml:"testcase"`
			Average struct {
				Precision string `xml:"precision"`
				Recall    string `xml:"recall"`
			} `xml:"average"`
		} `xml:"subject"`
	}
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Subjects, 2)

	aml := doc.Subjects[0]
	assert.Equal(t, "aml", aml.Name)
	require.Len(t, aml.Testcases, 2)
	assert.Equal(t, "0.25", aml.Testcases[0].Precision)
	assert.Equal(t, "unspecified error", aml.Testcases[1].Error)
	assert.Equal(t, "0.25", aml.Average.Precision)
	assert.Equal(t, "NaN", aml.Average.Recall)

	lily := doc.Subjects[1]
	assert.Equal(t, "unspecified error", lily.Testcases[0].Error)
	assert.Equal(t, "Blacklisted", lily.Testcases[1].Error)
	assert.Equal(t, "NaN", lily.Average.Precision)
}

func TestDiscoverDirectory(t *testing.T) {
	base := t.TempDir()
	for _, f := range []string{"onto1.ofn", "onto2.ofn", "refalign.rdf", "matcherB.rdf", "matcherA.rdf", "notes.txt"} {
		touch(t, filepath.Join(base, "case1", f), []byte("x"))
	}
	touch(t, filepath.Join(base, "case2", "onto1.ofn"), []byte("x"))
	touch(t, filepath.Join(base, "case3", "onto1.rdf"), []byte("x"))
	touch(t, filepath.Join(base, "case3", "onto2.rdf"), []byte("x"))
	touch(t, filepath.Join(base, "case3", "refalign.rdf"), []byte("x"))
	touch(t, filepath.Join(base, "README"), []byte("x"))

	cases, err := DiscoverDirectory(base, quietLogger())
	require.NoError(t, err)
	require.Len(t, cases, 2)

	assert.Equal(t, "matcherA", cases[0].Subject)
	assert.Equal(t, "matcherB", cases[1].Subject)
	for _, c := range cases {
		assert.Equal(t, "case1", c.Testcase)
		assert.Equal(t, filepath.Join(base, "case1", "onto1.ofn"), c.Ontology1)
		assert.Equal(t, filepath.Join(base, "case1", "refalign.rdf"), c.Reference)
	}

	_, err = DiscoverDirectory(filepath.Join(base, "absent"), quietLogger())
	assert.Error(t, err)
}

func TestDiscoverConference(t *testing.T) {
	base := t.TempDir()
	for _, f := range []string{
		"cmt.ofn", "ekaw.ofn", "iasted.owl",
		"cmt-ekaw.rdf", "cmt-iasted.rdf",
		"aml-cmt-ekaw.rdf", "Lily-cmt-ekaw.rdf", "aml-cmt-iasted.rdf",
		"v2-notes.txt", "bad_name.owl",
	} {
		touch(t, filepath.Join(base, f), []byte("x"))
	}

	cases, err := DiscoverConference(base, ConferenceOptions{
		Threshold: evaluation.Threshold(0.3),
		Blacklist: []string{"lily-cmt-ekaw"},
	}, quietLogger())
	require.NoError(t, err)

	type key struct{ subject, testcase, skip string }
	var got []key
	for _, c := range cases {
		got = append(got, key{c.Subject, c.Testcase, c.Skip})
		require.NotNil(t, c.Threshold)
		assert.Equal(t, 0.3, *c.Threshold)
	}
	assert.Equal(t, []key{
		{"aml", "cmt-ekaw", ""},
		{"lily", "cmt-ekaw", "Blacklisted"},
		{"aml", "cmt-iasted", ""},
	}, got)

	assert.Equal(t, filepath.Join(base, "aml-cmt-ekaw.rdf"), cases[0].Alignment)
	assert.Equal(t, filepath.Join(base, "cmt.ofn"), cases[0].Ontology1)
	assert.Equal(t, filepath.Join(base, "ekaw.ofn"), cases[0].Ontology2)
	assert.Equal(t, filepath.Join(base, "iasted.owl"), cases[2].Ontology2)
}

func TestLoadSuite(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "suite.yaml")
	touch(t, manifest, []byte(`
semantic: pragmatic
threshold: 0.2
cases:
  - ontology1: onto/cmt.ofn
    ontology2: /abs/ekaw.ofn
    alignment: aml-cmt-ekaw.rdf
    reference: cmt-ekaw.rdf
  - subject: lily
    testcase: special
    ontology1: cmt.ofn
    ontology2: ekaw.ofn
    reference: cmt-ekaw.rdf
    threshold: 0.9
    skip: Blacklisted
`))

	s, err := LoadSuite(manifest)
	require.NoError(t, err)
	assert.Equal(t, "pragmatic", s.Semantic)
	assert.Equal(t, dir, s.Dir())

	cases := s.BatchCases()
	require.Len(t, cases, 2)
	assert.Equal(t, Case{
		Subject:   "aml-cmt-ekaw",
		Testcase:  "cmt-ekaw",
		Ontology1: filepath.Join(dir, "onto", "cmt.ofn"),
		Ontology2: "/abs/ekaw.ofn",
		Alignment: filepath.Join(dir, "aml-cmt-ekaw.rdf"),
		Reference: filepath.Join(dir, "cmt-ekaw.rdf"),
		Threshold: evaluation.Threshold(0.2),
	}, cases[0])
	assert.Equal(t, "lily", cases[1].Subject)
	assert.Equal(t, "special", cases[1].Testcase)
	require.NotNil(t, cases[1].Threshold)
	assert.Equal(t, 0.9, *cases[1].Threshold)
	assert.Equal(t, "Blacklisted", cases[1].Skip)

	touch(t, manifest, []byte("cases:\n  - ontology1: a.ofn\n    alignment: x.rdf\n"))
	_, err = LoadSuite(manifest)
	assert.Error(t, err)

	touch(t, manifest, []byte("cases: [unterminated"))
	_, err = LoadSuite(manifest)
	assert.Error(t, err)
}

func TestLoadSuiteSemanticNames(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"semantic: null", "null"},
		{"semantic: NULL", "NULL"},
		{`semantic: "null"`, "null"},
		{"semantic: natural", "natural"},
		{"semantic: ~", ""},
		{"semantic:", ""},
		{"threshold: 0.1", ""},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			manifest := filepath.Join(t.TempDir(), "suite.yaml")
			touch(t, manifest, []byte(tt.line+"\ncases: []\n"))

			s, err := LoadSuite(manifest)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Semantic)
			if tt.want != "" {
				name, ok := semantic.Canonical(s.Semantic)
				assert.True(t, ok)
				if tt.want != "natural" {
					assert.Equal(t, semantic.NullName, name)
				}
			}
		})
	}
}

type mockEvaluator struct {
	mu       sync.Mutex
	requests []evaluation.Request
	fail     map[string]error
}

func (m *mockEvaluator) Evaluate(ctx context.Context, req evaluation.Request) (*evaluation.CalculationResult, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	if err := m.fail[req.Alignment.Path]; err != nil {
		return nil, err
	}
	one := alignment.New("o1", "o2")
	one.Add(alignment.NewCorrespondence("a", "b", alignment.Equivalent))
	return &evaluation.CalculationResult{
		Precision:         1,
		Recall:            0.5,
		OriginalAlignment: one,
		OriginalReference: one,
		EvaluationClosure: one,
		ReferenceClosure:  one,
		Intersection:      one,
	}, nil
}

func TestRunnerRecordsResultsAndErrors(t *testing.T) {
	eval := &mockEvaluator{fail: map[string]error{"bad.rdf": errors.New("boom")}}
	cases := []Case{
		{Subject: "good", Testcase: "t1", Alignment: "good.rdf", Threshold: evaluation.Threshold(0.4)},
		{Subject: "bad", Testcase: "t1", Alignment: "bad.rdf"},
		{Subject: "lily", Testcase: "t1", Skip: "Blacklisted"},
	}

	for _, parallel := range []int{1, 3} {
		eval.requests = nil
		r := NewRunner(eval, RunnerOptions{Semantic: "natural", Parallel: parallel, Logger: quietLogger()})
		agg, err := r.Run(context.Background(), "/base", semantic.NaturalName, cases)
		require.NoError(t, err)

		assert.Len(t, eval.requests, 2)
		for _, req := range eval.requests {
			assert.Equal(t, "natural", req.Semantic)
			if req.Alignment.Path == "good.rdf" {
				require.NotNil(t, req.Threshold)
				assert.Equal(t, 0.4, *req.Threshold)
			}
		}

		good, ok := agg.Result("good", "t1")
		require.True(t, ok)
		assert.Equal(t, 1.0, good.Precision)
		assert.Equal(t, 1, good.IntersectionSize)

		bad, _ := agg.Result("bad", "t1")
		assert.Equal(t, "Unable to calculate precision and recall (boom)", bad.Err)
		skipped, _ := agg.Result("lily", "t1")
		assert.Equal(t, "Blacklisted", skipped.Err)
	}
}

func TestRunnerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	eval := &mockEvaluator{}
	_, err := NewRunner(eval, RunnerOptions{}).Run(ctx, "/base", "", []Case{{Subject: "s", Testcase: "t"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, eval.requests)
}

func TestDirectoryBatchEndToEnd(t *testing.T) {
	base := t.TempDir()
	touch(t, filepath.Join(base, "cmt-ekaw", "onto1.ofn"), fixture(t, "cmt.ofn"))
	touch(t, filepath.Join(base, "cmt-ekaw", "onto2.ofn"), fixture(t, "ekaw.ofn"))
	touch(t, filepath.Join(base, "cmt-ekaw", "refalign.rdf"), fixture(t, "reference.rdf"))
	touch(t, filepath.Join(base, "cmt-ekaw", "matcher.rdf"), fixture(t, "matcher.rdf"))
	touch(t, filepath.Join(base, "cmt-ekaw", "broken.rdf"), []byte("<nope"))

	cases, err := DiscoverDirectory(base, quietLogger())
	require.NoError(t, err)
	require.Len(t, cases, 2)

	opts := semantic.DefaultOptions()
	opts.Logger = quietLogger()
	ev := evaluation.New(semantic.NullName, opts)
	agg, err := NewRunner(ev, RunnerOptions{Logger: quietLogger()}).Run(context.Background(), base, semantic.NullName, cases)
	require.NoError(t, err)

	res, ok := agg.Result("matcher", "cmt-ekaw")
	require.True(t, ok)
	assert.InDelta(t, 1.0/3, res.Precision, 1e-9)
	assert.InDelta(t, 0.5, res.Recall, 1e-9)
	assert.Equal(t, 3, res.EvaluationAlignmentSize)
	assert.Equal(t, 2, res.ReferenceAlignmentSize)

	broken, ok := agg.Result("broken", "cmt-ekaw")
	require.True(t, ok)
	assert.Contains(t, broken.Err, "Unable to calculate precision and recall")

	out := filepath.Join(base, "results.xml")
	require.NoError(t, agg.SaveFile(out))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<subject name=\"matcher\">")
}
