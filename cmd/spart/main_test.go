package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfleischhacker/spart/internal/alignment"
)

func testdata(t *testing.T, name string) string {
	t.Helper()
	p, err := filepath.Abs(filepath.Join("..", "..", "internal", "evaluation", "testdata", name))
	require.NoError(t, err)
	return p
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func inputs(t *testing.T) []string {
	return []string{
		testdata(t, "cmt.ofn"),
		testdata(t, "ekaw.ofn"),
		testdata(t, "matcher.rdf"),
		testdata(t, "reference.rdf"),
	}
}

func TestVersionAndSemantics(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "spart version "+Version)

	out, err = execute(t, "semantics")
	require.NoError(t, err)
	assert.Contains(t, out, "Natural Semantic")
	assert.Contains(t, out, "[pragmatic]")
}

func TestEvaluateCommand(t *testing.T) {
	out, err := execute(t, append([]string{"evaluate", "-s", "null"}, inputs(t)...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Semantic:     Null Semantic")
	assert.Contains(t, out, "Precision:    0.3333")
	assert.Contains(t, out, "Recall:       0.5000")
	assert.Contains(t, out, "Intersection: 1")

	out, err = execute(t, append([]string{"evaluate", "--json", "-t", "0.5"}, inputs(t)...)...)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Equal(t, "Natural Semantic", body["semantic"])
	assert.InDelta(t, 0.7, body["precision"], 1e-9)
	assert.Equal(t, 7.0, body["intersection_size"])
}

func TestEvaluateCommandErrors(t *testing.T) {
	_, err := execute(t, append([]string{"evaluate", "-s", "fuzzy"}, inputs(t)...)...)
	assert.ErrorContains(t, err, "unknown semantic")

	_, err = execute(t, "evaluate", "only-one")
	assert.Error(t, err)

	_, err = execute(t, append([]string{"evaluate", "-s", "null", "--store"}, inputs(t)...)...)
	assert.ErrorContains(t, err, "run store is disabled")
}

func TestClosureCommand(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "closure.rdf")
	merged := filepath.Join(dir, "merged.ofn")
	args := append([]string{"closure", "-t", "0.5", "-o", output, "--merged", merged}, inputs(t)[:3]...)

	_, err := execute(t, args...)
	require.NoError(t, err)

	a, err := alignment.LoadFile(output, 0)
	require.NoError(t, err)
	assert.Equal(t, 10, a.Len())
	data, err := os.ReadFile(merged)
	require.NoError(t, err)
	assert.Contains(t, string(data), "urn:spart:onto1:")

	_, err = execute(t, append([]string{"closure", "-s", "null", "--merged", merged}, inputs(t)[:3]...)...)
	assert.ErrorContains(t, err, "does not merge")

	out, err := execute(t, append([]string{"closure", "-s", "null"}, inputs(t)[:3]...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "<Alignment>")
}

func TestValidateCommand(t *testing.T) {
	out, err := execute(t, "validate", "--types", testdata(t, "cmt.ofn"), testdata(t, "ekaw.ofn"), testdata(t, "reference.rdf"))
	require.NoError(t, err)
	assert.Contains(t, out, "valid, 2 correspondences")
	assert.Contains(t, out, "http://example.org/cmt#writes")

	_, err = execute(t, "validate", testdata(t, "ekaw.ofn"), testdata(t, "cmt.ofn"), testdata(t, "reference.rdf"))
	assert.ErrorContains(t, err, "invalid evaluation alignment")
}

func TestSuiteCommand(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "suite.yaml")
	ins := inputs(t)
	require.NoError(t, os.WriteFile(manifest, []byte(
		"semantic: null\ncases:\n"+
			"  - subject: matcher\n    testcase: cmt-ekaw\n"+
			"    ontology1: "+ins[0]+"\n    ontology2: "+ins[1]+"\n"+
			"    alignment: "+ins[2]+"\n    reference: "+ins[3]+"\n"+
			"  - subject: lily\n    testcase: cmt-ekaw\n"+
			"    ontology1: "+ins[0]+"\n    ontology2: "+ins[1]+"\n"+
			"    reference: "+ins[3]+"\n    skip: Blacklisted\n"), 0o644))
	results := filepath.Join(dir, "results.xml")

	out, err := execute(t, "suite", "-o", results, manifest)
	require.NoError(t, err)
	assert.Contains(t, out, "matcher")
	assert.Contains(t, out, "0.3333")
	assert.Contains(t, out, "1/1")

	data, err := os.ReadFile(results)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<semantic>Null Semantic</semantic>")
	assert.Contains(t, string(data), "<error>Blacklisted</error>")
}
