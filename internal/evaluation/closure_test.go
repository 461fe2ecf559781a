package evaluation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfleischhacker/spart/internal/semantic"
)

func closureRequest() ClosureRequest {
	return ClosureRequest{
		Ontology1: File("testdata/cmt.ofn"),
		Ontology2: File("testdata/ekaw.ofn"),
		Alignment: File("testdata/matcher.rdf"),
	}
}

func TestClosureMatchesEvaluation(t *testing.T) {
	req := closureRequest()
	req.Threshold = Threshold(0.5)

	out, err := newEvaluator(nil).Closure(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, semantic.NaturalName, out.Semantic)
	assert.Equal(t, 2, out.Input.Len())
	assert.Equal(t, 10, out.Closure.Len())
	assert.NotNil(t, out.Merged)
}

func TestClosureNull(t *testing.T) {
	req := closureRequest()
	req.Semantic = "null"

	out, err := newEvaluator(nil).Closure(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, out.Input.Correspondences(), out.Closure.Correspondences())
	assert.Nil(t, out.Merged)
}

func TestClosureErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*ClosureRequest)
		stage  Stage
	}{
		{"semantic", func(r *ClosureRequest) { r.Semantic = "fuzzy" }, StageSemantic},
		{"ontology2", func(r *ClosureRequest) { r.Ontology2 = Inline("broken", []byte("Ontology(")) }, StageLoadOntology2},
		{"alignment", func(r *ClosureRequest) { r.Alignment = Source{} }, StageLoadEvaluation},
		{"validate", func(r *ClosureRequest) {
			r.Alignment = Inline("bad", alignmentXML(cmt+"Missing "+ekaw+"Paper = 1.0"))
		}, StageValidateEvaluation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := closureRequest()
			tt.modify(&req)
			_, err := newEvaluator(nil).Closure(context.Background(), req)
			var evalErr *Error
			require.ErrorAs(t, err, &evalErr)
			assert.Equal(t, tt.stage, evalErr.Stage)
		})
	}
}

func TestValidate(t *testing.T) {
	ev := newEvaluator(nil)
	a, err := ev.Validate(File("testdata/cmt.ofn"), File("testdata/ekaw.ofn"), File("testdata/reference.rdf"))
	require.NoError(t, err)
	assert.Equal(t, 2, a.Len())

	// swapped ontologies put every entity on the wrong side
	_, err = ev.Validate(File("testdata/ekaw.ofn"), File("testdata/cmt.ofn"), File("testdata/reference.rdf"))
	var evalErr *Error
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, StageValidateEvaluation, evalErr.Stage)
}
