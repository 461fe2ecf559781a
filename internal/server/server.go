package server

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dfleischhacker/spart/internal/alignment"
	"github.com/dfleischhacker/spart/internal/evaluation"
	"github.com/dfleischhacker/spart/internal/metrics"
	"github.com/dfleischhacker/spart/internal/semantic"
	"github.com/dfleischhacker/spart/internal/store"
)

type Options struct {
	DefaultSemantic string
	Semantic        semantic.Options
	// Store is optional; without it requests asking to store runs are
	// answered normally and the run routes report 503.
	Store    *store.ClosureStore
	Registry *metrics.Registry
	Logger   *slog.Logger
	// AllowPaths lets requests name documents by server-side path instead of
	// sending their content.
	AllowPaths bool
}

type Server struct {
	Evaluator *evaluation.Evaluator
	store     *store.ClosureStore
	registry  *metrics.Registry
	logger    *slog.Logger
	allowPath bool
}

func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Registry == nil {
		opts.Registry = metrics.NewRegistry()
	}
	if opts.Semantic.Metrics == nil {
		opts.Semantic.Metrics = opts.Registry.Metrics
	}
	if opts.Semantic.Logger == nil {
		opts.Semantic.Logger = opts.Logger
	}
	return &Server{
		Evaluator: evaluation.New(opts.DefaultSemantic, opts.Semantic),
		store:     opts.Store,
		registry:  opts.Registry,
		logger:    opts.Logger,
		allowPath: opts.AllowPaths,
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", s.Health)
	r.GET("/semantics", s.Semantics)
	r.POST("/evaluate", s.Evaluate)
	r.POST("/closure", s.Closure)
	r.GET("/metrics", gin.WrapH(s.registry.Handler()))

	runs := r.Group("/runs")
	runs.GET("", s.ListRuns)
	runs.GET("/:id", s.GetRun)
	runs.DELETE("/:id", s.DeleteRun)
	runs.GET("/:id/alignments/:kind", s.GetRunAlignment)

	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type SemanticInfo struct {
	Name    string   `json:"name"`
	Aliases []string `json:"aliases"`
}

func (s *Server) Semantics(c *gin.Context) {
	var out []SemanticInfo
	for _, name := range semantic.Available() {
		out = append(out, SemanticInfo{Name: name, Aliases: semantic.Aliases(name)})
	}
	c.JSON(http.StatusOK, gin.H{"semantics": out})
}

// Document names an input either by server-side path or by inline content.
type Document struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Content string `json:"content"`
}

var errNoDocument = errors.New("document needs 'content' or 'path'")

func (s *Server) source(field string, d Document) (evaluation.Source, error) {
	name := d.Name
	if name == "" {
		name = field
	}
	switch {
	case d.Content != "":
		return evaluation.Inline(name, []byte(d.Content)), nil
	case d.Path != "" && s.allowPath:
		src := evaluation.File(d.Path)
		if d.Name != "" {
			src.Name = d.Name
		}
		return src, nil
	case d.Path != "":
		return evaluation.Source{}, errors.New(field + ": paths are disabled on this server")
	}
	return evaluation.Source{}, errors.New(field + ": " + errNoDocument.Error())
}

type EvaluateRequest struct {
	Ontology1         Document `json:"ontology1"`
	Ontology2         Document `json:"ontology2"`
	Alignment         Document `json:"alignment"`
	Reference         Document `json:"reference"`
	Semantic          string   `json:"semantic"`
	Threshold         *float64 `json:"threshold,omitempty"`
	DeleteIndividuals *bool    `json:"delete_individuals"`
	IncludeClosures   bool     `json:"include_closures"`
	Store             bool     `json:"store"`
}

// EvaluateResponse carries NaN scores as null.
type EvaluateResponse struct {
	RunID                   string                     `json:"run_id,omitempty"`
	Semantic                string                     `json:"semantic"`
	Precision               *float64                   `json:"precision"`
	Recall                  *float64                   `json:"recall"`
	Ontology1Entities       int                        `json:"ontology1_entities"`
	Ontology2Entities       int                        `json:"ontology2_entities"`
	EvaluationAlignmentSize int                        `json:"evaluation_alignment_size"`
	ReferenceAlignmentSize  int                        `json:"reference_alignment_size"`
	EvaluationClosureSize   int                        `json:"evaluation_closure_size"`
	ReferenceClosureSize    int                        `json:"reference_closure_size"`
	IntersectionSize        int                        `json:"intersection_size"`
	DurationMS              int64                      `json:"duration_ms"`
	EvaluationClosure       []alignment.Correspondence `json:"evaluation_closure,omitempty"`
	ReferenceClosure        []alignment.Correspondence `json:"reference_closure,omitempty"`
	Intersection            []alignment.Correspondence `json:"intersection,omitempty"`
}

func score(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func (s *Server) Evaluate(c *gin.Context) {
	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	var (
		er  evaluation.Request
		err error
	)
	for _, f := range []struct {
		name string
		doc  Document
		dst  *evaluation.Source
	}{
		{"ontology1", req.Ontology1, &er.Ontology1},
		{"ontology2", req.Ontology2, &er.Ontology2},
		{"alignment", req.Alignment, &er.Alignment},
		{"reference", req.Reference, &er.Reference},
	} {
		if *f.dst, err = s.source(f.name, f.doc); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	er.Semantic = req.Semantic
	er.Threshold = req.Threshold
	er.DeleteIndividuals = req.DeleteIndividuals

	res, err := s.Evaluator.Evaluate(c.Request.Context(), er)
	if err != nil {
		s.fail(c, err)
		return
	}

	resp := EvaluateResponse{
		Semantic:                res.Semantic,
		Precision:               score(res.Precision),
		Recall:                  score(res.Recall),
		Ontology1Entities:       res.Ontology1Entities,
		Ontology2Entities:       res.Ontology2Entities,
		EvaluationAlignmentSize: res.OriginalAlignment.Len(),
		ReferenceAlignmentSize:  res.OriginalReference.Len(),
		EvaluationClosureSize:   res.EvaluationClosure.Len(),
		ReferenceClosureSize:    res.ReferenceClosure.Len(),
		IntersectionSize:        res.Intersection.Len(),
		DurationMS:              res.Duration.Milliseconds(),
	}
	if req.IncludeClosures {
		resp.EvaluationClosure = res.EvaluationClosure.Correspondences()
		resp.ReferenceClosure = res.ReferenceClosure.Correspondences()
		resp.Intersection = res.Intersection.Correspondences()
	}
	if req.Store && s.store != nil {
		if run, err := s.store.SaveEvaluation(c.Request.Context(), res); err != nil {
			s.logger.Warn("failed to store evaluation", "error", err)
		} else {
			resp.RunID = run.ID
		}
	}
	c.JSON(http.StatusOK, resp)
}

type ClosureRequest struct {
	Ontology1         Document `json:"ontology1"`
	Ontology2         Document `json:"ontology2"`
	Alignment         Document `json:"alignment"`
	Semantic          string   `json:"semantic"`
	Threshold         *float64 `json:"threshold,omitempty"`
	DeleteIndividuals *bool    `json:"delete_individuals"`
	Store             bool     `json:"store"`
}

type ClosureResponse struct {
	RunID           string                     `json:"run_id,omitempty"`
	Semantic        string                     `json:"semantic"`
	InputSize       int                        `json:"input_size"`
	ClosureSize     int                        `json:"closure_size"`
	DurationMS      int64                      `json:"duration_ms"`
	Correspondences []alignment.Correspondence `json:"correspondences"`
}

func (s *Server) Closure(c *gin.Context) {
	var req ClosureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	var (
		cr  evaluation.ClosureRequest
		err error
	)
	if cr.Ontology1, err = s.source("ontology1", req.Ontology1); err == nil {
		if cr.Ontology2, err = s.source("ontology2", req.Ontology2); err == nil {
			cr.Alignment, err = s.source("alignment", req.Alignment)
		}
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cr.Semantic = req.Semantic
	cr.Threshold = req.Threshold
	cr.DeleteIndividuals = req.DeleteIndividuals

	out, err := s.Evaluator.Closure(c.Request.Context(), cr)
	if err != nil {
		s.fail(c, err)
		return
	}
	resp := ClosureResponse{
		Semantic:        out.Semantic,
		InputSize:       out.Input.Len(),
		ClosureSize:     out.Closure.Len(),
		DurationMS:      out.Duration.Milliseconds(),
		Correspondences: out.Closure.Correspondences(),
	}
	if req.Store && s.store != nil {
		if run, err := s.store.SaveClosure(c.Request.Context(), out.Semantic, out.Input, out.Closure); err != nil {
			s.logger.Warn("failed to store closure", "error", err)
		} else {
			resp.RunID = run.ID
		}
	}
	c.JSON(http.StatusOK, resp)
}

// fail maps evaluation failures onto status codes: bad inputs are the
// client's fault, inconsistent or untranslatable alignments are
// unprocessable, timeouts are reported as such.
func (s *Server) fail(c *gin.Context, err error) {
	body := gin.H{"error": err.Error()}
	var evalErr *evaluation.Error
	if errors.As(err, &evalErr) {
		body["stage"] = evalErr.Stage
	}

	var (
		mergeErr *semantic.MergeError
		genErr   *semantic.ClosureGenerationError
	)
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		status = 499
	case errors.As(err, &mergeErr):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &genErr):
		status = http.StatusUnprocessableEntity
		if genErr.Explanation != "" {
			body["explanation"] = genErr.Explanation
		}
	case evalErr != nil && evalErr.Stage != evaluation.StageClosureEvaluation && evalErr.Stage != evaluation.StageClosureReference:
		status = http.StatusBadRequest
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	c.JSON(status, body)
}

type RunView struct {
	store.Run
	Precision *float64 `json:"precision"`
	Recall    *float64 `json:"recall"`
}

func viewOf(r store.Run) RunView {
	return RunView{Run: r, Precision: score(r.Precision), Recall: score(r.Recall)}
}

func (s *Server) requireStore(c *gin.Context) bool {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "run store is disabled"})
		return false
	}
	return true
}

func (s *Server) runError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	s.logger.Error("run store failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to access run store"})
}

func (s *Server) ListRuns(c *gin.Context) {
	if !s.requireStore(c) {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	runs, err := s.store.ListRuns(c.Request.Context(), limit)
	if err != nil {
		s.runError(c, err)
		return
	}
	views := make([]RunView, 0, len(runs))
	for _, r := range runs {
		views = append(views, viewOf(r))
	}
	c.JSON(http.StatusOK, gin.H{"runs": views})
}

func (s *Server) GetRun(c *gin.Context) {
	if !s.requireStore(c) {
		return
	}
	run, err := s.store.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.runError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(*run))
}

func (s *Server) DeleteRun(c *gin.Context) {
	if !s.requireStore(c) {
		return
	}
	if err := s.store.DeleteRun(c.Request.Context(), c.Param("id")); err != nil {
		s.runError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) GetRunAlignment(c *gin.Context) {
	if !s.requireStore(c) {
		return
	}
	a, err := s.store.LoadAlignment(c.Request.Context(), c.Param("id"), c.Param("kind"))
	if err != nil {
		s.runError(c, err)
		return
	}
	if c.Query("format") == "rdf" {
		c.Header("Content-Type", "application/rdf+xml")
		c.Status(http.StatusOK)
		if err := a.WriteXML(c.Writer); err != nil {
			s.logger.Error("failed to render alignment", "error", err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"onto1":           a.Onto1,
		"onto2":           a.Onto2,
		"correspondences": a.Correspondences(),
	})
}
