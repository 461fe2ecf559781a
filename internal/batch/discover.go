// Package batch evaluates many alignments in one go and aggregates the
// scores into a result set document.
package batch

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Case is one evaluation of an alignment against a reference. A non-empty
// Skip is recorded as the testcase's error without evaluating it.
type Case struct {
	Subject   string
	Testcase  string
	Ontology1 string
	Ontology2 string
	Alignment string
	Reference string
	// Threshold overrides the evaluator's default when set.
	Threshold *float64
	Skip      string
}

// DefaultBlacklist lists conference cases known to exhaust the oracle.
var DefaultBlacklist = []string{
	"dssim-cmt-iasted",
	"asmov-cmt-iasted",
	"lily-confof-iasted",
}

var ontologyExtensions = []string{".ofn", ".owl", ".rdf"}

func glob(dir, pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("glob error: %w", err)
	}
	sort.Strings(matches)
	return matches, nil
}

// stem cuts a file name at its first dot.
func stem(path string) string {
	name := filepath.Base(path)
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}

// DiscoverDirectory treats every subdirectory of basedir as a testcase
// holding onto1.*, onto2.*, refalign.rdf and any number of further *.rdf
// alignments. Subdirectories with missing files are skipped.
func DiscoverDirectory(basedir string, logger *slog.Logger) ([]Case, error) {
	if logger == nil {
		logger = slog.Default()
	}
	entries, err := os.ReadDir(basedir)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch directory '%s': %w", basedir, err)
	}

	var cases []Case
	for _, entry := range entries {
		dir := filepath.Join(basedir, entry.Name())
		log := logger.With("dir", dir)
		if !entry.IsDir() {
			log.Debug("skipping: not a directory")
			continue
		}

		onto1 := findOntology(dir, "onto1")
		onto2 := findOntology(dir, "onto2")
		ref := filepath.Join(dir, "refalign.rdf")
		switch {
		case onto1 == "":
			log.Warn("skipping: missing file 'onto1'")
			continue
		case onto2 == "":
			log.Warn("skipping: missing file 'onto2'")
			continue
		case !exists(ref):
			log.Warn("skipping: missing file 'refalign.rdf'")
			continue
		}

		rdfs, err := glob(dir, "*.rdf")
		if err != nil {
			return nil, err
		}
		var aligns []string
		for _, f := range rdfs {
			if f == onto1 || f == onto2 || f == ref {
				continue
			}
			aligns = append(aligns, f)
		}
		if len(aligns) == 0 {
			log.Warn("skipping: no alignments to evaluate")
			continue
		}

		for _, align := range aligns {
			cases = append(cases, Case{
				Subject:   strings.TrimSuffix(filepath.Base(align), ".rdf"),
				Testcase:  entry.Name(),
				Ontology1: onto1,
				Ontology2: onto2,
				Alignment: align,
				Reference: ref,
			})
		}
	}
	return cases, nil
}

func findOntology(dir, name string) string {
	for _, ext := range ontologyExtensions {
		p := filepath.Join(dir, name+ext)
		if exists(p) {
			return p
		}
	}
	return ""
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ConferenceOptions configures DiscoverConference. Empty globs fall back to
// the conventional layout.
type ConferenceOptions struct {
	OntologyGlob  string
	ReferenceGlob string
	AlignmentGlob string
	Threshold     *float64
	Blacklist     []string
}

const (
	defaultOntologyGlob  = "*.{owl,ofn}"
	defaultReferenceGlob = "*-*.{rdf,owl,xml}"
	defaultAlignmentGlob = "*-*-*.{rdf,owl,xml}"
)

// DiscoverConference pairs the ontologies "a.owl" and "b.owl" with the
// reference "a-b.rdf" and every matcher output "matcher-a-b.rdf" in basedir.
// Blacklisted cases are returned with Skip set.
func DiscoverConference(basedir string, opts ConferenceOptions, logger *slog.Logger) ([]Case, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if info, err := os.Stat(basedir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("'%s' is not a directory", basedir)
	}
	ontoGlob := orDefault(opts.OntologyGlob, defaultOntologyGlob)
	refGlob := orDefault(opts.ReferenceGlob, defaultReferenceGlob)
	alignGlob := orDefault(opts.AlignmentGlob, defaultAlignmentGlob)

	ontologies, err := collect(basedir, ontoGlob, 1)
	if err != nil {
		return nil, err
	}
	references, err := collect(basedir, refGlob, 2)
	if err != nil {
		return nil, err
	}
	alignFiles, err := collect(basedir, alignGlob, 3)
	if err != nil {
		return nil, err
	}

	alignments := make(map[string]string, len(alignFiles))
	matcherSet := make(map[string]struct{})
	for name, path := range alignFiles {
		matcher := strings.ToLower(name[:strings.IndexByte(name, '-')])
		alignments[matcher+name[strings.IndexByte(name, '-'):]] = path
		matcherSet[matcher] = struct{}{}
	}
	matchers := sortedKeys(matcherSet)

	blacklist := make(map[string]bool, len(opts.Blacklist))
	for _, b := range opts.Blacklist {
		blacklist[strings.ToLower(b)] = true
	}

	var cases []Case
	names := sortedKeys(ontologies)
	for _, first := range names {
		for _, second := range names {
			if first == second {
				continue
			}
			refName := first + "-" + second
			ref, ok := references[refName]
			if !ok {
				continue
			}
			for _, matcher := range matchers {
				caseName := matcher + "-" + refName
				c := Case{
					Subject:   matcher,
					Testcase:  refName,
					Ontology1: ontologies[first],
					Ontology2: ontologies[second],
					Reference: ref,
					Threshold: opts.Threshold,
				}
				if blacklist[strings.ToLower(caseName)] {
					logger.Info("skipping blacklisted case", "case", caseName)
					c.Skip = "Blacklisted"
					cases = append(cases, c)
					continue
				}
				align, ok := alignments[caseName]
				if !ok {
					logger.Debug("no alignment", "case", caseName)
					continue
				}
				c.Alignment = align
				cases = append(cases, c)
			}
		}
	}
	return cases, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// collect globs basedir and keeps the files whose stem consists of exactly
// parts dash-separated names made of letters, keyed by stem.
func collect(basedir, pattern string, parts int) (map[string]string, error) {
	files, err := glob(basedir, pattern)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	for _, f := range files {
		s := stem(f)
		fields := strings.Split(s, "-")
		if len(fields) != parts || !allLetters(fields) {
			continue
		}
		if _, dup := out[s]; dup {
			continue
		}
		out[s] = f
	}
	return out, nil
}

func allLetters(fields []string) bool {
	for _, f := range fields {
		if f == "" {
			return false
		}
		for _, r := range f {
			if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
				return false
			}
		}
	}
	return true
}
