package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dfleischhacker/spart/internal/alignment"
	"github.com/dfleischhacker/spart/internal/entitytype"
	"github.com/dfleischhacker/spart/internal/evaluation"
	"github.com/dfleischhacker/spart/internal/owl"
)

// evalFlags are shared by evaluate and closure.
type evalFlags struct {
	semantic        string
	threshold       float64
	keepIndividuals bool
	store           bool
}

func (f *evalFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.semantic, "semantic", "s", "", "Semantic name or alias (default from config)")
	cmd.Flags().Float64VarP(&f.threshold, "threshold", "t", 0, "Drop correspondences with a lower measure (default from config)")
	cmd.Flags().BoolVar(&f.keepIndividuals, "keep-individuals", false, "Keep the ABox of the merged ontology")
	cmd.Flags().BoolVar(&f.store, "store", false, "Persist the run in the configured graph store")
}

// thresholdOf is nil unless --threshold was given, leaving the config default.
func (f *evalFlags) thresholdOf(cmd *cobra.Command) *float64 {
	if !cmd.Flags().Changed("threshold") {
		return nil
	}
	return evaluation.Threshold(f.threshold)
}

func (f *evalFlags) deleteIndividuals() *bool {
	if !f.keepIndividuals {
		return nil
	}
	v := false
	return &v
}

func formatScore(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func evaluateCmd(a *app) *cobra.Command {
	var (
		flags        evalFlags
		asJSON       bool
		showClosures bool
	)
	cmd := &cobra.Command{
		Use:   "evaluate ONTOLOGY1 ONTOLOGY2 ALIGNMENT REFERENCE",
		Short: "Compute semantic precision and recall of an alignment",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			res, err := a.evaluator().Evaluate(ctx, evaluation.Request{
				Ontology1:         evaluation.File(args[0]),
				Ontology2:         evaluation.File(args[1]),
				Alignment:         evaluation.File(args[2]),
				Reference:         evaluation.File(args[3]),
				Semantic:          flags.semantic,
				Threshold:         flags.thresholdOf(cmd),
				DeleteIndividuals: flags.deleteIndividuals(),
			})
			if err != nil {
				return err
			}

			var runID string
			if flags.store {
				s, closeStore, err := a.openStore(ctx)
				if err != nil {
					return err
				}
				defer closeStore()
				run, err := s.SaveEvaluation(ctx, res)
				if err != nil {
					return err
				}
				runID = run.ID
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, res, runID)
			}
			fmt.Fprintf(out, "Semantic:     %s\n", res.Semantic)
			fmt.Fprintf(out, "Precision:    %s\n", formatScore(res.Precision))
			fmt.Fprintf(out, "Recall:       %s\n", formatScore(res.Recall))
			fmt.Fprintf(out, "Evaluation:   %d correspondences, closure %d\n", res.OriginalAlignment.Len(), res.EvaluationClosure.Len())
			fmt.Fprintf(out, "Reference:    %d correspondences, closure %d\n", res.OriginalReference.Len(), res.ReferenceClosure.Len())
			fmt.Fprintf(out, "Intersection: %d\n", res.Intersection.Len())
			if runID != "" {
				fmt.Fprintf(out, "Run:          %s\n", runID)
			}
			if showClosures {
				fmt.Fprintf(out, "\nEvaluation closure:\n%s\nReference closure:\n%s\n", res.EvaluationClosure, res.ReferenceClosure)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	cmd.Flags().BoolVar(&showClosures, "show-closures", false, "Print both closures")
	return cmd
}

func nullable(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func writeJSON(w io.Writer, res *evaluation.CalculationResult, runID string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"run_id":                    runID,
		"semantic":                  res.Semantic,
		"precision":                 nullable(res.Precision),
		"recall":                    nullable(res.Recall),
		"evaluation_alignment_size": res.OriginalAlignment.Len(),
		"reference_alignment_size":  res.OriginalReference.Len(),
		"evaluation_closure_size":   res.EvaluationClosure.Len(),
		"reference_closure_size":    res.ReferenceClosure.Len(),
		"intersection_size":         res.Intersection.Len(),
		"duration_ms":               res.Duration.Milliseconds(),
	})
}

func closureCmd(a *app) *cobra.Command {
	var (
		flags  evalFlags
		output string
		merged string
	)
	cmd := &cobra.Command{
		Use:   "closure ONTOLOGY1 ONTOLOGY2 ALIGNMENT",
		Short: "Compute the closure of an alignment and print it in Alignment format",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out, err := a.evaluator().Closure(ctx, evaluation.ClosureRequest{
				Ontology1:         evaluation.File(args[0]),
				Ontology2:         evaluation.File(args[1]),
				Alignment:         evaluation.File(args[2]),
				Semantic:          flags.semantic,
				Threshold:         flags.thresholdOf(cmd),
				DeleteIndividuals: flags.deleteIndividuals(),
			})
			if err != nil {
				return err
			}

			if merged != "" {
				if out.Merged == nil {
					return fmt.Errorf("%s does not merge ontologies", out.Semantic)
				}
				if err := writeOntology(merged, out.Merged); err != nil {
					return err
				}
			}
			if flags.store {
				s, closeStore, err := a.openStore(ctx)
				if err != nil {
					return err
				}
				defer closeStore()
				run, err := s.SaveClosure(ctx, out.Semantic, out.Input, out.Closure)
				if err != nil {
					return err
				}
				a.logger.Info("stored closure", "run", run.ID)
			}

			if output != "" {
				return out.Closure.SaveFile(output)
			}
			return out.Closure.WriteXML(cmd.OutOrStdout())
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the closure to this file instead of stdout")
	cmd.Flags().StringVar(&merged, "merged", "", "Write the merged ontology in functional syntax to this file")
	return cmd
}

func writeOntology(path string, o *owl.Ontology) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create '%s': %w", path, err)
	}
	if err := owl.Write(f, o); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func validateCmd(a *app) *cobra.Command {
	var types bool
	cmd := &cobra.Command{
		Use:   "validate ONTOLOGY1 ONTOLOGY2 ALIGNMENT",
		Short: "Check that an alignment only refers to entities of its ontologies",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			align, err := a.evaluator().Validate(
				evaluation.File(args[0]), evaluation.File(args[1]), evaluation.File(args[2]))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: valid, %d correspondences\n", args[2], align.Len())
			if types {
				return dumpTypes(out, args[0], args[1], align)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&types, "types", false, "Also list the entity type of every IRI in both ontologies")
	return cmd
}

func dumpTypes(w io.Writer, path1, path2 string, a *alignment.Alignment) error {
	o1, err := owl.LoadFile(path1)
	if err != nil {
		return err
	}
	o2, err := owl.LoadFile(path2)
	if err != nil {
		return err
	}
	types := entitytype.New(o1, o2)
	fmt.Fprintf(w, "\n%d typed entities:\n", types.Len())
	if err := types.Dump(w); err != nil {
		return err
	}
	fmt.Fprintln(w, "\nCorrespondences:")
	for _, c := range a.Correspondences() {
		fmt.Fprintf(w, "%s  [%s / %s]\n", c, types.Kind1(c.Entity1), types.Kind2(c.Entity2))
	}
	return nil
}
