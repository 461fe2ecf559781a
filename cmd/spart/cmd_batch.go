package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dfleischhacker/spart/internal/batch"
	"github.com/dfleischhacker/spart/internal/evaluation"
	"github.com/dfleischhacker/spart/internal/semantic"
)

type batchFlags struct {
	semantic string
	output   string
	parallel int
}

func (f *batchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.semantic, "semantic", "s", "", "Semantic name or alias (default from config)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Results file (default from config)")
	cmd.Flags().IntVarP(&f.parallel, "parallel", "p", 0, "Cases evaluated at once (default from config)")
}

// runBatch evaluates cases and writes the result set. An empty name falls back
// to the configured semantic.
func (a *app) runBatch(cmd *cobra.Command, f batchFlags, basedir, name string, cases []batch.Case) error {
	if f.semantic != "" {
		name = f.semantic
	}
	if name == "" {
		name = a.cfg.Evaluation.Semantic
	}
	canonical, ok := semantic.Canonical(name)
	if !ok {
		return fmt.Errorf("%w %q", semantic.ErrUnknownSemantic, name)
	}
	output := f.output
	if output == "" {
		output = a.cfg.Batch.ResultsFile
	}
	parallel := f.parallel
	if parallel < 1 {
		parallel = a.cfg.Batch.Parallel
	}

	a.logger.Info("starting batch", "basedir", basedir, "semantic", canonical, "cases", len(cases))
	runner := batch.NewRunner(a.evaluator(), batch.RunnerOptions{
		Semantic: canonical,
		Parallel: parallel,
		Logger:   a.logger,
	})
	agg, err := runner.Run(cmd.Context(), basedir, canonical, cases)
	if err != nil {
		return err
	}
	if err := agg.SaveFile(output); err != nil {
		return err
	}
	printSummary(cmd.OutOrStdout(), agg)
	fmt.Fprintf(cmd.OutOrStdout(), "\nResults written to %s\n", output)
	return nil
}

func printSummary(w io.Writer, agg *batch.Aggregator) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SUBJECT\tPRECISION\tRECALL\tFAILED")
	testcases := agg.Testcases()
	for _, subject := range agg.Subjects() {
		failed := 0
		for _, tc := range testcases {
			if r, ok := agg.Result(subject, tc); !ok || r.IsError() {
				failed++
			}
		}
		p, r := agg.Average(subject)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\n", subject, formatScore(p), formatScore(r), failed, len(testcases))
	}
	tw.Flush()
}

func batchCmd(a *app) *cobra.Command {
	var flags batchFlags
	cmd := &cobra.Command{
		Use:   "batch DIRECTORY",
		Short: "Evaluate every alignment in the testcase subdirectories of DIRECTORY",
		Long: `Each subdirectory of DIRECTORY is a testcase holding onto1.*, onto2.*,
refalign.rdf and any number of further *.rdf alignments, one per matcher.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cases, err := batch.DiscoverDirectory(args[0], a.logger)
			if err != nil {
				return err
			}
			return a.runBatch(cmd, flags, args[0], "", cases)
		},
	}
	flags.register(cmd)
	return cmd
}

func conferenceCmd(a *app) *cobra.Command {
	var (
		flags     batchFlags
		threshold float64
		blacklist []string
	)
	cmd := &cobra.Command{
		Use:   "conference DIRECTORY",
		Short: "Evaluate matcher outputs laid out as in the OAEI conference track",
		Long: `DIRECTORY holds the ontologies (a.owl), the references (a-b.rdf) and
the matcher outputs (matcher-a-b.rdf) side by side.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bl := blacklist
			if !cmd.Flags().Changed("blacklist") {
				bl = a.cfg.Batch.Blacklist
				if bl == nil {
					bl = batch.DefaultBlacklist
				}
			}
			cases, err := batch.DiscoverConference(args[0], batch.ConferenceOptions{
				OntologyGlob:  a.cfg.Batch.OntologyGlob,
				ReferenceGlob: a.cfg.Batch.ReferenceGlob,
				AlignmentGlob: a.cfg.Batch.AlignmentGlob,
				Threshold:     conferenceThreshold(cmd, threshold),
				Blacklist:     bl,
			}, a.logger)
			if err != nil {
				return err
			}
			return a.runBatch(cmd, flags, args[0], "", cases)
		},
	}
	flags.register(cmd)
	cmd.Flags().Float64VarP(&threshold, "threshold", "t", 0, "Drop matcher correspondences with a lower measure (default from config)")
	cmd.Flags().StringSliceVar(&blacklist, "blacklist", nil, "Cases (matcher-a-b) to skip")
	return cmd
}

func conferenceThreshold(cmd *cobra.Command, v float64) *float64 {
	if !cmd.Flags().Changed("threshold") {
		return nil
	}
	return evaluation.Threshold(v)
}

func suiteCmd(a *app) *cobra.Command {
	var flags batchFlags
	cmd := &cobra.Command{
		Use:   "suite MANIFEST",
		Short: "Evaluate the cases listed in a YAML manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := batch.LoadSuite(args[0])
			if err != nil {
				return err
			}
			return a.runBatch(cmd, flags, s.Dir(), s.Semantic, s.BatchCases())
		},
	}
	flags.register(cmd)
	return cmd
}
