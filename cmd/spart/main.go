// Package main provides the spart command line tool, which scores ontology
// alignments against reference alignments under a chosen semantic.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dfleischhacker/spart/internal/config"
	"github.com/dfleischhacker/spart/internal/driver"
	"github.com/dfleischhacker/spart/internal/evaluation"
	"github.com/dfleischhacker/spart/internal/semantic"
	"github.com/dfleischhacker/spart/internal/store"
)

const (
	Version = "0.3.0"
	appName = "spart"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
}

func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg
	a.logger = cfg.NewLogger()
	return nil
}

func (a *app) semanticOptions() semantic.Options {
	opts := a.cfg.SemanticOptions()
	opts.Logger = a.logger
	return opts
}

func (a *app) evaluator() *evaluation.Evaluator {
	return evaluation.New(a.cfg.Evaluation.Semantic, a.semanticOptions())
}

// openStore connects to the run store. The returned close function is never
// nil.
func (a *app) openStore(ctx context.Context) (*store.ClosureStore, func(), error) {
	mc := a.cfg.Memgraph
	if !mc.Enabled {
		return nil, func() {}, fmt.Errorf("run store is disabled; set memgraph.enabled")
	}
	d, err := driver.NewMemgraphDriver(ctx, mc.URI, mc.User, mc.Password, a.logger)
	if err != nil {
		return nil, func() {}, err
	}
	if err := d.BuildIndices(ctx); err != nil {
		d.Close(ctx)
		return nil, func() {}, err
	}
	return store.New(d, a.logger), func() { d.Close(context.Background()) }, nil
}

func rootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Semantic precision and recall for ontology alignments",
		Long: `spart evaluates ontology alignments against reference alignments.

Both alignments are closed under a semantic (null, natural or pragmatic)
before precision and recall are computed, so correspondences that follow
logically from an alignment count as found.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file path (TOML)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		evaluateCmd(a),
		closureCmd(a),
		validateCmd(a),
		batchCmd(a),
		conferenceCmd(a),
		suiteCmd(a),
		semanticsCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			PersistentPreRunE: func(*cobra.Command, []string) error {
				return nil
			},
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
			},
		},
	)
	return cmd
}

func semanticsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "semantics",
		Short: "List the available semantics and their aliases",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range semantic.Available() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %v\n", name, semantic.Aliases(name))
			}
		},
	}
}
