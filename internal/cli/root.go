// Package cli implements the klvctl command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/okian/klv/internal/domain/cohort"
	"github.com/okian/klv/internal/domain/scoring"
	"github.com/okian/klv/pkg/logger"
)

type rootOptions struct {
	logLevel  string
	logFormat string
}

// NewRootCommand builds the klvctl command tree. Command output goes to the
// command's out writer; logs go to stderr.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "klvctl",
		Short:         "KLV athletics scoring tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.InitWriter(cmd.ErrOrStderr(), opts.logFormat); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			return logger.SetLevelString(opts.logLevel)
		},
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug|info|warn|error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "Log format (text|json)")

	root.AddCommand(newScoreCommand(), newBestenlisteCommand(), newSeedCommand())
	return root
}

// Execute runs the command tree with os.Args.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// engineFlags are shared by commands that score a roster file.
type engineFlags struct {
	roster     string
	cutoffYear int
	pointBase  float64
}

func (f *engineFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.roster, "roster", "", "Roster file (.json, .yaml or .yml)")
	cmd.Flags().IntVar(&f.cutoffYear, "cutoff-year", cohort.DefaultCutoffYear, "Last birth year of the open Männer/Frauen cohort")
	cmd.Flags().Float64Var(&f.pointBase, "point-base", scoring.DefaultPointBase, "Points for a performance at the reference value")
	_ = cmd.MarkFlagRequired("roster")
}

func (f *engineFlags) engine() *scoring.Engine {
	return scoring.NewEngine(
		scoring.WithCohortTable(cohort.NewTable(cohort.WithCutoffYear(f.cutoffYear))),
		scoring.WithPointBase(f.pointBase),
	)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}
