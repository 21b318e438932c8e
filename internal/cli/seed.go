package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/klv/internal/seed"
)

func newSeedCommand() *cobra.Command {
	cfg := seed.DefaultConfig()
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill a running service with a synthetic competition",
		Long: `Register generated athletes and their attempts through the HTTP API,
trigger a points run, then fetch the Bestenliste of every cohort and verify
ranks, ordering and point totals.

Examples:
  klvctl seed
  klvctl seed --url http://localhost:8080 --athletes 1000 --workers 16`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := seed.Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"athletes: %d created, %d failed\nattempts: %d accepted, %d duplicate, %d rejected, %d failed\nscored: %d in %d cohorts, %d rows verified in %s\n",
				stats.AthletesCreated, stats.AthletesFailed,
				stats.AttemptsAccepted, stats.AttemptsDuplicate, stats.AttemptsRejected, stats.AttemptsFailed,
				stats.Scored, stats.Cohorts, stats.RowsVerified, stats.Duration)
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.BaseURL, "url", cfg.BaseURL, "Base URL of the service")
	cmd.Flags().IntVar(&cfg.Athletes, "athletes", cfg.Athletes, "Number of athletes to register")
	cmd.Flags().IntVar(&cfg.Riegen, "riegen", cfg.Riegen, "Number of Riegen")
	cmd.Flags().IntVar(&cfg.Workers, "workers", cfg.Workers, "Number of concurrent workers")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "HTTP request timeout")
	cmd.Flags().IntVar(&cfg.Year, "year", cfg.Year, "Meet year")
	cmd.Flags().BoolVar(&cfg.Verbose, "verbose", false, "Log every verified cohort")
	return cmd
}
