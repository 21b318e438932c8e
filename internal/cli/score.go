package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/klv/internal/domain/model"
	"github.com/okian/klv/internal/domain/scoring"
	"github.com/okian/klv/internal/roster"
	"github.com/okian/klv/pkg/logger"
)

func newScoreCommand() *cobra.Command {
	var (
		ef  engineFlags
		out string
	)
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a roster file",
		Long: `Score every athlete of a roster file and print cohort and points per
athlete, followed by the cohort reference values.

With --out the roster is written back with the stored points and rounded
reference values, in the format given by the file extension.

Examples:
  klvctl score --roster athletes.yaml
  klvctl score --roster athletes.json --cutoff-year 2006 --out scored.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			athletes, err := roster.Load(ef.roster)
			if err != nil {
				return err
			}
			st := ef.engine().Standings(athletes)
			logger.Get().Info(cmd.Context(), "roster scored",
				logger.String("roster", ef.roster),
				logger.Int("scored", len(st.Scored)),
				logger.Int("unscored", len(st.Unscored)))

			if err := printStandings(cmd.OutOrStdout(), st); err != nil {
				return err
			}
			if out == "" {
				return nil
			}
			return writeScored(out, athletes, st, time.Now().UTC())
		},
	}
	ef.register(cmd)
	cmd.Flags().StringVar(&out, "out", "", "Write the scored roster to this file")
	return cmd
}

func printStandings(w io.Writer, st scoring.Standings) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "KEY\tNAME\tJAHRGANG\tG\tRIEGE\tKLASSE\tLJ\tBT\tRUN\tGESAMT")
	for _, s := range st.Scored {
		a := s.Athlete
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			a.Key, a.Name, a.BirthYear, a.Gender.Code(), a.Riege, s.Cohort,
			s.Points.LongJump, s.Points.Throw, s.Points.Sprint, s.Points.Total)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, key := range st.Unscored {
		fmt.Fprintf(w, "ohne Altersklasse: %s\n", key)
	}

	fmt.Fprintln(w)
	tw = newTable(w)
	fmt.Fprintln(tw, "KLASSE\tLJ\tBT\tRUN")
	for _, c := range st.References.Cohorts() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c,
			reference(st.References, c, model.LongJump),
			reference(st.References, c, model.Throw),
			reference(st.References, c, model.Sprint))
	}
	return tw.Flush()
}

func reference(refs scoring.References, cohort string, d model.Discipline) string {
	v, ok := refs.Get(cohort, d)
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}

func writeScored(path string, athletes []model.Athlete, st scoring.Standings, at time.Time) error {
	format, err := roster.FormatOf(path)
	if err != nil {
		return err
	}
	byKey := make(map[string]scoring.Standing, len(st.Scored))
	for _, s := range st.Scored {
		byKey[s.Athlete.Key] = s
	}
	out := make([]model.Athlete, len(athletes))
	for i, a := range athletes {
		out[i] = a.Clone()
		if s, ok := byKey[a.Key]; ok {
			stored := st.StoredScore(s, at)
			out[i].Stored = &stored
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := roster.Write(f, out, format); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
