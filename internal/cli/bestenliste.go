package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/okian/klv/internal/domain/model"
	"github.com/okian/klv/internal/domain/scoring"
	"github.com/okian/klv/internal/export"
	"github.com/okian/klv/internal/roster"
)

func newBestenlisteCommand() *cobra.Command {
	var (
		ef     engineFlags
		age    string
		gender string
		csv    bool
	)
	cmd := &cobra.Command{
		Use:   "bestenliste",
		Short: "Print the ranked leaderboard of a roster file",
		Long: `Rank the athletes of a roster file by total points.

--age takes a four-digit birth year or a cohort name such as MU14.
An empty filter matches every athlete.

Examples:
  klvctl bestenliste --roster athletes.yaml --age MU14
  klvctl bestenliste --roster athletes.yaml --age 2012 --gender w --csv`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := scoring.Filter{Age: age}
			if gender != "" {
				g, err := model.ParseGender(gender)
				if err != nil {
					return err
				}
				f.Gender = g
			}
			athletes, err := roster.Load(ef.roster)
			if err != nil {
				return err
			}
			rows := ef.engine().Standings(athletes).Leaderboard(f)
			if csv {
				return export.Leaderboard(cmd.OutOrStdout(), rows)
			}
			return printRows(cmd.OutOrStdout(), rows)
		},
	}
	ef.register(cmd)
	cmd.Flags().StringVar(&age, "age", "", "Birth year or cohort name")
	cmd.Flags().StringVar(&gender, "gender", "", "Gender code (m|w)")
	cmd.Flags().BoolVar(&csv, "csv", false, "Write CSV instead of a table")
	return cmd
}

func printRows(w io.Writer, rows []scoring.Row) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "PLATZ\tNAME\tRIEGE\tKLASSE\tGESAMT\tLJ\tBT\tRUN\tLJ_BESTE\tBT_BESTE\tRUN_BESTE")
	for i := range rows {
		r := &rows[i]
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\t%s\n",
			r.Rank, r.Name, r.Riege, r.Cohort,
			r.Points.Total, r.Points.LongJump, r.Points.Throw, r.Points.Sprint,
			export.Best(r, model.LongJump), export.Best(r, model.Throw), export.Best(r, model.Sprint))
	}
	return tw.Flush()
}
