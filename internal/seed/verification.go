package seed

import (
	"fmt"
)

// Points mirrors the per-discipline points of a Bestenliste row.
type Points struct {
	LongJump int `json:"longJump"`
	Throw    int `json:"throw"`
	Sprint   int `json:"sprint"`
	Total    int `json:"total"`
}

// Row is one Bestenliste entry as served by the API.
type Row struct {
	Rank   int    `json:"rank"`
	Key    string `json:"key"`
	Name   string `json:"name"`
	Cohort string `json:"cohort"`
	Points Points `json:"points"`
}

// VerifyRows checks that rows form a valid Bestenliste of cohort: ranks
// count up from one, totals never increase, and every total is the sum of
// its parts.
func VerifyRows(cohort string, rows []Row) error {
	seen := make(map[string]struct{}, len(rows))
	for i, r := range rows {
		if r.Rank != i+1 {
			return fmt.Errorf("%w: %s row %d has rank %d", ErrVerify, cohort, i, r.Rank)
		}
		if r.Cohort != cohort {
			return fmt.Errorf("%w: %s row %d belongs to %s", ErrVerify, cohort, i, r.Cohort)
		}
		if sum := r.Points.LongJump + r.Points.Throw + r.Points.Sprint; sum != r.Points.Total {
			return fmt.Errorf("%w: %s row %d total %d != %d", ErrVerify, cohort, i, r.Points.Total, sum)
		}
		if i > 0 && r.Points.Total > rows[i-1].Points.Total {
			return fmt.Errorf("%w: %s row %d outranks row %d", ErrVerify, cohort, i, i-1)
		}
		if _, dup := seen[r.Key]; dup {
			return fmt.Errorf("%w: %s lists %s twice", ErrVerify, cohort, r.Key)
		}
		seen[r.Key] = struct{}{}
	}
	return nil
}
