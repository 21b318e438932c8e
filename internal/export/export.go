// Package export writes the roster and leaderboards as CSV. Every field is
// quoted, so spreadsheet tools never reinterpret names or decimal values.
package export

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/okian/klv/internal/domain/model"
	"github.com/okian/klv/internal/domain/scoring"
)

// ErrWrite wraps failures of the underlying writer.
var ErrWrite = errors.New("csv write failed")

// RosterHeader is the header row of the roster export.
var RosterHeader = []string{
	"Name", "Jahrgang", "Geschlecht", "Riege",
	"LJ_V1", "LJ_V2", "LJ_V3", "BT_V1", "BT_V2", "BT_V3", "Sprint",
	"LJ_Punkte", "BT_Punkte", "Sprint_Punkte", "Gesamt_Punkte",
}

// LeaderboardHeader is the header row of the Bestenliste export.
var LeaderboardHeader = []string{
	"Platz", "Name", "Riege", "Gesamt_Punkte", "LJ_Punkte", "BT_Punkte", "Sprint_Punkte",
	"LJ_Beste", "BT_Beste", "Sprint_Beste",
}

// missingBest marks a discipline without a valid attempt.
const missingBest = "-"

// Writer emits quoted CSV records separated by newlines.
type Writer struct {
	w    *bufio.Writer
	rows int
	err  error
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write emits one record.
func (cw *Writer) Write(fields []string) error {
	if cw.err != nil {
		return cw.err
	}
	var b strings.Builder
	if cw.rows > 0 {
		b.WriteByte('\n')
	}
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
	if _, err := cw.w.WriteString(b.String()); err != nil {
		cw.err = errors.Join(ErrWrite, err)
		return cw.err
	}
	cw.rows++
	return nil
}

// Flush writes buffered data to the underlying writer.
func (cw *Writer) Flush() error {
	if cw.err != nil {
		return cw.err
	}
	if err := cw.w.Flush(); err != nil {
		cw.err = errors.Join(ErrWrite, err)
	}
	return cw.err
}

// Roster writes the roster with its last stored points. Points are empty
// for athletes that were never part of a points run.
func Roster(w io.Writer, roster []model.Athlete) error {
	cw := NewWriter(w)
	if err := cw.Write(RosterHeader); err != nil {
		return err
	}
	for i := range roster {
		if err := cw.Write(rosterRecord(&roster[i])); err != nil {
			return err
		}
	}
	return cw.Flush()
}

func rosterRecord(a *model.Athlete) []string {
	rec := make([]string, 0, len(RosterHeader))
	rec = append(rec, a.Name, strconv.Itoa(a.BirthYear), a.Gender.Code(), a.Riege)
	for _, s := range model.AllSlots() {
		rec = append(rec, a.Attempt(s).Raw())
	}
	if a.Stored == nil {
		return append(rec, "", "", "", "")
	}
	p := a.Stored.Points
	return append(rec, strconv.Itoa(p.LongJump), strconv.Itoa(p.Throw), strconv.Itoa(p.Sprint), strconv.Itoa(p.Total))
}

// Leaderboard writes ranked rows.
func Leaderboard(w io.Writer, rows []scoring.Row) error {
	cw := NewWriter(w)
	if err := cw.Write(LeaderboardHeader); err != nil {
		return err
	}
	for i := range rows {
		r := &rows[i]
		rec := []string{
			strconv.Itoa(r.Rank), r.Name, r.Riege,
			strconv.Itoa(r.Points.Total), strconv.Itoa(r.Points.LongJump),
			strconv.Itoa(r.Points.Throw), strconv.Itoa(r.Points.Sprint),
			Best(r, model.LongJump), Best(r, model.Throw), Best(r, model.Sprint),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	return cw.Flush()
}

// Best formats the best value of d in r, or "-" when there is none.
func Best(r *scoring.Row, d model.Discipline) string {
	v, ok := r.Best[d]
	if !ok {
		return missingBest
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
