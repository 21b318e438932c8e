package repository

import (
	"time"

	"github.com/okian/klv/internal/domain/model"
)

// Document is the stored layout of one athlete. It is shared by the DynamoDB
// item codec and the roster file format, so attempt slots keep their sheet
// field names and raw "" / "X" / decimal values.
type Document struct {
	Key       string `dynamodbav:"PK" json:"key" yaml:"key"`
	Name      string `dynamodbav:"Name" json:"name" yaml:"name"`
	BirthYear int    `dynamodbav:"BirthYear" json:"birthYear" yaml:"birthYear"`
	Gender    string `dynamodbav:"Gender" json:"gender" yaml:"gender"`
	Riege     string `dynamodbav:"Riege" json:"riege" yaml:"riege"`
	// Team is accepted as an alias of Riege in roster files.
	Team string `dynamodbav:"-" json:"team,omitempty" yaml:"team,omitempty"`

	LJv1 string `dynamodbav:"LJv1" json:"LJv1" yaml:"LJv1"`
	LJv2 string `dynamodbav:"LJv2" json:"LJv2" yaml:"LJv2"`
	LJv3 string `dynamodbav:"LJv3" json:"LJv3" yaml:"LJv3"`
	BTv1 string `dynamodbav:"BTv1" json:"BTv1" yaml:"BTv1"`
	BTv2 string `dynamodbav:"BTv2" json:"BTv2" yaml:"BTv2"`
	BTv3 string `dynamodbav:"BTv3" json:"BTv3" yaml:"BTv3"`
	RUN  string `dynamodbav:"RUN" json:"RUN" yaml:"RUN"`

	// Timestamps holds unix milliseconds per slot field.
	Timestamps map[string]int64 `dynamodbav:"Timestamps,omitempty" json:"timestamps,omitempty" yaml:"timestamps,omitempty"`

	LJp         *int     `dynamodbav:"LJp,omitempty" json:"LJp,omitempty" yaml:"LJp,omitempty"`
	BTp         *int     `dynamodbav:"BTp,omitempty" json:"BTp,omitempty" yaml:"BTp,omitempty"`
	RUNp        *int     `dynamodbav:"RUNp,omitempty" json:"RUNp,omitempty" yaml:"RUNp,omitempty"`
	FinalPoints *int     `dynamodbav:"FinalPoints,omitempty" json:"finalPoints,omitempty" yaml:"finalPoints,omitempty"`
	RefLJ       *float64 `dynamodbav:"R_LJ,omitempty" json:"R_LJ,omitempty" yaml:"R_LJ,omitempty"`
	RefBT       *float64 `dynamodbav:"R_BT,omitempty" json:"R_BT,omitempty" yaml:"R_BT,omitempty"`
	RefRUN      *float64 `dynamodbav:"R_RUN,omitempty" json:"R_RUN,omitempty" yaml:"R_RUN,omitempty"`
	PointsAt    int64    `dynamodbav:"PointsAt,omitempty" json:"pointsAt,omitempty" yaml:"pointsAt,omitempty"`

	Version int64 `dynamodbav:"Version" json:"-" yaml:"-"`
}

func (d *Document) slot(s model.Slot) *string {
	switch s.Field() {
	case "LJv1":
		return &d.LJv1
	case "LJv2":
		return &d.LJv2
	case "LJv3":
		return &d.LJv3
	case "BTv1":
		return &d.BTv1
	case "BTv2":
		return &d.BTv2
	case "BTv3":
		return &d.BTv3
	default:
		return &d.RUN
	}
}

func (d *Document) reference(disc model.Discipline) **float64 {
	switch disc {
	case model.LongJump:
		return &d.RefLJ
	case model.Throw:
		return &d.RefBT
	default:
		return &d.RefRUN
	}
}

// EncodeDocument renders a as a Document.
func EncodeDocument(a model.Athlete) Document {
	d := Document{
		Key:       a.Key,
		Name:      a.Name,
		BirthYear: a.BirthYear,
		Gender:    a.Gender.Code(),
		Riege:     a.Riege,
	}
	for _, s := range model.AllSlots() {
		at := a.Attempt(s)
		*d.slot(s) = at.Raw()
		if !at.IsEmpty() && !at.RecordedAt().IsZero() {
			if d.Timestamps == nil {
				d.Timestamps = make(map[string]int64)
			}
			d.Timestamps[s.Field()] = at.RecordedAt().UnixMilli()
		}
	}
	if st := a.Stored; st != nil {
		lj, bt, run, total := st.Points.LongJump, st.Points.Throw, st.Points.Sprint, st.Points.Total
		d.LJp, d.BTp, d.RUNp, d.FinalPoints = &lj, &bt, &run, &total
		for disc, v := range st.References {
			*d.reference(disc) = &v
		}
		if !st.ComputedAt.IsZero() {
			d.PointsAt = st.ComputedAt.UnixMilli()
		}
	}
	return d
}

// DecodeDocument converts d to an athlete. An unknown gender is kept as
// GenderUnknown so the athlete stays in the roster without a cohort.
func DecodeDocument(d Document) model.Athlete {
	g, _ := model.ParseGender(d.Gender)
	riege := d.Riege
	if riege == "" {
		riege = d.Team
	}
	a := model.Athlete{
		Key:       d.Key,
		Name:      d.Name,
		BirthYear: d.BirthYear,
		Gender:    g,
		Riege:     riege,
	}
	for _, s := range model.AllSlots() {
		var at time.Time
		if ms, ok := d.Timestamps[s.Field()]; ok {
			at = time.UnixMilli(ms).UTC()
		}
		a.SetAttempt(s, model.ParseAttempt(*d.slot(s), at))
	}
	if d.FinalPoints != nil {
		st := &model.StoredScore{References: make(map[model.Discipline]float64)}
		st.Points.Total = *d.FinalPoints
		if d.LJp != nil {
			st.Points.LongJump = *d.LJp
		}
		if d.BTp != nil {
			st.Points.Throw = *d.BTp
		}
		if d.RUNp != nil {
			st.Points.Sprint = *d.RUNp
		}
		for _, disc := range model.Disciplines {
			if r := *d.reference(disc); r != nil {
				st.References[disc] = *r
			}
		}
		if d.PointsAt != 0 {
			st.ComputedAt = time.UnixMilli(d.PointsAt).UTC()
		}
		a.Stored = st
	}
	return a
}
