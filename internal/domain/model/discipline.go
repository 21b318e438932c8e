package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Discipline is one of the three competition events.
type Discipline uint8

const (
	LongJump Discipline = iota + 1
	Throw
	Sprint
)

// Disciplines lists every discipline in display order.
var Disciplines = []Discipline{LongJump, Throw, Sprint}

// DisciplineSpec describes how a discipline is measured and compared.
type DisciplineSpec struct {
	Name         string
	Code         string
	Unit         string
	HigherBetter bool
	Attempts     int
}

var specs = map[Discipline]DisciplineSpec{
	LongJump: {Name: "Weitsprung", Code: "LJ", Unit: "m", HigherBetter: true, Attempts: 3},
	Throw:    {Name: "Wurf", Code: "BT", Unit: "m", HigherBetter: true, Attempts: 3},
	Sprint:   {Name: "Sprint", Code: "RUN", Unit: "s", HigherBetter: false, Attempts: 1},
}

// Spec returns the discipline definition. Unknown disciplines return the zero spec.
func (d Discipline) Spec() DisciplineSpec { return specs[d] }

// Valid reports whether d is a known discipline.
func (d Discipline) Valid() bool {
	_, ok := specs[d]
	return ok
}

func (d Discipline) Code() string       { return specs[d].Code }
func (d Discipline) Name() string       { return specs[d].Name }
func (d Discipline) Unit() string       { return specs[d].Unit }
func (d Discipline) HigherBetter() bool { return specs[d].HigherBetter }
func (d Discipline) Attempts() int      { return specs[d].Attempts }

func (d Discipline) String() string {
	if !d.Valid() {
		return "Discipline(" + strconv.Itoa(int(d)) + ")"
	}
	return d.Code()
}

// ParseDiscipline accepts the discipline code or its name, case-insensitive.
func ParseDiscipline(s string) (Discipline, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lj", "weitsprung", "longjump", "long_jump":
		return LongJump, nil
	case "bt", "wurf", "throw":
		return Throw, nil
	case "run", "sprint":
		return Sprint, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDiscipline, s)
}

func (d Discipline) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDiscipline, d)
	}
	return []byte(d.Code()), nil
}

func (d *Discipline) UnmarshalText(b []byte) error {
	v, err := ParseDiscipline(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// SlotCount is the number of attempt slots on an athlete record.
const SlotCount = 7

// Slot addresses one attempt of one discipline.
type Slot struct {
	discipline Discipline
	index      int
}

// NewSlot validates the (discipline, index) pair. Index is zero-based.
func NewSlot(d Discipline, index int) (Slot, error) {
	if !d.Valid() {
		return Slot{}, fmt.Errorf("%w: %w", ErrInvalidSlot, ErrUnknownDiscipline)
	}
	if index < 0 || index >= d.Attempts() {
		return Slot{}, fmt.Errorf("%w: %s has no attempt %d", ErrInvalidSlot, d.Code(), index+1)
	}
	return Slot{discipline: d, index: index}, nil
}

// MustSlot is NewSlot for constant arguments.
func MustSlot(d Discipline, index int) Slot {
	s, err := NewSlot(d, index)
	if err != nil {
		panic(err)
	}
	return s
}

func (s Slot) Discipline() Discipline { return s.discipline }
func (s Slot) Index() int             { return s.index }

// Field returns the document field name: LJv1..LJv3, BTv1..BTv3, RUN.
func (s Slot) Field() string {
	if s.discipline == Sprint {
		return s.discipline.Code()
	}
	return s.discipline.Code() + "v" + strconv.Itoa(s.index+1)
}

func (s Slot) String() string { return s.Field() }

func (s Slot) ordinal() int {
	switch s.discipline {
	case LongJump:
		return s.index
	case Throw:
		return 3 + s.index
	default:
		return 6
	}
}

// ParseSlot maps a document field name back to its slot.
func ParseSlot(field string) (Slot, error) {
	f := strings.TrimSpace(field)
	if strings.EqualFold(f, "RUN") {
		return NewSlot(Sprint, 0)
	}
	if len(f) != 4 || (f[2] != 'v' && f[2] != 'V') {
		return Slot{}, fmt.Errorf("%w: %q", ErrInvalidSlot, field)
	}
	d, err := ParseDiscipline(f[:2])
	if err != nil || d == Sprint {
		return Slot{}, fmt.Errorf("%w: %q", ErrInvalidSlot, field)
	}
	n, err := strconv.Atoi(f[3:])
	if err != nil {
		return Slot{}, fmt.Errorf("%w: %q", ErrInvalidSlot, field)
	}
	return NewSlot(d, n-1)
}

// SlotsOf lists the slots of d in attempt order.
func SlotsOf(d Discipline) []Slot {
	out := make([]Slot, 0, d.Attempts())
	for i := 0; i < d.Attempts(); i++ {
		out = append(out, Slot{discipline: d, index: i})
	}
	return out
}

// AllSlots lists every slot in document order.
func AllSlots() []Slot {
	out := make([]Slot, 0, SlotCount)
	for _, d := range Disciplines {
		out = append(out, SlotsOf(d)...)
	}
	return out
}
