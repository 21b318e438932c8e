package seed

import (
	"crypto/rand"
	"fmt"
	"math"
	"math/big"

	"github.com/google/uuid"
)

const randomFloatDivisor = 1_000_000

// Performance curves per year of age, starting at six.
const (
	minAge = 6
	maxAge = 18

	jumpBase   = 1.8
	jumpStep   = 0.2
	throwBase  = 8.0
	throwStep  = 2.5
	sprintBase = 11.8
	sprintStep = 0.3
	spread     = 0.15

	// invalidOneIn marks roughly one in n attempts as invalid.
	invalidOneIn = 10
	// retryOneIn gives roughly one in n athletes a second sprint.
	retryOneIn = 4
)

var (
	firstNames = []string{
		"Anna", "Ben", "Clara", "David", "Emma", "Felix", "Greta", "Hannes",
		"Ida", "Jonas", "Klara", "Leon", "Mia", "Noah", "Paula", "Theo",
	}
	lastNames = []string{
		"Bauer", "Becker", "Fischer", "Hoffmann", "Koch", "Meyer", "Müller",
		"Richter", "Schmidt", "Schneider", "Schulz", "Wagner", "Weber", "Wolf",
	}
)

// AthleteRequest is the body of POST /athletes.
type AthleteRequest struct {
	Name      string `json:"name"`
	BirthYear int    `json:"birthYear"`
	Gender    string `json:"gender"`
	Riege     string `json:"riege"`
}

// AttemptRequest is the body of POST /athletes/{key}/attempts.
type AttemptRequest struct {
	Discipline string   `json:"discipline"`
	Value      *float64 `json:"value,omitempty"`
	Invalid    bool     `json:"invalid,omitempty"`
	RequestID  string   `json:"requestId"`
}

// Plan is one athlete with the attempts to submit for it, in order.
type Plan struct {
	Athlete  AthleteRequest
	Attempts []AttemptRequest
}

func randomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / randomFloatDivisor
}

func randomInt(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// Generate builds n plans spread over riegen Riegen. Birth years cover
// youth cohorts and a share of open-class adults relative to year.
func Generate(n, riegen, year int) []Plan {
	plans := make([]Plan, n)
	for i := range plans {
		age := minAge + randomInt(maxAge-minAge+4)
		gender := "m"
		if randomInt(2) == 1 {
			gender = "w"
		}
		a := AthleteRequest{
			Name:      fmt.Sprintf("%s %s", firstNames[randomInt(len(firstNames))], lastNames[randomInt(len(lastNames))]),
			BirthYear: year - age,
			Gender:    gender,
			Riege:     fmt.Sprintf("Riege %d", i%riegen+1),
		}
		plans[i] = Plan{Athlete: a, Attempts: attemptsFor(age)}
	}
	return plans
}

func attemptsFor(age int) []AttemptRequest {
	level := float64(min(age, maxAge) - minAge)
	var out []AttemptRequest
	for range 3 {
		out = append(out, attempt("LJ", jumpBase+jumpStep*level))
	}
	for range 3 {
		out = append(out, attempt("BT", throwBase+throwStep*level))
	}
	out = append(out, attempt("RUN", sprintBase-sprintStep*level))
	if randomInt(retryOneIn) == 0 {
		out = append(out, attempt("RUN", sprintBase-sprintStep*level))
	}
	return out
}

func attempt(discipline string, mean float64) AttemptRequest {
	req := AttemptRequest{Discipline: discipline, RequestID: uuid.NewString()}
	if randomInt(invalidOneIn) == 0 {
		req.Invalid = true
		return req
	}
	v := mean * (1 + spread*(2*randomFloat()-1))
	v = math.Round(v*100) / 100
	req.Value = &v
	return req
}
