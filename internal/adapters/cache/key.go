package cache

import (
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/okian/klv/internal/domain/model"
)

// StandingsKey derives the cache key of a scoring pass. It covers every
// input of the engine: the cohort cutoff, the point base and each athlete's
// identity and attempt values in roster order.
func StandingsKey(cutoffYear int, pointBase float64, roster []model.Athlete) string {
	h := xxhash.New()
	for i := range roster {
		a := &roster[i]
		_, _ = h.WriteString(a.Key)
		_, _ = h.WriteString("\x1f")
		_, _ = h.WriteString(strconv.Itoa(a.BirthYear))
		_, _ = h.WriteString(a.Gender.Code())
		for _, s := range model.AllSlots() {
			_, _ = h.WriteString("\x1f")
			_, _ = h.WriteString(a.Attempt(s).Raw())
		}
		_, _ = h.WriteString("\x1e")
	}
	return "klv:standings:" + strconv.Itoa(cutoffYear) + ":" +
		strconv.FormatFloat(pointBase, 'f', -1, 64) + ":" +
		strconv.FormatUint(h.Sum64(), 16)
}
