package pipeline

import (
	"math"

	"github.com/Clark-Hu/glue-decades/internal/domain"
)

// minDecade is the most negative multiple of ten an int64 can hold.
const minDecade = math.MinInt64 / 10 * 10

// Decade returns floor(year/10)*10. Negative years round toward minus
// infinity, so -5 belongs to decade -10. Years below minDecade saturate to
// minDecade instead of wrapping.
func Decade(year int64) int64 {
	if year < minDecade {
		return minDecade
	}
	d := year / 10
	if year%10 != 0 && year < 0 {
		d--
	}
	return d * 10
}

// DecadeOf derives the decade of a record. A NULL year yields a NULL decade.
func DecadeOf(rec domain.MovieRecord) *int64 {
	if rec.Year == nil {
		return nil
	}
	d := Decade(*rec.Year)
	return &d
}
