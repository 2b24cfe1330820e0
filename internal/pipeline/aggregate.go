package pipeline

import (
	"sort"

	"github.com/Clark-Hu/glue-decades/internal/domain"
)

type bucket struct {
	titles int64
	rated  int64
	sum    float64
}

func (b *bucket) add(rec domain.MovieRecord) {
	if rec.Title != nil {
		b.titles++
	}
	if rec.Rating != nil {
		b.rated++
		b.sum += *rec.Rating
	}
}

func (b *bucket) summary(decade *int64) domain.DecadeSummary {
	s := domain.DecadeSummary{Decade: decade, MovieCount: b.titles}
	if b.rated > 0 {
		avg := b.sum / float64(b.rated)
		s.AvgRating = &avg
	}
	return s
}

// Aggregator groups records by decade, counting non-null titles and averaging
// non-null ratings. The zero value is not usable; call NewAggregator.
type Aggregator struct {
	buckets map[int64]*bucket
	null    *bucket
	rows    int64
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{buckets: make(map[int64]*bucket)}
}

// Add folds one record into its decade group.
func (a *Aggregator) Add(rec domain.MovieRecord) {
	a.rows++
	decade := DecadeOf(rec)
	if decade == nil {
		if a.null == nil {
			a.null = &bucket{}
		}
		a.null.add(rec)
		return
	}
	b, ok := a.buckets[*decade]
	if !ok {
		b = &bucket{}
		a.buckets[*decade] = b
	}
	b.add(rec)
}

// Rows reports how many records have been added.
func (a *Aggregator) Rows() int64 {
	return a.rows
}

// Summaries returns one row per decade group, already ordered by Sort.
func (a *Aggregator) Summaries() []domain.DecadeSummary {
	out := make([]domain.DecadeSummary, 0, len(a.buckets)+1)
	for decade, b := range a.buckets {
		d := decade
		out = append(out, b.summary(&d))
	}
	if a.null != nil {
		out = append(out, a.null.summary(nil))
	}
	Sort(out)
	return out
}

// Sort orders rows by movie count descending. Equal counts fall back to
// decade ascending with the NULL decade last, so output is deterministic.
func Sort(rows []domain.DecadeSummary) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.MovieCount != b.MovieCount {
			return a.MovieCount > b.MovieCount
		}
		switch {
		case a.Decade == nil:
			return false
		case b.Decade == nil:
			return true
		default:
			return *a.Decade < *b.Decade
		}
	})
}

// Aggregate is a convenience wrapper over an Aggregator for in-memory input.
func Aggregate(records []domain.MovieRecord) []domain.DecadeSummary {
	agg := NewAggregator()
	for _, rec := range records {
		agg.Add(rec)
	}
	return agg.Summaries()
}
