package job

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/Clark-Hu/glue-decades/internal/domain"
)

// Histogram bounds for run durations, in milliseconds.
const (
	minDurationMillis = 1
	maxDurationMillis = int64(24 * time.Hour / time.Millisecond)
)

// Stats summarizes recorded run durations.
type Stats struct {
	Runs      int64
	Succeeded int64
	Failed    int64
	P50       time.Duration
	P95       time.Duration
	P99       time.Duration
	Max       time.Duration
}

// History keeps the most recent runs in memory plus a duration histogram
// covering every run since start.
type History struct {
	mu        sync.RWMutex
	limit     int
	runs      []domain.RunResult
	byID      map[string]int
	hist      *hdrhistogram.Histogram
	succeeded int64
	failed    int64
}

// NewHistory retains up to limit runs.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = 100
	}
	return &History{
		limit: limit,
		byID:  make(map[string]int),
		hist:  hdrhistogram.New(minDurationMillis, maxDurationMillis, 3),
	}
}

// Add records a finished run.
func (h *History) Add(res domain.RunResult) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.runs) == h.limit {
		h.runs = h.runs[1:]
	}
	h.runs = append(h.runs, res)
	h.byID = make(map[string]int, len(h.runs))
	for i, r := range h.runs {
		h.byID[r.ID] = i
	}

	millis := res.Duration().Milliseconds()
	if millis < minDurationMillis {
		millis = minDurationMillis
	}
	if millis > maxDurationMillis {
		millis = maxDurationMillis
	}
	_ = h.hist.RecordValue(millis)

	if res.Status == domain.RunSucceeded {
		h.succeeded++
	} else {
		h.failed++
	}
}

// Get returns the run with the given id.
func (h *History) Get(id string) (domain.RunResult, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	i, ok := h.byID[id]
	if !ok {
		return domain.RunResult{}, false
	}
	return h.runs[i], true
}

// List returns up to limit runs, newest first.
func (h *History) List(limit int) []domain.RunResult {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if limit <= 0 || limit > len(h.runs) {
		limit = len(h.runs)
	}
	out := make([]domain.RunResult, 0, limit)
	for i := len(h.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, h.runs[i])
	}
	return out
}

// Stats reports counts and duration percentiles.
func (h *History) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s := Stats{
		Runs:      h.hist.TotalCount(),
		Succeeded: h.succeeded,
		Failed:    h.failed,
	}
	if s.Runs == 0 {
		return s
	}
	s.P50 = time.Duration(h.hist.ValueAtQuantile(50)) * time.Millisecond
	s.P95 = time.Duration(h.hist.ValueAtQuantile(95)) * time.Millisecond
	s.P99 = time.Duration(h.hist.ValueAtQuantile(99)) * time.Millisecond
	s.Max = time.Duration(h.hist.Max()) * time.Millisecond
	return s
}
