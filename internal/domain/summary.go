package domain

import "time"

// DecadeSummary is one aggregated output row.
type DecadeSummary struct {
	Decade     *int64
	MovieCount int64
	AvgRating  *float64
}

// RunStatus reports the outcome of a pipeline pass.
type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// RunResult describes a single extract-transform-load pass.
type RunResult struct {
	ID         string
	Table      TableRef
	StartedAt  time.Time
	FinishedAt time.Time
	RowsRead   int64
	Summaries  []DecadeSummary
	Location   string
	Status     RunStatus
	Error      string
}

// Duration is the wall time of the run.
func (r RunResult) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
