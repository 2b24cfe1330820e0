package job

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Clark-Hu/glue-decades/internal/catalog"
	"github.com/Clark-Hu/glue-decades/internal/domain"
	"github.com/Clark-Hu/glue-decades/internal/output"
	"github.com/Clark-Hu/glue-decades/internal/pipeline"
	"github.com/Clark-Hu/glue-decades/internal/sink"
)

// ErrRunInProgress is returned when Run is called while another pass is active.
var ErrRunInProgress = errors.New("job: run already in progress")

const timeLayout = "2006-01-02 15:04:05"

// Runner executes the extract, transform and load steps in order. Only one
// pass runs at a time per Runner.
type Runner struct {
	Catalog  catalog.Catalog
	Sink     sink.Sink
	Encoder  output.Encoder
	Table    domain.TableRef
	ShowRows int
	Out      io.Writer
	Logger   *log.Logger

	// NewID and Now are overridable for tests.
	NewID func() string
	Now   func() time.Time

	mu sync.Mutex
}

func (r *Runner) logger() *log.Logger {
	if r.Logger == nil {
		return log.Default()
	}
	return r.Logger
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) newID() string {
	if r.NewID != nil {
		return r.NewID()
	}
	return uuid.NewString()
}

// Run performs one pass. A failed pass still returns a populated result with
// Status set to failed alongside the error.
func (r *Runner) Run(ctx context.Context) (domain.RunResult, error) {
	if !r.mu.TryLock() {
		return domain.RunResult{}, ErrRunInProgress
	}
	defer r.mu.Unlock()

	logger := r.logger()
	res := domain.RunResult{
		ID:        r.newID(),
		Table:     r.Table,
		StartedAt: r.now(),
		Status:    domain.RunFailed,
	}
	logger.Printf("Start time: %s (run %s, table %s)", res.StartedAt.Format(timeLayout), res.ID, r.Table)

	err := r.run(ctx, &res)
	res.FinishedAt = r.now()
	if err != nil {
		res.Error = err.Error()
		logger.Printf("run %s failed: %v", res.ID, err)
	} else {
		res.Status = domain.RunSucceeded
	}
	logger.Printf("End time: %s (run %s, %s)", res.FinishedAt.Format(timeLayout), res.ID, res.Status)
	return res, err
}

func (r *Runner) run(ctx context.Context, res *domain.RunResult) error {
	logger := r.logger()

	agg := pipeline.NewAggregator()
	err := r.Catalog.Scan(ctx, r.Table, func(rec domain.MovieRecord) error {
		agg.Add(rec)
		return nil
	})
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	res.RowsRead = agg.Rows()
	res.Summaries = agg.Summaries()
	logger.Printf("read %d rows from %s into %d decades", res.RowsRead, r.Table, len(res.Summaries))

	if r.ShowRows > 0 {
		out := r.Out
		if out == nil {
			out = os.Stdout
		}
		if err := pipeline.Show(out, res.Summaries, r.ShowRows); err != nil {
			return fmt.Errorf("show: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := r.Encoder.Encode(&buf, res.Summaries); err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	name := output.PartName(res.ID, r.Encoder)
	location, err := r.Sink.Put(ctx, name, &buf, sink.PutOptions{
		ContentType: r.Encoder.ContentType(),
		Metadata: map[string]string{
			"record-count": strconv.Itoa(len(res.Summaries)),
			"run-id":       res.ID,
		},
	})
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	res.Location = location
	return nil
}
