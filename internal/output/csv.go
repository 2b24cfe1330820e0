package output

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/Clark-Hu/glue-decades/internal/domain"
	"github.com/Clark-Hu/glue-decades/internal/pipeline"
)

// CSV writes comma separated rows. NULLs are empty fields.
type CSV struct {
	Header bool
}

func (CSV) Extension() string { return "csv" }
func (CSV) ContentType() string { return "text/csv" }

// Encode writes rows in the order given.
func (c CSV) Encode(w io.Writer, rows []domain.DecadeSummary) error {
	cw := csv.NewWriter(w)
	if c.Header {
		if err := cw.Write(pipeline.Columns); err != nil {
			return fmt.Errorf("write csv header: %w", err)
		}
	}
	for _, row := range rows {
		if err := cw.Write(pipeline.Cells(row, "")); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
