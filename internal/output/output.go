package output

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Clark-Hu/glue-decades/internal/domain"
)

// ErrUnknownFormat is returned by New for unsupported output formats.
var ErrUnknownFormat = errors.New("output: unknown format")

// Encoder serializes decade summaries into a single output object.
type Encoder interface {
	Extension() string
	ContentType() string
	Encode(w io.Writer, rows []domain.DecadeSummary) error
}

// New returns the encoder registered under format ("csv" or "parquet").
func New(format string) (Encoder, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "csv":
		return CSV{Header: true}, nil
	case "parquet":
		return Parquet{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// PartName is the object name of the single output partition of a run.
func PartName(runID string, enc Encoder) string {
	return fmt.Sprintf("part-00000-%s.%s", runID, enc.Extension())
}
