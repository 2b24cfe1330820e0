package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/Clark-Hu/glue-decades/internal/domain"
)

type parquetRow struct {
	Decade     *int64   `parquet:"name=decade, type=INT64, repetitiontype=OPTIONAL"`
	MovieCount int64    `parquet:"name=movie_count, type=INT64"`
	AvgRating  *float64 `parquet:"name=avg_rating, type=DOUBLE, repetitiontype=OPTIONAL"`
}

// Parquet writes a single snappy-compressed row group. The parquet writer
// needs a seekable file, so rows are staged in a temp file first.
type Parquet struct {
	TempDir string
}

func (Parquet) Extension() string { return "parquet" }
func (Parquet) ContentType() string { return "application/vnd.apache.parquet" }

// Encode stages the rows on disk and copies the finished file to w.
func (p Parquet) Encode(w io.Writer, rows []domain.DecadeSummary) error {
	dir, err := os.MkdirTemp(p.TempDir, "decades-parquet-")
	if err != nil {
		return fmt.Errorf("create parquet temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "part.parquet")
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("create local file writer: %w", err)
	}

	pw, err := writer.NewParquetWriter(fw, new(parquetRow), 1)
	if err != nil {
		fw.Close()
		return fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, row := range rows {
		rec := parquetRow{Decade: row.Decade, MovieCount: row.MovieCount, AvgRating: row.AvgRating}
		if err := pw.Write(rec); err != nil {
			fw.Close()
			return fmt.Errorf("write parquet row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return fmt.Errorf("finalize parquet file: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("close parquet file: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open staged parquet file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("copy parquet file: %w", err)
	}
	return nil
}
