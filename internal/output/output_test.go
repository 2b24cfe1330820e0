package output

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Clark-Hu/glue-decades/internal/domain"
)

func fixtureRows() []domain.DecadeSummary {
	d1, d2 := int64(1990), int64(2000)
	a1, a2 := 4.0, 11.0/3.0
	return []domain.DecadeSummary{
		{Decade: &d1, MovieCount: 3, AvgRating: &a2},
		{Decade: &d2, MovieCount: 2, AvgRating: &a1},
		{Decade: nil, MovieCount: 1, AvgRating: nil},
	}
}

func TestCSVEncode(t *testing.T) {
	var buf bytes.Buffer
	if err := (CSV{Header: true}).Encode(&buf, fixtureRows()); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := "decade,movie_count,avg_rating\n" +
		"1990,3,3.6666666666666665\n" +
		"2000,2,4.0\n" +
		",1,\n"
	if buf.String() != want {
		t.Fatalf("csv = %q, want %q", buf.String(), want)
	}
}

func TestCSVEncodeWithoutHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := (CSV{}).Encode(&buf, nil); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected empty output, got %q", buf.String())
	}
}

func TestParquetEncode(t *testing.T) {
	var buf bytes.Buffer
	if err := (Parquet{TempDir: t.TempDir()}).Encode(&buf, fixtureRows()); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	data := buf.Bytes()
	if len(data) < 8 {
		t.Fatalf("parquet output too short: %d bytes", len(data))
	}
	if string(data[:4]) != "PAR1" || string(data[len(data)-4:]) != "PAR1" {
		t.Fatalf("parquet magic bytes missing")
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		format  string
		wantExt string
		wantErr error
	}{
		{"", "csv", nil},
		{"CSV", "csv", nil},
		{"parquet", "parquet", nil},
		{"json", "", ErrUnknownFormat},
	}
	for _, tt := range tests {
		enc, err := New(tt.format)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("New(%q) error = %v, want %v", tt.format, err, tt.wantErr)
			}
			continue
		}
		if err != nil {
			t.Fatalf("New(%q): %v", tt.format, err)
		}
		if enc.Extension() != tt.wantExt {
			t.Fatalf("New(%q).Extension() = %s, want %s", tt.format, enc.Extension(), tt.wantExt)
		}
	}
}

func TestPartName(t *testing.T) {
	got := PartName("abc", CSV{})
	if got != "part-00000-abc.csv" {
		t.Fatalf("PartName = %s", got)
	}
}
