package pipeline

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/Clark-Hu/glue-decades/internal/domain"
)

// Columns is the output header, in order.
var Columns = []string{"decade", "movie_count", "avg_rating"}

const maxCellWidth = 20

// FormatDouble renders v the way the JVM prints a double: always at least one
// fractional digit, scientific notation outside [1e-3, 1e7).
func FormatDouble(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	abs := math.Abs(v)
	if v == 0 || (abs >= 1e-3 && abs < 1e7) {
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}
	s := strconv.FormatFloat(v, 'E', -1, 64)
	mantissa, exp, _ := strings.Cut(s, "E")
	if !strings.Contains(mantissa, ".") {
		mantissa += ".0"
	}
	e, _ := strconv.Atoi(exp)
	return mantissa + "E" + strconv.Itoa(e)
}

// Cells renders a summary row as strings. NULL values become empty strings
// unless null is set, in which case it is used verbatim.
func Cells(s domain.DecadeSummary, null string) []string {
	cells := []string{null, strconv.FormatInt(s.MovieCount, 10), null}
	if s.Decade != nil {
		cells[0] = strconv.FormatInt(*s.Decade, 10)
	}
	if s.AvgRating != nil {
		cells[2] = FormatDouble(*s.AvgRating)
	}
	return cells
}

// Show writes up to n rows as a bordered table, right aligned, with long cells
// truncated. A footer notes when rows were left out.
func Show(w io.Writer, rows []domain.DecadeSummary, n int) error {
	if n < 0 {
		n = 0
	}
	shown := rows
	if len(shown) > n {
		shown = shown[:n]
	}

	table := make([][]string, 0, len(shown)+1)
	table = append(table, Columns)
	for _, row := range shown {
		cells := Cells(row, "null")
		for i, c := range cells {
			if len(c) > maxCellWidth {
				cells[i] = c[:maxCellWidth-3] + "..."
			}
		}
		table = append(table, cells)
	}

	widths := make([]int, len(Columns))
	for i := range widths {
		widths[i] = 3
	}
	for _, cells := range table {
		for i, c := range cells {
			if len(c) > widths[i] {
				widths[i] = len(c)
			}
		}
	}

	var sep strings.Builder
	sep.WriteString("+")
	for _, width := range widths {
		sep.WriteString(strings.Repeat("-", width))
		sep.WriteString("+")
	}
	sep.WriteString("\n")

	var b strings.Builder
	b.WriteString(sep.String())
	for r, cells := range table {
		b.WriteString("|")
		for i, c := range cells {
			b.WriteString(strings.Repeat(" ", widths[i]-len(c)))
			b.WriteString(c)
			b.WriteString("|")
		}
		b.WriteString("\n")
		if r == 0 {
			b.WriteString(sep.String())
		}
	}
	b.WriteString(sep.String())

	if len(rows) > n {
		noun := "rows"
		if n == 1 {
			noun = "row"
		}
		fmt.Fprintf(&b, "only showing top %d %s\n", n, noun)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
