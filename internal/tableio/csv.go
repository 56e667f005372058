package tableio

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	apperrors "quantkit/internal/errors"
	"quantkit/internal/table"
)

// ReadCSV reads a long-format CSV source with a header row
func ReadCSV(r io.Reader, layout Layout) (table.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, apperrors.NewValidationError("failed to read csv", err)
	}
	return fromRows(rows, layout)
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes t in long format: one column per index level followed by
// the indicator columns. NaN cells are written empty.
func WriteCSV(w io.Writer, t table.Table, opts WriteOptions) error {
	if t == nil {
		return apperrors.NewValidationError("nothing to write", nil)
	}

	if opts.BOMPrefix {
		if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	index := t.Index()
	var columns []string
	var value func(row, col int) float64
	switch v := t.(type) {
	case *table.Series:
		columns = []string{v.Name()}
		value = func(row, _ int) float64 { return v.Value(row) }
	case *table.Frame:
		columns = v.Columns()
		value = v.Value
	default:
		return apperrors.NewUnsupportedShapeError(fmt.Sprintf("cannot write %T", t))
	}

	writer := csv.NewWriter(w)
	header := make([]string, 0, index.NLevels()+len(columns))
	for l := 0; l < index.NLevels(); l++ {
		header = append(header, index.Level(l).Name())
	}
	header = append(header, columns...)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	record := make([]string, len(header))
	for r := 0; r < t.Len(); r++ {
		for l := 0; l < index.NLevels(); l++ {
			record[l] = index.Level(l).Label(r)
		}
		for c := range columns {
			record[index.NLevels()+c] = formatFloat(value(r, c))
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", r, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
