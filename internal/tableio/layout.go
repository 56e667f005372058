package tableio

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	apperrors "quantkit/internal/errors"
	"quantkit/internal/table"
)

// Layout names the key columns of a long-format source. Every other column is
// read as a numeric indicator.
type Layout struct {
	// TimeColumn holds the datetime level; empty means the source has none
	TimeColumn string
	// AssetColumn holds the asset level; empty means the source has none
	AssetColumn string
	// TimeLayout parses TimeColumn cells; defaults to table.DateLayout
	TimeLayout string
	// Series, when set, reads only this indicator and returns a *table.Series
	Series string
}

// fromRows builds a table from a header row followed by data rows
func fromRows(rows [][]string, layout Layout) (table.Table, error) {
	if len(rows) == 0 {
		return nil, apperrors.NewValidationError("source has no header row", nil)
	}
	if layout.TimeColumn == "" && layout.AssetColumn == "" {
		return nil, apperrors.NewValidationError("layout needs a time or an asset column", nil)
	}
	timeLayout := layout.TimeLayout
	if timeLayout == "" {
		timeLayout = table.DateLayout
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	timeCol, assetCol := -1, -1
	var indicatorCols []int
	var indicators []string
	for i, h := range header {
		switch {
		case layout.TimeColumn != "" && h == layout.TimeColumn:
			timeCol = i
		case layout.AssetColumn != "" && h == layout.AssetColumn:
			assetCol = i
		case layout.Series == "" || h == layout.Series:
			indicatorCols = append(indicatorCols, i)
			indicators = append(indicators, h)
		}
	}
	if layout.TimeColumn != "" && timeCol < 0 {
		return nil, apperrors.NewValidationError(fmt.Sprintf("time column %q not found", layout.TimeColumn), nil)
	}
	if layout.AssetColumn != "" && assetCol < 0 {
		return nil, apperrors.NewValidationError(fmt.Sprintf("asset column %q not found", layout.AssetColumn), nil)
	}
	if layout.Series != "" && len(indicators) == 0 {
		return nil, apperrors.NewValidationError(fmt.Sprintf("series column %q not found", layout.Series), nil)
	}

	var times []time.Time
	var assets []string
	data := make([][]float64, len(indicators))
	for r, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		line := r + 2
		if timeCol >= 0 {
			t, err := time.Parse(timeLayout, cell(row, timeCol))
			if err != nil {
				return nil, apperrors.NewValidationError(fmt.Sprintf("line %d: bad time %q", line, cell(row, timeCol)), err)
			}
			times = append(times, t)
		}
		if assetCol >= 0 {
			assets = append(assets, cell(row, assetCol))
		}
		for c, col := range indicatorCols {
			v, err := parseNumber(cell(row, col))
			if err != nil {
				return nil, apperrors.NewValidationError(fmt.Sprintf("line %d: column %q", line, indicators[c]), err)
			}
			data[c] = append(data[c], v)
		}
	}

	var (
		index *table.Index
		err   error
	)
	switch {
	case timeCol >= 0 && assetCol >= 0:
		index, err = table.PanelIndex(times, assets)
	case timeCol >= 0:
		index, err = table.NewIndex(table.TimeLevel(layout.TimeColumn, times...))
	default:
		index, err = table.NewIndex(table.LabelLevel(layout.AssetColumn, assets...))
	}
	if err != nil {
		return nil, err
	}

	n := index.Len()
	for c := range data {
		if data[c] == nil {
			data[c] = make([]float64, n)
		}
	}
	if layout.Series != "" {
		return table.NewSeries(layout.Series, index, data[0])
	}
	return table.NewFrame(index, indicators, data)
}

// parseNumber reads a numeric cell. Blank cells and "-" are NaN and thousands
// separators are ignored.
func parseNumber(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	switch strings.ToLower(s) {
	case "", "-", "nan", "n/a":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func cell(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
