package tableio

import (
	"fmt"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "quantkit/internal/errors"
	"quantkit/internal/table"
)

// ReadXLSX reads a long-format sheet of an Excel workbook. With an empty
// sheet name the first sheet whose header row holds the layout columns is used.
func ReadXLSX(path, sheet string, layout Layout) (table.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewValidationError("failed to open workbook", err)
	}
	defer f.Close()

	if sheet == "" {
		if sheet, err = findSheet(f, layout); err != nil {
			return nil, err
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, apperrors.NewValidationError(fmt.Sprintf("failed to read sheet %q", sheet), err)
	}
	return fromRows(rows, layout)
}

func findSheet(f *excelize.File, layout Layout) (string, error) {
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil || len(rows) == 0 {
			continue
		}
		header := make([]string, len(rows[0]))
		for i, h := range rows[0] {
			header[i] = strings.TrimSpace(h)
		}
		if layout.TimeColumn != "" && !slices.Contains(header, layout.TimeColumn) {
			continue
		}
		if layout.AssetColumn != "" && !slices.Contains(header, layout.AssetColumn) {
			continue
		}
		return name, nil
	}
	return "", apperrors.NewValidationError("could not find a sheet with the layout columns", nil)
}
