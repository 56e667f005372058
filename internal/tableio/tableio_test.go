package tableio

import (
	"bytes"
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "quantkit/internal/errors"
	"quantkit/internal/shape"
	"quantkit/internal/table"
)

const panelCSV = "\ufeffdate,code,open,close\n" +
	"2022-03-03,A,10,1\n" +
	"2022-03-03,B,20,\"1,002\"\n" +
	"\n" +
	"2022-03-04,A,11,\n" +
	"2022-03-04,B,21,4\n"

func TestReadCSV_Panel(t *testing.T) {
	tb, err := ReadCSV(strings.NewReader(panelCSV), Layout{TimeColumn: "date", AssetColumn: "code"})
	require.NoError(t, err)

	frame, ok := tb.(*table.Frame)
	require.True(t, ok)
	assert.Equal(t, 4, frame.Len())
	assert.Equal(t, []string{"open", "close"}, frame.Columns())
	assert.Equal(t, 1002.0, frame.Value(1, 1), "thousands separator stripped")
	assert.True(t, math.IsNaN(frame.Value(2, 1)), "blank cell is NaN")

	tag, err := shape.Classify(tb)
	require.NoError(t, err)
	assert.Equal(t, shape.FramePanel, tag)

	d, err := shape.Date("2022-03-04")
	require.NoError(t, err)
	res, err := shape.Access(tb, shape.Query{Time: d, Asset: shape.At("B"), Indicator: shape.At("open")})
	require.NoError(t, err)
	sc, ok := res.Scalar()
	require.True(t, ok)
	assert.Equal(t, 21.0, sc.Value)
}

func TestReadCSV_SingleLevel(t *testing.T) {
	src := "date,close\n2022-01-04,3.1\n2022-01-05,3.2\n"
	tb, err := ReadCSV(strings.NewReader(src), Layout{TimeColumn: "date", Series: "close"})
	require.NoError(t, err)
	s, ok := tb.(*table.Series)
	require.True(t, ok)
	assert.Equal(t, []float64{3.1, 3.2}, s.Values())

	tag, err := shape.Classify(tb)
	require.NoError(t, err)
	assert.Equal(t, shape.SeriesTimeSeries, tag)

	src = "code,pe,pb\nA,10,1.1\nB,12,0.9\n"
	tb, err = ReadCSV(strings.NewReader(src), Layout{AssetColumn: "code"})
	require.NoError(t, err)
	tag, err = shape.Classify(tb)
	require.NoError(t, err)
	assert.Equal(t, shape.FrameCrossSection, tag)
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		layout Layout
	}{
		{"empty source", "", Layout{TimeColumn: "date"}},
		{"no key column", "date,close\n", Layout{}},
		{"missing time column", "day,close\n", Layout{TimeColumn: "date"}},
		{"missing asset column", "date,close\n", Layout{TimeColumn: "date", AssetColumn: "code"}},
		{"missing series", "date,close\n", Layout{TimeColumn: "date", Series: "open"}},
		{"bad time", "date,close\n03/04/2022,1\n", Layout{TimeColumn: "date"}},
		{"bad number", "date,close\n2022-03-04,abc\n", Layout{TimeColumn: "date"}},
		{"bad quoting", "date,close\n\"2022-03-04,1\n", Layout{TimeColumn: "date"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.src), tt.layout)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrValidation))
		})
	}
}

func TestReadCSV_CustomTimeLayout(t *testing.T) {
	src := "trade_date,close\n20220304,1\n20220307,2\n"
	tb, err := ReadCSV(strings.NewReader(src), Layout{TimeColumn: "trade_date", TimeLayout: "20060102"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2022, 3, 7, 0, 0, 0, 0, time.UTC), tb.Index().Level(0).Time(1))
}

func TestReadCSV_HeaderOnlyIsEmpty(t *testing.T) {
	tb, err := ReadCSV(strings.NewReader("date,close\n"), Layout{TimeColumn: "date"})
	require.NoError(t, err)
	_, err = shape.Classify(tb)
	assert.True(t, errors.Is(err, apperrors.ErrEmptyTable))
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	tb, err := ReadCSV(strings.NewReader(panelCSV), Layout{TimeColumn: "date", AssetColumn: "code"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tb, WriteOptions{}))
	assert.Equal(t, "datetime,asset,open,close\n"+
		"2022-03-03,A,10,1\n"+
		"2022-03-03,B,20,1002\n"+
		"2022-03-04,A,11,\n"+
		"2022-03-04,B,21,4\n", buf.String())

	buf.Reset()
	s := table.MustSeries("close", table.LabelIndex("code", "A", "B"), []float64{1.5, math.NaN()})
	require.NoError(t, WriteCSV(&buf, s, WriteOptions{BOMPrefix: true}))
	assert.Equal(t, "\ufeffcode,close\nA,1.5\nB,\n", buf.String())

	assert.Error(t, WriteCSV(&buf, nil, WriteOptions{}))
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName(f.GetSheetName(0), "Notes"))
	require.NoError(t, f.SetCellValue("Notes", "A1", "generated report"))

	_, err := f.NewSheet("Daily")
	require.NoError(t, err)
	rows := [][]interface{}{
		{"date", "code", "close", "volume"},
		{"2022-03-03", "A", 12.5, "1,000"},
		{"2022-03-03", "B", 7.25, "2,500"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Daily", cell, &row))
	}
	path := filepath.Join(t.TempDir(), "daily.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	layout := Layout{TimeColumn: "date", AssetColumn: "code"}
	tb, err := ReadXLSX(path, "", layout)
	require.NoError(t, err)
	frame := tb.(*table.Frame)
	assert.Equal(t, []string{"close", "volume"}, frame.Columns())
	assert.Equal(t, 2500.0, frame.Value(1, 1))
	assert.Equal(t, 12.5, frame.Value(0, 0))

	_, err = ReadXLSX(path, "Missing", layout)
	assert.Error(t, err)
	_, err = ReadXLSX(path, "", Layout{TimeColumn: "when"})
	assert.Error(t, err)
	_, err = ReadXLSX(filepath.Join(t.TempDir(), "absent.xlsx"), "", layout)
	assert.Error(t, err)
}
