package shape

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "quantkit/internal/errors"
	"quantkit/internal/table"
)

func TestClassify(t *testing.T) {
	panel := table.MustIndex(
		table.TimeLevel("datetime", day(3), day(3)),
		table.LabelLevel("asset", "A", "B"),
	)

	tests := []struct {
		name  string
		table table.Table
		want  Tag
	}{
		{
			name:  "series over datetime index",
			table: table.MustSeries("close", table.TimeIndex("datetime", day(3), day(4)), []float64{1, 2}),
			want:  SeriesTimeSeries,
		},
		{
			name:  "series over plain index",
			table: table.MustSeries("close", table.LabelIndex("asset", "A", "B"), []float64{1, 2}),
			want:  SeriesCrossSection,
		},
		{
			name:  "series over panel index",
			table: table.MustSeries("close", panel, []float64{1, 2}),
			want:  SeriesPanel,
		},
		{
			name:  "frame over datetime index",
			table: table.MustFrame(table.TimeIndex("datetime", day(3)), []string{"close"}, [][]float64{{1}}),
			want:  FrameTimeSeries,
		},
		{
			name:  "frame over plain index",
			table: table.MustFrame(table.LabelIndex("asset", "A"), []string{"close"}, [][]float64{{1}}),
			want:  FrameCrossSection,
		},
		{
			name:  "frame over panel index",
			table: table.MustFrame(panel, []string{"close"}, [][]float64{{1, 2}}),
			want:  FramePanel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.table)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_EmptyRegardlessOfIndexKind(t *testing.T) {
	tests := []struct {
		name  string
		table table.Table
	}{
		{name: "empty datetime series", table: table.MustSeries("close", table.TimeIndex("datetime"), nil)},
		{name: "empty plain series", table: table.MustSeries("close", table.LabelIndex("asset"), nil)},
		{name: "empty panel frame", table: table.MustFrame(table.MustIndex(table.TimeLevel("datetime"), table.LabelLevel("asset")), []string{"close"}, [][]float64{{}})},
		{name: "empty three-level series", table: table.MustSeries("close", table.MustIndex(table.LabelLevel("a"), table.LabelLevel("b"), table.LabelLevel("c")), nil)},
		{name: "frame without columns", table: table.MustFrame(table.TimeIndex("datetime", day(3)), nil, nil)},
		{name: "nil series", table: (*table.Series)(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Classify(tt.table)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrEmptyTable), "got %v", err)
		})
	}
}

func TestClassify_Unsupported(t *testing.T) {
	tests := []struct {
		name  string
		index *table.Index
	}{
		{
			name:  "plain outer level",
			index: table.MustIndex(table.LabelLevel("asset", "A"), table.TimeLevel("datetime", day(3))),
		},
		{
			name:  "two datetime levels",
			index: table.MustIndex(table.TimeLevel("datetime", day(3)), table.TimeLevel("report", day(4))),
		},
		{
			name:  "two plain levels",
			index: table.MustIndex(table.LabelLevel("industry", "bank"), table.LabelLevel("asset", "A")),
		},
		{
			name: "three levels",
			index: table.MustIndex(
				table.TimeLevel("datetime", day(3)),
				table.LabelLevel("asset", "A"),
				table.LabelLevel("exchange", "SH"),
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Classify(table.MustSeries("close", tt.index, []float64{1}))
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrUnsupportedShape), "got %v", err)
		})
	}

	t.Run("nil table", func(t *testing.T) {
		_, err := Classify(nil)
		assert.True(t, errors.Is(err, apperrors.ErrUnsupportedShape))
	})
}

func TestTagString(t *testing.T) {
	assert.Equal(t, "SERIES_TIMESERIES", SeriesTimeSeries.String())
	assert.Equal(t, "FRAME_PANEL", FramePanel.String())
	assert.Equal(t, "Tag(42)", Tag(42).String())
	assert.True(t, SeriesPanel.IsSeries())
	assert.True(t, SeriesPanel.IsPanel())
	assert.False(t, FrameCrossSection.IsSeries())
	assert.False(t, FrameTimeSeries.IsPanel())
}

func day(d int) time.Time {
	return time.Date(2022, time.January, d, 0, 0, 0, 0, time.UTC)
}
