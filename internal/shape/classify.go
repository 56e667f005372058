package shape

import (
	"fmt"

	apperrors "quantkit/internal/errors"
	"quantkit/internal/table"
)

// Tag identifies one of the six supported table layouts
type Tag int

const (
	SeriesTimeSeries Tag = iota + 1
	SeriesCrossSection
	SeriesPanel
	FrameTimeSeries
	FrameCrossSection
	FramePanel
)

// String returns the tag name
func (t Tag) String() string {
	switch t {
	case SeriesTimeSeries:
		return "SERIES_TIMESERIES"
	case SeriesCrossSection:
		return "SERIES_CROSSSECTION"
	case SeriesPanel:
		return "SERIES_PANEL"
	case FrameTimeSeries:
		return "FRAME_TIMESERIES"
	case FrameCrossSection:
		return "FRAME_CROSSSECTION"
	case FramePanel:
		return "FRAME_PANEL"
	default:
		return fmt.Sprintf("Tag(%d)", int(t))
	}
}

// IsSeries reports whether the tag describes a single-indicator table
func (t Tag) IsSeries() bool {
	return t == SeriesTimeSeries || t == SeriesCrossSection || t == SeriesPanel
}

// IsPanel reports whether the tag describes a time×asset table
func (t Tag) IsPanel() bool {
	return t == SeriesPanel || t == FramePanel
}

// indexKind is the index half of a Tag
type indexKind int

const (
	kindTimeSeries indexKind = iota
	kindCrossSection
	kindPanel
)

// Classify assigns a Tag to t. Arity comes from the concrete table type, the
// index kind from the first matching rule:
//
//	one datetime level               time-series
//	one plain level                  cross-section
//	datetime outer, plain inner      panel
//
// Empty tables fail with an EMPTY_TABLE error before the index is inspected;
// any other index layout fails with UNSUPPORTED_SHAPE.
func Classify(t table.Table) (Tag, error) {
	var series bool
	switch t.(type) {
	case *table.Series:
		series = true
	case *table.Frame:
		series = false
	case nil:
		return 0, apperrors.NewUnsupportedShapeError("nil table")
	default:
		return 0, apperrors.NewUnsupportedShapeError(fmt.Sprintf("unsupported table type %T", t))
	}

	if t.Empty() {
		return 0, apperrors.NewEmptyTableError("dataframe or series is empty")
	}

	kind, err := classifyIndex(t.Index())
	if err != nil {
		return 0, err
	}

	switch {
	case series && kind == kindTimeSeries:
		return SeriesTimeSeries, nil
	case series && kind == kindCrossSection:
		return SeriesCrossSection, nil
	case series && kind == kindPanel:
		return SeriesPanel, nil
	case kind == kindTimeSeries:
		return FrameTimeSeries, nil
	case kind == kindCrossSection:
		return FrameCrossSection, nil
	default:
		return FramePanel, nil
	}
}

func classifyIndex(ix *table.Index) (indexKind, error) {
	switch ix.NLevels() {
	case 1:
		if ix.Level(0).IsDatetime() {
			return kindTimeSeries, nil
		}
		return kindCrossSection, nil
	case 2:
		outer, inner := ix.Level(0), ix.Level(1)
		if outer.IsDatetime() && !inner.IsDatetime() {
			return kindPanel, nil
		}
		return 0, apperrors.NewUnsupportedShapeError(
			fmt.Sprintf("two-level index must be (datetime, plain), got (%s, %s)", outer.Kind(), inner.Kind())).
			WithContext("outer", outer.Name()).
			WithContext("inner", inner.Name())
	default:
		return 0, apperrors.NewUnsupportedShapeError(
			fmt.Sprintf("index with %d levels is not supported", ix.NLevels()))
	}
}
