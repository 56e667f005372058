package shape

import (
	"errors"
	"fmt"
	"slices"
	"time"

	apperrors "quantkit/internal/errors"
	"quantkit/internal/table"
)

// ErrLabelNotFound is the cause of INDEX errors raised when a concrete key
// matches no row or column.
var ErrLabelNotFound = errors.New("label not found")

// Accessor indexes one table uniformly regardless of its layout. The shape tag
// is computed once by New.
type Accessor struct {
	t   table.Table
	tag Tag
}

// New classifies t and returns an accessor for it
func New(t table.Table) (*Accessor, error) {
	tag, err := Classify(t)
	if err != nil {
		return nil, err
	}
	return &Accessor{t: t, tag: tag}, nil
}

// Access classifies t and performs a single access on it
func Access(t table.Table, q Query) (Result, error) {
	a, err := New(t)
	if err != nil {
		return Result{}, err
	}
	return a.Access(q)
}

// Tag returns the shape tag assigned at construction
func (a *Accessor) Tag() Tag { return a.tag }

// Table returns the wrapped table
func (a *Accessor) Table() table.Table { return a.t }

// Access selects from the table according to q and the shape tag.
//
//	SERIES_TIMESERIES    time                          scalar
//	SERIES_CROSSSECTION  asset                         scalar
//	SERIES_PANEL         time xor asset                vector over the other axis
//	FRAME_TIMESERIES     time, indicator               scalar
//	FRAME_CROSSSECTION   asset, indicator              scalar
//	FRAME_PANEL          any subset                    scalar, vector or table
//
// Keys the shape does not use are ignored.
func (a *Accessor) Access(q Query) (Result, error) {
	switch a.tag {
	case SeriesTimeSeries:
		return a.seriesSingle(q.Time.Concrete(), "time", q.Time.String(), func(l table.Level, i int) bool {
			t, _ := q.Time.Value()
			return l.MatchTime(i, t)
		})
	case SeriesCrossSection:
		return a.seriesSingle(q.Asset.Concrete(), "asset", q.Asset.String(), func(l table.Level, i int) bool {
			s, _ := q.Asset.Value()
			return l.MatchLabel(i, s)
		})
	case SeriesPanel:
		return a.seriesPanel(q)
	case FrameTimeSeries:
		return a.frameSingle(q, q.Time.Concrete(), "time", q.Time.String(), func(l table.Level, i int) bool {
			t, _ := q.Time.Value()
			return l.MatchTime(i, t)
		})
	case FrameCrossSection:
		return a.frameSingle(q, q.Asset.Concrete(), "asset", q.Asset.String(), func(l table.Level, i int) bool {
			s, _ := q.Asset.Value()
			return l.MatchLabel(i, s)
		})
	case FramePanel:
		return a.framePanel(q)
	default:
		return Result{}, apperrors.NewUnsupportedShapeError(fmt.Sprintf("unknown shape tag %s", a.tag))
	}
}

func (a *Accessor) seriesSingle(concrete bool, axis, key string, match func(table.Level, int) bool) (Result, error) {
	if !concrete {
		return Result{}, missingKey(a.tag, axis)
	}
	s := a.t.(*table.Series)
	lvl := s.Index().Level(0)
	row, ok := firstRow(s.Index(), func(i int) bool { return match(lvl, i) })
	if !ok {
		return Result{}, labelNotFound(axis, key)
	}
	return scalarResult(lvl.Label(row), s.Value(row)), nil
}

func (a *Accessor) frameSingle(q Query, concrete bool, axis, key string, match func(table.Level, int) bool) (Result, error) {
	if !concrete {
		return Result{}, missingKey(a.tag, axis)
	}
	if !q.Indicator.Concrete() {
		return Result{}, missingKey(a.tag, "indicator")
	}
	f := a.t.(*table.Frame)
	col, err := column(f, q.Indicator)
	if err != nil {
		return Result{}, err
	}
	lvl := f.Index().Level(0)
	row, ok := firstRow(f.Index(), func(i int) bool { return match(lvl, i) })
	if !ok {
		return Result{}, labelNotFound(axis, key)
	}
	return scalarResult(lvl.Label(row), f.Value(row, col)), nil
}

func (a *Accessor) seriesPanel(q Query) (Result, error) {
	s := a.t.(*table.Series)
	ix := s.Index()
	outer, inner := ix.Level(0), ix.Level(1)
	t, tc := q.Time.Value()
	asset, ac := q.Asset.Value()

	switch {
	case tc && ac:
		return Result{}, apperrors.NewAmbiguousSelectorError(
			fmt.Sprintf("%s selects by time or by asset, not both", a.tag))
	case tc:
		rows := ix.Rows(func(i int) bool { return outer.MatchTime(i, t) })
		if len(rows) == 0 {
			return Result{}, labelNotFound("time", q.Time.String())
		}
		return vectorResult(table.MustSeries(s.Name(), table.MustIndex(inner.Take(rows)), takeValues(s.Values(), rows))), nil
	case ac:
		rows := ix.Rows(func(i int) bool { return inner.MatchLabel(i, asset) })
		if len(rows) == 0 {
			return Result{}, labelNotFound("asset", q.Asset.String())
		}
		return vectorResult(table.MustSeries(s.Name(), table.MustIndex(outer.Take(rows)), takeValues(s.Values(), rows))), nil
	default:
		return Result{}, apperrors.NewIndexError(
			fmt.Sprintf("%s requires a concrete time or asset key", a.tag)).WithContext("axis", "time|asset")
	}
}

func (a *Accessor) framePanel(q Query) (Result, error) {
	f := a.t.(*table.Frame)
	ix := f.Index()
	outer, inner := ix.Level(0), ix.Level(1)
	t, tc := q.Time.Value()
	asset, ac := q.Asset.Value()

	switch {
	case tc && ac:
		row, ok := firstRow(ix, func(i int) bool { return outer.MatchTime(i, t) && inner.MatchLabel(i, asset) })
		if !ok {
			return Result{}, labelNotFound("(time, asset)", fmt.Sprintf("(%s, %s)", q.Time, q.Asset))
		}
		// labelled by calendar date even for intraday panels
		label := outer.Time(row).Format(table.DateLayout)
		if q.Indicator.Concrete() {
			col, err := column(f, q.Indicator)
			if err != nil {
				return Result{}, err
			}
			return scalarResult(label, f.Value(row, col)), nil
		}
		vec := table.MustSeries(label, table.LabelIndex("indicator", f.Columns()...), f.Row(row))
		return vectorResult(vec), nil
	case tc:
		rows := ix.Rows(func(i int) bool { return outer.MatchTime(i, t) })
		if len(rows) == 0 {
			return Result{}, labelNotFound("time", q.Time.String())
		}
		return selectRows(f, rows, inner, q.Indicator)
	case ac:
		rows := ix.Rows(func(i int) bool { return inner.MatchLabel(i, asset) })
		if len(rows) == 0 {
			return Result{}, labelNotFound("asset", q.Asset.String())
		}
		return selectRows(f, rows, outer, q.Indicator)
	case q.Indicator.Concrete():
		col, err := column(f, q.Indicator)
		if err != nil {
			return Result{}, err
		}
		return tableResult(unstack(f, col)), nil
	default:
		return Result{}, apperrors.NewAmbiguousSelectorError(
			fmt.Sprintf("%s needs a concrete time, asset, or indicator key", a.tag))
	}
}

// selectRows keeps rows of f re-indexed by keep, narrowed to one indicator
// column when that key is concrete.
func selectRows(f *table.Frame, rows []int, keep table.Level, indicator Key[string]) (Result, error) {
	ix := table.MustIndex(keep.Take(rows))
	if name, ok := indicator.Value(); ok {
		col, err := column(f, indicator)
		if err != nil {
			return Result{}, err
		}
		vals := make([]float64, len(rows))
		for i, r := range rows {
			vals[i] = f.Value(r, col)
		}
		return vectorResult(table.MustSeries(name, ix, vals)), nil
	}
	data := make([][]float64, f.Width())
	for c := range data {
		data[c] = make([]float64, len(rows))
		for i, r := range rows {
			data[c][i] = f.Value(r, c)
		}
	}
	return tableResult(table.MustFrame(ix, f.Columns(), data)), nil
}

// unstack pivots one column of a panel frame into a time × asset table. Rows
// are sorted by time, columns by asset; combinations absent from the panel
// are NaN, and the first occurrence wins for duplicated rows.
func unstack(f *table.Frame, col int) *table.Frame {
	ix := f.Index()
	outer, inner := ix.Level(0), ix.Level(1)

	seenTime := make(map[int64]struct{})
	seenAsset := make(map[string]struct{})
	var times []time.Time
	var assets []string
	for i := 0; i < ix.Len(); i++ {
		t := outer.Time(i)
		if _, ok := seenTime[t.UnixNano()]; !ok {
			seenTime[t.UnixNano()] = struct{}{}
			times = append(times, t)
		}
		if _, ok := seenAsset[inner.Label(i)]; !ok {
			seenAsset[inner.Label(i)] = struct{}{}
			assets = append(assets, inner.Label(i))
		}
	}
	slices.SortFunc(times, func(a, b time.Time) int { return a.Compare(b) })
	slices.Sort(assets)

	rowOf := make(map[int64]int, len(times))
	for r, t := range times {
		rowOf[t.UnixNano()] = r
	}
	colOf := make(map[string]int, len(assets))
	for c, a := range assets {
		colOf[a] = c
	}

	out, _ := table.NewEmptyFrame(table.TimeIndex(outer.Name(), times...), assets)
	for i := ix.Len() - 1; i >= 0; i-- {
		out.Set(rowOf[outer.Time(i).UnixNano()], colOf[inner.Label(i)], f.Value(i, col))
	}
	return out
}

func column(f *table.Frame, indicator Key[string]) (int, error) {
	name, _ := indicator.Value()
	col, ok := f.ColumnIndex(name)
	if !ok {
		return 0, labelNotFound("indicator", name)
	}
	return col, nil
}

func firstRow(ix *table.Index, match func(int) bool) (int, bool) {
	for i := 0; i < ix.Len(); i++ {
		if match(i) {
			return i, true
		}
	}
	return 0, false
}

func takeValues(values []float64, rows []int) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = values[r]
	}
	return out
}

func missingKey(tag Tag, axis string) error {
	return apperrors.NewIndexError(fmt.Sprintf("%s requires a concrete %s key", tag, axis)).
		WithContext("axis", axis)
}

func labelNotFound(axis, label string) error {
	return apperrors.NewAppError(apperrors.ErrTypeIndex, fmt.Sprintf("%s %s", axis, label), ErrLabelNotFound).
		WithContext("axis", axis).
		WithContext("label", label)
}
