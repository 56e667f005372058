package table

import (
	"fmt"
	"math"
)

// Table is a labeled table of float64 values addressed through a row Index.
// *Series holds a single indicator, *Frame holds named indicator columns.
type Table interface {
	// Index returns the row index
	Index() *Index
	// Len returns the number of rows
	Len() int
	// Empty reports whether the table holds no values
	Empty() bool
}

var (
	_ Table = (*Series)(nil)
	_ Table = (*Frame)(nil)
)

// Series is a single indicator over a row index
type Series struct {
	name   string
	index  *Index
	values []float64
}

// NewSeries creates a series. values must have one entry per index row.
func NewSeries(name string, index *Index, values []float64) (*Series, error) {
	if index == nil {
		return nil, fmt.Errorf("series %q: nil index", name)
	}
	if len(values) != index.Len() {
		return nil, fmt.Errorf("series %q: %d values for %d index rows", name, len(values), index.Len())
	}
	v := make([]float64, len(values))
	copy(v, values)
	return &Series{name: name, index: index, values: v}, nil
}

// MustSeries is like NewSeries but panics on error. Intended for fixtures.
func MustSeries(name string, index *Index, values []float64) *Series {
	s, err := NewSeries(name, index, values)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the indicator name
func (s *Series) Name() string { return s.name }

// Index returns the row index
func (s *Series) Index() *Index { return s.index }

// Len returns the number of rows
func (s *Series) Len() int { return s.index.Len() }

// Empty reports whether the series has no rows
func (s *Series) Empty() bool { return s == nil || s.Len() == 0 }

// Value returns the value at row i
func (s *Series) Value(i int) float64 { return s.values[i] }

// Values returns a copy of all values
func (s *Series) Values() []float64 {
	v := make([]float64, len(s.values))
	copy(v, s.values)
	return v
}

// Frame is a set of named indicator columns over a shared row index.
// Values are stored column-major.
type Frame struct {
	index   *Index
	columns []string
	data    [][]float64
	lookup  map[string]int
}

// NewFrame creates a frame from column-major data: data[c][r] is the value of
// column c at row r.
func NewFrame(index *Index, columns []string, data [][]float64) (*Frame, error) {
	if index == nil {
		return nil, fmt.Errorf("frame: nil index")
	}
	if len(columns) != len(data) {
		return nil, fmt.Errorf("frame: %d column names for %d columns", len(columns), len(data))
	}
	lookup := make(map[string]int, len(columns))
	cols := make([][]float64, len(data))
	for c, name := range columns {
		if _, dup := lookup[name]; dup {
			return nil, fmt.Errorf("frame: duplicate column %q", name)
		}
		if len(data[c]) != index.Len() {
			return nil, fmt.Errorf("frame: column %q has %d values for %d index rows", name, len(data[c]), index.Len())
		}
		lookup[name] = c
		cols[c] = make([]float64, len(data[c]))
		copy(cols[c], data[c])
	}
	names := make([]string, len(columns))
	copy(names, columns)
	return &Frame{index: index, columns: names, data: cols, lookup: lookup}, nil
}

// MustFrame is like NewFrame but panics on error. Intended for fixtures.
func MustFrame(index *Index, columns []string, data [][]float64) *Frame {
	f, err := NewFrame(index, columns, data)
	if err != nil {
		panic(err)
	}
	return f
}

// NewEmptyFrame creates a frame of the given columns where every cell is NaN
func NewEmptyFrame(index *Index, columns []string) (*Frame, error) {
	data := make([][]float64, len(columns))
	for c := range data {
		data[c] = make([]float64, index.Len())
		for r := range data[c] {
			data[c][r] = math.NaN()
		}
	}
	return NewFrame(index, columns, data)
}

// Index returns the row index
func (f *Frame) Index() *Index { return f.index }

// Len returns the number of rows
func (f *Frame) Len() int { return f.index.Len() }

// Width returns the number of columns
func (f *Frame) Width() int { return len(f.columns) }

// Empty reports whether the frame has no rows or no columns
func (f *Frame) Empty() bool { return f == nil || f.Len() == 0 || f.Width() == 0 }

// Columns returns a copy of the column names
func (f *Frame) Columns() []string {
	c := make([]string, len(f.columns))
	copy(c, f.columns)
	return c
}

// ColumnIndex returns the position of the named column
func (f *Frame) ColumnIndex(name string) (int, bool) {
	c, ok := f.lookup[name]
	return c, ok
}

// Value returns the value at the given row and column position
func (f *Frame) Value(row, col int) float64 { return f.data[col][row] }

// Set writes the value at the given row and column position. Only frames owned
// by the caller should be written to.
func (f *Frame) Set(row, col int, v float64) { f.data[col][row] = v }

// Column returns the named column as a series sharing this frame's index
func (f *Frame) Column(name string) (*Series, bool) {
	c, ok := f.lookup[name]
	if !ok {
		return nil, false
	}
	return &Series{name: name, index: f.index, values: append([]float64(nil), f.data[c]...)}, true
}

// Row returns a copy of the values of row i across all columns
func (f *Frame) Row(i int) []float64 {
	row := make([]float64, len(f.columns))
	for c := range f.data {
		row[c] = f.data[c][i]
	}
	return row
}
