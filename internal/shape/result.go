package shape

import (
	"fmt"

	"quantkit/internal/table"
)

// ResultKind tells which of the Result views is populated
type ResultKind int

const (
	ResultScalar ResultKind = iota + 1
	ResultVector
	ResultTable
)

// String returns the result kind name
func (k ResultKind) String() string {
	switch k {
	case ResultScalar:
		return "scalar"
	case ResultVector:
		return "vector"
	case ResultTable:
		return "table"
	default:
		return fmt.Sprintf("ResultKind(%d)", int(k))
	}
}

// Scalar is a single value together with the label of the row it was read from
type Scalar struct {
	Label string
	Value float64
}

// Result is the outcome of an access: a scalar, a vector, or a sub-table
type Result struct {
	kind   ResultKind
	scalar Scalar
	vector *table.Series
	frame  *table.Frame
}

func scalarResult(label string, v float64) Result {
	return Result{kind: ResultScalar, scalar: Scalar{Label: label, Value: v}}
}

func vectorResult(s *table.Series) Result {
	return Result{kind: ResultVector, vector: s}
}

func tableResult(f *table.Frame) Result {
	return Result{kind: ResultTable, frame: f}
}

// Kind returns the populated view
func (r Result) Kind() ResultKind { return r.kind }

// Scalar returns the scalar view
func (r Result) Scalar() (Scalar, bool) { return r.scalar, r.kind == ResultScalar }

// Vector returns the vector view
func (r Result) Vector() (*table.Series, bool) { return r.vector, r.kind == ResultVector }

// Table returns the sub-table view
func (r Result) Table() (*table.Frame, bool) { return r.frame, r.kind == ResultTable }
