package table

import (
	"fmt"
	"time"
)

// DateLayout is the rendering used for datetime labels without a time-of-day component.
const DateLayout = "2006-01-02"

// dateTimeLayout is used when a datetime label carries a time-of-day component.
const dateTimeLayout = "2006-01-02 15:04:05"

// LevelKind distinguishes datetime-valued index levels from plain-valued ones
type LevelKind int

const (
	// LevelPlain holds string labels such as asset codes
	LevelPlain LevelKind = iota
	// LevelDatetime holds timestamps
	LevelDatetime
)

// String returns the level kind name
func (k LevelKind) String() string {
	switch k {
	case LevelPlain:
		return "plain"
	case LevelDatetime:
		return "datetime"
	default:
		return fmt.Sprintf("LevelKind(%d)", int(k))
	}
}

// Level is one level of a row index. Exactly one of times or labels is populated,
// depending on kind.
type Level struct {
	name   string
	kind   LevelKind
	times  []time.Time
	labels []string
}

// TimeLevel creates a datetime-valued level
func TimeLevel(name string, values ...time.Time) Level {
	v := make([]time.Time, len(values))
	copy(v, values)
	return Level{name: name, kind: LevelDatetime, times: v}
}

// LabelLevel creates a plain-valued level
func LabelLevel(name string, values ...string) Level {
	v := make([]string, len(values))
	copy(v, values)
	return Level{name: name, kind: LevelPlain, labels: v}
}

// Name returns the level name
func (l Level) Name() string { return l.name }

// Kind returns the level kind
func (l Level) Kind() LevelKind { return l.kind }

// IsDatetime reports whether the level holds timestamps
func (l Level) IsDatetime() bool { return l.kind == LevelDatetime }

// Len returns the number of labels in the level
func (l Level) Len() int {
	if l.kind == LevelDatetime {
		return len(l.times)
	}
	return len(l.labels)
}

// Time returns the timestamp at position i. It returns the zero time for plain levels.
func (l Level) Time(i int) time.Time {
	if l.kind != LevelDatetime {
		return time.Time{}
	}
	return l.times[i]
}

// Label returns the plain label at position i. For datetime levels it returns the
// rendered timestamp, see FormatTime.
func (l Level) Label(i int) string {
	if l.kind == LevelDatetime {
		return FormatTime(l.times[i])
	}
	return l.labels[i]
}

// MatchTime reports whether position i holds a timestamp equal to t
func (l Level) MatchTime(i int, t time.Time) bool {
	return l.kind == LevelDatetime && l.times[i].Equal(t)
}

// MatchLabel reports whether position i holds the plain label s
func (l Level) MatchLabel(i int, s string) bool {
	return l.kind == LevelPlain && l.labels[i] == s
}

// Take returns a new level holding the labels at the given positions, in order
func (l Level) Take(rows []int) Level {
	out := Level{name: l.name, kind: l.kind}
	if l.kind == LevelDatetime {
		out.times = make([]time.Time, len(rows))
		for i, r := range rows {
			out.times[i] = l.times[r]
		}
		return out
	}
	out.labels = make([]string, len(rows))
	for i, r := range rows {
		out.labels[i] = l.labels[r]
	}
	return out
}

// FormatTime renders a timestamp as a plain date string, keeping the time of day
// only when it is not midnight.
func FormatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(DateLayout)
	}
	return t.Format(dateTimeLayout)
}

// Index is a row index of one or more levels of equal length
type Index struct {
	levels []Level
	n      int
}

// NewIndex creates an index from levels that all have the same length
func NewIndex(levels ...Level) (*Index, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("index needs at least one level")
	}
	n := levels[0].Len()
	for i, l := range levels[1:] {
		if l.Len() != n {
			return nil, fmt.Errorf("index level %d (%q) has %d labels, want %d", i+1, l.name, l.Len(), n)
		}
	}
	ls := make([]Level, len(levels))
	copy(ls, levels)
	return &Index{levels: ls, n: n}, nil
}

// MustIndex is like NewIndex but panics on error. Intended for fixtures.
func MustIndex(levels ...Level) *Index {
	ix, err := NewIndex(levels...)
	if err != nil {
		panic(err)
	}
	return ix
}

// TimeIndex creates a single-level datetime index
func TimeIndex(name string, values ...time.Time) *Index {
	return MustIndex(TimeLevel(name, values...))
}

// LabelIndex creates a single-level plain index
func LabelIndex(name string, values ...string) *Index {
	return MustIndex(LabelLevel(name, values...))
}

// PanelIndex creates a two-level (time, asset) index
func PanelIndex(times []time.Time, assets []string) (*Index, error) {
	return NewIndex(TimeLevel("datetime", times...), LabelLevel("asset", assets...))
}

// Len returns the number of rows
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return ix.n
}

// NLevels returns the number of levels
func (ix *Index) NLevels() int {
	if ix == nil {
		return 0
	}
	return len(ix.levels)
}

// IsMulti reports whether the index has more than one level
func (ix *Index) IsMulti() bool {
	return ix.NLevels() > 1
}

// Level returns level i
func (ix *Index) Level(i int) Level {
	return ix.levels[i]
}

// Rows returns the positions for which match returns true
func (ix *Index) Rows(match func(row int) bool) []int {
	var rows []int
	for i := 0; i < ix.Len(); i++ {
		if match(i) {
			rows = append(rows, i)
		}
	}
	return rows
}
