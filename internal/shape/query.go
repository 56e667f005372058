package shape

import (
	"fmt"
	"time"

	"quantkit/internal/table"
)

type keyState uint8

const (
	keyAbsent keyState = iota
	keyAny
	keyAt
)

// Key is one optional coordinate of a Query. The zero value is an absent key.
type Key[T any] struct {
	state keyState
	value T
}

// At returns a concrete key selecting v
func At[T any](v T) Key[T] {
	return Key[T]{state: keyAt, value: v}
}

// Any returns a wildcard key. Wildcards select the whole axis, as absent keys do,
// but make the intent explicit at the call site.
func Any[T any]() Key[T] {
	return Key[T]{state: keyAny}
}

// Concrete reports whether the key selects a single label
func (k Key[T]) Concrete() bool { return k.state == keyAt }

// Wildcard reports whether the key is an explicit wildcard
func (k Key[T]) Wildcard() bool { return k.state == keyAny }

// Absent reports whether the key was not supplied
func (k Key[T]) Absent() bool { return k.state == keyAbsent }

// Value returns the selected label and whether the key is concrete
func (k Key[T]) Value() (T, bool) {
	return k.value, k.state == keyAt
}

// String renders the key for error messages
func (k Key[T]) String() string {
	switch k.state {
	case keyAt:
		if t, ok := any(k.value).(time.Time); ok {
			return table.FormatTime(t)
		}
		return fmt.Sprint(k.value)
	case keyAny:
		return "*"
	default:
		return "<absent>"
	}
}

// Date parses a YYYY-MM-DD string into a concrete time key
func Date(s string) (Key[time.Time], error) {
	t, err := time.Parse(table.DateLayout, s)
	if err != nil {
		return Key[time.Time]{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return At(t), nil
}

// Query carries the optional time, asset, and indicator coordinates of one access
type Query struct {
	Time      Key[time.Time]
	Asset     Key[string]
	Indicator Key[string]
}

// String renders the query for logs and error messages
func (q Query) String() string {
	return fmt.Sprintf("(time=%s, asset=%s, indicator=%s)", q.Time, q.Asset, q.Indicator)
}
