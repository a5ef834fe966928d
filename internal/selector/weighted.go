// Package selector implements cumulative-weight random selection shared by
// structure selection and loot rolling.
package selector

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

var (
	// ErrEmptyCollection is returned by Pick on a selector with no entries.
	// Callers must not pick from an empty candidate set; it is never defaulted.
	ErrEmptyCollection = errors.New("selector: pick from empty collection")

	// ErrInvalidWeight is returned by Add for weights <= 0.
	ErrInvalidWeight = errors.New("selector: weight must be positive")
)

type entry[T any] struct {
	cumulative int
	value      T
}

// Weighted is an append-only multiset where each value is picked with
// probability weight/total. Cumulative weights strictly increase in insertion
// order. Not safe for concurrent Add; concurrent Pick is fine once built.
type Weighted[T any] struct {
	entries []entry[T]
	total   int
}

// New creates an empty selector with room for n entries.
func New[T any](n int) *Weighted[T] {
	return &Weighted[T]{entries: make([]entry[T], 0, n)}
}

// Add appends value with the given weight.
func (w *Weighted[T]) Add(weight int, value T) error {
	if weight <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidWeight, weight)
	}
	w.total += weight
	w.entries = append(w.entries, entry[T]{cumulative: w.total, value: value})
	return nil
}

// Pick draws r uniformly from [0, total) and returns the first value whose
// cumulative weight exceeds r.
func (w *Weighted[T]) Pick(rng *rand.Rand) (T, error) {
	var zero T
	if len(w.entries) == 0 {
		return zero, ErrEmptyCollection
	}

	r := rng.IntN(w.total)

	// Binary search: first cumulative > r.
	lo, hi := 0, len(w.entries)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if w.entries[mid].cumulative > r {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return w.entries[lo].value, nil
}

// Len returns the number of entries.
func (w *Weighted[T]) Len() int {
	return len(w.entries)
}

// Total returns the sum of all weights.
func (w *Weighted[T]) Total() int {
	return w.total
}
