// Package filter holds the admission policies applied around scoring:
// star-count and push-date pre-filters used when searching, and the
// score-threshold filter applied after evaluation.
package filter

import (
	"cmp"
	"fmt"
)

// Bound is an optional value, used as one side of a Range or as a
// standalone cutoff. The zero value is Unbounded.
type Bound[T any] struct {
	value   T
	bounded bool
}

// Unbounded returns a bound that admits everything on its side.
func Unbounded[T any]() Bound[T] {
	return Bound[T]{}
}

// Bounded returns a bound fixed at v.
func Bounded[T any](v T) Bound[T] {
	return Bound[T]{value: v, bounded: true}
}

// FromPtr converts an optional configuration value into a Bound.
func FromPtr[T any](v *T) Bound[T] {
	if v == nil {
		return Unbounded[T]()
	}
	return Bounded(*v)
}

// Value returns the bound value and whether the bound is set.
func (b Bound[T]) Value() (T, bool) {
	return b.value, b.bounded
}

// IsBounded reports whether the bound carries a value.
func (b Bound[T]) IsBounded() bool {
	return b.bounded
}

func (b Bound[T]) String() string {
	if !b.bounded {
		return "*"
	}
	return fmt.Sprint(b.value)
}

// Range is an inclusive interval whose ends are individually optional.
type Range[T cmp.Ordered] struct {
	Min Bound[T]
	Max Bound[T]
}

// Contains reports whether v lies within the range. Both ends are inclusive.
func (r Range[T]) Contains(v T) bool {
	if min, ok := r.Min.Value(); ok && v < min {
		return false
	}
	if max, ok := r.Max.Value(); ok && v > max {
		return false
	}
	return true
}

// Validate rejects a range whose minimum exceeds its maximum.
func (r Range[T]) Validate() error {
	min, hasMin := r.Min.Value()
	max, hasMax := r.Max.Value()
	if hasMin && hasMax && min > max {
		return fmt.Errorf("min %v exceeds max %v", min, max)
	}
	return nil
}

func (r Range[T]) String() string {
	return r.Min.String() + ".." + r.Max.String()
}
