package graph

import "fmt"

// Optional holds a value that may be absent. Unlike a zero value or an empty
// string, an absent Optional is distinguishable from a present empty value:
// Some("") and None[string]() are different and compare unequal.
//
// Optional is comparable whenever T is, so it can be part of a map key
// (see [EdgeID]).
type Optional[T comparable] struct {
	value T
	set   bool
}

// Some returns a present Optional holding v.
func Some[T comparable](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

// None returns an absent Optional.
func None[T comparable]() Optional[T] {
	return Optional[T]{}
}

// Get returns the held value and whether it is present.
func (o Optional[T]) Get() (T, bool) { return o.value, o.set }

// IsSet reports whether a value is present.
func (o Optional[T]) IsSet() bool { return o.set }

// OrElse returns the held value, or def when absent.
func (o Optional[T]) OrElse(def T) T {
	if o.set {
		return o.value
	}
	return def
}

// Equal reports whether both are absent, or both present with equal values.
func (o Optional[T]) Equal(other Optional[T]) bool { return o == other }

// String formats the held value, or "<none>" when absent.
func (o Optional[T]) String() string {
	if !o.set {
		return "<none>"
	}
	return fmt.Sprint(o.value)
}

// Key is shorthand for Some(k) when building edge keys.
func Key(k string) Optional[string] { return Some(k) }

// NoKey is shorthand for an absent edge key.
func NoKey() Optional[string] { return None[string]() }
