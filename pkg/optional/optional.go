package optional

import "reflect"

// Value holds a T that may be unset. The zero Value is unset, which is
// distinct from a set Value holding T's zero value.
type Value[T any] struct {
	v   T
	set bool
}

// Of returns a set Value holding v
func Of[T any](v T) Value[T] {
	return Value[T]{v: v, set: true}
}

// None returns an unset Value
func None[T any]() Value[T] {
	return Value[T]{}
}

// FromPtr returns an unset Value for nil, otherwise a Value holding *p
func FromPtr[T any](p *T) Value[T] {
	if p == nil {
		return Value[T]{}
	}
	return Of(*p)
}

// IsSet reports whether a value is present
func (o Value[T]) IsSet() bool {
	return o.set
}

// Get returns the held value and whether it is set
func (o Value[T]) Get() (T, bool) {
	return o.v, o.set
}

// OrElse returns the held value, or def when unset
func (o Value[T]) OrElse(def T) T {
	if !o.set {
		return def
	}
	return o.v
}

// Ptr returns a pointer to a copy of the held value, or nil when unset
func (o Value[T]) Ptr() *T {
	if !o.set {
		return nil
	}
	v := o.v
	return &v
}

// Equal reports whether both values are unset, or both are set to equal
// values. A T with its own Equal method, such as time.Time, is compared
// with it; anything else is compared deeply. go-cmp picks this method up
// when diffing records.
func (o Value[T]) Equal(other Value[T]) bool {
	if o.set != other.set {
		return false
	}
	if !o.set {
		return true
	}
	if eq, ok := any(o.v).(interface{ Equal(T) bool }); ok {
		return eq.Equal(other.v)
	}
	return reflect.DeepEqual(o.v, other.v)
}
