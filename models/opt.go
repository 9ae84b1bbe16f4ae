package models

// Opt is a value that may be absent. The zero Opt is absent.
type Opt[T any] struct {
	value T
	ok    bool
}

func Some[T any](v T) Opt[T] {
	return Opt[T]{value: v, ok: true}
}

func None[T any]() Opt[T] {
	return Opt[T]{}
}

func (o Opt[T]) Get() (T, bool) {
	return o.value, o.ok
}

func (o Opt[T]) IsSet() bool {
	return o.ok
}

// Or returns the value, or def when absent.
func (o Opt[T]) Or(def T) T {
	if o.ok {
		return o.value
	}
	return def
}
