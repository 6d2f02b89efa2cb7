// Package options implements the functional option pattern shared by the
// decoder, source, catalog and client constructors.
package options

// Option configures a target of type T.
type Option[T any] interface {
	apply(T) error
}

type funcOption[T any] struct {
	fn func(T) error
}

func (f funcOption[T]) apply(target T) error {
	return f.fn(target)
}

// New creates an option from a function that may reject its input.
func New[T any](fn func(T) error) Option[T] {
	return funcOption[T]{fn: fn}
}

// NoError creates an option from a function that cannot fail.
func NoError[T any](fn func(T)) Option[T] {
	return funcOption[T]{fn: func(target T) error {
		fn(target)
		return nil
	}}
}

// Apply applies opts to target in order and stops at the first error.
// Nil options are skipped.
func Apply[T any](target T, opts ...Option[T]) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.apply(target); err != nil {
			return err
		}
	}

	return nil
}
