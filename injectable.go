package di

import (
	"context"

	"github.com/sectrean/inject-kit/internal/errors"
)

// FromInjector is implemented by types that know how to populate themselves from an [Injector].
//
// Implement it on the pointer receiver. The receiver is a freshly allocated zero value:
//
//	type Logger struct {
//		di.Registrable
//		clock *Clock
//	}
//
//	func (l *Logger) FromInjector(ctx context.Context, inj *di.Injector) error {
//		clock, err := di.Resolve[*Clock](ctx, inj)
//		if err != nil {
//			return err
//		}
//		l.clock = clock
//		return nil
//	}
type FromInjector interface {
	FromInjector(ctx context.Context, inj *Injector) error
}

// Injectable is a [FromInjector] type that may be registered with a [ServiceCollection].
//
// A type becomes Injectable by embedding [Registrable].
type Injectable interface {
	FromInjector
	injectable()
}

// Registrable is embedded in a struct to mark it as [Injectable].
type Registrable struct{}

func (Registrable) injectable() {}

// FromInjectorPtr constrains PT to be *T and implement [FromInjector].
type FromInjectorPtr[T any] interface {
	*T
	FromInjector
}

// InjectablePtr constrains PT to be *T and implement [Injectable].
type InjectablePtr[T any] interface {
	*T
	Injectable
}

// Factory constructs a service of type T.
//
// Use a Factory to register interfaces and types from other packages that cannot
// implement [Injectable].
type Factory[T any] func(ctx context.Context, inj *Injector) (T, error)

func (f Factory[T]) build(ctx context.Context, inj *Injector) (any, error) {
	val, err := f(ctx, inj)
	if err != nil {
		return nil, err
	}
	return val, nil
}

func injectableBuild[T any, PT FromInjectorPtr[T]](ctx context.Context, inj *Injector) (any, error) {
	val := PT(new(T))
	if err := val.FromInjector(ctx, inj); err != nil {
		return nil, err
	}
	return val, nil
}

// Construct builds a value of type *T that is not registered, resolving its dependencies
// through r.
//
// The value is not cached and is not closed by the provider.
func Construct[T any, PT FromInjectorPtr[T]](ctx context.Context, r Resolver) (*T, error) {
	val := PT(new(T))

	err := val.FromInjector(ctx, r.injector())
	if err != nil {
		return nil, errors.Wrapf(err, "di.Construct %s", TokenFor[*T]())
	}

	return val, nil
}
