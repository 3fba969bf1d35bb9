package di

import "context"

// DecorateFunc wraps a service of type T after it has been constructed.
type DecorateFunc[T any] func(ctx context.Context, inj *Injector, val T) (T, error)

// Decorate registers a function that wraps the service of type T every time it is constructed.
//
// Decorators run in the order they were added, after the service's own constructor, and
// apply to whichever registration of T is present when the collection is built.
// A decorator for a type with no registration has no effect. Neither does a decorator for
// an interface registered with [As]: decorate the service type itself instead.
//
//	sc.Add(di.Decorate(func(ctx context.Context, inj *di.Injector, h http.Handler) (http.Handler, error) {
//		return middleware.Logger(h), nil
//	}))
func Decorate[T any](f DecorateFunc[T]) Registration {
	return decorator{
		token: TokenFor[T](),
		fn: func(ctx context.Context, inj *Injector, val any) (any, error) {
			typed, _ := val.(T)
			return f(ctx, inj, typed)
		},
	}
}

type decorateFunc func(ctx context.Context, inj *Injector, val any) (any, error)

type decorator struct {
	token Token
	fn    decorateFunc
}

func (d decorator) register(sc *ServiceCollection) {
	sc.decorators[d.token] = append(sc.decorators[d.token], d.fn)
}

// decorate wraps build so the decorators run on each constructed value.
func decorate(build buildFunc, decorators []decorateFunc) buildFunc {
	if len(decorators) == 0 {
		return build
	}

	return func(ctx context.Context, inj *Injector) (any, error) {
		val, err := build(ctx, inj)
		if err != nil {
			return nil, err
		}

		for _, d := range decorators {
			val, err = d(ctx, inj, val)
			if err != nil {
				return nil, err
			}
		}
		return val, nil
	}
}
