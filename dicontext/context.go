// Package dicontext stores a [di.ServiceProvider] on a [context.Context] and resolves services from it.
package dicontext

import (
	"context"

	"github.com/sectrean/inject-kit"
	"github.com/sectrean/inject-kit/internal/errors"
)

type providerContextKey struct{}

// WithProvider returns a new [context.Context] that carries the provided [di.ServiceProvider].
func WithProvider(ctx context.Context, p *di.ServiceProvider) context.Context {
	return context.WithValue(ctx, providerContextKey{}, p)
}

// Provider returns the [di.ServiceProvider] stored on the [context.Context], if present.
func Provider(ctx context.Context) *di.ServiceProvider {
	if p, ok := ctx.Value(providerContextKey{}).(*di.ServiceProvider); ok {
		return p
	}
	return nil
}

// Resolve a service of type T from the [di.ServiceProvider] stored on the
// [context.Context].
func Resolve[T any](ctx context.Context) (T, error) {
	p := Provider(ctx)
	if p == nil {
		var zero T
		return zero, errors.Errorf("resolve %s from context: provider not found on context", di.TokenFor[T]())
	}

	val, err := di.Resolve[T](ctx, p)
	return val, errors.Wrap(err, "resolve from context")
}

// MustResolve resolves a service of type T from the [di.ServiceProvider] stored on the
// [context.Context].
//
// If the service cannot be resolved, this function will panic.
func MustResolve[T any](ctx context.Context) T {
	val, err := Resolve[T](ctx)
	if err != nil {
		panic(err)
	}
	return val
}
