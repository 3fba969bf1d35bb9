package di

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/sectrean/inject-kit/internal/errors"
)

// Resolver resolves services. It is implemented by [*ServiceProvider] and [*Injector].
type Resolver interface {
	// ResolveToken returns the service registered for token.
	ResolveToken(ctx context.Context, token Token) (any, error)

	// Contains returns true if a service is registered for token.
	Contains(token Token) bool

	injector() *Injector
}

// Resolve returns the service of type T.
//
// Resolution errors are [*InjectionError]s. Use [errors.Is] with the sentinel errors in this
// package to check the reason:
//
//	clock, err := di.Resolve[*Clock](ctx, provider)
func Resolve[T any](ctx context.Context, r Resolver) (T, error) {
	var zero T

	val, err := r.ResolveToken(ctx, TokenFor[T]())
	if err != nil || val == nil {
		return zero, err
	}

	typed, ok := val.(T)
	if !ok {
		return zero, errors.Errorf("di.Resolve %s: unexpected service type %T", TokenFor[T](), val)
	}
	return typed, nil
}

// MustResolve returns the service of type T.
//
// If the service cannot be resolved, this function will panic.
func MustResolve[T any](ctx context.Context, r Resolver) T {
	val, err := Resolve[T](ctx, r)
	if err != nil {
		panic(err)
	}
	return val
}

// ServiceProvider resolves services from a built [ServiceCollection].
//
// The root provider is returned by [ServiceCollection.Build]. It owns singletons.
// Each [ServiceScope] has its own provider that owns that scope's scoped services.
//
// Two services are built in:
//   - *ServiceProvider resolves to the provider itself.
//   - *ServiceScope resolves to the current scope, or to a new scope when resolved from the root.
type ServiceProvider struct {
	container *Container
	scope     *ServiceScope
	closers   closerStack
	closed    atomic.Bool
}

var _ Resolver = (*ServiceProvider)(nil)

// ResolveToken returns the service registered for token.
func (p *ServiceProvider) ResolveToken(ctx context.Context, token Token) (any, error) {
	return p.injector().ResolveToken(ctx, token)
}

func (p *ServiceProvider) injector() *Injector {
	return &Injector{
		provider: p,
		tree:     &callTree{},
	}
}

// Contains returns true if a service is registered for token.
func (p *ServiceProvider) Contains(token Token) bool {
	return p.container.contains(token)
}

// IsRoot returns true for the root provider, and false for a scope's provider.
func (p *ServiceProvider) IsRoot() bool {
	return p.scope == nil
}

// Root returns the root provider.
func (p *ServiceProvider) Root() *ServiceProvider {
	return p.container.root
}

// Scope returns the scope the provider belongs to, or nil for the root provider.
func (p *ServiceProvider) Scope() *ServiceScope {
	return p.scope
}

// NewScope creates a new [ServiceScope] from the same container.
//
// Scopes do not nest: a scope created from a scope's provider is a sibling with its own
// scoped services.
func (p *ServiceProvider) NewScope() *ServiceScope {
	return NewServiceScope(p)
}

// Close closes the provider.
//
// Closing the root provider closes singletons and transient services it created, in reverse
// order of construction. Closing a scope's provider closes the scope.
// After Close, resolving from the provider returns [ErrProviderClosed].
func (p *ServiceProvider) Close(ctx context.Context) error {
	if p.scope != nil {
		return p.scope.Close(ctx)
	}

	p.closed.Store(true)
	ok, err := p.closers.close(ctx)
	if !ok {
		return errors.Wrap(ErrProviderClosed, "di.ServiceProvider.Close")
	}

	return errors.Wrap(err, "di.ServiceProvider.Close")
}

func (p *ServiceProvider) closedErr() error {
	if p.scope != nil && p.closed.Load() {
		return ErrScopeClosed
	}
	if p.container.root.closed.Load() {
		return ErrProviderClosed
	}
	return nil
}

func (p *ServiceProvider) scopeID() uuid.UUID {
	if p.scope == nil {
		return uuid.Nil
	}
	return p.scope.id
}

// own registers the closer for val, if it has one, with p.
func (p *ServiceProvider) own(ctx context.Context, reg *registration, val any, chain []Token) error {
	if reg.closer == nil || val == nil {
		return nil
	}

	closer := reg.closer(val)
	if closer == nil {
		return nil
	}

	if p.closers.push(closer) {
		return nil
	}

	// Closed while the service was being constructed
	kind := ErrProviderClosed
	if p.scope != nil {
		kind = ErrScopeClosed
	}
	return &InjectionError{
		Kind:  kind,
		Token: reg.token,
		Chain: chain,
		Err:   closer.Close(ctx),
	}
}
