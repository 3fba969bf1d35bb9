package di

import (
	"context"
	"fmt"
	"slices"
)

type buildFunc func(ctx context.Context, inj *Injector) (any, error)

// Registration is added to a [ServiceCollection].
//
// It is implemented by [*Service], [Module], and the result of [Decorate].
type Registration interface {
	register(sc *ServiceCollection)
}

// Service describes how to construct a service and how long to keep it.
//
// Create one with [Singleton], [Scoped], [Transient], [SingletonFunc], [ScopedFunc],
// [TransientFunc] or [Value].
type Service struct {
	token    Token
	lifetime Lifetime
	build    buildFunc
	closer   closerFactory
	aliases  []Token
	aliasOf  *Token
	value    any
	hasValue bool
}

var _ Registration = (*Service)(nil)

// Token returns the token the service is registered under.
func (s *Service) Token() Token {
	return s.token
}

// Lifetime returns the lifetime of the service.
func (s *Service) Lifetime() Lifetime {
	return s.lifetime
}

func (s *Service) String() string {
	return fmt.Sprintf("%s %s", s.lifetime, s.token)
}

func (s *Service) register(sc *ServiceCollection) {
	sc.services[s.token] = s
	if s.hasValue && !slices.Contains(sc.values, s) {
		sc.values = append(sc.values, s)
	}
	for _, alias := range s.aliases {
		sc.services[alias] = &Service{
			token:    alias,
			lifetime: s.lifetime,
			aliasOf:  &s.token,
		}
	}
}

// ServiceOption configures a [Service].
//
// Available options:
//   - [As] also registers the service as an interface.
//   - [IgnoreClose] does not close the service when its provider or scope is closed.
//   - [WithCloser] closes a [Value] service when the provider is closed.
//   - [WithCloseFunc] sets a custom function to close the service.
type ServiceOption interface {
	applyService(*Service)
}

type serviceOption func(*Service)

func (o serviceOption) applyService(s *Service) {
	o(s)
}

func newService(token Token, lifetime Lifetime, build buildFunc, opts []ServiceOption) *Service {
	s := &Service{
		token:    token,
		lifetime: lifetime,
		build:    build,
		closer:   getCloser,
	}
	for _, opt := range opts {
		opt.applyService(s)
	}
	return s
}

// Singleton registers *T as a service created once per provider.
//
// *T is constructed by calling its FromInjector method on a new zero value.
func Singleton[T any, PT InjectablePtr[T]](opts ...ServiceOption) *Service {
	return newService(TokenFor[*T](), SingletonLifetime, injectableBuild[T, PT], opts)
}

// Scoped registers *T as a service created once per [ServiceScope].
func Scoped[T any, PT InjectablePtr[T]](opts ...ServiceOption) *Service {
	return newService(TokenFor[*T](), ScopedLifetime, injectableBuild[T, PT], opts)
}

// Transient registers *T as a service created every time it is resolved.
func Transient[T any, PT InjectablePtr[T]](opts ...ServiceOption) *Service {
	return newService(TokenFor[*T](), TransientLifetime, injectableBuild[T, PT], opts)
}

// SingletonFunc registers T as a singleton service constructed by f.
func SingletonFunc[T any](f Factory[T], opts ...ServiceOption) *Service {
	return newFuncService(f, SingletonLifetime, opts)
}

// ScopedFunc registers T as a scoped service constructed by f.
func ScopedFunc[T any](f Factory[T], opts ...ServiceOption) *Service {
	return newFuncService(f, ScopedLifetime, opts)
}

// TransientFunc registers T as a transient service constructed by f.
func TransientFunc[T any](f Factory[T], opts ...ServiceOption) *Service {
	return newFuncService(f, TransientLifetime, opts)
}

func newFuncService[T any](f Factory[T], lifetime Lifetime, opts []ServiceOption) *Service {
	token := TokenFor[T]()
	if f == nil {
		panic(fmt.Sprintf("di: nil factory for %s", token))
	}
	return newService(token, lifetime, f.build, opts)
}

// Value registers an existing value as a singleton service of type T.
//
// Values are not closed by default. Use [WithCloser] or [WithCloseFunc] to close the
// value when the provider is closed.
func Value[T any](val T, opts ...ServiceOption) *Service {
	s := &Service{
		token:    TokenFor[T](),
		lifetime: SingletonLifetime,
		value:    val,
		hasValue: true,
	}
	s.build = func(context.Context, *Injector) (any, error) {
		return s.value, nil
	}
	for _, opt := range opts {
		opt.applyService(s)
	}
	return s
}
