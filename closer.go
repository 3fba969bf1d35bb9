package di

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/sectrean/inject-kit/internal/errors"
)

// Closer is used to close a service when its provider or scope is closed.
//
// If a constructed service implements Closer, or one of the other compatible function signatures,
// the Close function will be called when the owning [ServiceProvider] or [ServiceScope] is closed.
// Singletons are owned by the root provider. Scoped services are owned by their scope.
// Transient services are owned by the provider they were resolved from.
//
// Any of these Close method signatures are supported:
//
//	Close(context.Context) error
//	Close(context.Context)
//	Close() error
//	Close()
//
// See related options:
//   - [IgnoreClose]
//   - [WithCloser]
//   - [WithCloseFunc]
type Closer interface {
	Close(ctx context.Context) error
}

// IgnoreClose is used when you do not want a service that implements Closer, or another
// supported Close function signature, to be closed by the provider.
//
// This is useful when you want to manage the lifecycle of a service yourself.
func IgnoreClose() ServiceOption {
	return serviceOption(func(s *Service) {
		s.closer = nil
	})
}

// WithCloser closes a service that implements Closer, or another compatible Close function
// signature.
//
// Services registered with [Value] are not closed by default. Use this option to close them
// when the root provider is closed.
func WithCloser() ServiceOption {
	return serviceOption(func(s *Service) {
		s.closer = getCloser
	})
}

type closerFactory func(val any) Closer

// WithCloseFunc sets a custom function to close the service.
//
// This is useful if a service has a method called Shutdown or Stop instead of Close:
//
//	di.SingletonFunc(NewServer, di.WithCloseFunc(func(ctx context.Context, s *http.Server) error {
//		return s.Shutdown(ctx)
//	}))
//
// Panics if the service type is not assignable to T.
func WithCloseFunc[T any](f func(context.Context, T) error) ServiceOption {
	return serviceOption(func(s *Service) {
		svcType := s.token.typ
		closerType := reflect.TypeFor[T]()

		if !svcType.AssignableTo(closerType) {
			panic(fmt.Sprintf("di.WithCloseFunc: service type %s is not assignable to close func type %s",
				svcType, closerType))
		}

		s.closer = func(val any) Closer {
			return closeFunc(func(ctx context.Context) error {
				return f(ctx, val.(T))
			})
		}
	})
}

// getCloser returns the Closer interface if the given value implements it,
// or any of the compatible Close function signatures.
func getCloser(val any) Closer {
	switch c := val.(type) {
	case Closer:
		return c
	case closerWithContextNoError:
		return closerWithContextNoErrorWrapper{c}
	case closerNoContextWithError:
		return closerNoContextWithErrorWrapper{c}
	case closerNoContextNoError:
		return closerNoContextNoErrorWrapper{c}

	default:
		return nil
	}
}

type closerWithContextNoError interface {
	Close(ctx context.Context)
}

type closerNoContextWithError interface {
	Close() error
}

type closerNoContextNoError interface {
	Close()
}

type closerNoContextNoErrorWrapper struct {
	c closerNoContextNoError
}

func (w closerNoContextNoErrorWrapper) Close(context.Context) error {
	w.c.Close()
	return nil
}

type closerWithContextNoErrorWrapper struct {
	c closerWithContextNoError
}

func (w closerWithContextNoErrorWrapper) Close(ctx context.Context) error {
	w.c.Close(ctx)
	return nil
}

type closerNoContextWithErrorWrapper struct {
	c closerNoContextWithError
}

func (w closerNoContextWithErrorWrapper) Close(context.Context) error {
	return w.c.Close()
}

type closeFunc func(context.Context) error

func (f closeFunc) Close(ctx context.Context) error {
	return f(ctx)
}

// closerStack holds the closers owned by a provider or scope.
// They are closed in reverse order of construction.
type closerStack struct {
	mu      sync.Mutex
	closers []Closer
	closed  bool
}

// push adds c to the stack. It returns false if the stack has already been closed.
func (s *closerStack) push(c Closer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	s.closers = append(s.closers, c)
	return true
}

// close closes every closer LIFO. It returns false if the stack was already closed.
func (s *closerStack) close(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, nil
	}
	s.closed = true
	closers := s.closers
	s.closers = nil
	s.mu.Unlock()

	var errs errors.MultiError
	for i := len(closers) - 1; i >= 0; i-- {
		errs = errs.Append(closers[i].Close(ctx))
	}

	return true, errs.Join()
}
