package di

import (
	"context"
	"sync"

	"github.com/sectrean/inject-kit/internal/errors"
)

// Future represents a service that has not been resolved yet.
// The service is resolved the first time [Future.Result] is called.
type Future[T any] interface {
	// Result returns the resolved service or an error if it could not be resolved.
	Result() (T, error)
}

// ResolveLazy returns a [Future] that resolves T through the injector's provider on first use.
//
// The Future does not carry the construction stack, so two services can depend on each other
// as long as one of them resolves the other lazily, after construction:
//
//	type Parent struct {
//		di.Registrable
//		child di.Future[*Child]
//	}
//
//	func (p *Parent) FromInjector(ctx context.Context, inj *di.Injector) error {
//		p.child = di.ResolveLazy[*Child](ctx, inj)
//		return nil
//	}
//
// If Result is called while the service that created the Future is still being constructed,
// and T depends on that service, Result returns [ErrCyclicDependency].
//
// A successful result is kept. After an error the next call to Result tries again. The
// resolution keeps the values of ctx but not its cancellation, so a Future created during a
// request still works after the request context is done.
func ResolveLazy[T any](ctx context.Context, inj *Injector) Future[T] {
	return &lazyFuture[T]{
		ctx: context.WithoutCancel(ctx),
		inj: &Injector{
			provider: inj.provider,
			tree:     &callTree{parent: inj.tree},
		},
	}
}

type lazyFuture[T any] struct {
	ctx context.Context
	inj *Injector

	mu   sync.Mutex
	done bool
	val  T
}

func (f *lazyFuture[T]) Result() (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.done {
		return f.val, nil
	}

	val, err := Resolve[T](f.ctx, f.inj)
	if err != nil {
		return val, errors.Wrap(err, "lazy future result")
	}

	f.val, f.done = val, true
	return val, nil
}

var _ Future[any] = (*lazyFuture[any])(nil)
