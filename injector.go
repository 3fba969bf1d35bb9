package di

import (
	"context"
	"slices"
	"sync/atomic"
	"time"

	"github.com/sectrean/inject-kit/internal/once"
)

// maxWaitChain bounds how far a waiter follows other builds when looking for a wait cycle.
const maxWaitChain = 64

// Injector resolves the dependencies of the service being constructed.
//
// An Injector is passed to every constructor. It carries the construction stack so that
// dependency cycles are reported as [ErrCyclicDependency] instead of overflowing the stack.
// An Injector is only valid for the duration of the constructor call; use [ResolveLazy] to
// resolve a dependency later.
type Injector struct {
	provider *ServiceProvider
	// stack is never mutated after creation; push copies it.
	stack     []Token
	singleton bool
	tree      *callTree
}

var _ Resolver = (*Injector)(nil)

// callTree is shared by every Injector in one top-level resolution.
// It records which cell the resolution is blocked on so other resolutions can detect
// cross-goroutine wait cycles.
type callTree struct {
	parent  *callTree
	waiting atomic.Pointer[once.Cell[any, callTree]]
}

type serviceCell = once.Cell[any, callTree]

func newServiceCell() *serviceCell {
	return once.New[any, callTree]()
}

// blockedBy reports whether waiting on a cell held by holder can never finish,
// because holder is itself waiting, directly or through other builds, on t.
func (t *callTree) blockedBy(holder *callTree) bool {
	if holder == nil || holder == t {
		return false
	}

	h := holder
	for range maxWaitChain {
		if h == t || t.descendsFrom(h) {
			return true
		}

		cell := h.waiting.Load()
		if cell == nil {
			return false
		}

		h = cell.Holder()
		if h == nil {
			return false
		}
	}

	return false
}

func (t *callTree) descendsFrom(h *callTree) bool {
	for p := t.parent; p != nil; p = p.parent {
		if p == h {
			return true
		}
	}
	return false
}

// Provider returns the provider the Injector resolves through.
//
// Singletons are always constructed through the root provider.
func (inj *Injector) Provider() *ServiceProvider {
	return inj.provider
}

// Stack returns a copy of the construction stack, oldest first.
// The last token is the service currently being constructed.
func (inj *Injector) Stack() []Token {
	return slices.Clone(inj.stack)
}

// Contains returns true if a service is registered for token.
func (inj *Injector) Contains(token Token) bool {
	return inj.provider.Contains(token)
}

func (inj *Injector) injector() *Injector {
	return inj
}

// ResolveToken resolves the service registered for token.
//
// The returned error is always an [*InjectionError].
func (inj *Injector) ResolveToken(ctx context.Context, token Token) (any, error) {
	p := inj.provider
	if err := p.closedErr(); err != nil {
		return nil, inj.fail(err, token)
	}

	if slices.Contains(inj.stack, token) {
		return nil, inj.fail(ErrCyclicDependency, token)
	}

	switch token {
	case tokenServiceProvider:
		return p, nil
	case tokenServiceScope:
		if p.scope != nil {
			return p.scope, nil
		}
		return p.NewScope(), nil
	}

	c := p.container
	reg, ok := c.registry[token]
	if !ok {
		return nil, inj.fail(ErrNotFound, token)
	}

	if reg.aliasOf != nil {
		if *reg.aliasOf == token {
			return nil, inj.fail(ErrCyclicDependency, token)
		}
		return inj.ResolveToken(ctx, *reg.aliasOf)
	}

	switch reg.lifetime {
	case SingletonLifetime:
		cell := c.singletonCell(token)
		return inj.getOrInit(ctx, cell, c.root, reg)

	case ScopedLifetime:
		if inj.singleton {
			return nil, inj.fail(ErrCaptiveDependency, token)
		}
		if p.scope == nil {
			return nil, inj.fail(ErrScopeRequired, token)
		}

		cell := p.scope.cell(token)
		return inj.getOrInit(ctx, cell, p, reg)

	default:
		return inj.construct(ctx, p, reg)
	}
}

func (inj *Injector) getOrInit(
	ctx context.Context,
	cell *serviceCell,
	owner *ServiceProvider,
	reg *registration,
) (any, error) {
	if val, ok := cell.Get(); ok {
		return val, nil
	}

	tree := inj.tree
	defer tree.waiting.Store(nil)

	val, err := cell.GetOrInit(ctx, tree,
		func(holder *callTree) error {
			tree.waiting.Store(cell)
			if tree.blockedBy(holder) {
				return inj.fail(ErrCyclicDependency, reg.token)
			}
			return nil
		},
		func() (any, error) {
			tree.waiting.Store(nil)
			return inj.construct(ctx, owner, reg)
		},
	)
	if err != nil {
		if _, ok := err.(*InjectionError); !ok {
			// Cancelled while waiting for another build
			err = inj.fail(err, reg.token)
		}
		return nil, err
	}

	return val, nil
}

func (inj *Injector) construct(ctx context.Context, owner *ServiceProvider, reg *registration) (any, error) {
	child := inj.push(owner, reg)

	if err := ctx.Err(); err != nil {
		return nil, &InjectionError{Kind: err, Token: reg.token, Chain: child.stack}
	}

	var hooks []Hook
	if !reg.value {
		hooks = owner.container.hooks
	}
	e := Event{
		Token:    reg.token,
		Lifetime: reg.lifetime,
		Chain:    child.Stack(),
		ScopeID:  owner.scopeID(),
	}

	hookCtxs := make([]context.Context, len(hooks))
	buildCtx := ctx
	for i, h := range hooks {
		buildCtx = h.BeforeConstruct(buildCtx, e)
		hookCtxs[i] = buildCtx
	}

	start := time.Now()
	val, err := reg.build(buildCtx, child)
	e.Duration = time.Since(start)

	if err != nil {
		err = constructionFailed(reg.token, child.stack, err)
	} else if !reg.value {
		err = owner.own(ctx, reg, val, child.stack)
	}

	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i].AfterConstruct(hookCtxs[i], e, err)
	}

	if err != nil {
		return nil, err
	}
	return val, nil
}

// push returns a child Injector with token on top of the stack.
func (inj *Injector) push(owner *ServiceProvider, reg *registration) *Injector {
	stack := make([]Token, len(inj.stack)+1)
	copy(stack, inj.stack)
	stack[len(inj.stack)] = reg.token

	return &Injector{
		provider:  owner,
		stack:     stack,
		singleton: inj.singleton || reg.lifetime == SingletonLifetime,
		tree:      inj.tree,
	}
}

func (inj *Injector) fail(kind error, token Token) *InjectionError {
	chain := make([]Token, len(inj.stack)+1)
	copy(chain, inj.stack)
	chain[len(inj.stack)] = token

	return &InjectionError{
		Kind:  kind,
		Token: token,
		Chain: chain,
	}
}
