package di

import (
	"slices"

	"github.com/puzpuzpuz/xsync/v3"
)

// registration is the immutable, built form of a [Service].
type registration struct {
	token    Token
	lifetime Lifetime
	build    buildFunc
	closer   closerFactory
	aliasOf  *Token
	value    bool
}

// Container holds the registry and the singleton cache shared by a root [ServiceProvider]
// and all of its scopes.
//
// The registry is never modified after the container is built, so lookups take no locks.
// Instances are cached in once-cells that are created on first use.
type Container struct {
	registry   map[Token]*registration
	scoped     map[Token]struct{}
	singletons *xsync.MapOf[Token, *serviceCell]
	hooks      []Hook
	root       *ServiceProvider
}

var (
	tokenServiceProvider = TokenFor[*ServiceProvider]()
	tokenServiceScope    = TokenFor[*ServiceScope]()
)

func newContainer(sc *ServiceCollection) *Container {
	c := &Container{
		registry:   make(map[Token]*registration, len(sc.services)),
		scoped:     make(map[Token]struct{}),
		singletons: xsync.NewMapOf[Token, *serviceCell](),
		hooks:      slices.Clone(sc.hooks),
	}

	for token, s := range sc.services {
		reg := &registration{
			token:    token,
			lifetime: s.lifetime,
			closer:   s.closer,
			aliasOf:  s.aliasOf,
			value:    s.hasValue,
		}
		if s.aliasOf == nil {
			reg.build = decorate(s.build, sc.decorators[token])
		}
		if s.lifetime == ScopedLifetime && s.aliasOf == nil {
			c.scoped[token] = struct{}{}
		}

		c.registry[token] = reg
	}

	c.root = &ServiceProvider{container: c}

	// Values are owned by the root provider from the start.
	for _, s := range sc.values {
		if sc.services[s.token] != s || s.closer == nil || s.value == nil {
			continue
		}
		if closer := s.closer(s.value); closer != nil {
			c.root.closers.push(closer)
		}
	}

	return c
}

func (c *Container) singletonCell(token Token) *serviceCell {
	if cell, ok := c.singletons.Load(token); ok {
		return cell
	}

	cell, _ := c.singletons.LoadOrCompute(token, newServiceCell)
	return cell
}

func (c *Container) contains(token Token) bool {
	if token == tokenServiceProvider || token == tokenServiceScope {
		return true
	}

	_, ok := c.registry[token]
	return ok
}
