package di

import (
	"context"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/sectrean/inject-kit/internal/errors"
)

// ServiceScope is a unit of work, such as an HTTP request, with its own scoped services.
//
// Scoped services are constructed at most once per scope. Singletons are shared with the
// root provider. Close the scope when the unit of work is done.
type ServiceScope struct {
	id       uuid.UUID
	provider *ServiceProvider
	cache    *xsync.MapOf[Token, *serviceCell]
}

// NewServiceScope creates a new scope from the container behind p.
func NewServiceScope(p *ServiceProvider) *ServiceScope {
	s := &ServiceScope{
		id:    uuid.New(),
		cache: xsync.NewMapOf[Token, *serviceCell](),
	}
	s.provider = &ServiceProvider{
		container: p.container,
		scope:     s,
	}

	return s
}

// ID returns the unique ID of the scope.
func (s *ServiceScope) ID() uuid.UUID {
	return s.id
}

// Provider returns the provider used to resolve services in the scope.
func (s *ServiceScope) Provider() *ServiceProvider {
	return s.provider
}

func (s *ServiceScope) String() string {
	return "scope " + s.id.String()
}

// Close closes scoped services, and transient services resolved from the scope, in reverse
// order of construction.
//
// Close errors are joined. After Close, resolving from the scope returns [ErrScopeClosed].
func (s *ServiceScope) Close(ctx context.Context) error {
	s.provider.closed.Store(true)

	ok, err := s.provider.closers.close(ctx)
	if !ok {
		return errors.Wrap(ErrScopeClosed, "di.ServiceScope.Close")
	}

	return errors.Wrap(err, "di.ServiceScope.Close")
}

// cell returns the once-cell for a scoped token.
// Only tokens registered as scoped are ever added to the cache.
func (s *ServiceScope) cell(token Token) *serviceCell {
	if cell, ok := s.cache.Load(token); ok {
		return cell
	}

	if _, ok := s.provider.container.scoped[token]; !ok {
		panic("di: " + token.Name() + " is not a scoped service")
	}

	cell, _ := s.cache.LoadOrCompute(token, newServiceCell)
	return cell
}
