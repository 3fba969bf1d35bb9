package di

import "fmt"

// Lifetime specifies how long a constructed service is reused.
//
// Available lifetimes:
//   - [SingletonLifetime] specifies that a service is created once per [ServiceProvider].
//   - [ScopedLifetime] specifies that a service is created once per [ServiceScope].
//   - [TransientLifetime] specifies that a service is created for each request.
type Lifetime uint8

const (
	// SingletonLifetime specifies that a service is created once and subsequent requests to resolve
	// return the same instance, from the root provider and from every scope.
	SingletonLifetime Lifetime = iota

	// ScopedLifetime specifies that a service is created once per scope.
	//
	// Scoped services cannot be resolved from the root provider.
	ScopedLifetime

	// TransientLifetime specifies that a service is created for each request.
	TransientLifetime
)

func (l Lifetime) String() string {
	switch l {
	case SingletonLifetime:
		return "Singleton"
	case ScopedLifetime:
		return "Scoped"
	case TransientLifetime:
		return "Transient"
	default:
		return fmt.Sprintf("Unknown Lifetime %d", l)
	}
}
