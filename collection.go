package di

// ServiceCollection collects service registrations.
//
// Register services with [ServiceCollection.Add] or the generic helpers such as [AddSingleton],
// then call [ServiceCollection.Build] to create the root [ServiceProvider].
// A ServiceCollection is not safe for concurrent use, and cannot be changed after it is built.
type ServiceCollection struct {
	services   map[Token]*Service
	values     []*Service
	decorators map[Token][]decorateFunc
	hooks      []Hook
	built      bool
}

// CollectionOption configures a [ServiceCollection].
//
// Available options:
//   - [WithHooks] observes service construction.
type CollectionOption interface {
	applyCollection(*ServiceCollection)
}

type collectionOption func(*ServiceCollection)

func (o collectionOption) applyCollection(sc *ServiceCollection) {
	o(sc)
}

// WithHooks adds hooks that are called around every service construction.
func WithHooks(hooks ...Hook) CollectionOption {
	return collectionOption(func(sc *ServiceCollection) {
		sc.hooks = append(sc.hooks, hooks...)
	})
}

// NewServiceCollection creates an empty [ServiceCollection].
func NewServiceCollection(opts ...CollectionOption) *ServiceCollection {
	sc := &ServiceCollection{
		services:   make(map[Token]*Service),
		decorators: make(map[Token][]decorateFunc),
	}
	for _, opt := range opts {
		opt.applyCollection(sc)
	}

	return sc
}

// Add adds registrations to the collection and returns the collection.
//
// A later registration for the same token replaces the earlier one.
//
// Example:
//
//	sc := di.NewServiceCollection().
//		Add(di.Singleton[Clock]()).
//		Add(di.Scoped[RequestID](), di.Transient[Logger]())
//
// Panics if the collection has already been built.
func (sc *ServiceCollection) Add(regs ...Registration) *ServiceCollection {
	sc.checkNotBuilt("Add")

	for _, reg := range regs {
		if reg == nil {
			panic("di.ServiceCollection.Add: nil registration")
		}
		reg.register(sc)
	}

	return sc
}

// Len returns the number of registered tokens, including aliases.
func (sc *ServiceCollection) Len() int {
	return len(sc.services)
}

// Contains returns true if a service is registered for token.
func (sc *ServiceCollection) Contains(token Token) bool {
	_, ok := sc.services[token]
	return ok
}

// Build creates the root [ServiceProvider].
//
// Registrations are not validated: a missing dependency or a dependency cycle is reported
// when the service is resolved.
//
// Panics if the collection has already been built.
func (sc *ServiceCollection) Build() *ServiceProvider {
	sc.checkNotBuilt("Build")
	sc.built = true

	return newContainer(sc).root
}

func (sc *ServiceCollection) checkNotBuilt(op string) {
	if sc.built {
		panic("di.ServiceCollection." + op + ": collection has already been built")
	}
}

// AddSingleton registers *T as a singleton service. See [Singleton].
func AddSingleton[T any, PT InjectablePtr[T]](sc *ServiceCollection, opts ...ServiceOption) *ServiceCollection {
	return sc.Add(Singleton[T, PT](opts...))
}

// AddScoped registers *T as a scoped service. See [Scoped].
func AddScoped[T any, PT InjectablePtr[T]](sc *ServiceCollection, opts ...ServiceOption) *ServiceCollection {
	return sc.Add(Scoped[T, PT](opts...))
}

// AddTransient registers *T as a transient service. See [Transient].
func AddTransient[T any, PT InjectablePtr[T]](sc *ServiceCollection, opts ...ServiceOption) *ServiceCollection {
	return sc.Add(Transient[T, PT](opts...))
}

// AddValue registers val as a singleton service of type T. See [Value].
func AddValue[T any](sc *ServiceCollection, val T, opts ...ServiceOption) *ServiceCollection {
	return sc.Add(Value(val, opts...))
}
