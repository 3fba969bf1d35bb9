package di

// A Module is a group of registrations.
// It can be used to export a re-usable set of related services.
//
// Example:
//
//	var StoreModule = di.Module{
//		di.Singleton[DB](),
//		di.Scoped[Store](),
//		di.Transient[Service](),
//	}
//
//	sc := di.NewServiceCollection().Add(StoreModule)
type Module []Registration

func (m Module) register(sc *ServiceCollection) {
	for _, reg := range m {
		reg.register(sc)
	}
}

var _ Registration = Module(nil)
