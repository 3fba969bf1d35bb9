package di

import (
	"fmt"
	"reflect"
)

// As also registers a service under the interface type I.
//
// Resolving I returns the same instance as resolving the service itself, with the
// service's lifetime:
//
//	sc.Add(di.Singleton[SystemClock](di.As[Clock]()))
//
// Panics if the service type does not implement I, or if I is the service type itself.
func As[I any]() ServiceOption {
	return serviceOption(func(s *Service) {
		svcType := s.token.typ
		aliasType := reflect.TypeFor[I]()

		if svcType == aliasType {
			panic(fmt.Sprintf("di.As: service type %s cannot be an alias of itself", svcType))
		}
		if !svcType.AssignableTo(aliasType) {
			panic(fmt.Sprintf("di.As: service type %s is not assignable to %s", svcType, aliasType))
		}

		s.aliases = append(s.aliases, TokenFor[I]())
	})
}
