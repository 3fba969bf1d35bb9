package testtypes

import (
	"context"
	"sync/atomic"

	"github.com/sectrean/inject-kit"
)

// Factory creates services and counts how many it has created.
type Factory struct {
	count atomic.Int32
}

func (f *Factory) NewStructA(context.Context, *di.Injector) (*StructA, error) {
	n := f.count.Add(1)
	return &StructA{Tag: int(n - 1)}, nil
}

func (f *Factory) NewInterfaceA(ctx context.Context, inj *di.Injector) (InterfaceA, error) {
	return f.NewStructA(ctx, inj)
}

// Count returns the number of services created.
func (f *Factory) Count() int {
	return int(f.count.Load())
}

func ExpectStructA(count int) []*StructA {
	s := make([]*StructA, 0, count)
	for i := range count {
		s = append(s, &StructA{Tag: i})
	}
	return s
}
