package testtypes

import (
	"context"

	"github.com/sectrean/inject-kit"
)

var (
	TokenStructA    = di.TokenFor[*StructA]()
	TokenInterfaceA = di.TokenFor[InterfaceA]()

	TokenStructB    = di.TokenFor[*StructB]()
	TokenInterfaceB = di.TokenFor[InterfaceB]()

	TokenStructC = di.TokenFor[*StructC]()
	TokenStructD = di.TokenFor[*StructD]()
)

type InterfaceA interface {
	A()
	Close(context.Context) error
}

type InterfaceB interface {
	B()
	Close(context.Context)
}

type InterfaceC interface {
	C()
	Close() error
}

type InterfaceD interface {
	D()
	Close()
}

// StructA has no dependencies.
type StructA struct {
	di.Registrable
	Tag any
}

func (*StructA) FromInjector(context.Context, *di.Injector) error { return nil }

func (StructA) A()                          {}
func (StructA) Close(context.Context) error { return nil }

// StructB depends on *StructA.
type StructB struct {
	di.Registrable
	A *StructA
}

func (b *StructB) FromInjector(ctx context.Context, inj *di.Injector) error {
	a, err := di.Resolve[*StructA](ctx, inj)
	if err != nil {
		return err
	}

	b.A = a
	return nil
}

func (StructB) B()                    {}
func (StructB) Close(context.Context) {}

// StructC depends on *StructA and *StructB.
type StructC struct {
	di.Registrable
	A *StructA
	B *StructB
}

func (c *StructC) FromInjector(ctx context.Context, inj *di.Injector) error {
	a, err := di.Resolve[*StructA](ctx, inj)
	if err != nil {
		return err
	}
	b, err := di.Resolve[*StructB](ctx, inj)
	if err != nil {
		return err
	}

	c.A = a
	c.B = b
	return nil
}

func (StructC) C()           {}
func (StructC) Close() error { return nil }

// StructD depends on *StructA, *StructB and *StructC.
type StructD struct {
	di.Registrable
	A *StructA
	B *StructB
	C *StructC
}

func (d *StructD) FromInjector(ctx context.Context, inj *di.Injector) error {
	a, err := di.Resolve[*StructA](ctx, inj)
	if err != nil {
		return err
	}
	b, err := di.Resolve[*StructB](ctx, inj)
	if err != nil {
		return err
	}
	c, err := di.Resolve[*StructC](ctx, inj)
	if err != nil {
		return err
	}

	d.A = a
	d.B = b
	d.C = c
	return nil
}

func (StructD) D()     {}
func (StructD) Close() {}

func NewInterfaceA(context.Context, *di.Injector) (InterfaceA, error) {
	return &StructA{}, nil
}

func NewInterfaceB(ctx context.Context, inj *di.Injector) (InterfaceB, error) {
	if _, err := di.Resolve[InterfaceA](ctx, inj); err != nil {
		return nil, err
	}
	return &StructB{}, nil
}

// CycleA and CycleB depend on each other.
type CycleA struct {
	di.Registrable
	B *CycleB
}

func (a *CycleA) FromInjector(ctx context.Context, inj *di.Injector) error {
	b, err := di.Resolve[*CycleB](ctx, inj)
	a.B = b
	return err
}

type CycleB struct {
	di.Registrable
	A *CycleA
}

func (b *CycleB) FromInjector(ctx context.Context, inj *di.Injector) error {
	a, err := di.Resolve[*CycleA](ctx, inj)
	b.A = a
	return err
}

// SelfCycle depends on itself.
type SelfCycle struct {
	di.Registrable
}

func (s *SelfCycle) FromInjector(ctx context.Context, inj *di.Injector) error {
	_, err := di.Resolve[*SelfCycle](ctx, inj)
	return err
}

// NeedsMissing depends on a type that is never registered.
type NeedsMissing struct {
	di.Registrable
}

type Missing struct{}

func (n *NeedsMissing) FromInjector(ctx context.Context, inj *di.Injector) error {
	_, err := di.Resolve[*Missing](ctx, inj)
	return err
}
