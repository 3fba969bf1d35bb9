package di

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Hook observes service construction.
//
// BeforeConstruct is called before a constructor runs. The returned context is passed to the
// constructor, so a hook can attach values such as a trace span. AfterConstruct is called with
// the context returned by the same hook and the construction error, if any.
//
// Hooks are not called for cached instances, for [Value] registrations, or when a constructor
// panics.
type Hook interface {
	BeforeConstruct(ctx context.Context, e Event) context.Context
	AfterConstruct(ctx context.Context, e Event, err error)
}

// Event describes a single construction.
type Event struct {
	// Token is the service being constructed.
	Token Token
	// Lifetime is the lifetime of the service.
	Lifetime Lifetime
	// Chain is the construction stack, ending with Token.
	Chain []Token
	// ScopeID is the ID of the scope that owns the instance, or uuid.Nil for the root provider.
	ScopeID uuid.UUID
	// Duration is how long the constructor took. It is only set for AfterConstruct.
	Duration time.Duration
}

// Depth is the number of services on the construction stack below Token.
func (e Event) Depth() int {
	if len(e.Chain) == 0 {
		return 0
	}
	return len(e.Chain) - 1
}

// HookFuncs adapts plain functions to a [Hook]. Nil functions are skipped.
type HookFuncs struct {
	Before func(ctx context.Context, e Event) context.Context
	After  func(ctx context.Context, e Event, err error)
}

func (h HookFuncs) BeforeConstruct(ctx context.Context, e Event) context.Context {
	if h.Before == nil {
		return ctx
	}
	return h.Before(ctx, e)
}

func (h HookFuncs) AfterConstruct(ctx context.Context, e Event, err error) {
	if h.After != nil {
		h.After(ctx, e, err)
	}
}

var _ Hook = HookFuncs{}
