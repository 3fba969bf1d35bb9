// Package dilog logs service construction with zerolog.
package dilog

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sectrean/inject-kit"
)

// Field keys written by the hook.
const (
	FieldToken    = "token"
	FieldLifetime = "lifetime"
	FieldDepth    = "depth"
	FieldScopeID  = "scope_id"
	FieldDuration = "duration_ms"
)

// Hook is a [di.Hook] that logs every construction.
//
// Successful constructions are logged at the configured level, debug by default.
// Failed constructions are logged at error level with the error.
type Hook struct {
	logger zerolog.Logger
	level  zerolog.Level
}

var _ di.Hook = (*Hook)(nil)

// Option configures a [Hook].
type Option func(*Hook)

// WithLevel sets the level used for successful constructions.
func WithLevel(level zerolog.Level) Option {
	return func(h *Hook) {
		h.level = level
	}
}

// NewHook returns a [Hook] that writes to logger.
func NewHook(logger zerolog.Logger, opts ...Option) *Hook {
	h := &Hook{
		logger: logger,
		level:  zerolog.DebugLevel,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hook) BeforeConstruct(ctx context.Context, _ di.Event) context.Context {
	return ctx
}

func (h *Hook) AfterConstruct(_ context.Context, e di.Event, err error) {
	var event *zerolog.Event
	if err != nil {
		event = h.logger.Error().Err(err)
	} else {
		event = h.logger.WithLevel(h.level)
	}

	event = event.
		Str(FieldToken, e.Token.Name()).
		Str(FieldLifetime, e.Lifetime.String()).
		Int(FieldDepth, e.Depth()).
		Int64(FieldDuration, e.Duration.Milliseconds())
	if e.ScopeID != uuid.Nil {
		event = event.Str(FieldScopeID, e.ScopeID.String())
	}

	if err != nil {
		event.Msg("service construction failed")
		return
	}
	event.Msg("service constructed")
}
