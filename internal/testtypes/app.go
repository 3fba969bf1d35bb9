package testtypes

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sectrean/inject-kit"
)

// Clock is a singleton with no dependencies.
type Clock struct {
	di.Registrable
	Started time.Time
}

func (c *Clock) FromInjector(context.Context, *di.Injector) error {
	c.Started = time.Now()
	return nil
}

func (c *Clock) Now() time.Time {
	return time.Now()
}

// RequestID is a scoped value, unique per scope.
type RequestID struct {
	di.Registrable
	ID uuid.UUID
}

func (r *RequestID) FromInjector(context.Context, *di.Injector) error {
	r.ID = uuid.New()
	return nil
}

// Logger is transient and depends on the singleton *Clock.
type Logger struct {
	di.Registrable
	Clock *Clock
}

func (l *Logger) FromInjector(ctx context.Context, inj *di.Injector) error {
	clock, err := di.Resolve[*Clock](ctx, inj)
	if err != nil {
		return err
	}

	l.Clock = clock
	return nil
}

// RequestLogger is scoped and depends on *RequestID and *Logger.
type RequestLogger struct {
	di.Registrable
	RequestID *RequestID
	Logger    *Logger
}

func (l *RequestLogger) FromInjector(ctx context.Context, inj *di.Injector) error {
	id, err := di.Resolve[*RequestID](ctx, inj)
	if err != nil {
		return err
	}
	logger, err := di.Resolve[*Logger](ctx, inj)
	if err != nil {
		return err
	}

	l.RequestID = id
	l.Logger = logger
	return nil
}

// Captive is a singleton that wrongly depends on the scoped *RequestID.
type Captive struct {
	di.Registrable
	RequestID *RequestID
}

func (c *Captive) FromInjector(ctx context.Context, inj *di.Injector) error {
	id, err := di.Resolve[*RequestID](ctx, inj)
	c.RequestID = id
	return err
}
