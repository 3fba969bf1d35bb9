package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sectrean/inject-kit"
	"github.com/sectrean/inject-kit/dihttp"
)

// Clock is created once per process.
type Clock struct {
	di.Registrable
	started time.Time
}

func (c *Clock) FromInjector(context.Context, *di.Injector) error {
	c.started = time.Now()
	return nil
}

func (c *Clock) Uptime() time.Duration {
	return time.Since(c.started)
}

// RequestID identifies a scope: one per HTTP request or job run.
type RequestID struct {
	di.Registrable
	ID uuid.UUID
}

func (r *RequestID) FromInjector(context.Context, *di.Injector) error {
	r.ID = uuid.New()
	return nil
}

// Logger is a fresh logger for every consumer, stamped with the process uptime.
type Logger struct {
	di.Registrable
	zerolog.Logger
}

func (l *Logger) FromInjector(ctx context.Context, inj *di.Injector) error {
	clock, err := di.Resolve[*Clock](ctx, inj)
	if err != nil {
		return err
	}
	base, err := di.Resolve[zerolog.Logger](ctx, inj)
	if err != nil {
		return err
	}

	l.Logger = base.With().Dur("uptime", clock.Uptime()).Logger()
	return nil
}

// Greeter handles a single request.
type Greeter struct {
	di.Registrable
	id      *RequestID
	logger  *Logger
	request *http.Request
}

func (g *Greeter) FromInjector(ctx context.Context, inj *di.Injector) error {
	var err error
	if g.id, err = di.Resolve[*RequestID](ctx, inj); err != nil {
		return err
	}
	if g.logger, err = di.Resolve[*Logger](ctx, inj); err != nil {
		return err
	}
	if g.request, err = di.Resolve[*http.Request](ctx, inj); err != nil {
		return err
	}
	return nil
}

func (g *Greeter) Greet(name string) string {
	if name == "" {
		name = "world"
	}

	g.logger.Info().
		Str("request_id", g.id.ID.String()).
		Str("path", g.request.URL.Path).
		Msg("greeting")

	return fmt.Sprintf("hello, %s (request %s)", name, g.id.ID)
}

// Close runs when the request scope is closed.
func (g *Greeter) Close() {
	g.logger.Debug().Str("request_id", g.id.ID.String()).Msg("greeter closed")
}

// Services registers the didemo services.
func Services(logger zerolog.Logger) di.Module {
	return di.Module{
		dihttp.RequestModule,
		di.Value(logger),
		di.Singleton[Clock](),
		di.Scoped[RequestID](),
		di.Transient[Logger](),
		di.Scoped[Greeter](),
	}
}
