package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/sectrean/inject-kit"
	"github.com/sectrean/inject-kit/dicontext"
	"github.com/sectrean/inject-kit/dihttp"
	"github.com/sectrean/inject-kit/dilog"
	"github.com/sectrean/inject-kit/dimetrics"
	"github.com/sectrean/inject-kit/ditrace"
	"github.com/sectrean/inject-kit/internal/errors"
)

// App holds the process-wide pieces shared by the commands.
type App struct {
	Logger   zerolog.Logger
	Registry *prometheus.Registry
	Provider *di.ServiceProvider
}

// NewApp builds the service provider with logging, metrics and tracing hooks.
// A nil tp uses the global tracer provider.
func NewApp(logger zerolog.Logger, tp trace.TracerProvider) (*App, error) {
	reg := prometheus.NewRegistry()

	metrics, err := dimetrics.NewHook(reg)
	if err != nil {
		return nil, errors.Wrap(err, "create metrics hook")
	}

	p := di.NewServiceCollection(
		di.WithHooks(
			dilog.NewHook(logger),
			metrics,
			ditrace.NewHook(tp),
		),
	).
		Add(Services(logger)).
		Build()

	return &App{
		Logger:   logger,
		Registry: reg,
		Provider: p,
	}, nil
}

// Router returns the HTTP handler for the serve command.
func (a *App) Router() (http.Handler, error) {
	scopeMiddleware, err := dihttp.NewRequestScopeMiddleware(a.Provider)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(a.Logger.WithContext(r.Context())))
		})
	})

	r.Handle("/metrics", promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(scopeMiddleware)
		r.Get("/hello", a.hello)
		r.Get("/hello/{name}", a.hello)
	})

	return r, nil
}

func (a *App) hello(w http.ResponseWriter, r *http.Request) {
	greeter, err := dicontext.Resolve[*Greeter](r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("resolve greeter")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(greeter.Greet(chi.URLParam(r, "name")) + "\n"))
}
