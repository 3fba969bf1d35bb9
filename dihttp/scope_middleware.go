package dihttp

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/sectrean/inject-kit"
	"github.com/sectrean/inject-kit/dicontext"
	"github.com/sectrean/inject-kit/internal/errors"
)

// NewRequestScopeMiddleware creates a new [di.ServiceScope] for each request.
// The scope is closed after the request has been processed.
//
// The scope's provider is stored on the request context and can be used with [dicontext.Provider],
// [dicontext.Resolve], or [dicontext.MustResolve]. If [RequestModule] is registered, the current
// [*http.Request] is resolved into the scope before the handler runs, so scoped services can
// depend on it.
//
// Available options:
//   - [WithNewScopeErrorHandler] sets the error handler for when the scope cannot be prepared.
//   - [WithScopeCloseErrorHandler] sets the error handler for when there is an error closing the scope.
func NewRequestScopeMiddleware(
	p *di.ServiceProvider,
	opts ...ScopeMiddlewareOption,
) (func(http.Handler) http.Handler, error) {
	if p == nil {
		return nil, errors.New("dihttp.NewRequestScopeMiddleware: provider is nil")
	}

	cfg := &scopeMiddlewareConfig{
		provider:        p,
		newScopeHandler: defaultNewScopeErrorHandler,
		closeHandler:    defaultScopeCloseErrorHandler,
	}

	var errs errors.MultiError
	for _, opt := range opts {
		errs = errs.Append(opt.applyScopeMiddleware(cfg))
	}
	if err := errs.Wrapf("dihttp.NewRequestScopeMiddleware"); err != nil {
		return nil, err
	}

	return func(next http.Handler) http.Handler {
		return &scopeMiddleware{
			scopeMiddlewareConfig: cfg,
			next:                  next,
		}
	}, nil
}

// NewScopeErrorHandler is a function that writes an error response to the client.
// This is called by the scope middleware when the request scope cannot be prepared.
//
// The default handler logs the error with the [zerolog.Logger] on the request context
// and writes a 500 Internal Server Error response.
type NewScopeErrorHandler = func(w http.ResponseWriter, r *http.Request, err error)

func defaultNewScopeErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	zerolog.Ctx(r.Context()).Error().Err(err).Msg("error creating HTTP request scope")
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// ScopeCloseErrorHandler is a function that handles errors when closing the [di.ServiceScope]
// after the request has completed.
//
// The default handler logs the error with the [zerolog.Logger] on the request context.
type ScopeCloseErrorHandler = func(r *http.Request, err error)

func defaultScopeCloseErrorHandler(r *http.Request, err error) {
	zerolog.Ctx(r.Context()).Error().Err(err).Msg("error closing HTTP request scope")
}

type scopeMiddlewareConfig struct {
	provider        *di.ServiceProvider
	newScopeHandler NewScopeErrorHandler
	closeHandler    ScopeCloseErrorHandler
}

type scopeMiddleware struct {
	*scopeMiddlewareConfig
	next http.Handler
}

func (m *scopeMiddleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	scope := m.provider.NewScope()
	sp := scope.Provider()

	ctx := dicontext.WithProvider(r.Context(), sp)
	ctx = context.WithValue(ctx, requestContextKey{}, r)

	defer func() {
		// The request context may already be cancelled
		err := scope.Close(context.WithoutCancel(ctx))
		if err != nil {
			m.closeHandler(r, err)
		}
	}()

	// Pin the request in the scope while it is on the context
	if sp.Contains(tokenRequest) {
		if _, err := sp.ResolveToken(ctx, tokenRequest); err != nil {
			m.newScopeHandler(w, r, errors.Wrapf(err, "new request scope %s", scope.ID()))
			return
		}
	}

	m.next.ServeHTTP(w, r.WithContext(ctx))
}
