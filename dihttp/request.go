package dihttp

import (
	"context"
	"net/http"

	"github.com/sectrean/inject-kit"
)

type requestContextKey struct{}

var tokenRequest = di.TokenFor[*http.Request]()

// Request returns the [*http.Request] stored on the context by the scope middleware, or nil.
func Request(ctx context.Context) *http.Request {
	r, _ := ctx.Value(requestContextKey{}).(*http.Request)
	return r
}

// RequestModule registers the current [*http.Request] as a scoped service.
//
// The request is only available in scopes created by [NewRequestScopeMiddleware].
var RequestModule = di.Module{
	di.ScopedFunc(func(ctx context.Context, _ *di.Injector) (*http.Request, error) {
		r := Request(ctx)
		if r == nil {
			return nil, di.ConstructionErrorf("no request on context: scope was not created by the request scope middleware")
		}
		return r, nil
	}),
}
