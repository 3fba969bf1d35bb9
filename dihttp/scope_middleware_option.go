package dihttp

import "github.com/sectrean/inject-kit/internal/errors"

// ScopeMiddlewareOption is an option used to configure the scope middleware when calling [NewRequestScopeMiddleware].
type ScopeMiddlewareOption interface {
	applyScopeMiddleware(*scopeMiddlewareConfig) error
}

type scopeMiddlewareOption func(*scopeMiddlewareConfig) error

func (o scopeMiddlewareOption) applyScopeMiddleware(m *scopeMiddlewareConfig) error {
	return o(m)
}

// WithNewScopeErrorHandler sets the error handler for when the request scope cannot be prepared.
func WithNewScopeErrorHandler(h NewScopeErrorHandler) ScopeMiddlewareOption {
	return scopeMiddlewareOption(func(m *scopeMiddlewareConfig) error {
		if h == nil {
			return errors.New("WithNewScopeErrorHandler: h is nil")
		}
		m.newScopeHandler = h
		return nil
	})
}

// WithScopeCloseErrorHandler sets the error handler for when there is an error closing the scope.
func WithScopeCloseErrorHandler(h ScopeCloseErrorHandler) ScopeMiddlewareOption {
	return scopeMiddlewareOption(func(m *scopeMiddlewareConfig) error {
		if h == nil {
			return errors.New("WithScopeCloseErrorHandler: h is nil")
		}
		m.closeHandler = h
		return nil
	})
}
