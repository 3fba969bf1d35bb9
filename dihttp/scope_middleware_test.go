package dihttp_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sectrean/inject-kit"
	"github.com/sectrean/inject-kit/dicontext"
	"github.com/sectrean/inject-kit/dihttp"
	"github.com/sectrean/inject-kit/internal/mocks"
	"github.com/sectrean/inject-kit/internal/testtypes"
	"github.com/sectrean/inject-kit/internal/testutils"
)

type requestPath struct {
	di.Registrable
	Path string
}

func (p *requestPath) FromInjector(ctx context.Context, inj *di.Injector) error {
	r, err := di.Resolve[*http.Request](ctx, inj)
	if err != nil {
		return err
	}

	p.Path = r.URL.Path
	return nil
}

func Test_NewRequestScopeMiddleware(t *testing.T) {
	t.Run("nil provider", func(t *testing.T) {
		mw, err := dihttp.NewRequestScopeMiddleware(nil)
		testutils.LogError(t, err)

		assert.Nil(t, mw)
		assert.EqualError(t, err, "dihttp.NewRequestScopeMiddleware: provider is nil")
	})

	t.Run("with new scope error handler nil", func(t *testing.T) {
		p := di.NewServiceCollection().Build()

		mw, err := dihttp.NewRequestScopeMiddleware(p,
			dihttp.WithNewScopeErrorHandler(nil),
		)
		testutils.LogError(t, err)

		assert.Nil(t, mw)
		assert.EqualError(t, err, "dihttp.NewRequestScopeMiddleware: WithNewScopeErrorHandler: h is nil")
	})

	t.Run("with scope close error handler nil", func(t *testing.T) {
		p := di.NewServiceCollection().Build()

		mw, err := dihttp.NewRequestScopeMiddleware(p,
			dihttp.WithScopeCloseErrorHandler(nil),
		)
		testutils.LogError(t, err)

		assert.Nil(t, mw)
		assert.EqualError(t, err, "dihttp.NewRequestScopeMiddleware: WithScopeCloseErrorHandler: h is nil")
	})

	t.Run("multiple middleware calls", func(t *testing.T) {
		p := di.NewServiceCollection().Build()

		mw, err := dihttp.NewRequestScopeMiddleware(p)
		require.NoError(t, err)

		handlerA := mw(http.NotFoundHandler())
		handlerB := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(500)
		}))

		gotA := RunRequest(t, handlerA, "/")
		assert.Equal(t, http.StatusNotFound, gotA)

		gotB := RunRequest(t, handlerB, "/")
		assert.Equal(t, http.StatusInternalServerError, gotB)
	})
}

func Test_Middleware(t *testing.T) {
	t.Run("scoped service", func(t *testing.T) {
		p := di.NewServiceCollection().
			Add(di.Scoped[testtypes.RequestID]()).
			Build()

		mw, err := dihttp.NewRequestScopeMiddleware(p)
		require.NoError(t, err)

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			id1, resolveErr := dicontext.Resolve[*testtypes.RequestID](ctx)
			require.NoError(t, resolveErr)
			id2 := dicontext.MustResolve[*testtypes.RequestID](ctx)

			assert.Same(t, id1, id2)
			assert.False(t, dicontext.Provider(ctx).IsRoot())

			w.WriteHeader(http.StatusOK)
		})

		code := RunRequest(t, mw(handler), "/")
		assert.Equal(t, http.StatusOK, code)
	})

	t.Run("*http.Request service", func(t *testing.T) {
		p := di.NewServiceCollection().
			Add(dihttp.RequestModule).
			Build()

		mw, err := dihttp.NewRequestScopeMiddleware(p)
		require.NoError(t, err)

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			req, resolveErr := dicontext.Resolve[*http.Request](r.Context())
			require.NoError(t, resolveErr)

			assert.Same(t, dihttp.Request(r.Context()), req)
			assert.Equal(t, "/path", req.URL.Path)

			// The request stays pinned to the scope for any context
			pinned, resolveErr := di.Resolve[*http.Request](context.Background(), dicontext.Provider(r.Context()))
			require.NoError(t, resolveErr)
			assert.Same(t, req, pinned)

			w.WriteHeader(http.StatusOK)
		})

		code := RunRequest(t, mw(handler), "/path")
		assert.Equal(t, http.StatusOK, code)
	})

	t.Run("request outside middleware", func(t *testing.T) {
		p := di.NewServiceCollection().
			Add(dihttp.RequestModule).
			Build()

		_, err := di.Resolve[*http.Request](context.Background(), p.NewScope().Provider())
		testutils.LogError(t, err)

		assert.EqualError(t, err, "resolve *http.Request: construction failed: "+
			"no request on context: scope was not created by the request scope middleware")
	})

	t.Run("concurrent requests", func(t *testing.T) {
		// Run a number of concurrent requests and inject the *http.Request into
		// a scoped service. Resolve the service and check that the injected request
		// matches the request passed to the handler.
		const concurrency = 1000

		p := di.NewServiceCollection().
			Add(dihttp.RequestModule).
			Add(di.Scoped[requestPath]()).
			Build()

		mw, err := dihttp.NewRequestScopeMiddleware(p)
		require.NoError(t, err)

		paths := make(chan string, concurrency)
		expectedPaths := make(chan string, concurrency)

		var handler http.Handler
		handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rp, resolveErr := dicontext.Resolve[*requestPath](r.Context())
			assert.NoError(t, resolveErr)
			if rp == nil {
				return
			}

			assert.Equal(t, r.URL.Path, rp.Path)
			paths <- rp.Path
		})
		handler = mw(handler)

		testutils.RunParallel(concurrency, func(i int) {
			path := fmt.Sprintf("/%d", i)
			expectedPaths <- path

			RunRequest(t, handler, path)
		})

		close(paths)
		close(expectedPaths)

		assert.ElementsMatch(t, testutils.CollectChannel(expectedPaths), testutils.CollectChannel(paths))
	})

	t.Run("new scope error", func(t *testing.T) {
		p := di.NewServiceCollection().
			Add(dihttp.RequestModule).
			Build()
		require.NoError(t, p.Close(context.Background()))

		called := false

		mw, err := dihttp.NewRequestScopeMiddleware(p,
			dihttp.WithNewScopeErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
				assert.NotNil(t, w)
				assert.NotNil(t, r)
				assert.ErrorIs(t, err, di.ErrProviderClosed)
				called = true

				w.WriteHeader(599)
			}),
		)
		require.NoError(t, err)

		handler := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			assert.Fail(t, "handler should not get called")
		})

		code := RunRequest(t, mw(handler), "/")
		assert.Equal(t, 599, code)

		assert.True(t, called)
	})

	t.Run("close error", func(t *testing.T) {
		p := di.NewServiceCollection().
			Add(di.ScopedFunc(func(context.Context, *di.Injector) (*mocks.CloserMock, error) {
				return mocks.NewCloserMock(errors.New("close error")), nil
			})).
			Build()

		called := false

		mw, err := dihttp.NewRequestScopeMiddleware(p,
			dihttp.WithScopeCloseErrorHandler(func(r *http.Request, err error) {
				assert.NotNil(t, r)
				assert.EqualError(t, err, "di.ServiceScope.Close: close error")
				called = true
			}),
		)
		require.NoError(t, err)

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m, resolveErr := dicontext.Resolve[*mocks.CloserMock](r.Context())
			assert.NotNil(t, m)
			assert.NoError(t, resolveErr)

			w.WriteHeader(http.StatusOK)
		})

		code := RunRequest(t, mw(handler), "/")
		assert.Equal(t, http.StatusOK, code)

		assert.True(t, called)
	})

	t.Run("default close error handler logs", func(t *testing.T) {
		p := di.NewServiceCollection().
			Add(di.ScopedFunc(func(context.Context, *di.Injector) (*mocks.CloserMock, error) {
				return mocks.NewCloserMock(errors.New("close error")), nil
			})).
			Build()

		mw, err := dihttp.NewRequestScopeMiddleware(p)
		require.NoError(t, err)

		handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = dicontext.MustResolve[*mocks.CloserMock](r.Context())
			w.WriteHeader(http.StatusOK)
		}))

		var buf bytes.Buffer
		logger := zerolog.New(&buf)

		req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
		req = req.WithContext(logger.WithContext(req.Context()))
		res := httptest.NewRecorder()

		handler.ServeHTTP(res, req)

		assert.Equal(t, http.StatusOK, res.Code)
		assert.Contains(t, buf.String(), `"message":"error closing HTTP request scope"`)
		assert.Contains(t, buf.String(), `"error":"di.ServiceScope.Close: close error"`)
	})
}

func RunRequest(t *testing.T, h http.Handler, path string) int {
	res := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, path, http.NoBody)
	require.NoError(t, err)

	h.ServeHTTP(res, req)
	return res.Code
}
