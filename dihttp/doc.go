/*
Package dihttp provides HTTP middleware that creates a [di.ServiceScope] for each request.

Example:

	package main

	import (
		"net/http"

		"github.com/go-chi/chi/v5"
		"github.com/sectrean/inject-kit"
		"github.com/sectrean/inject-kit/dicontext"
		"github.com/sectrean/inject-kit/dihttp"
	)

	func main() {
		p := di.NewServiceCollection().
			Add(dihttp.RequestModule).
			Add(di.Singleton[Service](), di.Scoped[RequestHandler]()).
			Build()

		scopeMiddleware, err := dihttp.NewRequestScopeMiddleware(p)
		if err != nil {
			panic(err)
		}

		r := chi.NewRouter()
		r.Use(scopeMiddleware)
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			h := dicontext.MustResolve[*RequestHandler](r.Context())
			h.ServeHTTP(w, r)
		})

		http.ListenAndServe(":8080", r)
	}
*/
package dihttp
