// pkg/transport/httpx/router.go
package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Router is the HTTP router contract the gateway builds on.
type Router interface {
	Get(path string, h http.Handler)
	Post(path string, h http.Handler)
	Put(path string, h http.Handler)
	Delete(path string, h http.Handler)
	Handle(method, path string, h http.Handler)
	Use(mw ...func(http.Handler) http.Handler)
	// With returns a Router whose routes also run mw; they are registered
	// on the parent.
	With(mw ...func(http.Handler) http.Handler) Router
	Mux() http.Handler
}

type chiRouter struct{ r chi.Router }

// NewChi returns a Router backed by chi. Path parameters are read with
// URLParam.
func NewChi() Router { return &chiRouter{r: chi.NewRouter()} }

func (c *chiRouter) Get(path string, h http.Handler)            { c.r.Method(http.MethodGet, path, h) }
func (c *chiRouter) Post(path string, h http.Handler)           { c.r.Method(http.MethodPost, path, h) }
func (c *chiRouter) Put(path string, h http.Handler)            { c.r.Method(http.MethodPut, path, h) }
func (c *chiRouter) Delete(path string, h http.Handler)         { c.r.Method(http.MethodDelete, path, h) }
func (c *chiRouter) Handle(method, path string, h http.Handler) { c.r.Method(method, path, h) }
func (c *chiRouter) Use(mw ...func(http.Handler) http.Handler)  { c.r.Use(mw...) }
func (c *chiRouter) Mux() http.Handler                          { return c.r }

func (c *chiRouter) With(mw ...func(http.Handler) http.Handler) Router {
	return &chiRouter{r: c.r.With(mw...)}
}

// URLParam returns the named path parameter, e.g. "id" for /samples/{id}.
func URLParam(r *http.Request, key string) string { return chi.URLParam(r, key) }

// RoutePattern is the matched route template ("/samples/{id}"), falling
// back to the raw path before routing completed.
func RoutePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}
