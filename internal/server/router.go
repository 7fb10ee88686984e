package server

import (
	"net/http"
	"strings"
)

// BasicRouter implements [Router] on top of [http.ServeMux].
//
// Every response is marked no-store; redirect pages echo authorization state and
// must not be cached by the browser.
type BasicRouter struct {
	mux   *http.ServeMux
	chain []Middleware
	paths []string
}

func NewBasicRouter() *BasicRouter {
	return &BasicRouter{mux: http.NewServeMux()}
}

// Use appends middleware. The first middleware added is the outermost.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.chain = append(r.chain, middleware...)
}

// Handle registers handler for method on path. GET routes also answer HEAD.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	method = strings.ToUpper(method)
	allowed := []string{method}
	if method == http.MethodGet {
		allowed = append(allowed, http.MethodHead)
	}

	guarded := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		for _, m := range allowed {
			if req.Method == m {
				handler.ServeHTTP(w, req)
				return
			}
		}
		w.Header().Set("Allow", strings.Join(allowed, ", "))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	r.register(path, guarded)
}

// Handler registers h on each of its routes for any method.
func (r *BasicRouter) Handler(h Handler) {
	for _, route := range h.Routes() {
		r.register(route, h)
	}
}

// Paths lists registered patterns in registration order.
func (r *BasicRouter) Paths() []string {
	return append([]string(nil), r.paths...)
}

func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	r.mux.ServeHTTP(w, req)
}

// Apply wraps handler so that middleware runs in the order it was added.
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	for i := len(r.chain) - 1; i >= 0; i-- {
		handler = r.chain[i](handler)
	}
	return handler
}

func (r *BasicRouter) register(path string, h http.Handler) {
	r.paths = append(r.paths, path)
	r.mux.Handle(path, r.Apply(h))
}
