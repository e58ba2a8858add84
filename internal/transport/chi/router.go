package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface is implemented by the run API handlers.
type ServerInterface interface {
	// POST /v1/runs
	CreateRun(w http.ResponseWriter, r *http.Request)
	// GET /v1/runs/{id}
	GetRun(w http.ResponseWriter, r *http.Request, id string)
	// DELETE /v1/runs/{id}
	DeleteRun(w http.ResponseWriter, r *http.Request, id string)
	// GET /v1/runs/{id}/pairs
	ListPairs(w http.ResponseWriter, r *http.Request, id string, params ListPairsParams)
	// GET /health
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// GET /metrics
	Metrics(w http.ResponseWriter, r *http.Request)
}

// RouterOptions configures Handler.
type RouterOptions struct {
	BaseRouter       chi.Router
	Middlewares      []func(http.Handler) http.Handler
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// ParamError reports a path or query parameter that failed to bind.
type ParamError struct {
	Param string
	Err   error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid format for parameter %s: %s", e.Param, e.Err)
}

func (e *ParamError) Unwrap() error { return e.Err }

// Handler registers the run API routes on opts.BaseRouter (a new chi router when nil).
func Handler(si ServerInterface, opts RouterOptions) http.Handler {
	r := opts.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if opts.ErrorHandlerFunc == nil {
		opts.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	w := &wrapper{handler: si, middlewares: opts.Middlewares, errorHandler: opts.ErrorHandlerFunc}

	r.Group(func(r chi.Router) {
		r.Post("/v1/runs", w.CreateRun)
		r.Get("/v1/runs/{id}", w.GetRun)
		r.Delete("/v1/runs/{id}", w.DeleteRun)
		r.Get("/v1/runs/{id}/pairs", w.ListPairs)
		r.Get("/health", w.HealthCheck)
		r.Get("/metrics", w.Metrics)
	})
	return r
}

// wrapper binds parameters and applies per-route middlewares.
type wrapper struct {
	handler      ServerInterface
	middlewares  []func(http.Handler) http.Handler
	errorHandler func(w http.ResponseWriter, r *http.Request, err error)
}

func (w *wrapper) serve(rw http.ResponseWriter, r *http.Request, h http.HandlerFunc) {
	var handler http.Handler = h
	for _, mw := range w.middlewares {
		handler = mw(handler)
	}
	handler.ServeHTTP(rw, r)
}

func (w *wrapper) bindID(rw http.ResponseWriter, r *http.Request) (string, bool) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		w.errorHandler(rw, r, &ParamError{Param: "id", Err: err})
		return "", false
	}
	return id, true
}

func (w *wrapper) CreateRun(rw http.ResponseWriter, r *http.Request) {
	w.serve(rw, r, w.handler.CreateRun)
}

func (w *wrapper) GetRun(rw http.ResponseWriter, r *http.Request) {
	id, ok := w.bindID(rw, r)
	if !ok {
		return
	}
	w.serve(rw, r, func(rw http.ResponseWriter, r *http.Request) {
		w.handler.GetRun(rw, r, id)
	})
}

func (w *wrapper) DeleteRun(rw http.ResponseWriter, r *http.Request) {
	id, ok := w.bindID(rw, r)
	if !ok {
		return
	}
	w.serve(rw, r, func(rw http.ResponseWriter, r *http.Request) {
		w.handler.DeleteRun(rw, r, id)
	})
}

func (w *wrapper) ListPairs(rw http.ResponseWriter, r *http.Request) {
	id, ok := w.bindID(rw, r)
	if !ok {
		return
	}

	var params ListPairsParams
	if err := runtime.BindQueryParameter("form", true, false, "offset", r.URL.Query(), &params.Offset); err != nil {
		w.errorHandler(rw, r, &ParamError{Param: "offset", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &params.Limit); err != nil {
		w.errorHandler(rw, r, &ParamError{Param: "limit", Err: err})
		return
	}

	w.serve(rw, r, func(rw http.ResponseWriter, r *http.Request) {
		w.handler.ListPairs(rw, r, id, params)
	})
}

func (w *wrapper) HealthCheck(rw http.ResponseWriter, r *http.Request) {
	w.serve(rw, r, w.handler.HealthCheck)
}

func (w *wrapper) Metrics(rw http.ResponseWriter, r *http.Request) {
	w.serve(rw, r, w.handler.Metrics)
}
