// Package statusapi exposes an appshell orchestrator's state over HTTP.
//
// The surface is control and observability only; it renders nothing. It
// reports application statuses, aggregate health and the transition
// history, and offers manual reconcile, reset and skip verbs for
// operators:
//
//	GET  /applications              list applications with statuses
//	GET  /applications/{name}       one application's detail
//	POST /applications/{name}/reset clear a failed or skipped application
//	POST /applications/{name}/skip  exclude an application from passes
//	GET  /health                    aggregate health (503 when unhealthy)
//	GET  /history                   transition history (?limit=N for the tail)
//	POST /reconcile                 trigger a pass, optional {"path": "/x"}
//
// Handlers return the wrapped JSON envelope used across the module:
// {"status": ..., "timestamp": ..., "data": ...}.
package statusapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/GoCodeAlone/appshell"
)

// defaultRequestTimeout bounds a single request, including a reconcile
// pass triggered through the API.
const defaultRequestTimeout = 30 * time.Second

// options collects router configuration.
type options struct {
	logger  appshell.Logger
	timeout time.Duration
}

// Option configures the status API router.
type Option func(*options)

// WithLogger enables request logging through the given logger.
func WithLogger(logger appshell.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRequestTimeout overrides the per-request timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// NewRouter builds the HTTP handler for the orchestrator's status and
// control surface.
func NewRouter(shell *appshell.Shell, opts ...Option) http.Handler {
	o := options{timeout: defaultRequestTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	h := &handler{shell: shell}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if o.logger != nil {
		r.Use(requestLogger(o.logger))
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(o.timeout))

	r.Route("/applications", func(r chi.Router) {
		r.Get("/", h.listApplications)
		r.Get("/{name}", h.getApplication)
		r.Post("/{name}/reset", h.resetApplication)
		r.Post("/{name}/skip", h.skipApplication)
	})
	r.Get("/health", h.health)
	r.Get("/history", h.history)
	r.Post("/reconcile", h.reconcile)

	return r
}

// requestLogger logs completed requests at debug level.
func requestLogger(logger appshell.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("Status API request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"requestId", middleware.GetReqID(r.Context()))
		})
	}
}
