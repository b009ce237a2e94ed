// Package httptransport exposes the notification stream, record reads,
// health probes and metrics over HTTP.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chimera/internal/platform/middleware"
)

// Registrar mounts a group of routes.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter builds the service router. Every route shares request ids, panic
// recovery and request logging; gatherer backs /metrics.
func NewRouter(logger *slog.Logger, gatherer prometheus.Gatherer, handlers ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	for _, h := range handlers {
		h.Register(r)
	}
	return r
}
