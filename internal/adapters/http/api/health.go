package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/klv/pkg/metrics"
)

// HealthHandler serves the metrics endpoint.
type HealthHandler struct {
	metrics http.Handler
}

// NewHealthHandler creates a new health handler over the custom registry.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{
		metrics: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

// HandleHealth handles GET /healthz by exposing Prometheus metrics.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}
