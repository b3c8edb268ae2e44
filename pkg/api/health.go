package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/platinummonkey/staffing/pkg/observability"
)

// NewHealthMux serves the health checks and, when registry is set, /metrics. It
// listens apart from the API so health checks bypass the API middleware.
func NewHealthMux(checker *observability.HealthChecker, registry *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	observability.RegisterHealthRoutes(mux, checker)
	if registry != nil {
		observability.RegisterMetricsEndpoint(mux, registry)
	}
	return mux
}
