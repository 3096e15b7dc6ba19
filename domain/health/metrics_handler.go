package health

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler serves the Prometheus exposition
type MetricsHandler struct {
	handler http.Handler
}

// NewMetricsHandler exposes the default registry, which holds the graph
// store and entity counters
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{
		handler: promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{}),
	}
}

// Metrics handles GET /metrics
func (m *MetricsHandler) Metrics(c echo.Context) error {
	m.handler.ServeHTTP(c.Response(), c.Request())
	return nil
}
