package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "farmacia",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by service, route and status.",
		},
		[]string{"service", "method", "route", "status"},
	)

	// checkout waits on the payment webhook, so the buckets reach past its 30s timeout
	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "farmacia",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by service and route.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 45},
		},
		[]string{"service", "method", "route"},
	)
)

// MetricsMiddleware records every request under service. Routes are the
// gin patterns (/v1/cart/items), so ids never become label values.
func MetricsMiddleware(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(service, c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(service, c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
