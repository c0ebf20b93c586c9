// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file holds the Prometheus instrumentation for API traffic. Besides
// request counts and latency per registered route, it counts failed
// responses by their envelope code, so an empty balance (insufficient_credits)
// or a forged webhook (invalid_signature) is visible without parsing logs.
//
// Label cardinality stays bounded: path is the Gin route template
// (/api/v1/payments/verify/:reference, never the raw reference) and code is
// one of the handler error codes.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// errorCodeKey is the Gin context key of the error envelope code.
const errorCodeKey = "errorCode"

var (
	apiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "credits",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "API requests by method, route and status.",
		},
		[]string{"method", "path", "status"},
	)

	apiLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "credits",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "API request latency by method and route.",
			// Verify and initialize wait on the payment provider.
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	apiInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "credits",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "API requests currently being served.",
		},
	)

	apiErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "credits",
			Subsystem: "http",
			Name:      "error_responses_total",
			Help:      "Failed API responses by route and error code.",
		},
		[]string{"path", "code"},
	)
)

func init() {
	prometheus.MustRegister(apiRequests, apiLatency, apiInFlight, apiErrors)
}

// SetErrorCode records the envelope code of a failed response so Metrics and
// RedactingLogger can report it.
func SetErrorCode(c *gin.Context, code string) {
	c.Set(errorCodeKey, code)
}

// ErrorCode returns the envelope code recorded by SetErrorCode, or "".
func ErrorCode(c *gin.Context) string {
	return c.GetString(errorCodeKey)
}

// Metrics instruments API requests. Routes listed in skip (typically
// /metrics and /health) are not recorded.
//
//	r.Use(middleware.Metrics("/metrics", "/health"))
//	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
func Metrics(skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}
	return func(c *gin.Context) {
		if _, ok := skipped[c.FullPath()]; ok {
			c.Next()
			return
		}
		start := time.Now()
		apiInFlight.Inc()
		defer apiInFlight.Dec()

		c.Next()

		path := routeOrPath(c)
		status := c.Writer.Status()
		apiRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(status)).Inc()
		apiLatency.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())

		if status >= 400 {
			code := ErrorCode(c)
			if code == "" {
				code = "status_" + strconv.Itoa(status)
			}
			apiErrors.WithLabelValues(path, code).Inc()
		}
	}
}

// routeOrPath is the registered route, or the raw path when nothing matched.
func routeOrPath(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return c.Request.URL.Path
}
