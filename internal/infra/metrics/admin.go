package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(adminLoginTotal, httpRequestDuration, rateLimitedTotal) }

var (
	adminLoginTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_login_total",
			Help: "Admin login attempts.",
		},
		[]string{"status"}, // authorized, unauthorized
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern and status code.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "code"},
	)

	rateLimitedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rejected by the per-client rate limiter.",
		},
		[]string{"route"},
	)
)

func IncAdminLogin(status string) { adminLoginTotal.WithLabelValues(norm(status)).Inc() }

func ObserveHTTPRequest(method, route string, code int, d time.Duration) {
	httpRequestDuration.WithLabelValues(method, route, strconv.Itoa(code)).Observe(d.Seconds())
}

func IncRateLimited(route string) { rateLimitedTotal.WithLabelValues(route).Inc() }
