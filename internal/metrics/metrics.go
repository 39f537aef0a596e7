// Package metrics exposes Prometheus counters for authentication outcomes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Auth methods.
const (
	MethodEmailRegister = "email_register"
	MethodEmailLogin    = "email_login"
	MethodGoogle        = "google"
	MethodSession       = "session"
)

// Auth results.
const (
	ResultSuccess       = "success"
	ResultInvalid       = "invalid"
	ResultConflict      = "conflict"
	ResultWrongMethod   = "wrong_method"
	ResultForbidden     = "forbidden"
	ResultNotConfigured = "not_configured"
	ResultError         = "error"
)

// Collector records auth outcomes.
type Collector struct {
	attempts    *prometheus.CounterVec
	rateLimited *prometheus.CounterVec
}

// NewCollector creates a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "revvel_auth_attempts_total",
			Help: "Authentication attempts by method and result.",
		}, []string{"method", "result"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "revvel_auth_rate_limited_total",
			Help: "Requests rejected by the auth rate limiter, by route.",
		}, []string{"route"}),
	}

	reg.MustRegister(c.attempts, c.rateLimited)
	return c
}

// RecordAuth counts one authentication attempt. A nil Collector records nothing.
func (c *Collector) RecordAuth(method, result string) {
	if c == nil {
		return
	}
	c.attempts.WithLabelValues(method, result).Inc()
}

// RecordRateLimited counts one rejected request.
func (c *Collector) RecordRateLimited(route string) {
	if c == nil {
		return
	}
	c.rateLimited.WithLabelValues(route).Inc()
}

// Handler returns the Prometheus scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
