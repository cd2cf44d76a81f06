package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tablekeep"

// Metrics groups the service's collectors.
type Metrics struct {
	AdmissionDecisions  *prometheus.CounterVec
	AdmissionLockWait   prometheus.Histogram
	AuthorizationDenied *prometheus.CounterVec
	RequestCounter      *prometheus.CounterVec
	RequestDuration     *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AdmissionDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admission_decisions_total",
			Help:      "Reservation admission decisions by outcome.",
		}, []string{"decision"}),
		AdmissionLockWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "admission_lock_wait_seconds",
			Help:      "Time spent waiting for the (tenant, date) admission lock.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		AuthorizationDenied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authorization_denials_total",
			Help:      "Operations rejected by role authorization.",
		}, []string{"operation"}),
		RequestCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
	if reg != nil {
		reg.MustRegister(m.AdmissionDecisions, m.AdmissionLockWait, m.AuthorizationDenied, m.RequestCounter, m.RequestDuration)
	}
	return m
}

// Admission records one admission outcome. Safe on a nil receiver.
func (m *Metrics) Admission(decision string) {
	if m == nil {
		return
	}
	m.AdmissionDecisions.WithLabelValues(decision).Inc()
}

// LockWait records time spent acquiring the admission lock. Safe on a nil receiver.
func (m *Metrics) LockWait(d time.Duration) {
	if m == nil {
		return
	}
	m.AdmissionLockWait.Observe(d.Seconds())
}

// Denied records an authorization denial. Safe on a nil receiver.
func (m *Metrics) Denied(operation string) {
	if m == nil {
		return
	}
	m.AuthorizationDenied.WithLabelValues(operation).Inc()
}

// Middleware records request counts and latency.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			status := strconv.Itoa(c.Response().Status)
			m.RequestCounter.WithLabelValues(c.Request().Method, c.Path(), status).Inc()
			m.RequestDuration.WithLabelValues(c.Request().Method, c.Path(), status).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}
