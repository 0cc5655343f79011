// Package metrics exposes Prometheus counters for the session lifecycle and
// the HTTP layer.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what services and middleware depend on.
type Recorder interface {
	RecordSessionStarted(zone string)
	RecordSessionSettled(zone, status string, minutes int64, charged float64)
	RecordSessionRejected(reason string)
	RecordHTTPRequest(method, route string, statusCode int, latency time.Duration)
}

type Collector struct {
	sessionsStarted  *prometheus.CounterVec
	sessionsSettled  *prometheus.CounterVec
	sessionsRejected *prometheus.CounterVec
	sessionMinutes   prometheus.Histogram
	amountCharged    prometheus.Counter
	httpRequests     *prometheus.CounterVec
	httpLatency      *prometheus.HistogramVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		sessionsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parkilite_sessions_started_total",
			Help: "Parking sessions started, by zone.",
		}, []string{"zone"}),
		sessionsSettled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parkilite_sessions_settled_total",
			Help: "Parking sessions stopped, by zone and terminal status.",
		}, []string{"zone", "status"}),
		sessionsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parkilite_session_operations_rejected_total",
			Help: "Start/stop requests rejected, by error code.",
		}, []string{"reason"}),
		sessionMinutes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "parkilite_session_minutes",
			Help:    "Billed duration of settled sessions in minutes.",
			Buckets: []float64{5, 15, 30, 60, 120, 180, 240, 480, 1440},
		}),
		amountCharged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "parkilite_amount_debited_total",
			Help: "Sum of cost_total debited from user balances.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "parkilite_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "parkilite_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.sessionsStarted,
		c.sessionsSettled,
		c.sessionsRejected,
		c.sessionMinutes,
		c.amountCharged,
		c.httpRequests,
		c.httpLatency,
	)
	return c
}

func (c *Collector) RecordSessionStarted(zone string) {
	c.sessionsStarted.WithLabelValues(zone).Inc()
}

// RecordSessionSettled records a stop. charged is zero for pending sessions.
func (c *Collector) RecordSessionSettled(zone, status string, minutes int64, charged float64) {
	c.sessionsSettled.WithLabelValues(zone, status).Inc()
	c.sessionMinutes.Observe(float64(minutes))
	if charged > 0 {
		c.amountCharged.Add(charged)
	}
}

func (c *Collector) RecordSessionRejected(reason string) {
	c.sessionsRejected.WithLabelValues(reason).Inc()
}

func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, latency time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(latency.Seconds())
}

// Handler serves the scrape endpoint for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
