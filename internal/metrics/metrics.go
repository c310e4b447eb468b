// Package metrics collects gateway call and workflow metrics for Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what gateways, the workflow and the HTTP layer report to.
type Recorder interface {
	ObserveCall(gateway, operation string, duration time.Duration, err error)
	RecordTransition(from, to string)
	RecordHTTPStatus(statusCode int)
}

// Collector is the Prometheus backed Recorder.
type Collector struct {
	calls       *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	transitions *prometheus.CounterVec
	httpStatus  *prometheus.CounterVec
}

// NewCollector creates a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tes_gateway_calls_total",
			Help: "Gateway calls by gateway, operation and outcome.",
		}, []string{"gateway", "operation", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tes_gateway_call_duration_seconds",
			Help:    "Gateway call latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"gateway", "operation"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tes_session_transitions_total",
			Help: "Session state transitions.",
		}, []string{"from", "to"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tes_http_responses_total",
			Help: "HTTP responses by status code.",
		}, []string{"status_code"}),
	}

	reg.MustRegister(c.calls, c.latency, c.transitions, c.httpStatus)

	return c
}

func (c *Collector) ObserveCall(gateway, operation string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	c.calls.WithLabelValues(gateway, operation, outcome).Inc()
	c.latency.WithLabelValues(gateway, operation).Observe(duration.Seconds())
}

func (c *Collector) RecordTransition(from, to string) {
	c.transitions.WithLabelValues(from, to).Inc()
}

func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler returns the scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards everything. Useful for tests and tools.
type Nop struct{}

func (Nop) ObserveCall(string, string, time.Duration, error) {}
func (Nop) RecordTransition(string, string)                  {}
func (Nop) RecordHTTPStatus(int)                             {}

// Since observes the time elapsed since start for a gateway call. Meant to
// be deferred with a pointer to the named error result.
func Since(r Recorder, gateway, operation string, start time.Time, err *error) {
	if r == nil {
		return
	}
	var e error
	if err != nil {
		e = *err
	}
	r.ObserveCall(gateway, operation, time.Since(start), e)
}
