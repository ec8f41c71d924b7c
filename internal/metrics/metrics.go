// Package metrics collects and exposes Prometheus metrics for the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector gathers application-level counters used across the service.
type Collector struct {
	logins         prometheus.Counter
	refreshSuccess prometheus.Counter
	refreshFail    prometheus.Counter
	checkIns       prometheus.Counter
	crises         prometheus.Counter
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
}

// NewCollector creates a Collector and registers its metrics with the registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sobercircle_logins_total",
			Help: "Completed OAuth logins.",
		}),
		refreshSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sobercircle_token_refresh_success_total",
			Help: "Successful access token refreshes.",
		}),
		refreshFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sobercircle_token_refresh_fail_total",
			Help: "Failed access token refreshes.",
		}),
		checkIns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sobercircle_check_ins_total",
			Help: "Recorded sobriety check-ins.",
		}),
		crises: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sobercircle_crises_total",
			Help: "Raised crisis help requests.",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sobercircle_http_status_total",
			Help: "HTTP responses by status code.",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sobercircle_request_latency_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.logins,
		c.refreshSuccess,
		c.refreshFail,
		c.checkIns,
		c.crises,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordLogin counts a completed OAuth login.
func (c *Collector) RecordLogin() {
	c.logins.Inc()
}

// RecordTokenRefresh counts one refresh attempt by outcome.
func (c *Collector) RecordTokenRefresh(success bool) {
	if success {
		c.refreshSuccess.Inc()
		return
	}
	c.refreshFail.Inc()
}

// RecordCheckIn counts a recorded check-in.
func (c *Collector) RecordCheckIn() {
	c.checkIns.Inc()
}

// RecordCrisis counts a raised crisis request.
func (c *Collector) RecordCrisis() {
	c.crises.Inc()
}

// RecordHTTPStatus counts a response status code.
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency observes a request duration.
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Handler returns the HTTP handler serving the Prometheus scrape endpoint.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
