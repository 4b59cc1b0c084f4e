// Package metrics holds the Prometheus registry and the collectors the service reports.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "artisanhub"

// Registry is the registry exposed on /metrics
var Registry = prometheus.NewRegistry()

var (
	// HTTPRequests counts requests by route template, method and status
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests processed.",
	}, []string{"route", "method", "status"})

	// HTTPDuration observes request latency by route template and method
	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	// CacheLookups counts cache hits and misses per cache
	CacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Cache lookups by result.",
	}, []string{"cache", "result"})

	// AICalls counts generative AI calls by operation and outcome
	AICalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ai",
		Name:      "calls_total",
		Help:      "Generative AI calls.",
	}, []string{"operation", "outcome"})

	// Notifications counts event deliveries by sink and outcome
	Notifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "notify",
		Name:      "deliveries_total",
		Help:      "Event deliveries to webhook and messaging sinks.",
	}, []string{"sink", "event", "outcome"})

	// ImagesStored counts stored product images by backend
	ImagesStored = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "storage",
		Name:      "images_stored_total",
		Help:      "Images written to the image store.",
	}, []string{"backend"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		HTTPRequests, HTTPDuration, CacheLookups, AICalls, Notifications, ImagesStored,
	)
}

// Handler serves the registry in the Prometheus exposition format
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// Outcome maps an error to an "ok"/"error" label value
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
