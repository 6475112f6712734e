package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// API client metrics

	ClientRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "authkit",
		Name:      "client_requests_total",
		Help:      "Outgoing API attempts, by method and response status (0 = no response).",
	}, []string{"method", "status"})

	ClientRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "authkit",
		Name:      "client_request_duration_seconds",
		Help:      "Latency of a single outgoing API attempt.",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"method"})

	ClientRetriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "authkit",
		Name:      "client_retries_total",
		Help:      "Transparent retries performed by the API client, by reason.",
	}, []string{"reason"})

	// Auth store metrics

	AuthTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "authkit",
		Name:      "auth_transitions_total",
		Help:      "Auth store actions, by action and outcome.",
	}, []string{"action", "outcome"})

	// Dev API server metrics

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "authkit",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "authkit",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests.",
	}, []string{"method", "path", "status"})
)

func Register() {
	prometheus.MustRegister(
		ClientRequestsTotal,
		ClientRequestDuration,
		ClientRetriesTotal,
		AuthTransitionsTotal,
		HTTPRequestDuration,
		HTTPRequestsTotal,
	)
}

func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{Addr: addr, Handler: mux}
}
