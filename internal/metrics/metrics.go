// Package metrics implements C8: Prometheus counters/histograms for the
// request path, plus a non-blocking analytics event emitter. Grounded on
// the teacher's core/system_health_logging.go, which builds its own
// prometheus.Registry and registers gauges/counters the same way.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors bundles every metric the proxy engine and its collaborators
// touch on the request path (spec §4.8).
type Collectors struct {
	Registry *prometheus.Registry

	RPCCallsTotal         *prometheus.CounterVec
	RPCRetries            *prometheus.CounterVec
	RPCFailures           *prometheus.CounterVec
	HTTPStatus            *prometheus.CounterVec
	WebsocketConnections  *prometheus.CounterVec
	IdentityLookups       prometheus.Counter
	RateLimitedResponses  *prometheus.CounterVec
	RateLimitStoreErrors  prometheus.Counter

	UpstreamLatencySeconds     *prometheus.HistogramVec
	HandlerLatencySeconds      *prometheus.HistogramVec
	RateLimitCheckSeconds      prometheus.Histogram
}

// New constructs and registers every collector against a fresh registry.
func New() *Collectors {
	reg := prometheus.NewRegistry()
	c := &Collectors{
		Registry: reg,
		RPCCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rpc_calls_total",
			Help: "Total number of proxy requests received, labeled by chain.",
		}, []string{"chain"}),
		RPCRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rpc_retries",
			Help: "Number of provider candidates visited before a request resolved.",
		}, []string{"chain", "n"}),
		RPCFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rpc_failures",
			Help: "Total number of proxy requests that ended in an error.",
		}, []string{"chain", "reason"}),
		HTTPStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_status",
			Help: "Upstream HTTP status codes observed, labeled by provider.",
		}, []string{"provider", "status"}),
		WebsocketConnections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "websocket_connections",
			Help: "WebSocket upgrades handled, labeled by chain.",
		}, []string{"chain"}),
		IdentityLookups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "identity_lookups",
			Help: "Total identity lookups served via the self-transport.",
		}),
		RateLimitedResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rate_limited_responses",
			Help: "Requests rejected by the rate limiter, labeled by route.",
		}, []string{"route"}),
		RateLimitStoreErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rate_limit_store_errors_total",
			Help: "Shared rate-limit store errors that caused a fail-open decision.",
		}),
		UpstreamLatencySeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "upstream_latency_seconds",
			Help:    "Latency of calls to upstream providers.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		HandlerLatencySeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "handler_latency_seconds",
			Help:    "End-to-end handler latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"handler"}),
		RateLimitCheckSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rate_limit_check_seconds",
			Help:    "Latency of a single rate-limit check.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(
		c.RPCCallsTotal, c.RPCRetries, c.RPCFailures, c.HTTPStatus,
		c.WebsocketConnections, c.IdentityLookups, c.RateLimitedResponses,
		c.RateLimitStoreErrors, c.UpstreamLatencySeconds, c.HandlerLatencySeconds,
		c.RateLimitCheckSeconds,
	)
	return c
}
