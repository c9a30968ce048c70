package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vaultscope_upstream_requests_total",
		Help: "Requests sent to upstream data sources",
	}, []string{"source", "status"})

	UpstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vaultscope_upstream_latency_seconds",
		Help:    "Upstream request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})

	MemoRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vaultscope_memo_requests_total",
		Help: "Memoized fetch cache lookups",
	}, []string{"cache", "result"})

	AggregatorPages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vaultscope_aggregator_pages_total",
		Help: "Pages fetched by the paginated aggregator",
	}, []string{"status"})

	LatencyBucket = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vaultscope_http_latency_seconds",
		Help:    "Request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)
