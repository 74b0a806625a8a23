package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tile_sessions_created_total",
		Help: "Total number of tile sessions created",
	}, []string{"store"})

	SessionResolves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tile_session_resolves_total",
		Help: "Total number of tile session lookups by result",
	}, []string{"store", "result"})

	SessionsSwept = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tile_sessions_swept_total",
		Help: "Total number of expired tile sessions removed by the sweeper",
	}, []string{"store"})

	CredentialFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "credential_fetches_total",
		Help: "Total number of bearer credential fetches by result",
	}, []string{"provider", "result"})

	LayersCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tile_layers_created_total",
		Help: "Total number of tile layers resolved by kind",
	}, []string{"kind"})

	ProxyRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tile_proxy_requests_total",
		Help: "Total number of proxied tile requests by outcome",
	}, []string{"outcome"})

	UpstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tile_upstream_latency_seconds",
		Help:    "Latency of upstream calls in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)
