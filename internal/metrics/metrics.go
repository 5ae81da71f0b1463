package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Run Metrics
var (
	SnapshotRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snapshot_runs_total",
		Help: "The total number of snapshot runs by outcome",
	}, []string{"status"})

	LastCaptureTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "snapshot_last_capture_timestamp_seconds",
		Help: "The capture timestamp of the last successful snapshot",
	})

	ArtifactsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snapshot_artifacts_published_total",
		Help: "The total number of artifacts written per sink",
	}, []string{"sink"})
)

// Chain Metrics
var (
	ChainDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "snapshot_chain_duration_seconds",
		Help:    "Time spent collecting one chain snapshot",
		Buckets: prometheus.DefBuckets,
	}, []string{"chain"})

	DegradedSymbols = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snapshot_degraded_symbols_total",
		Help: "Token symbol lookups that fell back to the placeholder",
	}, []string{"chain"})

	TransfersNormalized = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "snapshot_transfers_normalized_total",
		Help: "Transfer records produced by the normalizer",
	}, []string{"chain"})
)

// Explorer Metrics
var (
	ExplorerRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "explorer_requests_total",
		Help: "Explorer API requests by outcome",
	}, []string{"outcome"})
)

// Push sends the default registry to a Pushgateway. One-shot runs exit before
// a scrape could happen, so this is how their metrics get out.
func Push(gatewayURL string, job string) error {
	if gatewayURL == "" {
		return nil
	}
	return push.New(gatewayURL, job).Gatherer(prometheus.DefaultGatherer).Push()
}
