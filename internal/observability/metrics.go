// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application. Scraper and
// relay processes each register the full set; unused series stay at zero.
type Metrics struct {
	// Scraper metrics
	SnapshotsCaptured   prometheus.Counter
	SnapshotErrors      prometheus.Counter
	SessionRestarts     prometheus.Counter
	CandidatesExtracted prometheus.Counter
	RecordsAdmitted     prometheus.Counter
	DeliveriesSucceeded prometheus.Counter
	DeliveriesFailed    prometheus.Counter

	// Relay metrics
	RecordsReceived  prometheus.Counter
	RecordsRejected  *prometheus.CounterVec
	BroadcastsSent   prometheus.Counter
	Subscribers      prometheus.Gauge
	StoreSize        prometheus.Gauge
	TokensSwept      prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "token_tracker"
	}

	return &Metrics{
		SnapshotsCaptured: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scraper",
			Name:      "snapshots_captured_total",
			Help:      "Total number of page snapshots captured",
		}),
		SnapshotErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scraper",
			Name:      "snapshot_errors_total",
			Help:      "Total number of failed snapshot captures",
		}),
		SessionRestarts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scraper",
			Name:      "session_restarts_total",
			Help:      "Total number of browser session restarts",
		}),
		CandidatesExtracted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scraper",
			Name:      "candidates_extracted_total",
			Help:      "Total number of candidate records extracted from snapshots",
		}),
		RecordsAdmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scraper",
			Name:      "records_admitted_total",
			Help:      "Total number of records admitted as novel by the tracker",
		}),
		DeliveriesSucceeded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scraper",
			Name:      "deliveries_succeeded_total",
			Help:      "Total number of records delivered to the relay",
		}),
		DeliveriesFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scraper",
			Name:      "deliveries_failed_total",
			Help:      "Total number of delivery failures after retries",
		}),

		RecordsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "records_received_total",
			Help:      "Total number of records accepted at the ingress endpoint",
		}),
		RecordsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "records_rejected_total",
			Help:      "Total number of rejected ingress requests by reason",
		}, []string{"reason"}),
		BroadcastsSent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "broadcasts_sent_total",
			Help:      "Total number of NEW_TOKEN broadcasts",
		}),
		Subscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "subscribers",
			Help:      "Current number of live WebSocket subscribers",
		}),
		StoreSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "store_size",
			Help:      "Current number of records in the live store",
		}),
		TokensSwept: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "tokens_swept_total",
			Help:      "Total number of records evicted by age",
		}),
	}
}

// Handler returns the HTTP handler exposing the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
