package reconcile

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the prometheus instruments for the reconciliation engine.
// A nil *Metrics disables instrumentation (used by most tests).
type Metrics struct {
	syncs        *prometheus.CounterVec
	upserts      prometheus.Counter
	removals     prometheus.Counter
	syncDuration prometheus.Histogram
}

// NewMetrics registers the engine's instruments with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		syncs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "permsync_syncs_total",
			Help: "Channel reconciliation attempts by result.",
		}, []string{"result"}),
		upserts: factory.NewCounter(prometheus.CounterOpts{
			Name: "permsync_records_upserted_total",
			Help: "Permission records upserted during reconciliation.",
		}),
		removals: factory.NewCounter(prometheus.CounterOpts{
			Name: "permsync_records_removed_total",
			Help: "Permission records removed during reconciliation.",
		}),
		syncDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "permsync_sync_duration_seconds",
			Help:    "Duration of single-channel reconciliation.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) observe(o Outcome) {
	if m == nil {
		return
	}
	result := "success"
	if !o.Success {
		result = "failure"
	}
	m.syncs.WithLabelValues(result).Inc()
	m.upserts.Add(float64(o.SyncedCount))
	m.removals.Add(float64(o.RemovedCount))
	m.syncDuration.Observe(o.Duration.Seconds())
}
