package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges shared by
// the normalizer pipeline and the viewer server.
type Metrics struct {
	RowsRead         prometheus.Counter
	RowsAccepted     prometheus.Counter
	RowsRejected     *prometheus.CounterVec // label: reason
	SourcesProcessed prometheus.Counter
	CombineDuration  prometheus.Histogram

	// Viewer-side metrics.
	DatasetRecords prometheus.Gauge
	QueriesServed  *prometheus.CounterVec // label: mode={cumulative,year}
}

// NewMetrics creates and registers all metrics with the default Prometheus
// registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RowsRead,
		m.RowsAccepted,
		m.RowsRejected,
		m.SourcesProcessed,
		m.CombineDuration,
		m.DatasetRecords,
		m.QueriesServed,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RowsRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "treemap",
			Name:      "rows_read_total",
			Help:      "Total CSV rows read across all input sources.",
		}),
		RowsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "treemap",
			Name:      "rows_accepted_total",
			Help:      "Total rows that passed validation.",
		}),
		RowsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "treemap",
			Name:      "rows_rejected_total",
			Help:      "Rows dropped by validation, by rejection reason.",
		}, []string{"reason"}),
		SourcesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "treemap",
			Name:      "sources_processed_total",
			Help:      "Input CSV sources processed to completion.",
		}),
		CombineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "treemap",
			Name:      "combine_duration_seconds",
			Help:      "Duration of a complete normalizer run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		DatasetRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "treemap",
			Name:      "dataset_records",
			Help:      "Records in the loaded dataset served by the viewer.",
		}),
		QueriesServed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "treemap",
			Name:      "queries_total",
			Help:      "Year queries served, by query mode.",
		}, []string{"mode"}),
	}
}
