package seeding

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pezware/mirubato-sub004/internal/domain"
)

// Metrics exposes pipeline counters and gauges.
type Metrics struct {
	ItemsProcessed *prometheus.CounterVec
	TokensSpent    prometheus.Counter
	BatchRuns      *prometheus.CounterVec
	DLQMoves       prometheus.Counter
	QueueDepth     *prometheus.GaugeVec
	ReviewBacklog  prometheus.Gauge
}

// NewMetrics registers the pipeline metrics with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ItemsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seed",
			Name:      "items_processed_total",
			Help:      "Seed queue items processed, by outcome.",
		}, []string{"outcome"}),
		TokensSpent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "seed",
			Name:      "tokens_spent_total",
			Help:      "AI tokens spent by the seed pipeline.",
		}),
		BatchRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seed",
			Name:      "batch_runs_total",
			Help:      "Batch runs, by termination reason.",
		}, []string{"reason"}),
		DLQMoves: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "seed",
			Name:      "dlq_moves_total",
			Help:      "Items quarantined to the dead letter queue.",
		}),
		QueueDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "seed",
			Name:      "queue_depth",
			Help:      "Seed queue depth, by status.",
		}, []string{"status"}),
		ReviewBacklog: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "seed",
			Name:      "review_backlog",
			Help:      "Pending manual review items.",
		}),
	}
}

// ObserveQueueStats updates the queue depth gauges from aggregate counts.
func (m *Metrics) ObserveQueueStats(stats domain.SeedQueueStats) {
	m.QueueDepth.WithLabelValues("pending").Set(float64(stats.Pending))
	m.QueueDepth.WithLabelValues("processing").Set(float64(stats.Processing))
	m.QueueDepth.WithLabelValues("completed").Set(float64(stats.Completed))
	m.QueueDepth.WithLabelValues("failed").Set(float64(stats.Failed))
}
