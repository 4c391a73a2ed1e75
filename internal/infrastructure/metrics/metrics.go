package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DistributionMetrics holds every metric of the distribution core.
type DistributionMetrics struct {
	AssignmentsCreatedTotal prometheus.CounterVec
	AssignmentsFailedTotal  prometheus.CounterVec
	AssignmentDuration      prometheus.HistogramVec

	RetriesScheduledTotal prometheus.CounterVec
	DeadLetteredTotal     prometheus.CounterVec
	ManualRetriesTotal    prometheus.Counter
	ManualFailsTotal      prometheus.Counter

	ExternalCallDuration prometheus.HistogramVec
	CircuitState         prometheus.GaugeVec

	StatsSyncTotal       prometheus.CounterVec
	StaleStatsTotal      prometheus.Counter
	ClicksDeliveredGauge prometheus.GaugeVec
}

// NewDistributionMetrics registers on the default registerer.
func NewDistributionMetrics() *DistributionMetrics {
	return NewDistributionMetricsWith(prometheus.DefaultRegisterer)
}

func NewDistributionMetricsWith(reg prometheus.Registerer) *DistributionMetrics {
	factory := promauto.With(reg)
	return &DistributionMetrics{
		AssignmentsCreatedTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campaign_assignments_created_total",
				Help: "Orders successfully distributed across the fixed campaign pool",
			},
			[]string{"geo"},
		),

		AssignmentsFailedTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campaign_assignments_failed_total",
				Help: "Assignment attempts that failed, by error type",
			},
			[]string{"error_type"},
		),

		AssignmentDuration: *factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "campaign_assignment_duration_seconds",
				Help:    "Wall-clock duration of one assignment attempt",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),

		RetriesScheduledTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "order_retries_scheduled_total",
				Help: "Retries scheduled by the recovery engine, by error type",
			},
			[]string{"error_type"},
		),

		DeadLetteredTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orders_dead_lettered_total",
				Help: "Orders moved to the dead-letter state, by error type",
			},
			[]string{"error_type"},
		),

		ManualRetriesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "orders_manual_retries_total",
				Help: "Operator-initiated retries of dead-lettered orders",
			},
		),

		ManualFailsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "orders_manual_fails_total",
				Help: "Operator-initiated terminal failures",
			},
		),

		ExternalCallDuration: *factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "binom_call_duration_seconds",
				Help:    "Duration of external ad-platform calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "outcome"},
		),

		CircuitState: *factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "binom_circuit_state",
				Help: "Circuit breaker state per operation (0 closed, 1 open, 2 half-open)",
			},
			[]string{"operation"},
		),

		StatsSyncTotal: *factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "campaign_stats_sync_total",
				Help: "Per-assignment stats sync attempts, by outcome",
			},
			[]string{"outcome"},
		),

		StaleStatsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "campaign_stats_stale_total",
				Help: "Sync passes that fell back to last-known cached stats",
			},
		),

		ClicksDeliveredGauge: *factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "campaign_clicks_delivered",
				Help: "Latest delivered click counts per campaign",
			},
			[]string{"campaign_id"},
		),
	}
}
