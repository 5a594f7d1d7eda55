package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups every collector the services report to. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	ProvisioningTotal    *prometheus.CounterVec
	CompensationFailures prometheus.Counter
	TeardownTotal        *prometheus.CounterVec
	TeardownWarnings     prometheus.Counter
	DocumentOperations   *prometheus.CounterVec
	OrphansRemoved       *prometheus.CounterVec
	StoreOperationTime   *prometheus.HistogramVec
}

func New(prefix string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ProvisioningTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_provisioning_total",
				Help: "Provisioning attempts by final saga state",
			},
			[]string{"state", "failed_step"},
		),
		CompensationFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_compensation_failures_total",
				Help: "Compensating deletes that failed during rollback",
			},
		),
		TeardownTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_teardown_total",
				Help: "Company teardowns by outcome",
			},
			[]string{"deleted"},
		),
		TeardownWarnings: factory.NewCounter(
			prometheus.CounterOpts{
				Name: prefix + "_teardown_warnings_total",
				Help: "Dependent cleanups that failed during teardown",
			},
		),
		DocumentOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_document_operations_total",
				Help: "Document lifecycle operations by kind, operation and result",
			},
			[]string{"kind", "operation", "result"},
		),
		OrphansRemoved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_orphans_removed_total",
				Help: "Orphaned files and dangling document records removed by sweeps",
			},
			[]string{"type"},
		),
		StoreOperationTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    prefix + "_saga_step_duration_seconds",
				Help:    "Duration of provisioning saga steps",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"step"},
		),
	}
}

func (m *Metrics) RecordProvisioning(state, failedStep string) {
	if m == nil {
		return
	}
	m.ProvisioningTotal.WithLabelValues(state, failedStep).Inc()
}

func (m *Metrics) RecordCompensationFailures(n int) {
	if m == nil || n == 0 {
		return
	}
	m.CompensationFailures.Add(float64(n))
}

func (m *Metrics) RecordTeardown(deleted bool, warnings int) {
	if m == nil {
		return
	}
	label := "false"
	if deleted {
		label = "true"
	}
	m.TeardownTotal.WithLabelValues(label).Inc()
	m.TeardownWarnings.Add(float64(warnings))
}

func (m *Metrics) RecordDocumentOperation(kind, operation string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.DocumentOperations.WithLabelValues(kind, operation, result).Inc()
}

func (m *Metrics) RecordOrphans(kind string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.OrphansRemoved.WithLabelValues(kind).Add(float64(n))
}

// TrackStep returns a func that observes the time since start for one saga step.
func (m *Metrics) TrackStep(step string) func(start time.Time) {
	return func(start time.Time) {
		if m == nil {
			return
		}
		m.StoreOperationTime.WithLabelValues(step).Observe(time.Since(start).Seconds())
	}
}
