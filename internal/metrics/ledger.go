// Package metrics exposes Prometheus instrumentation for the ledger.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "splitledger"

// LedgerMetrics records ledger mutations and their latency. A nil
// *LedgerMetrics, or one built without a registerer, records nothing.
type LedgerMetrics struct {
	expenses      prometheus.Counter
	settlements   prometheus.Counter
	deletedGroups prometheus.Counter
	conflicts     prometheus.Counter
	duration      *prometheus.HistogramVec
	failures      *prometheus.CounterVec
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	m := &LedgerMetrics{
		expenses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expenses_recorded_total",
			Help:      "Expenses committed together with their balance updates.",
		}),
		settlements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlements_recorded_total",
			Help:      "Settlements committed against a balance.",
		}),
		deletedGroups: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "groups_deleted_total",
			Help:      "Groups removed with all of their records.",
		}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transaction_conflicts_total",
			Help:      "Transaction attempts that hit a serialization conflict.",
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of ledger operations in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_failures_total",
			Help:      "Failed ledger operations by error code.",
		}, []string{"operation", "code"}),
	}
	reg.MustRegister(m.expenses, m.settlements, m.deletedGroups, m.conflicts, m.duration, m.failures)
	return m
}

// IncExpenses counts a committed expense.
func (m *LedgerMetrics) IncExpenses() {
	if m == nil || m.expenses == nil {
		return
	}
	m.expenses.Inc()
}

// IncSettlements counts a committed settlement.
func (m *LedgerMetrics) IncSettlements() {
	if m == nil || m.settlements == nil {
		return
	}
	m.settlements.Inc()
}

// IncDeletedGroups counts a cascading group deletion.
func (m *LedgerMetrics) IncDeletedGroups() {
	if m == nil || m.deletedGroups == nil {
		return
	}
	m.deletedGroups.Inc()
}

// IncConflicts counts one conflicting transaction attempt. Its signature
// matches storage.ConflictObserver.
func (m *LedgerMetrics) IncConflicts() {
	if m == nil || m.conflicts == nil {
		return
	}
	m.conflicts.Inc()
}

// ObserveDuration records how long the named operation took.
func (m *LedgerMetrics) ObserveDuration(operation string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(operation)).Observe(d.Seconds())
}

// IncFailure counts a failed operation under its error code.
func (m *LedgerMetrics) IncFailure(operation, code string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(operation), normalizeLabel(code)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
