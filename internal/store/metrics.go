package store

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeCommit   = "commit"
	outcomeRollback = "rollback"
)

// Metrics tracks transaction scopes.
//
// Metrics:
//   - polydb_store_transactions_total: Finished scopes by outcome (commit, rollback)
//   - polydb_store_transaction_duration_seconds: BEGIN to COMMIT/ROLLBACK
//   - polydb_store_lock_wait_seconds: Time spent waiting on the write mutex
//
// A nil *Metrics records nothing.
type Metrics struct {
	transactions *prometheus.CounterVec
	txDuration   prometheus.Histogram
	lockWait     prometheus.Histogram
}

// NewMetrics creates store metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		transactions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "polydb",
				Subsystem: "store",
				Name:      "transactions_total",
				Help:      "Total number of finished transaction scopes",
			},
			[]string{"outcome"},
		),
		txDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "polydb",
				Subsystem: "store",
				Name:      "transaction_duration_seconds",
				Help:      "Duration of transaction scopes from BEGIN to COMMIT or ROLLBACK",
				Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
		),
		lockWait: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "polydb",
				Subsystem: "store",
				Name:      "lock_wait_seconds",
				Help:      "Time spent waiting for the store write mutex",
				Buckets:   []float64{0.0001, 0.001, 0.01, 0.1, 1, 10},
			},
		),
	}

	for _, c := range []prometheus.Collector{m.transactions, m.txDuration, m.lockWait} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register store metrics: %w", err)
		}
	}

	// Pre-create both outcomes so they export as zero
	m.transactions.WithLabelValues(outcomeCommit)
	m.transactions.WithLabelValues(outcomeRollback)

	return m, nil
}

func (m *Metrics) observeTransaction(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.transactions.WithLabelValues(outcome).Inc()
	m.txDuration.Observe(d.Seconds())
}

func (m *Metrics) observeLockWait(d time.Duration) {
	if m == nil {
		return
	}
	m.lockWait.Observe(d.Seconds())
}
