package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// ContentMetrics aggregates the counters exported by the content ledger.
type ContentMetrics struct {
	registrations prometheus.Counter
	purchases     prometheus.Counter
	terminations  prometheus.Counter
	withdrawals   prometheus.Counter
	rejected      *prometheus.CounterVec
	blockHeight   prometheus.Gauge
}

var (
	contentOnce     sync.Once
	contentRegistry *ContentMetrics
)

// Content returns the process-wide content ledger metrics, registering them
// on first use.
func Content() *ContentMetrics {
	contentOnce.Do(func() {
		contentRegistry = &ContentMetrics{
			registrations: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "content_registrations_total",
				Help: "Count of successful content registrations.",
			}),
			purchases: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "content_purchases_total",
				Help: "Count of successful content purchases.",
			}),
			terminations: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "content_terminations_total",
				Help: "Count of buyer-initiated purchase terminations.",
			}),
			withdrawals: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "content_withdrawals_total",
				Help: "Count of successful creator earnings withdrawals.",
			}),
			rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "content_operations_rejected_total",
				Help: "Count of rejected ledger operations by failure kind.",
			}, []string{"reason"}),
			blockHeight: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "content_block_height",
				Help: "Current logical block height of the ledger.",
			}),
		}
		prometheus.MustRegister(
			contentRegistry.registrations,
			contentRegistry.purchases,
			contentRegistry.terminations,
			contentRegistry.withdrawals,
			contentRegistry.rejected,
			contentRegistry.blockHeight,
		)
	})
	return contentRegistry
}

// ObserveRegistration records a successful registration.
func (m *ContentMetrics) ObserveRegistration() {
	if m == nil {
		return
	}
	m.registrations.Inc()
}

// ObservePurchase records a successful purchase.
func (m *ContentMetrics) ObservePurchase() {
	if m == nil {
		return
	}
	m.purchases.Inc()
}

// ObserveTermination records a successful termination.
func (m *ContentMetrics) ObserveTermination() {
	if m == nil {
		return
	}
	m.terminations.Inc()
}

// ObserveWithdrawal records a successful withdrawal.
func (m *ContentMetrics) ObserveWithdrawal() {
	if m == nil {
		return
	}
	m.withdrawals.Inc()
}

// ObserveRejection records a rejected operation under the supplied reason.
func (m *ContentMetrics) ObserveRejection(reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(reason).Inc()
}

// SetBlockHeight publishes the current logical block height.
func (m *ContentMetrics) SetBlockHeight(height uint64) {
	if m == nil {
		return
	}
	m.blockHeight.Set(float64(height))
}
