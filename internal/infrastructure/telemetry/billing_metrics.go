package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BillingMetrics holds Prometheus metrics for the billing flow.
// Business-scoped series carry a business_id label ("none" when unset).
type BillingMetrics struct {
	// Cart
	CartMutations *prometheus.CounterVec
	SessionsOpen  prometheus.Gauge

	// Checkout
	InvoicesGenerated *prometheus.CounterVec
	InvoicesFailed    *prometheus.CounterVec
	InvoiceValue      *prometheus.HistogramVec
	ConcurrentRejects prometheus.Counter

	// Reconciliation
	CustomerOutcomes *prometheus.CounterVec

	// Post-invoice side effects
	ArtifactFailures *prometheus.CounterVec

	// Backend API
	BackendLatency *prometheus.HistogramVec
}

// NewBillingMetrics creates the metrics and registers them with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewBillingMetrics(namespace string, reg prometheus.Registerer) *BillingMetrics {
	if namespace == "" {
		namespace = "billdesk"
	}
	factory := promauto.With(reg)
	subsystem := "billing"

	return &BillingMetrics{
		CartMutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_mutations_total",
				Help:      "Cart mutations applied to billing sessions",
			},
			[]string{"business_id", "operation"},
		),
		SessionsOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "sessions_open",
				Help:      "Billing sessions held in memory",
			},
		),
		InvoicesGenerated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "invoices_generated_total",
				Help:      "Invoices created on the backend",
			},
			[]string{"business_id", "payment_method", "payment_status"},
		),
		InvoicesFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "invoices_failed_total",
				Help:      "Invoice submissions rejected or lost",
			},
			[]string{"business_id", "status_code"},
		),
		InvoiceValue: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "invoice_grand_total",
				Help:      "Grand total of created invoices",
				Buckets:   []float64{100, 250, 500, 1000, 2500, 5000, 10000, 25000, 50000, 100000},
			},
			[]string{"business_id"},
		),
		ConcurrentRejects: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "concurrent_generate_rejected_total",
				Help:      "Generate requests rejected because an attempt was in flight",
			},
		),
		CustomerOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "customer_reconciliation_total",
				Help:      "Customer reconciliation outcomes",
			},
			[]string{"outcome"}, // matched, created, fallback
		),
		ArtifactFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "artifact_failures_total",
				Help:      "Post-invoice side effects that failed",
			},
			[]string{"kind"}, // pdf, print
		),
		BackendLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "backend",
				Name:      "request_duration_seconds",
				Help:      "Latency of backend REST calls",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation", "status_code"},
		),
	}
}

// BusinessLabel renders an optional business id as a label value
func BusinessLabel(businessID *int64) string {
	if businessID == nil {
		return "none"
	}
	return strconv.FormatInt(*businessID, 10)
}

// ObserveBackend records one backend call. statusCode 0 means no response.
func (m *BillingMetrics) ObserveBackend(operation string, statusCode int, started time.Time) {
	if m == nil {
		return
	}
	m.BackendLatency.WithLabelValues(operation, strconv.Itoa(statusCode)).Observe(time.Since(started).Seconds())
}
