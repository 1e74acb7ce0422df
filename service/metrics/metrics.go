package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors for the application.
// Following the explicit dependency injection pattern, this struct
// is passed to all components that need to record metrics.
type Metrics struct {
	// Solana RPC Metrics
	solanaRPCCallsTotal   *prometheus.CounterVec
	solanaRPCCallDuration *prometheus.HistogramVec
	solanaRPCRetries      *prometheus.CounterVec

	// Burn Tracking Metrics
	transactionsCheckedTotal *prometheus.CounterVec
	burnsDetectedTotal       *prometheus.CounterVec
	burnAmountTotal          *prometheus.CounterVec
	eventsInsertedTotal      *prometheus.CounterVec
	eventsSkippedTotal       *prometheus.CounterVec
	trackRunDuration         *prometheus.HistogramVec
	trackRunsTotal           *prometheus.CounterVec

	// Database Metrics
	dbQueryDuration   *prometheus.HistogramVec
	dbOperationsTotal *prometheus.CounterVec

	// HTTP Metrics
	httpRequestDuration *prometheus.HistogramVec
	httpRequestsTotal   *prometheus.CounterVec

	// NATS Metrics
	natsMessagesPublished *prometheus.CounterVec
	natsPublishDuration   *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance and registers all collectors.
// If registry is nil, prometheus.DefaultRegisterer is used.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Metrics{
		// Solana RPC Metrics
		solanaRPCCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solana_rpc_calls_total",
				Help: "Total number of Solana RPC calls by method and status",
			},
			[]string{"method", "status"},
		),
		solanaRPCCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "solana_rpc_call_duration_seconds",
				Help:    "Duration of Solana RPC calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"method"},
		),
		solanaRPCRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "solana_rpc_retries_total",
				Help: "Total number of Solana RPC retry attempts",
			},
			[]string{"method"},
		),

		// Burn Tracking Metrics
		transactionsCheckedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "transactions_checked_total",
				Help: "Total number of transactions fetched and classified",
			},
			[]string{"token"},
		),
		burnsDetectedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "burns_detected_total",
				Help: "Total number of transactions classified as burns",
			},
			[]string{"token"},
		),
		burnAmountTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "burn_amount_base_units_total",
				Help: "Total burned amount detected, in base units",
			},
			[]string{"token"},
		),
		eventsInsertedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "burn_events_inserted_total",
				Help: "Total number of new burn events persisted",
			},
			[]string{"token"},
		),
		eventsSkippedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "burn_events_skipped_total",
				Help: "Total number of burn events skipped as duplicates or on storage error",
			},
			[]string{"token", "reason"},
		),
		trackRunDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "track_run_duration_seconds",
				Help:    "Duration of burn tracking runs in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
			},
			[]string{"status"},
		),
		trackRunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "track_runs_total",
				Help: "Total number of burn tracking runs",
			},
			[]string{"status"},
		),

		// Database Metrics
		dbQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "db_query_duration_seconds",
				Help:    "Duration of database queries in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
			},
			[]string{"operation", "table"},
		),
		dbOperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "db_operations_total",
				Help: "Total number of database operations",
			},
			[]string{"operation", "status"},
		),

		// HTTP Metrics
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"handler", "method", "status"},
		),
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"handler", "method", "status"},
		),

		// NATS Metrics
		natsMessagesPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nats_messages_published_total",
				Help: "Total number of NATS messages published",
			},
			[]string{"subject", "status"},
		),
		natsPublishDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nats_publish_duration_seconds",
				Help:    "Duration of NATS publish operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"subject"},
		),
	}
}

// Solana RPC metric helpers

// RecordRPCCall records a Solana RPC call with duration.
func (m *Metrics) RecordRPCCall(method, status string, duration float64) {
	m.solanaRPCCallsTotal.WithLabelValues(method, status).Inc()
	m.solanaRPCCallDuration.WithLabelValues(method).Observe(duration)
}

// RecordRPCRetry records a retry attempt.
func (m *Metrics) RecordRPCRetry(method string) {
	m.solanaRPCRetries.WithLabelValues(method).Inc()
}

// Burn tracking metric helpers

// RecordTransactionsChecked records transactions fetched and classified.
func (m *Metrics) RecordTransactionsChecked(token string, count int) {
	m.transactionsCheckedTotal.WithLabelValues(token).Add(float64(count))
}

// RecordBurnDetected records a positive burn classification and its amount.
func (m *Metrics) RecordBurnDetected(token string, amount uint64) {
	m.burnsDetectedTotal.WithLabelValues(token).Inc()
	m.burnAmountTotal.WithLabelValues(token).Add(float64(amount))
}

// RecordEventsInserted records new burn events persisted.
func (m *Metrics) RecordEventsInserted(token string, count int) {
	m.eventsInsertedTotal.WithLabelValues(token).Add(float64(count))
}

// RecordEventsSkipped records burn events skipped during reconciliation.
func (m *Metrics) RecordEventsSkipped(token, reason string, count int) {
	m.eventsSkippedTotal.WithLabelValues(token, reason).Add(float64(count))
}

// RecordTrackRun records a completed tracking run.
func (m *Metrics) RecordTrackRun(status string, duration float64) {
	m.trackRunsTotal.WithLabelValues(status).Inc()
	m.trackRunDuration.WithLabelValues(status).Observe(duration)
}

// Database metric helpers

// RecordDBQuery records a database query with duration.
func (m *Metrics) RecordDBQuery(operation, table string, duration float64) {
	m.dbQueryDuration.WithLabelValues(operation, table).Observe(duration)
}

// RecordDBOperation records a database operation result.
func (m *Metrics) RecordDBOperation(operation, status string) {
	m.dbOperationsTotal.WithLabelValues(operation, status).Inc()
}

// HTTP metric helpers

// RecordHTTPRequest records an HTTP request with duration.
func (m *Metrics) RecordHTTPRequest(handler, method string, statusCode int, duration float64) {
	status := strconv.Itoa(statusCode)
	m.httpRequestsTotal.WithLabelValues(handler, method, status).Inc()
	m.httpRequestDuration.WithLabelValues(handler, method, status).Observe(duration)
}

// NATS metric helpers

// RecordNATSPublish records a NATS publish operation.
func (m *Metrics) RecordNATSPublish(subject, status string, duration float64) {
	m.natsMessagesPublished.WithLabelValues(subject, status).Inc()
	m.natsPublishDuration.WithLabelValues(subject).Observe(duration)
}
