package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "balancegrid_"

// Result labels for operation outcome.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	settlementCalculateDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    metricPrefix + "settlement_calculate_duration_seconds",
			Help:    "Settlement calculation latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"result"},
	)
	settlementFinalizeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    metricPrefix + "settlement_finalize_duration_seconds",
			Help:    "Settlement finalization latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"result"},
	)
	balanceQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    metricPrefix + "balance_query_duration_seconds",
			Help:    "Balance report query latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"result"},
	)
	balanceExportDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    metricPrefix + "balance_export_duration_seconds",
			Help:    "Balance report export latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"format", "result"},
	)
	outboxPublishDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    metricPrefix + "outbox_publish_duration_seconds",
			Help:    "Outbox publish latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"result"},
	)
	outboxDispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    metricPrefix + "outbox_dispatch_duration_seconds",
			Help:    "Outbox dispatch run latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"result"},
	)
	outboxDispatchCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricPrefix + "outbox_dispatch_total",
			Help: "Outbox records dispatched by outcome",
		},
		[]string{"outcome"},
	)
	consumerLag = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    metricPrefix + "consumer_lag_seconds",
			Help:    "Delay between event occurrence and consumption",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		},
		[]string{"consumer"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    metricPrefix + "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		settlementCalculateDuration,
		settlementFinalizeDuration,
		balanceQueryDuration,
		balanceExportDuration,
		outboxPublishDuration,
		outboxDispatchDuration,
		outboxDispatchCount,
		consumerLag,
		httpRequestDuration,
	)
}

// ObserveSettlementCalculate records one settlement calculation.
func ObserveSettlementCalculate(result string, d time.Duration) {
	settlementCalculateDuration.WithLabelValues(result).Observe(d.Seconds())
}

// ObserveSettlementFinalize records one settlement finalization.
func ObserveSettlementFinalize(result string, d time.Duration) {
	settlementFinalizeDuration.WithLabelValues(result).Observe(d.Seconds())
}

// ObserveBalanceQuery records one balance report query.
func ObserveBalanceQuery(result string, d time.Duration) {
	balanceQueryDuration.WithLabelValues(result).Observe(d.Seconds())
}

// ObserveBalanceExport records one balance report export.
func ObserveBalanceExport(format, result string, d time.Duration) {
	balanceExportDuration.WithLabelValues(format, result).Observe(d.Seconds())
}

// ObserveOutboxPublish records one outbox publish.
func ObserveOutboxPublish(result string, d time.Duration) {
	outboxPublishDuration.WithLabelValues(result).Observe(d.Seconds())
}

// ObserveOutboxDispatch records one dispatch run.
func ObserveOutboxDispatch(result string, d time.Duration, sent, failed, dlq int) {
	outboxDispatchDuration.WithLabelValues(result).Observe(d.Seconds())
	outboxDispatchCount.WithLabelValues("sent").Add(float64(sent))
	outboxDispatchCount.WithLabelValues("failed").Add(float64(failed))
	outboxDispatchCount.WithLabelValues("dlq").Add(float64(dlq))
}

// ObserveConsumerLag records delivery lag for a consumer.
func ObserveConsumerLag(consumer string, lag time.Duration) {
	if lag < 0 {
		lag = 0
	}
	consumerLag.WithLabelValues(consumer).Observe(lag.Seconds())
}

// ObserveHTTPRequest records one handled HTTP request.
func ObserveHTTPRequest(route, method, status string, d time.Duration) {
	httpRequestDuration.WithLabelValues(route, method, status).Observe(d.Seconds())
}
