// Package prometheus is the Prometheus-backed implementation of
// pkg/metrics's interfaces, split out the way the teacher's
// pkg/metrics/prometheus package is so that instrumented code never needs
// to import github.com/prometheus/client_golang directly.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kentjhall/cashweb-sub000/pkg/metrics"
	"github.com/kentjhall/cashweb-sub000/pkg/status"
)

func init() {
	metrics.RegisterFetchConstructor(func() metrics.FetchMetrics { return newFetchMetrics() })
	metrics.RegisterSendConstructor(func() metrics.SendMetrics { return newSendMetrics() })
}

type fetchMetrics struct {
	batches   *prometheus.CounterVec
	batchSize *prometheus.HistogramVec
	batchTime *prometheus.HistogramVec
	retries   *prometheus.CounterVec
}

func newFetchMetrics() metrics.FetchMetrics {
	return &fetchMetrics{
		batches: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cashweb_fetch_batches_total",
			Help: "Total number of fetch adapter batch calls, by kind.",
		}, []string{"kind"}),
		batchSize: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cashweb_fetch_batch_size",
			Help:    "Number of ids requested per fetch batch, by kind.",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250},
		}, []string{"kind"}),
		batchTime: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cashweb_fetch_batch_duration_seconds",
			Help:    "Duration of fetch adapter batch calls, by kind.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		retries: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cashweb_retries_total",
			Help: "Total number of retries triggered anywhere in the read or send path, by status code.",
		}, []string{"code"}),
	}
}

func (m *fetchMetrics) ObserveBatch(kind string, size int, duration time.Duration) {
	m.batches.WithLabelValues(kind).Inc()
	m.batchSize.WithLabelValues(kind).Observe(float64(size))
	m.batchTime.WithLabelValues(kind).Observe(duration.Seconds())
}

func (m *fetchMetrics) ObserveRetry(code status.Code) {
	m.retries.WithLabelValues(code.String()).Inc()
}

type sendMetrics struct {
	transactions     *prometheus.CounterVec
	transactionBytes *prometheus.HistogramVec
	sendDuration     prometheus.Histogram
	sendTxCount      prometheus.Histogram
	sendCost         prometheus.Histogram
}

func newSendMetrics() metrics.SendMetrics {
	return &sendMetrics{
		transactions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cashweb_send_transactions_total",
			Help: "Total number of transactions submitted by the send pipeline, by level kind.",
		}, []string{"kind"}),
		transactionBytes: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cashweb_send_transaction_bytes",
			Help:    "Payload size of submitted transactions, by level kind.",
			Buckets: []float64{32, 64, 128, 220, 222},
		}, []string{"kind"}),
		sendDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "cashweb_send_duration_seconds",
			Help:    "Wall-clock duration of a full send invocation.",
			Buckets: prometheus.DefBuckets,
		}),
		sendTxCount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "cashweb_send_transaction_count",
			Help:    "Number of transactions a single send produced.",
			Buckets: []float64{1, 2, 5, 10, 25, 100, 500},
		}),
		sendCost: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "cashweb_send_cost_satoshis",
			Help:    "Estimated or actual total fee cost of a send, in satoshis.",
			Buckets: prometheus.ExponentialBuckets(100, 4, 10),
		}),
	}
}

func (m *sendMetrics) ObserveTransaction(kind string, bytes int) {
	m.transactions.WithLabelValues(kind).Inc()
	m.transactionBytes.WithLabelValues(kind).Observe(float64(bytes))
}

func (m *sendMetrics) ObserveSend(txCount int, costEstimate int64, duration time.Duration) {
	m.sendDuration.Observe(duration.Seconds())
	m.sendTxCount.Observe(float64(txCount))
	m.sendCost.Observe(float64(costEstimate))
}
