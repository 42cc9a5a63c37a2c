package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	RecordsWritten  *prometheus.CounterVec
	RecordsRejected *prometheus.CounterVec
	RecordLatency   prometheus.Histogram

	SweepsRun    prometheus.Counter
	RecordsSwept prometheus.Counter

	MirrorFailures prometheus.Counter

	EndpointLatency *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		RecordsWritten: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "libreconsent_records_written_total",
			Help: "Total number of consent audit records written, labeled by source",
		}, []string{"source"}),
		RecordsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "libreconsent_records_rejected_total",
			Help: "Total number of consent submissions rejected, labeled by reason",
		}, []string{"reason"}),
		RecordLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "libreconsent_record_latency_seconds",
			Help:    "Latency of consent record writes in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		SweepsRun: promauto.NewCounter(prometheus.CounterOpts{
			Name: "libreconsent_sweeps_total",
			Help: "Total number of retention sweeps executed",
		}),
		RecordsSwept: promauto.NewCounter(prometheus.CounterOpts{
			Name: "libreconsent_records_swept_total",
			Help: "Total number of audit records deleted by retention sweeps",
		}),
		MirrorFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "libreconsent_mirror_failures_total",
			Help: "Total number of failed Kafka mirror publishes",
		}),
		EndpointLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "libreconsent_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}

// IncrementRecordsWritten increments the records written counter with a source label
func (m *Metrics) IncrementRecordsWritten(source string) {
	m.RecordsWritten.WithLabelValues(source).Inc()
}

// IncrementRecordsRejected increments the rejected counter with a reason label
func (m *Metrics) IncrementRecordsRejected(reason string) {
	m.RecordsRejected.WithLabelValues(reason).Inc()
}

// ObserveRecordLatency records the latency of a consent record write
func (m *Metrics) ObserveRecordLatency(durationSeconds float64) {
	m.RecordLatency.Observe(durationSeconds)
}

// IncrementSweepsRun increments the sweep counter by 1
func (m *Metrics) IncrementSweepsRun() {
	m.SweepsRun.Inc()
}

// AddRecordsSwept adds the number of rows deleted by a sweep
func (m *Metrics) AddRecordsSwept(count int64) {
	m.RecordsSwept.Add(float64(count))
}

// IncrementMirrorFailures increments the Kafka mirror failure counter
func (m *Metrics) IncrementMirrorFailures() {
	m.MirrorFailures.Inc()
}

// ObserveEndpointLatency records the latency for a given endpoint
func (m *Metrics) ObserveEndpointLatency(endpoint string, durationSeconds float64) {
	m.EndpointLatency.WithLabelValues(endpoint).Observe(durationSeconds)
}
