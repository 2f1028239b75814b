// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "audio_transcription"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Upload authorization metrics
	CredentialsIssued prometheus.Counter
	CredentialsDenied *prometheus.CounterVec
	UploadsCompleted  prometheus.Counter
	UploadBytes       prometheus.Counter

	// Dispatch metrics
	DispatchTotal    prometheus.Counter
	DispatchFailed   *prometheus.CounterVec
	DispatchDuration prometheus.Histogram

	// Scratch storage metrics
	ScratchWrites          prometheus.Counter
	ScratchBytesWritten    prometheus.Counter
	ScratchCleanupFailures prometheus.Counter

	// STT provider metrics
	STTRequests *prometheus.CounterVec
	STTErrors   *prometheus.CounterVec
	STTLatency  *prometheus.HistogramVec

	// Text manipulation metrics
	TextOpsTotal  *prometheus.CounterVec
	TextOpsFailed *prometheus.CounterVec

	// Document export metrics
	DocExports       prometheus.Counter
	DocExportsFailed prometheus.Counter
	DocAuthRedirects prometheus.Counter

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		CredentialsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_credentials_issued_total",
			Help:      "Total number of scoped upload credentials issued",
		}),
		CredentialsDenied: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_credentials_denied_total",
			Help:      "Total number of credential requests denied",
		}, []string{"reason"}),
		UploadsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_completed_total",
			Help:      "Total number of upload-completed callbacks received",
		}),
		UploadBytes: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_bytes_total",
			Help:      "Total bytes reported by upload-completed callbacks",
		}),

		DispatchTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_total",
			Help:      "Total number of transcription dispatch requests",
		}),
		DispatchFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_failed_total",
			Help:      "Total number of failed dispatch requests",
		}, []string{"kind"}),
		DispatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "End-to-end dispatch duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}),

		ScratchWrites: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scratch_writes_total",
			Help:      "Total number of transient scratch files written",
		}),
		ScratchBytesWritten: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scratch_bytes_written_total",
			Help:      "Total bytes written to scratch storage",
		}),
		ScratchCleanupFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scratch_cleanup_failures_total",
			Help:      "Total number of best-effort scratch deletions that failed",
		}),

		STTRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stt_requests_total",
			Help:      "Total number of transcription service calls",
		}, []string{"provider"}),
		STTErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stt_errors_total",
			Help:      "Total number of transcription service errors",
		}, []string{"provider"}),
		STTLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stt_latency_seconds",
			Help:      "Transcription service latency in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"provider"}),

		TextOpsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "textops_total",
			Help:      "Total number of text manipulation requests",
		}, []string{"operation"}),
		TextOpsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "textops_failed_total",
			Help:      "Total number of failed text manipulation requests",
		}, []string{"operation"}),

		DocExports: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "doc_exports_total",
			Help:      "Total number of successful document exports",
		}),
		DocExportsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "doc_exports_failed_total",
			Help:      "Total number of failed document exports",
		}),
		DocAuthRedirects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "doc_auth_redirects_total",
			Help:      "Total number of export requests answered with an auth redirect",
		}),

		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),
	}
}

// RecordCredentialIssued records a scoped upload credential being issued.
func (m *Metrics) RecordCredentialIssued() {
	m.CredentialsIssued.Inc()
}

// RecordCredentialDenied records a denied credential request.
func (m *Metrics) RecordCredentialDenied(reason string) {
	m.CredentialsDenied.WithLabelValues(reason).Inc()
}

// RecordUploadCompleted records an upload-completed callback.
func (m *Metrics) RecordUploadCompleted(bytes int64) {
	m.UploadsCompleted.Inc()
	if bytes > 0 {
		m.UploadBytes.Add(float64(bytes))
	}
}

// RecordDispatch records a dispatch request and its outcome.
func (m *Metrics) RecordDispatch(kind string, err error, durationSeconds float64) {
	m.DispatchTotal.Inc()
	m.DispatchDuration.Observe(durationSeconds)
	if err != nil {
		m.DispatchFailed.WithLabelValues(kind).Inc()
	}
}

// RecordScratchWrite records a scratch file write.
func (m *Metrics) RecordScratchWrite(bytes int64) {
	m.ScratchWrites.Inc()
	m.ScratchBytesWritten.Add(float64(bytes))
}

// RecordScratchCleanupFailure records a failed best-effort deletion.
func (m *Metrics) RecordScratchCleanupFailure() {
	m.ScratchCleanupFailures.Inc()
}

// RecordSTTRequest records a transcription service call.
func (m *Metrics) RecordSTTRequest(provider string, err error, latencySeconds float64) {
	m.STTRequests.WithLabelValues(provider).Inc()
	m.STTLatency.WithLabelValues(provider).Observe(latencySeconds)
	if err != nil {
		m.STTErrors.WithLabelValues(provider).Inc()
	}
}

// RecordTextOp records a text manipulation request.
func (m *Metrics) RecordTextOp(operation string, err error) {
	m.TextOpsTotal.WithLabelValues(operation).Inc()
	if err != nil {
		m.TextOpsFailed.WithLabelValues(operation).Inc()
	}
}

// RecordDocExport records a document export outcome.
func (m *Metrics) RecordDocExport(err error) {
	if err != nil {
		m.DocExportsFailed.Inc()
		return
	}
	m.DocExports.Inc()
}

// RecordDocAuthRedirect records an export answered with an authUrl.
func (m *Metrics) RecordDocAuthRedirect() {
	m.DocAuthRedirects.Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}
