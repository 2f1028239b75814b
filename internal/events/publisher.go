// Package events provides event publishing for post-upload bookkeeping.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"audio-transcription-service/internal/observability/metrics"
)

// UploadCompleted is emitted when the storage provider confirms an upload.
type UploadCompleted struct {
	EventType    string `json:"eventType"`
	URL          string `json:"url"`
	Pathname     string `json:"pathname"`
	ContentType  string `json:"contentType,omitempty"`
	Size         int64  `json:"size,omitempty"`
	TokenPayload string `json:"tokenPayload,omitempty"`
	Timestamp    int64  `json:"timestamp"`
}

// TranscriptionCompleted is emitted when a dispatch request finishes.
type TranscriptionCompleted struct {
	EventType string `json:"eventType"`
	FileName  string `json:"fileName"`
	Model     string `json:"model,omitempty"`
	Language  string `json:"language,omitempty"`
	TextChars int    `json:"textChars"`
	Timestamp int64  `json:"timestamp"`
}

// Publisher publishes bookkeeping events to separate Kafka topics.
type Publisher struct {
	writerUploads    *kafka.Writer
	writerTranscript *kafka.Writer
	principal        string
	topicUploads     string
	topicTranscript  string
	enabled          bool
	metrics          *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers         []string
	TopicUploads    string
	TopicTranscript string
	Principal       string
	Enabled         bool
}

// New creates a new Kafka event publisher with separate topics for upload
// and transcription events. With a nil or disabled config the publisher
// runs in log-only mode.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{
			enabled: false,
			metrics: m,
		}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:       cfg.Principal,
			topicUploads:    cfg.TopicUploads,
			topicTranscript: cfg.TopicTranscript,
			enabled:         false,
			metrics:         m,
		}
	}

	// Custom dialer with longer timeouts for DNS resolution in Kubernetes
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}

	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	writerUploads := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicUploads,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	writerTranscript := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.TopicTranscript,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicUploads", cfg.TopicUploads).
		Str("topicTranscript", cfg.TopicTranscript).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerUploads:    writerUploads,
		writerTranscript: writerTranscript,
		principal:        cfg.Principal,
		topicUploads:     cfg.TopicUploads,
		topicTranscript:  cfg.TopicTranscript,
		enabled:          true,
		metrics:          m,
	}
}

// PublishUploadCompleted publishes an upload-completed event keyed by pathname.
func (p *Publisher) PublishUploadCompleted(ctx context.Context, key string, event any) error {
	return p.publish(ctx, p.writerUploads, p.topicUploads, "upload", key, event)
}

// PublishTranscriptionCompleted publishes a transcription-completed event.
func (p *Publisher) PublishTranscriptionCompleted(ctx context.Context, key string, event any) error {
	return p.publish(ctx, p.writerTranscript, p.topicTranscript, "transcription", key, event)
}

// publish is the internal method that writes to a specific Kafka writer.
func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, eventType, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	// If Kafka is disabled, just log
	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(topic)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerUploads != nil {
		if e := p.writerUploads.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing uploads writer")
			err = e
		}
	}
	if p.writerTranscript != nil {
		if e := p.writerTranscript.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing transcript writer")
			err = e
		}
	}
	return err
}
