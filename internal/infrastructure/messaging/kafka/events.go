// Package kafka publishes pipeline lifecycle events.  Event publishing is
// best-effort: downstream consumers track dataset builds, but a broker
// outage never fails a batch.
package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/chemforge/molpipe/internal/config"
	"github.com/chemforge/molpipe/internal/infrastructure/logging"
	"github.com/chemforge/molpipe/pkg/errors"
)

// Event types emitted over the pipeline topic.
const (
	EventBuildStarted   = "dataset.build.started"
	EventBuildCompleted = "dataset.build.completed"
	EventBuildFailed    = "dataset.build.failed"
	EventPublished      = "dataset.published"
)

const defaultTopic = "molpipe.pipeline.events"

// Event is the JSON payload written to the pipeline topic.
type Event struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Dataset   string            `json:"dataset"`
	Timestamp time.Time         `json:"timestamp"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// writer abstracts kafka.Writer for testing.
type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// EventProducer publishes pipeline events.  The zero-target producer
// returned by NewDisabledProducer swallows events; callers never branch on
// whether kafka is configured.
type EventProducer struct {
	writer writer
	logger logging.Logger
}

// NewEventProducer builds a producer for the configured brokers.
func NewEventProducer(cfg config.KafkaConfig, logger logging.Logger) *EventProducer {
	topic := defaultTopic
	if cfg.TopicPrefix != "" {
		topic = cfg.TopicPrefix + ".pipeline.events"
	}

	batchSize := cfg.BatchSize
	if batchSize == 0 {
		batchSize = 100
	}
	batchTimeout := cfg.BatchTimeout
	if batchTimeout == 0 {
		batchTimeout = time.Second
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = 10 * time.Second
	}
	maxAttempts := cfg.MaxRetries + 1
	if maxAttempts < 1 {
		maxAttempts = 3
	}

	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		BatchSize:    batchSize,
		BatchTimeout: batchTimeout,
		WriteTimeout: writeTimeout,
		MaxAttempts:  maxAttempts,
		RequiredAcks: kafkago.RequireOne,
	}

	logger.Info("pipeline event producer ready",
		logging.Any("brokers", cfg.Brokers),
		logging.String("topic", topic))
	return &EventProducer{writer: w, logger: logger.Named("events")}
}

// NewProducerWithWriter wires a pre-built writer, used by tests.
func NewProducerWithWriter(w writer, logger logging.Logger) *EventProducer {
	return &EventProducer{writer: w, logger: logger}
}

// NewDisabledProducer returns a producer that drops all events.
func NewDisabledProducer(logger logging.Logger) *EventProducer {
	return &EventProducer{writer: nil, logger: logger}
}

// Publish writes one event keyed by dataset name so per-dataset ordering is
// preserved across partitions.
func (p *EventProducer) Publish(ctx context.Context, eventType, dataset string, fields map[string]string) error {
	if p.writer == nil {
		return nil
	}

	evt := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Dataset:   dataset,
		Timestamp: time.Now().UTC(),
		Fields:    fields,
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeMessageQueue, "encode event")
	}

	msg := kafkago.Message{
		Key:   []byte(dataset),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "event-type", Value: []byte(eventType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrap(err, errors.ErrCodeMessageQueue, "publish event").
			WithDetail("type=" + eventType)
	}
	return nil
}

// PublishBestEffort publishes and logs instead of propagating failures.  It
// reports whether the event went out, so callers can count drops; a disabled
// producer counts as delivered.
func (p *EventProducer) PublishBestEffort(ctx context.Context, eventType, dataset string, fields map[string]string) bool {
	if err := p.Publish(ctx, eventType, dataset, fields); err != nil {
		p.logger.Warn("dropped pipeline event",
			logging.String("type", eventType),
			logging.Err(err))
		return false
	}
	return true
}

// Close flushes and closes the underlying writer.
func (p *EventProducer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
