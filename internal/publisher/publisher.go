package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"example.com/healthdata/internal/events"
)

// MessageWriter is the subset of KafkaProducer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error
}

// Option configures optional behaviour for the Publisher.
type Option func(*Publisher)

// WithLogger overrides the logger used to report retries.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithRetry overrides the attempt count and base delay.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(p *Publisher) {
		p.attempts = attempts
		p.delay = delay
	}
}

// Publisher encodes dataset events and writes them with retries.
type Publisher struct {
	writer   MessageWriter
	topic    string
	attempts uint
	delay    time.Duration
	logger   zerolog.Logger
}

// New constructs a Publisher writing to topic.
func New(writer MessageWriter, topic string, opts ...Option) *Publisher {
	p := &Publisher{
		writer:   writer,
		topic:    topic,
		attempts: 3,
		delay:    200 * time.Millisecond,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PublishDatasetExtracted writes the event keyed by dataset ID. It retries
// until the context expires or the attempts are exhausted.
func (p *Publisher) PublishDatasetExtracted(ctx context.Context, evt events.DatasetExtracted) error {
	msg, err := encode(evt)
	if err != nil {
		return err
	}

	err = retry.Do(
		func() error {
			return p.writer.WriteMessages(ctx, p.topic, msg)
		},
		retry.Context(ctx),
		retry.Attempts(p.attempts),
		retry.Delay(p.delay),
		retry.MaxDelay(5*time.Second),
		retry.DelayType(retry.FullJitterBackoffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			p.logger.Warn().Err(err).Uint("attempt", n+1).Str("dataset_id", evt.DatasetID).Msg("retrying dataset event publish")
		}),
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", events.EventTypeDatasetExtracted, err)
	}
	return nil
}

func encode(evt events.DatasetExtracted) (kafka.Message, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode dataset event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(evt.DatasetID),
		Value: payload,
		Time:  evt.ExtractedAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(events.EventTypeDatasetExtracted)},
		},
	}, nil
}

// Noop discards events. The API service installs it when KAFKA_BROKERS is
// empty.
type Noop struct{}

// PublishDatasetExtracted performs no action.
func (Noop) PublishDatasetExtracted(context.Context, events.DatasetExtracted) error { return nil }
