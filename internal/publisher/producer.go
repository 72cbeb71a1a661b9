// Package publisher delivers dataset events to Kafka.
package publisher

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// ProducerConfig describes the brokers and per-write limits.
type ProducerConfig struct {
	Brokers  []string
	ClientID string
	// WriteTimeout bounds a single write attempt; retries are the publisher's
	// concern.
	WriteTimeout time.Duration
}

// KafkaProducer caches one writer per topic. Messages are hashed on their key,
// so every event for a dataset ID lands on the same partition.
type KafkaProducer struct {
	cfg       ProducerConfig
	transport *kafka.Transport
	mu        sync.Mutex
	writers   map[string]*kafka.Writer
}

// NewKafkaProducer creates a KafkaProducer. Writers are opened on first use.
func NewKafkaProducer(cfg ProducerConfig) *KafkaProducer {
	if cfg.ClientID == "" {
		cfg.ClientID = "healthdata-api"
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	return &KafkaProducer{
		cfg:       cfg,
		transport: &kafka.Transport{ClientID: cfg.ClientID},
		writers:   make(map[string]*kafka.Writer),
	}
}

// WriteMessages implements MessageWriter.
func (p *KafkaProducer) WriteMessages(ctx context.Context, topic string, msgs ...kafka.Message) error {
	return p.writer(topic).WriteMessages(ctx, msgs...)
}

func (p *KafkaProducer) writer(topic string) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if w, ok := p.writers[topic]; ok {
		return w
	}
	// One event per extraction: flush immediately rather than wait on BatchTimeout.
	w := &kafka.Writer{
		Addr:                   kafka.TCP(p.cfg.Brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		Compression:            kafka.Snappy,
		BatchSize:              1,
		WriteTimeout:           p.cfg.WriteTimeout,
		MaxAttempts:            1,
		AllowAutoTopicCreation: true,
		Transport:              p.transport,
	}
	p.writers[topic] = w
	return w
}

// Close flushes and closes every writer opened so far.
func (p *KafkaProducer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for topic, w := range p.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(p.writers, topic)
	}
	return errors.Join(errs...)
}
