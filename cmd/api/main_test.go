package main

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"example.com/healthdata/internal/config"
	"example.com/healthdata/internal/publisher"
)

func TestNewEventPublisherWithoutBrokers(t *testing.T) {
	pub, producer := newEventPublisher(config.Config{KafkaTopic: "health_dataset_events"}, zerolog.Nop())
	require.Nil(t, producer)
	require.IsType(t, publisher.Noop{}, pub)
}

func TestNewEventPublisherWithBrokers(t *testing.T) {
	cfg := config.Config{KafkaBrokers: []string{"localhost:9092"}, KafkaTopic: "health_dataset_events"}
	pub, producer := newEventPublisher(cfg, zerolog.Nop())
	require.NotNil(t, producer)
	t.Cleanup(func() { _ = producer.Close() })
	require.IsType(t, &publisher.Publisher{}, pub)
}
