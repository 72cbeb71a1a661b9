// Package domain defines the business logic for the health data service.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"example.com/healthdata/internal/events"
	"example.com/healthdata/internal/healthdata"
	"example.com/healthdata/internal/observability"
)

// SampleSink receives a copy of every extracted dataset when debug output is on.
type SampleSink interface {
	WriteDataset(steps, sleep []healthdata.Record) error
}

// EventPublisher announces completed extractions.
type EventPublisher interface {
	PublishDatasetExtracted(ctx context.Context, evt events.DatasetExtracted) error
}

// Dataset is the result handed back to the API layer.
type Dataset struct {
	ID           string
	Steps        []healthdata.Record
	Sleep        []healthdata.Record
	IncludeSleep bool
	Stats        healthdata.Stats
	ExtractedAt  time.Time
}

// ExtractInput captures the payload from the API layer. Mode is already
// validated; exactly one filter mode is set.
type ExtractInput struct {
	XML          []byte
	Mode         healthdata.Mode
	IncludeSleep bool
}

// Option configures optional behaviour for the Service.
type Option func(*Service)

// WithSampleSink enables the debug CSV side channel.
func WithSampleSink(sink SampleSink) Option {
	return func(s *Service) {
		s.sink = sink
	}
}

// WithPublisher enables dataset event publishing.
func WithPublisher(publisher EventPublisher, timeout time.Duration) Option {
	return func(s *Service) {
		s.publisher = publisher
		s.publishTimeout = timeout
	}
}

// WithLogger overrides the service logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the clock used to stamp dataset IDs.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service orchestrates extraction requests.
type Service struct {
	extractor      *healthdata.Extractor
	sink           SampleSink
	publisher      EventPublisher
	publishTimeout time.Duration
	logger         zerolog.Logger
	now            func() time.Time
}

// NewService constructs a Service around an extractor.
func NewService(extractor *healthdata.Extractor, opts ...Option) *Service {
	s := &Service{
		extractor:      extractor,
		publishTimeout: 5 * time.Second,
		logger:         zerolog.Nop(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExtractDataset runs one extraction and stamps the dataset ID. Side channels
// run after the dataset is built; their failures are logged, never returned.
func (s *Service) ExtractDataset(ctx context.Context, input ExtractInput) (*Dataset, error) {
	started := time.Now()
	mode := modeName(input.Mode)

	res, err := s.extractor.Extract(input.XML, healthdata.Options{
		Mode:         input.Mode,
		IncludeSleep: input.IncludeSleep,
	})
	if err != nil {
		observability.RecordExtraction(outcomeFor(err), mode, time.Since(started))
		return nil, err
	}

	extractedAt := s.now()
	dataset := &Dataset{
		ID:           healthdata.DatasetID(res.IdentityCore, extractedAt),
		Steps:        res.Steps,
		Sleep:        res.Sleep,
		IncludeSleep: input.IncludeSleep,
		Stats:        res.Stats,
		ExtractedAt:  extractedAt,
	}

	observability.RecordExtraction(observability.OutcomeSuccess, mode, time.Since(started))
	observability.RecordRecords(string(healthdata.KindStepCount), len(dataset.Steps))
	observability.RecordRecords(string(healthdata.KindSleepAnalysis), len(dataset.Sleep))
	observability.RecordExtractionSucceeded(extractedAt)

	s.logger.Info().
		Str("dataset_id", dataset.ID).
		Str("mode", mode).
		Bool("include_sleep", input.IncludeSleep).
		Int("step_records", len(dataset.Steps)).
		Int("sleep_records", len(dataset.Sleep)).
		Int("nodes", res.Stats.Nodes).
		Msg("extracted health dataset")

	s.writeSamples(dataset)
	s.publish(ctx, dataset, mode)
	return dataset, nil
}

func (s *Service) writeSamples(d *Dataset) {
	if s.sink == nil {
		return
	}
	if err := s.sink.WriteDataset(d.Steps, d.Sleep); err != nil {
		observability.RecordSideChannelFailure("sample_data")
		s.logger.Error().Err(err).Str("dataset_id", d.ID).Msg("failed to write sample data")
	}
}

func (s *Service) publish(ctx context.Context, d *Dataset, mode string) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()

	err := s.publisher.PublishDatasetExtracted(ctx, events.DatasetExtracted{
		DatasetID:    d.ID,
		StepRecords:  len(d.Steps),
		SleepRecords: len(d.Sleep),
		Mode:         mode,
		IncludeSleep: d.IncludeSleep,
		ExtractedAt:  d.ExtractedAt.UTC(),
	})
	if err != nil {
		observability.RecordSideChannelFailure("event")
		s.logger.Error().Err(err).Str("dataset_id", d.ID).Msg("failed to publish dataset event")
	}
}

func modeName(m healthdata.Mode) string {
	m, err := healthdata.NormalizeMode(m)
	switch {
	case err != nil:
		return "unknown"
	case m == nil:
		return "all"
	}
	return m.Name()
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, healthdata.ErrMalformedXML):
		return observability.OutcomeInvalidXML
	case errors.Is(err, healthdata.ErrNoStepRecords):
		return observability.OutcomeEmptyDataset
	default:
		return observability.OutcomeError
	}
}
