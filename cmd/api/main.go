package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"example.com/healthdata/internal/api"
	"example.com/healthdata/internal/auth"
	"example.com/healthdata/internal/config"
	"example.com/healthdata/internal/domain"
	"example.com/healthdata/internal/healthdata"
	"example.com/healthdata/internal/observability"
	"example.com/healthdata/internal/publisher"
	"example.com/healthdata/internal/sampledata"
	httptransport "example.com/healthdata/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := observability.NewLogger("info", os.Getenv("LOG_FORMAT"))
		bootLogger.Fatal().Err(err).Msg("failed to load config")
	}
	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)

	opts := []domain.Option{domain.WithLogger(logger)}
	if cfg.Debug {
		opts = append(opts, domain.WithSampleSink(sampledata.NewWriter(cfg.SampleDataDir)))
		logger.Warn().Str("dir", cfg.SampleDataDir).Msg("debug mode: extracted datasets are written as CSV")
	}

	pub, producer := newEventPublisher(cfg, logger)
	opts = append(opts, domain.WithPublisher(pub, cfg.PublishTimeout))

	extractor := healthdata.NewExtractor(cfg.DataIDSalt, healthdata.WithLogger(logger))
	service := domain.NewService(extractor, opts...)

	handler := api.NewHandler(service, api.HandlerConfig{
		Prefix:       cfg.APIPrefix,
		MaxBodyBytes: cfg.MaxBodyBytes,
		RequireScope: cfg.AuthEnabled(),
	})
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	var root http.Handler = mux
	if cfg.AuthEnabled() {
		root = auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer}).Wrap(root)
	} else {
		logger.Warn().Msg("JWT_SECRET not set: extraction endpoint is unauthenticated")
	}
	root = httptransport.RequestLogger(logger)(httptransport.CORS(cfg.CORSOrigin)(root))

	server := httptransport.NewServer(httptransport.ServerConfig{Address: cfg.HTTPAddress}, root, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().Str("prefix", cfg.APIPrefix).Msg("starting healthdata api")
	if err := server.Serve(ctx); err != nil {
		logger.Error().Err(err).Msg("http server stopped with error")
	}
	closeProducer(producer, logger)
}

// newEventPublisher returns a Kafka-backed publisher and its producer when
// brokers are configured, and publisher.Noop with a nil producer otherwise.
func newEventPublisher(cfg config.Config, logger zerolog.Logger) (domain.EventPublisher, *publisher.KafkaProducer) {
	if !cfg.KafkaEnabled() {
		logger.Info().Msg("KAFKA_BROKERS not set: dataset events disabled")
		return publisher.Noop{}, nil
	}
	producer := publisher.NewKafkaProducer(publisher.ProducerConfig{Brokers: cfg.KafkaBrokers})
	logger.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("dataset events enabled")
	return publisher.New(producer, cfg.KafkaTopic, publisher.WithLogger(logger)), producer
}

func closeProducer(producer *publisher.KafkaProducer, logger zerolog.Logger) {
	if producer == nil {
		return
	}
	if err := producer.Close(); err != nil {
		logger.Error().Err(err).Msg("failed to close kafka producer")
	}
}
