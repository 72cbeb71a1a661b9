package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Extraction outcomes used as metric labels.
const (
	OutcomeSuccess      = "success"
	OutcomeInvalidXML   = "invalid_xml"
	OutcomeEmptyDataset = "empty_dataset"
	OutcomeError        = "error"
)

var (
	extractionsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "healthdata",
		Subsystem: "extraction",
		Name:      "requests_total",
		Help:      "Number of export extractions, labeled by outcome and filter mode.",
	}, []string{"outcome", "mode"})

	recordsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "healthdata",
		Subsystem: "extraction",
		Name:      "records_total",
		Help:      "Number of records returned to callers, labeled by kind.",
	}, []string{"kind"})

	extractionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "healthdata",
		Subsystem: "extraction",
		Name:      "duration_seconds",
		Help:      "Time spent parsing and filtering one export document.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	lastExtractionGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "healthdata",
		Subsystem: "extraction",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successful extraction.",
	})

	sideChannelFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "healthdata",
		Subsystem: "side_channel",
		Name:      "failures_total",
		Help:      "Failures of best-effort side channels (sample CSV, event publish).",
	}, []string{"channel"})
)

func init() {
	prometheus.MustRegister(extractionsCounter, recordsCounter, extractionDuration, lastExtractionGauge, sideChannelFailures)
}

// RecordExtraction counts one extraction and observes its duration.
func RecordExtraction(outcome, mode string, elapsed time.Duration) {
	extractionsCounter.WithLabelValues(outcome, mode).Inc()
	extractionDuration.Observe(elapsed.Seconds())
}

// RecordRecords adds n returned records of a kind.
func RecordRecords(kind string, n int) {
	if n <= 0 {
		return
	}
	recordsCounter.WithLabelValues(kind).Add(float64(n))
}

// RecordExtractionSucceeded updates the success watermark gauge.
func RecordExtractionSucceeded(ts time.Time) {
	if ts.IsZero() {
		return
	}
	lastExtractionGauge.Set(float64(ts.Unix()))
}

// RecordSideChannelFailure counts a failed best-effort side channel.
func RecordSideChannelFailure(channel string) {
	sideChannelFailures.WithLabelValues(channel).Inc()
}
