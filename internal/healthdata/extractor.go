// Package healthdata extracts step count and in-bed sleep samples from an
// Apple Health export.xml document.
package healthdata

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Options configures a single extraction.
type Options struct {
	// Mode selects the date filter. nil keeps every record.
	Mode Mode
	// IncludeSleep adds SleepAnalysis to the retained kinds.
	IncludeSleep bool
}

// Result holds the records of one extraction in document order.
type Result struct {
	Steps        []Record
	Sleep        []Record
	IdentityCore string
	Stats        Stats
}

// Option configures optional behaviour for the Extractor.
type Option func(*Extractor)

// WithLogger overrides the logger used for diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// Extractor runs extractions with a fixed identity salt. It holds no mutable
// state and is safe for concurrent use.
type Extractor struct {
	salt   string
	logger zerolog.Logger
}

// NewExtractor constructs an Extractor.
func NewExtractor(salt string, opts ...Option) *Extractor {
	e := &Extractor{
		salt:   salt,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract parses the document and returns the retained records together with
// the dataset identity core. Malformed XML yields ErrMalformedXML and a
// document without any StepCount node yields ErrNoStepRecords; in both cases
// no partial result is returned.
func (e *Extractor) Extract(xmlData []byte, opts Options) (*Result, error) {
	mode, err := NormalizeMode(opts.Mode)
	if err != nil {
		return nil, err
	}
	opts.Mode = mode

	nodes, err := ParseDocument(xmlData)
	if err != nil {
		return nil, err
	}
	AbbreviateTypes(nodes)

	stats := CollectStats(nodes)
	e.logger.Debug().
		Int("nodes", stats.Nodes).
		Interface("record_types", stats.RecordTypes).
		Interface("other_types", stats.OtherTypes).
		Msg("parsed health export")

	buckets, err := e.collect(nodes, opts)
	if err != nil {
		return nil, err
	}

	if m, ok := opts.Mode.(TrailingMonthsMode); ok {
		for kind, records := range buckets {
			buckets[kind] = filterTrailingMonths(records, m.Months)
		}
	}

	core, err := Identity(nodes, e.salt)
	if err != nil {
		return nil, err
	}

	return &Result{
		Steps:        buckets[KindStepCount],
		Sleep:        buckets[KindSleepAnalysis],
		IdentityCore: core,
		Stats:        stats,
	}, nil
}

// collect classifies the nodes, applies the inclusion rules and, in range
// mode, the date window, then projects the survivors.
func (e *Extractor) collect(nodes []Node, opts Options) (map[Kind][]Record, error) {
	targets := targetKinds(opts.IncludeSleep)
	buckets := make(map[Kind][]Record, len(targets))
	for _, kind := range targets {
		buckets[kind] = []Record{}
	}

	rangeMode, hasRange := opts.Mode.(RangeMode)
	for _, n := range nodes {
		kind, ok := Classify(n)
		if !ok {
			continue
		}
		if _, wanted := buckets[kind]; !wanted {
			continue
		}
		if hasRange && !rangeMode.inRange(n) {
			continue
		}
		if !includeNode(n, kind) {
			continue
		}

		rec, err := projectRecord(n, kind)
		if err != nil {
			return nil, err
		}
		buckets[kind] = append(buckets[kind], rec)
	}
	return buckets, nil
}

// NormalizeMode dereferences pointer modes to their value form. A nil pointer
// means no filter; any other implementation yields ErrUnsupportedMode.
func NormalizeMode(m Mode) (Mode, error) {
	switch v := m.(type) {
	case nil, RangeMode, TrailingMonthsMode:
		return m, nil
	case *RangeMode:
		if v == nil {
			return nil, nil
		}
		return *v, nil
	case *TrailingMonthsMode:
		if v == nil {
			return nil, nil
		}
		return *v, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedMode, m)
	}
}
