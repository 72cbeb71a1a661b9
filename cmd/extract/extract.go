package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"example.com/healthdata/internal/config"
	"example.com/healthdata/internal/domain"
	"example.com/healthdata/internal/healthdata"
	"example.com/healthdata/internal/observability"
	"example.com/healthdata/internal/sampledata"
)

const (
	formatJSON = "json"
	formatCSV  = "csv"
)

type extractFlags struct {
	start        string
	end          string
	months       int
	includeSleep bool
	format       string
	out          string
	salt         string
	logLevel     string
}

func newExtractCmd() *cobra.Command {
	var f extractFlags
	cmd := &cobra.Command{
		Use:   "extract <export.xml>",
		Short: "Extract StepCount and in-bed SleepAnalysis records",
		Long: `Extract reads an Apple Health export.xml, keeps iPhone step counts and
(optionally) in-bed sleep samples, and prints them as JSON or writes them as CSV.

Without --start/--end or --months every matching record is kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, args[0], f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.start, "start", "", "keep records starting at or after this date (ISO-8601)")
	flags.StringVar(&f.end, "end", "", "keep records starting at or before this date (ISO-8601)")
	flags.IntVar(&f.months, "months", 0, "keep records within this many months of the latest sample")
	flags.BoolVar(&f.includeSleep, "sleep", false, "include in-bed sleep samples")
	flags.StringVar(&f.format, "format", formatJSON, "output format: json or csv")
	flags.StringVar(&f.out, "out", "", "output file for json, output directory for csv (default stdout / current directory)")
	flags.StringVar(&f.salt, "salt", "", "dataset identity salt (overrides DATA_ID_SALT)")
	flags.StringVar(&f.logLevel, "log-level", "warn", "log level for diagnostics on stderr")
	return cmd
}

func runExtract(cmd *cobra.Command, path string, f extractFlags) error {
	mode, err := buildMode(f.start, f.end, f.months)
	if err != nil {
		return err
	}
	format := strings.ToLower(f.format)
	if format != formatJSON && format != formatCSV {
		return fmt.Errorf("unsupported format %q (want json or csv)", f.format)
	}

	salt, err := resolveSalt(f.salt)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read export: %w", err)
	}

	logger := observability.NewLoggerTo(cmd.ErrOrStderr(), f.logLevel, "console")
	service := domain.NewService(
		healthdata.NewExtractor(salt, healthdata.WithLogger(logger)),
		domain.WithLogger(logger),
	)
	dataset, err := service.ExtractDataset(cmd.Context(), domain.ExtractInput{
		XML:          data,
		Mode:         mode,
		IncludeSleep: f.includeSleep,
	})
	if err != nil {
		return fmt.Errorf("extract %s: %w", path, err)
	}

	switch format {
	case formatCSV:
		dir := f.out
		if dir == "" {
			dir = "."
		}
		if err := sampledata.NewWriter(dir).WriteDataset(dataset.Steps, dataset.Sleep); err != nil {
			return err
		}
	default:
		if err := writeJSONOutput(cmd.OutOrStdout(), f.out, dataset); err != nil {
			return err
		}
	}

	printSummary(cmd.ErrOrStderr(), dataset, mode)
	return nil
}

// buildMode turns the date flags into a filter mode. No flags means no date
// filter.
func buildMode(start, end string, months int) (healthdata.Mode, error) {
	hasRange := start != "" || end != ""
	switch {
	case hasRange && months != 0:
		return nil, errors.New("--months cannot be combined with --start/--end")
	case months < 0:
		return nil, errors.New("--months must be positive")
	case months > 0:
		return healthdata.TrailingMonthsMode{Months: months}, nil
	case !hasRange:
		return nil, nil
	}

	var m healthdata.RangeMode
	if start != "" {
		ts, err := healthdata.ParseTimestamp(start)
		if err != nil {
			return nil, fmt.Errorf("--start: invalid date %q", start)
		}
		m.Start = &ts
	}
	if end != "" {
		ts, err := healthdata.ParseTimestamp(end)
		if err != nil {
			return nil, fmt.Errorf("--end: invalid date %q", end)
		}
		m.End = &ts
	}
	if m.Start != nil && m.End != nil && m.Start.After(*m.End) {
		return nil, errors.New("--start must not be after --end")
	}
	return m, nil
}

// resolveSalt prefers the flag and falls back to DATA_ID_SALT from .env or
// the environment.
func resolveSalt(flag string) (string, error) {
	v := config.NewViper()
	if flag != "" {
		v.Set("DATA_ID_SALT", flag)
	}
	cfg, err := config.LoadFrom(v)
	if err != nil {
		return "", err
	}
	return cfg.DataIDSalt, nil
}

type output struct {
	ID          string        `json:"id"`
	ExtractedAt time.Time     `json:"extractedAt"`
	Steps       []recordJSON  `json:"stepData"`
	Sleep       *[]recordJSON `json:"sleepData,omitempty"`
}

type recordJSON struct {
	SourceVersion string `json:"sourceVersion"`
	Device        string `json:"device"`
	StartDate     string `json:"startDate"`
	EndDate       string `json:"endDate"`
	Value         string `json:"value"`
}

func toRecordJSON(records []healthdata.Record) []recordJSON {
	out := make([]recordJSON, len(records))
	for i, r := range records {
		out[i] = recordJSON{
			SourceVersion: r.SourceVersion,
			Device:        r.Device,
			StartDate:     r.StartDate,
			EndDate:       r.EndDate,
			Value:         r.Value,
		}
	}
	return out
}

func writeJSONOutput(stdout io.Writer, path string, d *domain.Dataset) error {
	payload := output{ID: d.ID, ExtractedAt: d.ExtractedAt, Steps: toRecordJSON(d.Steps)}
	if d.IncludeSleep {
		sleep := toRecordJSON(d.Sleep)
		payload.Sleep = &sleep
	}

	if path == "" {
		return encodeJSON(stdout, payload)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	return encodeAndClose(file, payload)
}

// encodeAndClose reports a Close failure when the encode itself succeeded;
// a buffered file write can first fail there.
func encodeAndClose(wc io.WriteCloser, payload output) (err error) {
	defer func() {
		if cerr := wc.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close output: %w", cerr)
		}
	}()
	return encodeJSON(wc, payload)
}

func encodeJSON(w io.Writer, payload output) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func printSummary(w io.Writer, d *domain.Dataset, mode healthdata.Mode) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)

	modeLabel := "all"
	if mode != nil {
		modeLabel = mode.Name()
	}

	_, _ = bold.Fprintf(w, "dataset %s\n", d.ID)
	_, _ = fmt.Fprintf(w, "  mode:   %s\n", modeLabel)
	_, _ = green.Fprintf(w, "  steps:  %d\n", len(d.Steps))
	if d.IncludeSleep {
		_, _ = green.Fprintf(w, "  sleep:  %d\n", len(d.Sleep))
	}
	_, _ = fmt.Fprintf(w, "  nodes:  %d\n", d.Stats.Nodes)

	types := make([]string, 0, len(d.Stats.RecordTypes))
	for name := range d.Stats.RecordTypes {
		types = append(types, name)
	}
	sort.Strings(types)
	for _, name := range types {
		_, _ = cyan.Fprintf(w, "    %-28s %d\n", name, d.Stats.RecordTypes[name])
	}
}
