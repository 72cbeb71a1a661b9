// Package sampledata writes extracted records as CSV for debugging and offline use.
package sampledata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"example.com/healthdata/internal/healthdata"
)

// Fixed file names inside the sample data directory.
const (
	StepFileName  = "step_count_data.csv"
	SleepFileName = "sleep_analysis_data.csv"
)

// Writer persists datasets under a directory.
type Writer struct {
	dir string
}

// NewWriter constructs a Writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// WriteDataset writes both CSV files, creating the directory if needed. The
// sleep file is written even when empty so stale data is not left behind.
func (w *Writer) WriteDataset(steps, sleep []healthdata.Record) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create sample data dir: %w", err)
	}
	if err := writeFile(filepath.Join(w.dir, StepFileName), steps); err != nil {
		return err
	}
	return writeFile(filepath.Join(w.dir, SleepFileName), sleep)
}

func writeFile(path string, records []healthdata.Record) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", filepath.Base(path), cerr)
		}
	}()
	return WriteCSV(f, records)
}

// WriteCSV writes a header row followed by one row per record.
func WriteCSV(out io.Writer, records []healthdata.Record) error {
	w := csv.NewWriter(out)
	if err := w.Write(healthdata.RecordColumns()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		if err := w.Write(r.Values()); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
