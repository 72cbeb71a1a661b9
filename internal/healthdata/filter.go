package healthdata

import (
	"errors"
	"strings"
	"time"
)

// Inclusion markers for the retained kinds.
const (
	// StepDeviceMarker must appear in a StepCount record's device attribute.
	StepDeviceMarker = "name:iPhone"
	// SleepInBedValue is the value of an in-bed SleepAnalysis sample.
	SleepInBedValue = "HKCategoryValueSleepAnalysisInBed"
	// SleepMinVersionMarker must appear somewhere in a SleepAnalysis record's
	// sourceVersion. It is a containment check, not a version comparison.
	SleepMinVersionMarker = "10"
)

// Mode selects how records are filtered by date. Exactly one mode applies to
// an extraction; a nil Mode keeps every record.
type Mode interface {
	// Name is a short label used in logs, metrics and events.
	Name() string
	mode()
}

// RangeMode keeps records whose startDate lies within [Start, End]. A nil bound
// is open. Bounds are compared as wall-clock times with any offset dropped.
type RangeMode struct {
	Start *time.Time
	End   *time.Time
}

// Name implements Mode.
func (RangeMode) Name() string { return "range" }
func (RangeMode) mode()        {}

// TrailingMonthsMode keeps, per kind, the records that start within Months
// calendar months of that kind's latest endDate.
type TrailingMonthsMode struct {
	Months int
}

// Name implements Mode.
func (TrailingMonthsMode) Name() string { return "months" }
func (TrailingMonthsMode) mode()        {}

var errUnparseableTimestamp = errors.New("unparseable timestamp")

var timestampLayouts = []string{
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05 Z07:00",
	"2006-01-02 15:04:05-0700",
	"2006-01-02 15:04:05Z07:00",
	time.RFC3339Nano,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses an export or ISO-8601 timestamp and drops its offset,
// keeping the local clock reading. The result is expressed in UTC only so
// that values compare by wall clock.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return wallClock(t), nil
		}
	}
	return time.Time{}, errUnparseableTimestamp
}

func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// inRange reports whether the node passes an explicit date range. Nodes
// without a startDate pass; nodes with an unparseable one do not.
func (m RangeMode) inRange(n Node) bool {
	raw, ok := n.Get("startDate")
	if !ok || raw == "" {
		return true
	}
	if m.Start == nil && m.End == nil {
		return true
	}
	ts, err := ParseTimestamp(raw)
	if err != nil {
		return false
	}
	if m.Start != nil && ts.Before(wallClock(*m.Start)) {
		return false
	}
	if m.End != nil && ts.After(wallClock(*m.End)) {
		return false
	}
	return true
}

// includeNode applies the per-kind inclusion rules.
func includeNode(n Node, kind Kind) bool {
	switch kind {
	case KindStepCount:
		device, ok := n.Get("device")
		return ok && strings.Contains(device, StepDeviceMarker)
	case KindSleepAnalysis:
		version, ok := n.Get("sourceVersion")
		if !ok || !strings.Contains(version, SleepMinVersionMarker) {
			return false
		}
		value, _ := n.Get("value")
		return value == SleepInBedValue
	default:
		return false
	}
}

// SubtractMonths moves t back by n calendar months, clamping the day to the
// end of the target month (March 31 minus one month is February 28 or 29).
func SubtractMonths(t time.Time, n int) time.Time {
	total := t.Year()*12 + int(t.Month()) - 1 - n
	year, month := total/12, time.Month(total%12+1)
	if total < 0 {
		year, month = (total-11)/12, time.Month((total%12+12)%12+1)
	}
	day := t.Day()
	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// filterTrailingMonths keeps records whose startDate falls in
// [latest endDate - months, latest endDate]. Records without a parseable
// endDate do not move the anchor; if none parse, the slice is returned as is.
func filterTrailingMonths(records []Record, months int) []Record {
	if len(records) == 0 {
		return records
	}

	var (
		last  time.Time
		found bool
	)
	for _, r := range records {
		end, err := ParseTimestamp(r.EndDate)
		if err != nil {
			continue
		}
		if !found || end.After(last) {
			last, found = end, true
		}
	}
	if !found {
		return records
	}

	windowStart := SubtractMonths(last, months)
	out := make([]Record, 0, len(records))
	for _, r := range records {
		start, err := ParseTimestamp(r.StartDate)
		if err != nil {
			continue
		}
		if start.Before(windowStart) || start.After(last) {
			continue
		}
		out = append(out, r)
	}
	return out
}
