package api

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"example.com/healthdata/internal/healthdata"
)

// Query parameters accepted by the extraction endpoint.
const (
	paramStartDate    = "start_date_of_extract"
	paramEndDate      = "end_date_of_extract"
	paramMonths       = "months_of_extract"
	paramIncludeSleep = "include_recorded_sleep"
)

var (
	errBothModes    = errors.New("specify either a date range or months_of_extract, not both")
	errNoMode       = errors.New("one of start/end date or months_of_extract is required")
	errPartialRange = errors.New("start_date_of_extract and end_date_of_extract must be given together")
)

// ExtractQuery is the validated form of the extraction query string.
type ExtractQuery struct {
	Mode         healthdata.Mode
	IncludeSleep bool
}

// ParseExtractQuery validates the query parameters and selects exactly one
// filter mode.
func ParseExtractQuery(q url.Values) (ExtractQuery, error) {
	startRaw := strings.TrimSpace(q.Get(paramStartDate))
	endRaw := strings.TrimSpace(q.Get(paramEndDate))
	monthsRaw := strings.TrimSpace(q.Get(paramMonths))

	hasRange := startRaw != "" || endRaw != ""
	hasMonths := monthsRaw != ""

	var out ExtractQuery
	switch {
	case hasRange && hasMonths:
		return out, errBothModes
	case !hasRange && !hasMonths:
		return out, errNoMode
	case hasRange && (startRaw == "" || endRaw == ""):
		return out, errPartialRange
	}

	if hasRange {
		start, err := parseDateParam(paramStartDate, startRaw)
		if err != nil {
			return out, err
		}
		end, err := parseDateParam(paramEndDate, endRaw)
		if err != nil {
			return out, err
		}
		if start.After(end) {
			return out, fmt.Errorf("%s must not be after %s", paramStartDate, paramEndDate)
		}
		out.Mode = healthdata.RangeMode{Start: &start, End: &end}
	} else {
		months, err := strconv.Atoi(monthsRaw)
		if err != nil || months <= 0 {
			return out, fmt.Errorf("%s must be a positive integer", paramMonths)
		}
		out.Mode = healthdata.TrailingMonthsMode{Months: months}
	}

	if raw := strings.TrimSpace(q.Get(paramIncludeSleep)); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			return out, fmt.Errorf("%s must be a boolean", paramIncludeSleep)
		}
		out.IncludeSleep = include
	}
	return out, nil
}

func parseDateParam(name, raw string) (time.Time, error) {
	ts, err := healthdata.ParseTimestamp(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be an ISO-8601 date or datetime", name)
	}
	return ts, nil
}
