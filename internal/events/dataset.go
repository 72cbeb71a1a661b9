// Package events defines the payloads the service emits to downstream consumers.
package events

import "time"

// EventTypeDatasetExtracted is the event_type header of DatasetExtracted messages.
const EventTypeDatasetExtracted = "health.dataset_extracted"

// DatasetExtracted summarises one successful extraction. It carries counts
// only, never the records themselves.
type DatasetExtracted struct {
	DatasetID    string    `json:"dataset_id"`
	StepRecords  int       `json:"step_records"`
	SleepRecords int       `json:"sleep_records"`
	Mode         string    `json:"mode"`
	IncludeSleep bool      `json:"include_sleep"`
	ExtractedAt  time.Time `json:"extracted_at"`
}
