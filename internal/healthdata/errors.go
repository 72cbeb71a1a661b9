package healthdata

import "errors"

var (
	// ErrMalformedXML is returned when the export document cannot be parsed.
	ErrMalformedXML = errors.New("malformed health export XML")
	// ErrNoStepRecords is returned when the document holds no StepCount node,
	// leaving the dataset identity undefined.
	ErrNoStepRecords = errors.New("no step count records in export")
	// ErrNoSchema is returned when a node's tag has no field schema.
	ErrNoSchema = errors.New("no field schema for tag")
	// ErrUnsupportedMode is returned for a Mode the extractor does not know.
	ErrUnsupportedMode = errors.New("unsupported filter mode")
)
