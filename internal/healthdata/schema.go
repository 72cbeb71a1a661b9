package healthdata

import (
	"fmt"
)

// ValueKind describes how a field is declared in the export schema. Values are
// carried as opaque strings regardless of kind; dates are parsed only where a
// filter needs them.
type ValueKind byte

const (
	ValueString  ValueKind = 's'
	ValueNumeric ValueKind = 'n'
	ValueDate    ValueKind = 'd'
)

// Field is one column of a tag's schema.
type Field struct {
	Name string
	Kind ValueKind
}

// FieldSchema is the ordered list of fields projected for a tag.
type FieldSchema []Field

// Names returns the field names in schema order.
func (s FieldSchema) Names() []string {
	out := make([]string, len(s))
	for i, f := range s {
		out[i] = f.Name
	}
	return out
}

var recordSchema = FieldSchema{
	{"sourceVersion", ValueString},
	{"device", ValueString},
	{"startDate", ValueDate},
	{"endDate", ValueDate},
	{"value", ValueNumeric},
}

// ActivitySummary and Workout are classifiable but never projected; their
// schemas are kept so Project can describe every known tag.
var schemas = map[string]FieldSchema{
	TagRecord: recordSchema,
	TagActivitySummary: {
		{"dateComponents", ValueDate},
		{"activeEnergyBurned", ValueNumeric},
		{"activeEnergyBurnedGoal", ValueNumeric},
		{"activeEnergyBurnedUnit", ValueString},
		{"appleExerciseTime", ValueString},
		{"appleExerciseTimeGoal", ValueString},
		{"appleStandHours", ValueNumeric},
		{"appleStandHoursGoal", ValueNumeric},
	},
	TagWorkout: {
		{"sourceVersion", ValueString},
		{"device", ValueString},
		{"creationDate", ValueDate},
		{"startDate", ValueDate},
		{"endDate", ValueDate},
		{"workoutActivityType", ValueString},
		{"duration", ValueNumeric},
		{"durationUnit", ValueString},
		{"totalDistance", ValueNumeric},
		{"totalDistanceUnit", ValueString},
		{"totalEnergyBurned", ValueNumeric},
		{"totalEnergyBurnedUnit", ValueString},
	},
}

// SchemaFor returns the field schema for a tag.
func SchemaFor(tag string) (FieldSchema, bool) {
	s, ok := schemas[tag]
	return s, ok
}

// RecordColumns lists the columns of a projected Record, in output order.
func RecordColumns() []string {
	return recordSchema.Names()
}

// Project reads every schema field of the node's tag. Absent attributes are
// emitted as empty strings, so the map always holds exactly the schema keys.
func Project(n Node) (map[string]string, error) {
	schema, ok := SchemaFor(n.Tag)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSchema, n.Tag)
	}
	out := make(map[string]string, len(schema))
	for _, f := range schema {
		raw, present := n.Get(f.Name)
		out[f.Name] = formatValue(raw, present, f.Kind)
	}
	return out, nil
}

func formatValue(raw string, present bool, kind ValueKind) string {
	switch kind {
	case ValueString, ValueNumeric, ValueDate:
	default:
		panic(fmt.Sprintf("healthdata: unexpected value kind %q", rune(kind)))
	}
	if !present {
		return ""
	}
	return raw
}
