package healthdata

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProjectEmitsEverySchemaField(t *testing.T) {
	n := Node{Tag: TagRecord, Attrs: []Attr{
		{"type", "StepCount"},
		{"startDate", "2024-01-01 08:00:00 +0900"},
		{"unit", "count"},
	}}

	fields, err := Project(n)
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"sourceVersion": "",
		"device":        "",
		"startDate":     "2024-01-01 08:00:00 +0900",
		"endDate":       "",
		"value":         "",
	}, fields)
}

func TestProjectKeepsRawValues(t *testing.T) {
	n := Node{Tag: TagWorkout, Attrs: []Attr{
		{"duration", "not-a-number"},
		{"startDate", "yesterday"},
	}}

	fields, err := Project(n)
	require.NoError(t, err)
	require.Len(t, fields, 12)
	require.Equal(t, "not-a-number", fields["duration"])
	require.Equal(t, "yesterday", fields["startDate"])
	require.Equal(t, "", fields["totalDistance"])
}

func TestProjectActivitySummary(t *testing.T) {
	fields, err := Project(Node{Tag: TagActivitySummary})
	require.NoError(t, err)
	schema, _ := SchemaFor(TagActivitySummary)
	require.Len(t, fields, len(schema))
	for _, name := range schema.Names() {
		require.Contains(t, fields, name)
		require.Empty(t, fields[name])
	}
}

func TestProjectUnknownTag(t *testing.T) {
	_, err := Project(Node{Tag: "Correlation"})
	require.ErrorIs(t, err, ErrNoSchema)
}

func TestFormatValuePanicsOnUnknownKind(t *testing.T) {
	require.Panics(t, func() { formatValue("1", true, ValueKind('x')) })
	require.Panics(t, func() { formatValue("", false, ValueKind('x')) })
}

func TestRecordColumnsMatchValues(t *testing.T) {
	r := Record{SourceVersion: "a", Device: "b", StartDate: "c", EndDate: "d", Value: "e"}
	require.Equal(t, []string{"sourceVersion", "device", "startDate", "endDate", "value"}, RecordColumns())
	require.Equal(t, []string{"a", "b", "c", "d", "e"}, r.Values())
}

func TestClassify(t *testing.T) {
	kind, ok := Classify(Node{Tag: TagRecord, Attrs: []Attr{{"type", "HKQuantityTypeIdentifierStepCount"}}})
	require.True(t, ok)
	require.Equal(t, KindStepCount, kind)

	kind, ok = Classify(Node{Tag: TagWorkout, Attrs: []Attr{{"type", "ignored"}}})
	require.True(t, ok)
	require.Equal(t, KindWorkout, kind)

	kind, ok = Classify(Node{Tag: TagActivitySummary})
	require.True(t, ok)
	require.Equal(t, KindActivitySummary, kind)

	_, ok = Classify(Node{Tag: "ExportDate"})
	require.False(t, ok)

	_, ok = Classify(Node{Tag: TagRecord})
	require.False(t, ok)
}
