package healthdata

import "fmt"

// Record is a projected StepCount or SleepAnalysis sample. Kind tells which
// of the two it is; every field holds the raw attribute string, or "" when the
// source node lacked it.
type Record struct {
	Kind          Kind
	SourceVersion string
	Device        string
	StartDate     string
	EndDate       string
	Value         string
}

// Values returns the record fields in RecordColumns order.
func (r Record) Values() []string {
	return []string{r.SourceVersion, r.Device, r.StartDate, r.EndDate, r.Value}
}

func projectRecord(n Node, kind Kind) (Record, error) {
	if n.Tag != TagRecord {
		return Record{}, fmt.Errorf("%w: %s cannot be projected as %s", ErrNoSchema, n.Tag, kind)
	}
	fields, err := Project(n)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Kind:          kind,
		SourceVersion: fields["sourceVersion"],
		Device:        fields["device"],
		StartDate:     fields["startDate"],
		EndDate:       fields["endDate"],
		Value:         fields["value"],
	}, nil
}
