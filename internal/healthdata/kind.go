package healthdata

// Kind identifies the category a node is bucketed under.
type Kind string

const (
	KindStepCount       Kind = "StepCount"
	KindSleepAnalysis   Kind = "SleepAnalysis"
	KindActivitySummary Kind = "ActivitySummary"
	KindWorkout         Kind = "Workout"
)

// Element tags that carry extractable data.
const (
	TagRecord          = "Record"
	TagActivitySummary = "ActivitySummary"
	TagWorkout         = "Workout"
)

// Classify resolves the kind of a node. Record nodes take their kind from the
// (abbreviated) type attribute; ActivitySummary and Workout nodes are their
// own kind. Any other tag is not classifiable.
func Classify(n Node) (Kind, bool) {
	switch n.Tag {
	case TagRecord:
		typ, ok := n.Get("type")
		if !ok {
			return "", false
		}
		return Kind(Abbreviate(typ)), true
	case TagActivitySummary, TagWorkout:
		return Kind(n.Tag), true
	default:
		return "", false
	}
}

// targetKinds returns the kinds retained for an extraction, in bucket order.
func targetKinds(includeSleep bool) []Kind {
	if includeSleep {
		return []Kind{KindStepCount, KindSleepAnalysis}
	}
	return []Kind{KindStepCount}
}
