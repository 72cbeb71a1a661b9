package healthdata

import "regexp"

var typeIdentifierPattern = regexp.MustCompile(`^HK.*TypeIdentifier(.+)$`)

// Abbreviate strips the HealthKit type identifier prefix, turning
// "HKQuantityTypeIdentifierStepCount" into "StepCount". Strings without the
// prefix are returned unchanged, so applying it twice is a no-op.
func Abbreviate(s string) string {
	if m := typeIdentifierPattern.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

// AbbreviateTypes rewrites the type attribute of every Record node in place.
func AbbreviateTypes(nodes []Node) {
	for i := range nodes {
		if nodes[i].Tag != TagRecord {
			continue
		}
		if typ, ok := nodes[i].Get("type"); ok {
			nodes[i].set("type", Abbreviate(typ))
		}
	}
}
