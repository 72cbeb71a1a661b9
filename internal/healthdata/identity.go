package healthdata

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// datasetTimestampLayout is the suffix format of a full dataset ID.
const datasetTimestampLayout = "20060102150405"

// FirstStepNode returns the first node, in document order, whose kind is
// StepCount. It ignores every inclusion and date filter.
func FirstStepNode(nodes []Node) (Node, bool) {
	for _, n := range nodes {
		if kind, ok := Classify(n); ok && kind == KindStepCount {
			return n, true
		}
	}
	return Node{}, false
}

// Identity derives the dataset identity core: the first and last eight hex
// characters of SHA-256(attribute map repr + salt), taken over the first
// StepCount node. It returns ErrNoStepRecords when there is no such node.
func Identity(nodes []Node, salt string) (string, error) {
	first, ok := FirstStepNode(nodes)
	if !ok {
		return "", ErrNoStepRecords
	}
	sum := sha256.Sum256([]byte(attrRepr(first.Attrs) + salt))
	digest := hex.EncodeToString(sum[:])
	return digest[:8] + digest[len(digest)-8:], nil
}

// DatasetID appends the generation time, to the second, to an identity core.
func DatasetID(core string, at time.Time) string {
	return core + "_" + at.Format(datasetTimestampLayout)
}

// attrRepr renders attributes as {'name': 'value', ...} in document order.
// The format is part of the identity and must not change.
func attrRepr(attrs []Attr) string {
	var b strings.Builder
	b.WriteByte('{')
	for i, a := range attrs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteRepr(a.Name))
		b.WriteString(": ")
		b.WriteString(quoteRepr(a.Value))
	}
	b.WriteByte('}')
	return b.String()
}

// quoteRepr single-quotes s, switching to double quotes when s contains a
// single quote and no double quote.
func quoteRepr(s string) string {
	quote := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}

	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(quote)
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == rune(quote):
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		case r > 0x7f && !unicode.IsPrint(r):
			switch {
			case r <= 0xff:
				fmt.Fprintf(&b, `\x%02x`, r)
			case r <= 0xffff:
				fmt.Fprintf(&b, `\u%04x`, r)
			default:
				fmt.Fprintf(&b, `\U%08x`, r)
			}
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(quote)
	return b.String()
}
