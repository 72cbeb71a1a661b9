package healthdata

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func loadNodes(t *testing.T) []Node {
	t.Helper()
	data, err := os.ReadFile("testdata/export.xml")
	require.NoError(t, err)
	nodes, err := ParseDocument(data)
	require.NoError(t, err)
	AbbreviateTypes(nodes)
	return nodes
}

func TestIdentityIsStableForSameInputAndSalt(t *testing.T) {
	nodes := loadNodes(t)

	first, err := Identity(nodes, "pepper")
	require.NoError(t, err)
	second, err := Identity(loadNodes(t), "pepper")
	require.NoError(t, err)

	require.Equal(t, "7448106036342aaf", first)
	require.Equal(t, first, second)
}

func TestIdentityDependsOnSalt(t *testing.T) {
	core, err := Identity(loadNodes(t), "other-salt")
	require.NoError(t, err)
	require.Equal(t, "8c90a1b1a2d39c10", core)
}

func TestIdentityDependsOnFirstStepAttributes(t *testing.T) {
	nodes := loadNodes(t)
	for i := range nodes {
		if kind, ok := Classify(nodes[i]); ok && kind == KindStepCount {
			nodes[i].set("value", "121")
			break
		}
	}
	core, err := Identity(nodes, "pepper")
	require.NoError(t, err)
	require.Equal(t, "add897c98c0efd6b", core)
}

func TestIdentityWithoutStepRecords(t *testing.T) {
	nodes := []Node{
		{Tag: TagRecord, Attrs: []Attr{{"type", "SleepAnalysis"}}},
		{Tag: TagWorkout},
	}
	_, err := Identity(nodes, "pepper")
	require.ErrorIs(t, err, ErrNoStepRecords)
}

func TestDatasetIDAppendsSecondPrecisionTimestamp(t *testing.T) {
	at := time.Date(2024, time.April, 1, 9, 5, 7, 999, time.UTC)
	require.Equal(t, "7448106036342aaf_20240401090507", DatasetID("7448106036342aaf", at))
}

func TestAttrRepr(t *testing.T) {
	attrs := []Attr{
		{"sourceName", "Taro's iPhone"},
		{"a", `x"y`},
		{"b", `both ' and "`},
		{"c", `back\slash`},
		{"d", "tab\tnl\n"},
		{"e", "歩数"},
	}
	want := `{'sourceName': "Taro's iPhone", 'a': 'x"y', 'b': 'both \' and "', 'c': 'back\\slash', 'd': 'tab\tnl\n', 'e': '歩数'}`
	require.Equal(t, want, attrRepr(attrs))
	require.Equal(t, "{}", attrRepr(nil))
}

func TestIdentityNormalizesAttributeWhitespace(t *testing.T) {
	doc := "<HealthData>\n" +
		" <Record type=\"HKQuantityTypeIdentifierStepCount\" sourceName=\"a\nb\tc\r\nd\" device=\"name:iPhone\" value=\"5\"/>\n" +
		"</HealthData>"
	nodes, err := ParseDocument([]byte(doc))
	require.NoError(t, err)
	AbbreviateTypes(nodes)

	name, ok := nodes[0].Get("sourceName")
	require.True(t, ok)
	require.Equal(t, "a b c d", name)
	require.Equal(t, "{'type': 'StepCount', 'sourceName': 'a b c d', 'device': 'name:iPhone', 'value': '5'}", attrRepr(nodes[0].Attrs))

	core, err := Identity(nodes, "pepper")
	require.NoError(t, err)
	require.Equal(t, "bc39dade1d085d0c", core)
}
