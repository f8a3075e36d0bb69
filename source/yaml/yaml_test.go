package yaml_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	protoform "github.com/protoform/protoform"
	"github.com/protoform/protoform/source/yaml"
)

func TestDecode_PreservesKeyOrder(t *testing.T) {
	m, err := yaml.DecodeMapping([]byte("zulu: 1\nalpha: 2\nmike: 3\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"zulu", "alpha", "mike"}, m.Keys())
}

func TestDecode_NestedStructure(t *testing.T) {
	src := `
name: goblin
loot:
  - gold
  - dagger
stats:
  str: 4
`
	m, err := yaml.DecodeMapping([]byte(src))
	require.NoError(t, err)

	n, ok := m.Get("loot")
	require.True(t, ok)
	seq, ok := n.(*protoform.Sequence)
	require.True(t, ok)
	require.Len(t, seq.Items, 2)
	require.Equal(t, "gold", seq.Items[0].(*protoform.Value).Raw)

	n, _ = m.Get("stats")
	sub, ok := n.(*protoform.Mapping)
	require.True(t, ok)
	v, _ := sub.Get("str")
	require.Equal(t, "4", v.(*protoform.Value).Raw)
}

func TestDecode_AliasesAreResolved(t *testing.T) {
	src := `
base: &b
  hp: 5
copy: *b
`
	m, err := yaml.DecodeMapping([]byte(src))
	require.NoError(t, err)

	b, _ := m.Get("base")
	c, _ := m.Get("copy")
	require.True(t, protoform.NodeEqual(b, c))
}

func TestDecode_NonScalarKey(t *testing.T) {
	m, err := yaml.DecodeMapping([]byte("[a, b]: value\n"))
	require.NoError(t, err)
	require.Equal(t, 1, m.Len())

	e := m.Entries()[0]
	require.NotNil(t, e.KeyNode, "the original key node survives for validation")
	require.Equal(t, protoform.NodeSequence, e.KeyNode.Kind())
	require.Equal(t, "?0:[a,b]", e.Key)
}

func TestDecode_EmptyInput(t *testing.T) {
	m, err := yaml.DecodeMapping(nil)
	require.NoError(t, err)
	require.Equal(t, 0, m.Len())
}

func TestDecode_TopLevelScalarRejectedByMappingForm(t *testing.T) {
	_, err := yaml.DecodeMapping([]byte("just a scalar"))
	require.Error(t, err)

	n, err := yaml.Decode([]byte("just a scalar"))
	require.NoError(t, err)
	require.Equal(t, protoform.NodeValue, n.Kind())
}

func TestEncode_RoundTrip(t *testing.T) {
	src := "zulu: \"1\"\nalpha:\n    - x\n    - y\n"
	m, err := yaml.DecodeMapping([]byte(src))
	require.NoError(t, err)

	out, err := yaml.Encode(m)
	require.NoError(t, err)

	back, err := yaml.DecodeMapping(out)
	require.NoError(t, err)
	require.True(t, protoform.NodeEqual(m, back))
	require.Equal(t, m.Keys(), back.Keys(), "entry order survives the round trip")
}
