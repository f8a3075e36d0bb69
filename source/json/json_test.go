package json_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	protoform "github.com/protoform/protoform"
	"github.com/protoform/protoform/source/json"
)

func TestDecode_PreservesKeyOrder(t *testing.T) {
	m, err := json.DecodeMapping([]byte(`{"zulu": 1, "alpha": 2, "mike": 3}`))
	require.NoError(t, err)
	require.Equal(t, []string{"zulu", "alpha", "mike"}, m.Keys())
}

func TestDecode_ScalarLowering(t *testing.T) {
	m, err := json.DecodeMapping([]byte(`{"n": 1.25, "b": true, "s": "text", "z": null}`))
	require.NoError(t, err)

	want := map[string]string{"n": "1.25", "b": "true", "s": "text", "z": ""}
	for k, raw := range want {
		n, ok := m.Get(k)
		require.True(t, ok, k)
		require.Equal(t, raw, n.(*protoform.Value).Raw, k)
	}
}

func TestDecode_BigNumberKeepsText(t *testing.T) {
	m, err := json.DecodeMapping([]byte(`{"id": 9007199254740993}`))
	require.NoError(t, err)
	n, _ := m.Get("id")
	require.Equal(t, "9007199254740993", n.(*protoform.Value).Raw, "no float64 round trip damage")
}

func TestDecode_Nested(t *testing.T) {
	m, err := json.DecodeMapping([]byte(`{"loot": ["gold", "dagger"], "stats": {"str": 4}}`))
	require.NoError(t, err)

	n, _ := m.Get("loot")
	seq := n.(*protoform.Sequence)
	require.Len(t, seq.Items, 2)
	require.Equal(t, "dagger", seq.Items[1].(*protoform.Value).Raw)

	n, _ = m.Get("stats")
	v, _ := n.(*protoform.Mapping).Get("str")
	require.Equal(t, "4", v.(*protoform.Value).Raw)
}

func TestDecode_Errors(t *testing.T) {
	_, err := json.DecodeMapping([]byte(`{"a": 1} {"b": 2}`))
	require.ErrorContains(t, err, "trailing content")

	// malformed trailing bytes surface the parser's own error
	_, err = json.DecodeMapping([]byte(`{"a": 1}}`))
	require.Error(t, err)
	require.NotContains(t, err.Error(), "trailing content")

	_, err = json.DecodeMapping([]byte(`[1, 2]`))
	require.Error(t, err, "top-level arrays are not prototype documents")

	_, err = json.Decode([]byte(`{"a":`))
	require.Error(t, err)
}

func TestEncode_RoundTrip(t *testing.T) {
	m, err := json.DecodeMapping([]byte(`{"zulu": "1", "alpha": ["x", "y"]}`))
	require.NoError(t, err)

	out, err := json.Encode(m)
	require.NoError(t, err)

	back, err := json.DecodeMapping(out)
	require.NoError(t, err)
	require.True(t, protoform.NodeEqual(m, back))
	require.Equal(t, m.Keys(), back.Keys())
}
