package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tukey-oj/evaluator/internal/value"
)

func TestParseJSON(t *testing.T) {
	v := value.Parse(`[1, 2.5, "three", true, null]`)
	require.Equal(t, value.KindSequence, v.Kind())
	want := value.Seq(
		value.Number(1),
		value.Number(2.5),
		value.Text("three"),
		value.Bool(true),
		value.Null(),
	)
	assert.True(t, v.Equal(want))
}

func TestParseJSONObject(t *testing.T) {
	v := value.Parse(`{"a": 1, "b": [2, 3]}`)
	require.Equal(t, value.KindMapping, v.Kind())
	assert.Equal(t, `{a: 1, b: [2, 3]}`, v.Canonical())
}

func TestParseScalarNotWrapped(t *testing.T) {
	v := value.Parse("5")
	require.Equal(t, value.KindNumber, v.Kind())
	f, ok := v.Float()
	require.True(t, ok)
	assert.Equal(t, 5.0, f)
}

func TestParseBareTuple(t *testing.T) {
	v := value.Parse("2,3")
	require.Equal(t, value.KindSequence, v.Kind())
	assert.True(t, v.Equal(value.Seq(value.Number(2), value.Number(3))))
}

func TestParsePythonLiterals(t *testing.T) {
	cases := map[string]value.Value{
		"'hello'":          value.Text("hello"),
		`"dou'ble"`:        value.Text("dou'ble"),
		"(1, 2)":           value.Seq(value.Number(1), value.Number(2)),
		"(5)":              value.Number(5),
		"(5,)":             value.Seq(value.Number(5)),
		"True":             value.Bool(true),
		"False":            value.Bool(false),
		"None":             value.Null(),
		"[1, (2, 3)]":      value.Seq(value.Number(1), value.Seq(value.Number(2), value.Number(3))),
		"{'a': 1, 'b': 2}": value.Mapping([]value.Entry{{Key: "a", Val: value.Number(1)}, {Key: "b", Val: value.Number(2)}}),
		"-1.5e3":           value.Number(-1500),
	}
	for raw, want := range cases {
		got := value.Parse(raw)
		assert.True(t, got.Equal(want), "parse %q: got %s", raw, got.Canonical())
	}
}

func TestParseCommaFallback(t *testing.T) {
	v := value.Parse("abc, def ,ghi")
	want := value.Seq(value.Text("abc"), value.Text("def"), value.Text("ghi"))
	assert.True(t, v.Equal(want))
}

func TestParseRawFallback(t *testing.T) {
	v := value.Parse("  just some words  ")
	s, ok := v.Str()
	require.True(t, ok)
	assert.Equal(t, "just some words", s)
}

func TestParseEmpty(t *testing.T) {
	v := value.Parse("   ")
	s, ok := v.Str()
	require.True(t, ok)
	assert.Equal(t, "", s)
}

// A successfully parsed value re-encoded and re-parsed must come back equal.
func TestEncodeRoundTrip(t *testing.T) {
	inputs := []string{
		"5",
		"2,3",
		`[1, "two", [3, 4]]`,
		"{'k': [1, 2], 'j': None}",
		"(1, 'x', True)",
		"hello",
		"a, b, c",
	}
	for _, raw := range inputs {
		first := value.Parse(raw)
		second := value.Parse(first.Encode())
		assert.True(t, first.Equal(second), "round trip %q via %q", raw, first.Encode())
	}
}

func TestWrap(t *testing.T) {
	assert.Equal(t, value.KindSequence, value.Wrap(value.Number(5)).Kind())
	assert.True(t, value.Wrap(value.Number(5)).Equal(value.Seq(value.Number(5))))

	seq := value.Seq(value.Number(1), value.Number(2))
	assert.True(t, value.Wrap(seq).Equal(seq))

	m := value.Mapping([]value.Entry{{Key: "a", Val: value.Number(1)}})
	assert.True(t, value.Wrap(m).Equal(m))
}

func TestNumericItems(t *testing.T) {
	nums, ok := value.NumericItems(value.Seq(value.Number(1), value.Number(2.5)))
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2.5}, nums)

	_, ok = value.NumericItems(value.Seq(value.Number(1), value.Text("x")))
	assert.False(t, ok)

	_, ok = value.NumericItems(value.Text("5"))
	assert.False(t, ok)
}
