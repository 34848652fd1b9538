package message

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolCallArgsJSONPassthrough(t *testing.T) {
	args := NewToolCallArgsJSON(map[string]any{"x": float64(1)})
	assert.Equal(t, map[string]any{"x": float64(1)}, args.ToJSONObject())
}

func TestToolCallArgsNonObjectWrapped(t *testing.T) {
	args := NewToolCallArgsJSON(float64(42))
	assert.Equal(t, map[string]any{"_value": float64(42)}, args.ToJSONObject())
}

func TestToolCallArgsStringValid(t *testing.T) {
	args := NewToolCallArgsString(`{"a": 1, "b": "two"}`)
	obj := args.ToJSONObject()
	assert.Equal(t, float64(1), obj["a"])
	assert.Equal(t, "two", obj["b"])
}

func TestToolCallArgsEmptyString(t *testing.T) {
	args := NewToolCallArgsString("")
	assert.Equal(t, map[string]any{}, args.ToJSONObject())
}

func TestToolCallArgsRepair(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want map[string]any
	}{
		{"trailing comma", `{"a": 1, "b": 2,}`, map[string]any{"a": float64(1), "b": float64(2)}},
		{"unquoted keys", `{a: 1, b: "x"}`, map[string]any{"a": float64(1), "b": "x"}},
		{"single quotes", `{'a': 'x'}`, map[string]any{"a": "x"}},
		{"unbalanced brace", `{"a": 1`, map[string]any{"a": float64(1)}},
		{"unbalanced nested", `{"a": {"b": 1`, map[string]any{"a": map[string]any{"b": float64(1)}}},
		{"mixed quotes untouched", `{"a": "it's here"}`, map[string]any{"a": "it's here"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			args := NewToolCallArgsString(c.in)
			assert.Equal(t, c.want, args.ToJSONObject())
		})
	}
}

func TestToolCallArgsUnrepairable(t *testing.T) {
	args := NewToolCallArgsString("not json at all {{{")
	obj := args.ToJSONObject()
	assert.Equal(t, "parse_failed", obj["_error"])
	assert.Equal(t, "not json at all {{{", obj["_raw"])
}

// TestToolCallArgsTotality is the property-based check for invariant A1:
// ToJSONObject never panics and always returns a non-nil map, regardless of
// input string content.
func TestToolCallArgsTotality(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("ToJSONObject is total", prop.ForAll(
		func(s string) bool {
			args := NewToolCallArgsString(s)
			obj := args.ToJSONObject()
			return obj != nil
		},
		gen.AnyString(),
	))

	result := properties.Run(gopter.ConsoleReporter(false))
	require.True(t, result.Success)
}
