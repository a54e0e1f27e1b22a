package toolschema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecode(t *testing.T, raw string) Schema {
	t.Helper()
	s, err := Decode([]byte(raw))
	require.NoError(t, err)
	return s
}

func TestValidateRequiredMustBeDeclared(t *testing.T) {
	t.Parallel()

	missing := Tool{Name: "run", InputSchema: mustDecode(t, `{"type":"object","properties":{},"required":["x"]}`)}
	err := Validate(missing)
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "x", verr.Field)
	assert.Contains(t, err.Error(), `"x"`)

	declared := Tool{Name: "run", InputSchema: mustDecode(t, `{"type":"object","properties":{"x":{"type":"boolean"}},"required":["x"]}`)}
	assert.NoError(t, Validate(declared))
}

func TestValidateRequiredWithoutProperties(t *testing.T) {
	t.Parallel()

	tool := Tool{Name: "ambiguous", InputSchema: mustDecode(t, `{"type":"object","required":["x"]}`)}
	err := Validate(tool)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no properties")
}

func TestValidateNoRequiredAlwaysPasses(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Validate(Tool{Name: "bare", InputSchema: mustDecode(t, `{"type":"object"}`)}))
	assert.NoError(t, Validate(Tool{Name: "default", InputSchema: Default()}))
	assert.NoError(t, Validate(Tool{Name: "fallback", InputSchema: Fallback([]byte(`{"type":7}`))}))
}

func TestValidateRejectsNonObjectRoots(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		`{"type":"string","title":"s"}`,
		`{"type":"array","items":{"type":"object"}}`,
		`{"type":"null"}`,
		`{"type":"integer","required":["x"]}`,
	} {
		err := Validate(Tool{Name: "t", InputSchema: mustDecode(t, raw)})
		require.Error(t, err, raw)
		assert.Contains(t, err.Error(), "expected object")
	}

	err := Validate(Tool{Name: "zero"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unset")
}

func TestValidateTools(t *testing.T) {
	t.Parallel()

	good := Tool{Name: "good", InputSchema: Default()}
	bad := Tool{Name: "bad", InputSchema: mustDecode(t, `{"type":"string"}`)}
	also := Tool{Name: "also", InputSchema: mustDecode(t, `{"type":"object","properties":{"a":{"type":"string"}},"required":["a"]}`)}

	valid, rejected := ValidateTools([]Tool{good, bad, also})
	require.Len(t, valid, 2)
	assert.Equal(t, "good", valid[0].Name)
	assert.Equal(t, "also", valid[1].Name)
	require.Len(t, rejected, 1)
	assert.Contains(t, rejected[0].Error(), `"bad"`)
}

func TestToolJSONShape(t *testing.T) {
	t.Parallel()

	priority := 0.5
	tool := Tool{
		Name:        "srv__echo",
		Description: "echo text",
		InputSchema: mustDecode(t, `{"type":"object","properties":{"text":{"type":"string"}}}`),
		Annotations: &ToolAnnotations{
			Audience: []string{"assistant"},
			Priority: &priority,
			Extra:    map[string]json.RawMessage{"readOnlyHint": json.RawMessage(`true`)},
		},
	}
	encoded, err := json.Marshal(tool)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"name":"srv__echo",
		"description":"echo text",
		"inputSchema":{"type":"object","properties":{"text":{"type":"string"}}},
		"annotations":{"audience":["assistant"],"priority":0.5,"readOnlyHint":true}
	}`, string(encoded))

	var decoded Tool
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	require.NotNil(t, decoded.Annotations)
	assert.Equal(t, []string{"assistant"}, decoded.Annotations.Audience)
	assert.Contains(t, decoded.Annotations.Extra, "readOnlyHint")
	assert.NoError(t, Validate(decoded))
}
