package toolschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searchArgs struct {
	Query    string `json:"query" jsonschema:"required,description=the search query"`
	MaxHits  int    `json:"maxHits,omitempty" jsonschema:"minimum=1,maximum=50"`
}

func TestGenerate_ProducesFlatObjectSchema(t *testing.T) {
	schema, err := Generate[searchArgs]()
	require.NoError(t, err)

	assert.Equal(t, "object", schema["type"])
	assert.NotContains(t, schema, "$schema")
	assert.NotContains(t, schema, "$id")

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "query")
	assert.Contains(t, props, "maxHits")

	required, ok := schema["required"].([]any)
	require.True(t, ok)
	assert.Contains(t, required, "query")
}

func TestValidate_NilSchemaAlwaysPasses(t *testing.T) {
	assert.NoError(t, Validate(nil, map[string]any{"anything": 1}))
}

func TestValidate_RejectsMissingRequiredField(t *testing.T) {
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{"query": map[string]any{"type": "string"}},
		"required":   []string{"query"},
	}
	assert.NoError(t, Validate(schema, map[string]any{"query": "hi"}))
	assert.Error(t, Validate(schema, map[string]any{}))
}

func TestValidate_RejectsWrongType(t *testing.T) {
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{"count": map[string]any{"type": "integer"}},
	}
	assert.Error(t, Validate(schema, map[string]any{"count": "not-a-number"}))
}

func TestValidate_CompiledSchemaIsCached(t *testing.T) {
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{"x": map[string]any{"type": "string"}},
	}
	require.NoError(t, Validate(schema, map[string]any{"x": "a"}))
	require.NoError(t, Validate(schema, map[string]any{"x": "b"}), "second call must hit the compile cache and still validate")
}
