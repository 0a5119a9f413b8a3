package toolschema

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/relaylabs/agentloop/corerr"
)

var compileCache sync.Map // map[string]*jsonschema.Schema, keyed by marshalled schema

func compile(schema map[string]any) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	key := string(raw)
	if cached, ok := compileCache.Load(key); ok {
		return cached.(*jsonschema.Schema), nil
	}

	compiler := jsonschema.NewCompiler()
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	const resourceName = "tool-input.json"
	if err := compiler.AddResource(resourceName, decoded); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := compiler.Compile(resourceName)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	compileCache.Store(key, compiled)
	return compiled, nil
}

// Validate structurally checks args against schema, returning a
// corerr.ValidationFailed error on mismatch. This is a pre-dispatch check:
// tool handlers are never invoked with input that fails here.
func Validate(schema map[string]any, args map[string]any) error {
	if schema == nil {
		return nil
	}
	compiled, err := compile(schema)
	if err != nil {
		return corerr.New("toolschema", "validate", corerr.ValidationFailed, "schema could not be compiled", err)
	}
	if err := compiled.Validate(args); err != nil {
		return corerr.New("toolschema", "validate", corerr.ValidationFailed, "tool input does not match schema", err)
	}
	return nil
}
