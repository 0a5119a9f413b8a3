// Package toolschema generates JSON Schema from typed Go tool-argument
// structs and validates raw tool-call input against a schema at runtime
// (component B's schema half).
package toolschema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Generate produces a JSON Schema map for T using its json/jsonschema
// struct tags. Supported tags: json:"name", json:",omitempty",
// jsonschema:"required", jsonschema:"description=...",
// jsonschema:"enum=a|b", jsonschema:"minimum=N,maximum=M".
func Generate[T any]() (map[string]any, error) {
	reflector := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}
	schema := reflector.Reflect(new(T))

	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	var asMap map[string]any
	if err := json.Unmarshal(raw, &asMap); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}

	// Tool input schemas are flat objects: strip the $schema/$id envelope
	// the reflector adds and surface type/properties/required directly.
	delete(asMap, "$schema")
	delete(asMap, "$id")
	if asMap["type"] == "object" {
		result := map[string]any{"type": "object"}
		if props, ok := asMap["properties"]; ok {
			result["properties"] = props
		}
		if req, ok := asMap["required"]; ok {
			result["required"] = req
		}
		if addl, ok := asMap["additionalProperties"]; ok {
			result["additionalProperties"] = addl
		}
		return result, nil
	}
	return asMap, nil
}
