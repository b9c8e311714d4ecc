package config

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// schemaJSON describes the generator configuration file. YAML and TOML files
// are both checked against it before they are decoded.
var schemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://github.com/ardanlabs/ffi-bindgen/schemas/config/v1",
  "title": "ffi-bindgen configuration",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "input": { "type": "string", "pattern": "\\.h$" },
    "output": { "type": "string", "pattern": "\\.go$" },
    "library": { "type": "string", "pattern": "^[A-Za-z_][A-Za-z0-9_.-]*$" },
    "package": { "type": "string", "pattern": "^[a-z_][a-z0-9_]*$" },
    "frontend": { "type": "string", "enum": ["cc", "scan"] },
    "target": { "type": "string", "pattern": "^[a-z0-9]+/[a-z0-9]+$" },
    "include_dirs": { "$ref": "#/$defs/strings" },
    "defines": {
      "type": "array",
      "items": { "type": "string", "pattern": "^[A-Za-z_][A-Za-z0-9_]*(=.*)?$" }
    },
    "extra_args": { "$ref": "#/$defs/strings" },
    "exclude": { "$ref": "#/$defs/strings" }
  },
  "$defs": {
    "strings": {
      "type": "array",
      "items": { "type": "string", "minLength": 1 }
    }
  }
}`

var compiledSchema *jsonschema.Schema

func init() {
	var schemaDoc any
	if err := json.Unmarshal([]byte(schemaJSON), &schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to decode schema JSON: %v", err))
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("config.json", schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to add schema resource: %v", err))
	}

	var err error
	compiledSchema, err = c.Compile("config.json")
	if err != nil {
		panic(fmt.Sprintf("failed to compile schema: %v", err))
	}
}

// validate checks a decoded document against the configuration schema.
func validate(doc any) error {
	if err := compiledSchema.Validate(toJSON(doc)); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// toJSON converts decoded YAML or TOML values to the types encoding/json
// produces, which is what the schema validator expects.
func toJSON(v any) any {
	switch v := v.(type) {
	case map[string]any:
		result := make(map[string]any, len(v))
		for k, val := range v {
			result[k] = toJSON(val)
		}
		return result
	case []any:
		result := make([]any, len(v))
		for i, val := range v {
			result[i] = toJSON(val)
		}
		return result
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	default:
		return v
	}
}
