package graphspec

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is the JSON Schema a spec document must satisfy.
const Schema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "miniflow graph spec",
  "type": "object",
  "properties": {
    "preset": {"type": ["string", "null"]},
    "nodes": {
      "type": ["object", "null"],
      "additionalProperties": {"type": "string", "minLength": 1},
      "propertyNames": {"minLength": 1}
    },
    "edges": {
      "type": ["object", "null"],
      "additionalProperties": {"type": ["string", "null"]}
    },
    "start_node": {"type": ["string", "null"]}
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(Schema)

// Validate checks a JSON spec document against Schema.
// Violations are reported as an error wrapping ErrInvalidSpec.
func Validate(data []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidSpec, strings.Join(msgs, "; "))
	}
	return nil
}

// validateValue checks an already-decoded document, such as one read
// from YAML, by re-encoding it as JSON.
func validateValue(doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	return Validate(data)
}
