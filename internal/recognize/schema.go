package recognize

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildReceiptJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. We pass this to the vision model as an output constraint and
// also use it locally to validate the reply.
func BuildReceiptJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"addressee": map[string]any{"type": []string{"string", "null"}},
			"tx_date":   map[string]any{"type": []string{"string", "null"}},
			"amount":    map[string]any{"type": []string{"string", "number", "null"}},
			"vendor": map[string]any{
				"type":                 []string{"object", "null"},
				"additionalProperties": false,
				"properties": map[string]any{
					"name":    map[string]any{"type": []string{"string", "null"}},
					"address": map[string]any{"type": []string{"string", "null"}},
					"phone":   map[string]any{"type": []string{"string", "null"}},
				},
			},
			"registration_number": map[string]any{"type": []string{"string", "null"}},
			"line_items": map[string]any{
				"type":  []string{"array", "null"},
				"items": map[string]any{"type": "array"},
			},
		},
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
