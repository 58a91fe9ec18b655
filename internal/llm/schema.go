package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// contactFieldNames are the string properties of one contact object.
var contactFieldNames = []string{
	"name", "designation", "company", "phone", "email", "website", "address", "category", "notes",
}

// BuildContactsJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// It goes into the prompt and is used locally to validate. Category is free text here;
// fusion canonicalizes it against the vocabulary.
func BuildContactsJSONSchema() map[string]any {
	props := make(map[string]any, len(contactFieldNames)+1)
	for _, k := range contactFieldNames {
		props[k] = map[string]any{"type": "string"}
	}
	props["email"] = map[string]any{"type": "string", "maxLength": 254}
	props["confidence"] = map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0}

	contact := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"contacts": map[string]any{"type": "array", "items": contact},
		},
		"required": []string{"contacts"},
	}
}

var (
	contactsSchemaOnce sync.Once
	contactsSchema     *jsonschema.Schema
	contactsSchemaErr  error
)

// ValidateContactsJSON validates data against the contacts schema, compiled once.
func ValidateContactsJSON(data []byte) error {
	contactsSchemaOnce.Do(func() {
		contactsSchema, contactsSchemaErr = compileSchema(BuildContactsJSONSchema())
	})
	if contactsSchemaErr != nil {
		return contactsSchemaErr
	}
	return validate(contactsSchema, data)
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	schema, err := compileSchema(schemaMap)
	if err != nil {
		return err
	}
	return validate(schema, data)
}

func compileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

func validate(schema *jsonschema.Schema, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
