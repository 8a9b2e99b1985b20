package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"browser-harness/internal/domain/entity"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// compiled schemas keyed by their JSON text; tools rebuild their
// parameter maps on every call.
var schemaCache sync.Map

// ValidateArguments checks raw JSON tool arguments against a tool's
// parameter schema. Every failure wraps entity.ErrInvalidParameters.
func ValidateArguments(arguments string, schema map[string]interface{}) (map[string]interface{}, error) {
	params, err := decodeArguments(arguments)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrInvalidParameters, err)
	}
	if schema == nil {
		return params, nil
	}

	compiled, err := compileSchema(schema)
	if err != nil {
		return nil, fmt.Errorf("%w: tool schema: %v", entity.ErrInvalidParameters, err)
	}

	dropNullOptionals(params, schema)
	if err := compiled.Validate(params); err != nil {
		return nil, fmt.Errorf("%w: %s", entity.ErrInvalidParameters, describe(err))
	}
	return params, nil
}

func decodeArguments(arguments string) (map[string]interface{}, error) {
	params := map[string]interface{}{}
	if strings.TrimSpace(arguments) == "" {
		return params, nil
	}

	dec := json.NewDecoder(strings.NewReader(arguments))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("arguments are not valid JSON: %v", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("arguments are not valid JSON: unexpected data after the object")
	}

	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("arguments must be a JSON object, got %s", jsonKind(raw))
	}
	return obj, nil
}

func compileSchema(schema map[string]interface{}) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	if cached, ok := schemaCache.Load(string(raw)); ok {
		return cached.(*jsonschema.Schema), nil
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("tool.json", doc); err != nil {
		return nil, err
	}
	compiled, err := c.Compile("tool.json")
	if err != nil {
		return nil, err
	}
	schemaCache.Store(string(raw), compiled)
	return compiled, nil
}

// dropNullOptionals removes top-level nulls the schema does not require;
// models send null for optional fields they mean to omit.
func dropNullOptionals(params map[string]interface{}, schema map[string]interface{}) {
	required := make(map[string]bool)
	for _, field := range requiredFields(schema) {
		required[field] = true
	}
	for key, value := range params {
		if value == nil && !required[key] {
			delete(params, key)
		}
	}
}

// describe flattens a validation error into one line for the model.
func describe(err error) string {
	lines := strings.Split(err.Error(), "\n")
	var verr *jsonschema.ValidationError
	if errors.As(err, &verr) && len(lines) > 1 {
		lines = lines[1:]
	}

	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "-"))
		if line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, "; ")
}

func requiredFields(schema map[string]interface{}) []string {
	switch req := schema["required"].(type) {
	case []string:
		return req
	case []interface{}:
		fields := make([]string, 0, len(req))
		for _, f := range req {
			if s, ok := f.(string); ok {
				fields = append(fields, s)
			}
		}
		return fields
	}
	return nil
}

func jsonKind(value interface{}) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case json.Number, float64:
		return "number"
	case bool:
		return "boolean"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	}
	return fmt.Sprintf("%T", value)
}
