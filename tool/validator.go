package tool

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Validator validates tool inputs against their schemas
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateInput validates input against a tool's schema
func (v *Validator) ValidateInput(schema ToolSchema, input json.RawMessage) error {
	if schema.Type != "object" {
		return fmt.Errorf("schema type must be 'object', got '%s'", schema.Type)
	}

	var inputMap map[string]any
	if err := json.Unmarshal(input, &inputMap); err != nil {
		return fmt.Errorf("invalid JSON input: %w", err)
	}
	if inputMap == nil {
		return fmt.Errorf("invalid JSON input: expected object")
	}

	for _, required := range schema.Required {
		if _, exists := inputMap[required]; !exists {
			return fmt.Errorf("missing required field: %s", required)
		}
	}

	for name, def := range schema.Properties {
		value, exists := inputMap[name]
		if !exists || value == nil {
			continue
		}
		if err := v.validateProperty(name, def, value); err != nil {
			return err
		}
	}

	return nil
}

func (v *Validator) validateProperty(name string, def PropertyDef, value any) error {
	switch def.Type {
	case "string":
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("field '%s': expected string, got %T", name, value)
		}
		if def.MinLength != nil && len(s) < *def.MinLength {
			return fmt.Errorf("field '%s': string length %d is less than minimum %d", name, len(s), *def.MinLength)
		}
		if def.MaxLength != nil && len(s) > *def.MaxLength {
			return fmt.Errorf("field '%s': string length %d exceeds maximum %d", name, len(s), *def.MaxLength)
		}
		if len(def.Enum) > 0 && !slices.Contains(def.Enum, s) {
			return fmt.Errorf("field '%s': value '%s' not in allowed values %v", name, s, def.Enum)
		}

	case "number":
		if _, ok := value.(float64); !ok {
			return fmt.Errorf("field '%s': expected number, got %T", name, value)
		}

	case "integer":
		f, ok := value.(float64)
		if !ok || f != float64(int64(f)) {
			return fmt.Errorf("field '%s': expected integer, got %v", name, value)
		}

	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("field '%s': expected boolean, got %T", name, value)
		}

	case "array":
		arr, ok := value.([]any)
		if !ok {
			return fmt.Errorf("field '%s': expected array, got %T", name, value)
		}
		if def.Items != nil {
			for i, item := range arr {
				if err := v.validateProperty(fmt.Sprintf("%s[%d]", name, i), *def.Items, item); err != nil {
					return err
				}
			}
		}

	case "object":
		obj, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("field '%s': expected object, got %T", name, value)
		}
		for propName, propDef := range def.Properties {
			if propVal, exists := obj[propName]; exists && propVal != nil {
				if err := v.validateProperty(name+"."+propName, propDef, propVal); err != nil {
					return err
				}
			}
		}
	}

	return nil
}
