// Package tool defines the tools offered to the model and converts them to
// provider tool definitions.
package tool

import (
	"context"
	"encoding/json"
)

// Tool is the interface that all tools must implement
type Tool interface {
	// Name returns the tool name (used in API calls)
	Name() string

	// Description returns the instructions the model sees for this tool
	Description() string

	// InputSchema returns the JSON Schema for the tool's input parameters
	InputSchema() ToolSchema

	// Execute runs the tool with the provided input and returns the result
	Execute(ctx context.Context, input json.RawMessage) (string, error)
}

// ToolSchema defines the JSON Schema for a tool's input parameters
type ToolSchema struct {
	// Type must be "object"
	Type string `json:"type"`

	// Properties defines the tool's parameters
	Properties map[string]PropertyDef `json:"properties"`

	// Required lists the names of required parameters
	Required []string `json:"required,omitempty"`
}

// PropertyDef defines a single property in the tool schema
type PropertyDef struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description,omitempty"`
	Enum        []string               `json:"enum,omitempty"`
	Items       *PropertyDef           `json:"items,omitempty"`
	Properties  map[string]PropertyDef `json:"properties,omitempty"`
	MinLength   *int                   `json:"minLength,omitempty"`
	MaxLength   *int                   `json:"maxLength,omitempty"`
}

// AsMap renders the schema as a generic JSON Schema document.
func (s ToolSchema) AsMap() map[string]any {
	out := map[string]any{
		"type":       s.Type,
		"properties": propertiesAsMap(s.Properties),
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	return out
}

func propertiesAsMap(props map[string]PropertyDef) map[string]any {
	out := make(map[string]any, len(props))
	for name, def := range props {
		out[name] = def.AsMap()
	}
	return out
}

// AsMap renders the property as a generic JSON Schema fragment.
func (d PropertyDef) AsMap() map[string]any {
	prop := map[string]any{"type": d.Type}
	if d.Description != "" {
		prop["description"] = d.Description
	}
	if len(d.Enum) > 0 {
		prop["enum"] = d.Enum
	}
	if d.MinLength != nil {
		prop["minLength"] = *d.MinLength
	}
	if d.MaxLength != nil {
		prop["maxLength"] = *d.MaxLength
	}
	if d.Items != nil {
		prop["items"] = d.Items.AsMap()
	}
	if len(d.Properties) > 0 {
		prop["properties"] = propertiesAsMap(d.Properties)
	}
	return prop
}

// funcTool is a Tool backed by a function
type funcTool struct {
	name        string
	description string
	schema      ToolSchema
	fn          func(context.Context, json.RawMessage) (string, error)
}

func (t *funcTool) Name() string            { return t.name }
func (t *funcTool) Description() string     { return t.description }
func (t *funcTool) InputSchema() ToolSchema { return t.schema }

func (t *funcTool) Execute(ctx context.Context, input json.RawMessage) (string, error) {
	return t.fn(ctx, input)
}

// NewFuncTool creates a Tool from a function
func NewFuncTool(
	name string,
	description string,
	schema ToolSchema,
	fn func(context.Context, json.RawMessage) (string, error),
) Tool {
	return &funcTool{
		name:        name,
		description: description,
		schema:      schema,
		fn:          fn,
	}
}
