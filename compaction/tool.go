package compaction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/youssefsiam38/ctxcompact/tool"
)

// toolInput is the input of the compaction tool.
type toolInput struct {
	Summary string `json:"summary"`
}

// ToolSchema returns the input schema of the compaction tool.
func ToolSchema() tool.ToolSchema {
	minLength := 1
	return tool.ToolSchema{
		Type: "object",
		Properties: map[string]tool.PropertyDef{
			"summary": {
				Type:        "string",
				Description: SummaryFieldDescription,
				MinLength:   &minLength,
			},
		},
		Required: []string{"summary"},
	}
}

// NewTool creates the compaction tool. Executing it only timestamps and
// echoes the summary; the Reducer applies it on a later turn. A nil clock
// uses time.Now.
func NewTool(clock func() time.Time) tool.Tool {
	if clock == nil {
		clock = time.Now
	}

	schema := ToolSchema()
	validator := tool.NewValidator()

	return tool.NewFuncTool(ToolName, ToolDescription, schema,
		func(ctx context.Context, input json.RawMessage) (string, error) {
			if err := validator.ValidateInput(schema, input); err != nil {
				return "", tool.ToolDiscard(fmt.Errorf("compaction input: %w", err))
			}

			var in toolInput
			if err := json.Unmarshal(input, &in); err != nil {
				return "", tool.ToolDiscard(fmt.Errorf("compaction input: %w", err))
			}
			if strings.TrimSpace(in.Summary) == "" {
				return "", tool.ToolDiscard(fmt.Errorf("compaction input: summary is empty"))
			}

			out, err := json.Marshal(SummaryOutput{
				Summary:     in.Summary,
				CompactedAt: clock().UTC(),
				Message:     ToolAcknowledgement,
			})
			if err != nil {
				return "", err
			}
			return string(out), nil
		},
	)
}

// RegisterTool adds the compaction tool to registry when compaction is enabled.
// It reports whether the tool was registered.
func RegisterTool(registry *tool.Registry, cfg *Config) (bool, error) {
	if cfg == nil || !cfg.Enabled {
		return false, nil
	}
	if err := registry.Register(NewTool(nil)); err != nil {
		return false, err
	}
	return true, nil
}
