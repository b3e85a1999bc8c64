package anthropic

import (
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/uuid"

	"github.com/youssefsiam38/ctxcompact/compaction"
	"github.com/youssefsiam38/ctxcompact/types"
)

// interruptedToolResult answers tool calls that never produced a result.
const interruptedToolResult = "Tool call was interrupted before it returned a result."

// ConvertToAnthropicMessages converts reduced history to Anthropic message
// parameters. Tool parts of an assistant message become tool_use blocks and
// their results lead the next user message, or form a user message of their
// own when none follows. Marker messages are never sent.
func ConvertToAnthropicMessages(messages []*types.Message) ([]anthropic.MessageParam, error) {
	params := make([]anthropic.MessageParam, 0, len(messages))
	var pending []anthropic.ContentBlockParamUnion

	flush := func() {
		if len(pending) > 0 {
			params = append(params, anthropic.NewUserMessage(pending...))
			pending = nil
		}
	}

	for _, msg := range messages {
		// System messages are handled separately; marker messages are never sent
		if msg.Role == types.RoleSystem || compaction.IsMarkerMessage(msg) {
			continue
		}

		content := make([]anthropic.ContentBlockParamUnion, 0, len(msg.Parts))
		var results []anthropic.ContentBlockParamUnion

		for _, part := range msg.Parts {
			switch {
			case part.Type == types.PartTypeText:
				if part.Text != "" {
					content = append(content, anthropic.NewTextBlock(part.Text))
				}

			case part.IsTool():
				name, _ := part.ToolNameOf()
				input, err := toolInput(part.Input)
				if err != nil {
					return nil, fmt.Errorf("%w: message %s: tool call %s: %v",
						compaction.ErrInvalidHistory, msg.ID, part.ToolCallID, err)
				}
				content = append(content, anthropic.NewToolUseBlock(part.ToolCallID, input, name))
				results = append(results, toolResult(part))
			}
		}

		if len(content) == 0 {
			continue
		}

		if msg.Role == types.RoleUser {
			// tool_result blocks must come first in the user turn
			content = append(pending, content...)
			pending = nil
		} else {
			flush()
		}

		params = append(params, anthropic.MessageParam{
			Role:    anthropic.MessageParamRole(msg.Role),
			Content: content,
		})

		if msg.Role == types.RoleAssistant {
			pending = results
		}
	}
	flush()

	return params, nil
}

// toolInput decodes the raw input. The API requires an object, never null.
func toolInput(raw json.RawMessage) (map[string]any, error) {
	var input map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &input); err != nil {
			return nil, fmt.Errorf("malformed tool input: %w", err)
		}
	}
	if input == nil {
		input = map[string]any{}
	}
	return input, nil
}

func toolResult(part types.Part) anthropic.ContentBlockParamUnion {
	switch part.State {
	case types.ToolStateOutputAvailable:
		return anthropic.NewToolResultBlock(part.ToolCallID, outputText(part.Output), false)
	case types.ToolStateOutputError:
		return anthropic.NewToolResultBlock(part.ToolCallID, part.ErrorText, true)
	default:
		return anthropic.NewToolResultBlock(part.ToolCallID, interruptedToolResult, true)
	}
}

// outputText unquotes JSON string outputs and passes other JSON through.
func outputText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// ConvertResponse converts a non-streaming Anthropic response to an
// assistant message.
func ConvertResponse(resp *anthropic.Message) (*types.Message, error) {
	parts := make([]types.Part, 0, len(resp.Content))
	for _, block := range resp.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			parts = append(parts, types.NewTextPart(b.Text))

		case anthropic.ToolUseBlock:
			input, err := json.Marshal(b.Input)
			if err != nil {
				return nil, err
			}
			parts = append(parts, types.Part{
				Type:       types.PartTypeDynamicTool,
				ToolName:   b.Name,
				ToolCallID: b.ID,
				State:      types.ToolStateInputAvailable,
				Input:      input,
			})
		}
	}

	return &types.Message{
		ID:    uuid.New().String(),
		Role:  types.RoleAssistant,
		Parts: parts,
		Metadata: map[string]any{
			"anthropic_message_id": resp.ID,
			"stop_reason":          string(resp.StopReason),
		},
	}, nil
}

// ToolCall represents a tool call from the assistant
type ToolCall struct {
	ID    string
	Name  string
	Input json.RawMessage
}

// ExtractPendingToolCalls returns the tool calls of msg that still await a
// result. Markers are excluded.
func ExtractPendingToolCalls(msg *types.Message) []ToolCall {
	var calls []ToolCall
	for _, part := range msg.Parts {
		if !part.IsTool() || compaction.IsMarkerPart(part) || part.State != types.ToolStateInputAvailable {
			continue
		}
		name, _ := part.ToolNameOf()
		calls = append(calls, ToolCall{ID: part.ToolCallID, Name: name, Input: part.Input})
	}
	return calls
}

// BuildSystemPrompt creates system prompt blocks
func BuildSystemPrompt(systemPrompt string) []anthropic.TextBlockParam {
	return []anthropic.TextBlockParam{
		{
			Type: "text",
			Text: systemPrompt,
		},
	}
}

// SystemPrompt joins the text of the system messages in history.
func SystemPrompt(messages []*types.Message) string {
	var prompt string
	for _, msg := range messages {
		if msg.Role != types.RoleSystem {
			continue
		}
		if prompt != "" {
			prompt += "\n\n"
		}
		prompt += msg.Text()
	}
	return prompt
}
