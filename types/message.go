package types

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role represents the message role
type Role string

const (
	// RoleUser represents a user message
	RoleUser Role = "user"

	// RoleAssistant represents an assistant message
	RoleAssistant Role = "assistant"

	// RoleSystem represents a system message
	RoleSystem Role = "system"
)

// Message represents a conversation message as persisted by the chat store.
// Messages are never modified after creation; code that needs a different
// message builds a new one.
type Message struct {
	ID        string         `json:"id"`
	Role      Role           `json:"role"`
	Parts     []Part         `json:"parts"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at,omitzero"`
}

// PartType represents the type tag of a message part
type PartType string

const (
	// PartTypeText represents text content
	PartTypeText PartType = "text"

	// PartTypeDynamicTool represents a tool invocation whose name is carried as data
	PartTypeDynamicTool PartType = "dynamic-tool"

	// PartTypeStep marks the start of a model step
	PartTypeStep PartType = "step-start"

	// staticToolPrefix prefixes the tag of a statically named tool part ("tool-<name>")
	staticToolPrefix = "tool-"
)

// StaticToolType returns the part tag used by the statically named encoding of a tool.
func StaticToolType(toolName string) PartType {
	return PartType(staticToolPrefix + toolName)
}

// ToolState represents the lifecycle state of a tool invocation
type ToolState string

const (
	// ToolStateInputAvailable means the call was issued but has no result yet
	ToolStateInputAvailable ToolState = "input-available"

	// ToolStateOutputAvailable means the call completed successfully
	ToolStateOutputAvailable ToolState = "output-available"

	// ToolStateOutputError means the call completed with an error
	ToolStateOutputError ToolState = "output-error"
)

// Part is a single piece of message content.
//
// Tool invocations arrive in two encodings: the dynamic encoding
// (Type "dynamic-tool", name in ToolName) and the statically named encoding
// (Type "tool-<name>"). Use ToolNameOf to read the name regardless of encoding.
type Part struct {
	Type PartType `json:"type"`

	// Text content
	Text string `json:"text,omitempty"`

	// Tool content
	ToolName   string          `json:"toolName,omitempty"`
	ToolCallID string          `json:"toolCallId,omitempty"`
	State      ToolState       `json:"state,omitempty"`
	Input      json.RawMessage `json:"input,omitempty"`
	Output     json.RawMessage `json:"output,omitempty"`
	ErrorText  string          `json:"errorText,omitempty"`
}

// IsTool reports whether the part is a tool invocation in either encoding.
func (p Part) IsTool() bool {
	return p.Type == PartTypeDynamicTool || strings.HasPrefix(string(p.Type), staticToolPrefix)
}

// ToolNameOf returns the tool name of a tool part in either encoding.
func (p Part) ToolNameOf() (string, bool) {
	switch {
	case p.Type == PartTypeDynamicTool:
		return p.ToolName, p.ToolName != ""
	case strings.HasPrefix(string(p.Type), staticToolPrefix):
		name := strings.TrimPrefix(string(p.Type), staticToolPrefix)
		if name == "" {
			return p.ToolName, p.ToolName != ""
		}
		return name, true
	default:
		return "", false
	}
}

// IsCompleted reports whether a tool part has a successful result.
func (p Part) IsCompleted() bool {
	return p.IsTool() && p.State == ToolStateOutputAvailable
}

// UnmarshalJSON fills ToolName for statically named tool parts so both
// encodings carry the name after decoding.
func (p *Part) UnmarshalJSON(data []byte) error {
	type rawPart Part
	var raw rawPart
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Part(raw)
	if p.ToolName == "" {
		if name, ok := p.ToolNameOf(); ok {
			p.ToolName = name
		}
	}
	return nil
}

// NewTextPart creates a text part
func NewTextPart(text string) Part {
	return Part{Type: PartTypeText, Text: text}
}

// NewToolPart creates a completed-or-pending tool part using the dynamic encoding.
// Output is marshalled to JSON; a nil output leaves Output empty.
func NewToolPart(toolName, toolCallID string, state ToolState, input, output any) (Part, error) {
	part := Part{
		Type:       PartTypeDynamicTool,
		ToolName:   toolName,
		ToolCallID: toolCallID,
		State:      state,
	}

	if input != nil {
		raw, err := json.Marshal(input)
		if err != nil {
			return Part{}, err
		}
		part.Input = raw
	}

	if output != nil {
		raw, err := json.Marshal(output)
		if err != nil {
			return Part{}, err
		}
		part.Output = raw
	}

	return part, nil
}

// NewUserMessage creates a user message with a single text part
func NewUserMessage(text string) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Role:      RoleUser,
		Parts:     []Part{NewTextPart(text)},
		CreatedAt: time.Now(),
	}
}

// NewAssistantMessage creates an assistant message from the given parts
func NewAssistantMessage(parts ...Part) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Role:      RoleAssistant,
		Parts:     parts,
		CreatedAt: time.Now(),
	}
}

// Text returns the concatenated text parts of the message
func (m *Message) Text() string {
	var sb strings.Builder
	for _, part := range m.Parts {
		if part.Type == PartTypeText {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

// HasToolPart reports whether the message contains a tool part with the given name
func (m *Message) HasToolPart(toolName string) bool {
	for _, part := range m.Parts {
		if name, ok := part.ToolNameOf(); ok && name == toolName {
			return true
		}
	}
	return false
}
