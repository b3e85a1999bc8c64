package streaming

import (
	"encoding/json"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/youssefsiam38/ctxcompact/types"
)

// Accumulator accumulates stream items into a complete assistant message.
// Feed it the output of an interceptor to persist the marker together with
// whatever the model produced before the overflow.
type Accumulator struct {
	parts        []types.Part
	text         *strings.Builder
	toolIndex    map[string]int
	finishReason string
	err          error

	// Internal state for raw Anthropic events
	decoder *anthropicDecoder
}

// NewAccumulator creates a new stream accumulator
func NewAccumulator() *Accumulator {
	return &Accumulator{
		toolIndex: make(map[string]int),
	}
}

// ProcessChunk processes an item of a chunk stream
func (a *Accumulator) ProcessChunk(chunk Chunk) {
	switch c := chunk.(type) {
	case *TextDeltaChunk:
		a.appendText(c.Text)

	case *ToolCallChunk:
		a.flushText()
		a.startTool(c.ToolCallID, c.ToolName, c.Input)

	case *ToolResultChunk:
		a.completeTool(c.ToolCallID, c.ToolName, c.Output)

	case *FinishChunk:
		a.flushText()
		a.finishReason = c.Reason

	case *ErrorChunk:
		a.err = c.Err

	default:
		// Ignore unknown chunks
	}
}

// ProcessAnthropicEvent processes an event from the Anthropic streaming API
func (a *Accumulator) ProcessAnthropicEvent(event anthropic.MessageStreamEventUnion) {
	if a.decoder == nil {
		a.decoder = newAnthropicDecoder()
	}
	if chunk := a.decoder.decode(event); chunk != nil {
		a.ProcessChunk(chunk)
	}
}

// ProcessUIEvent processes an event of a UI stream
func (a *Accumulator) ProcessUIEvent(event UIEvent) {
	switch event.Type {
	case UIEventTextDelta:
		a.appendText(event.Delta)

	case UIEventTextEnd:
		a.flushText()

	case UIEventToolInputAvailable:
		a.flushText()
		a.startTool(event.ToolCallID, event.ToolName, event.Input)

	case UIEventToolOutputAvailable:
		a.completeTool(event.ToolCallID, event.ToolName, event.Output)

	case UIEventToolOutputError:
		if i, ok := a.toolIndex[event.ToolCallID]; ok {
			a.parts[i].State = types.ToolStateOutputError
			a.parts[i].ErrorText = event.ErrorText
		}

	case UIEventFinish:
		a.flushText()
		a.finishReason = event.FinishReason

	default:
		// Ignore unknown events
	}
}

// Message returns the accumulated assistant message.
// This can be called at any time to get the current state
func (a *Accumulator) Message() *types.Message {
	parts := make([]types.Part, 0, len(a.parts)+1)
	parts = append(parts, a.parts...)
	if a.text != nil && a.text.Len() > 0 {
		parts = append(parts, types.NewTextPart(a.text.String()))
	}
	return types.NewAssistantMessage(parts...)
}

// FinishReason returns the finish reason of the turn, if one was seen.
func (a *Accumulator) FinishReason() string {
	return a.finishReason
}

// Err returns the error carried by an ErrorChunk, if one was seen.
func (a *Accumulator) Err() error {
	return a.err
}

func (a *Accumulator) appendText(text string) {
	if text == "" {
		return
	}
	if a.text == nil {
		a.text = &strings.Builder{}
	}
	a.text.WriteString(text)
}

func (a *Accumulator) flushText() {
	if a.text == nil || a.text.Len() == 0 {
		return
	}
	a.parts = append(a.parts, types.NewTextPart(a.text.String()))
	a.text = nil
}

func (a *Accumulator) startTool(id, name string, input json.RawMessage) {
	// Empty tool input defaults to an empty object
	if len(input) == 0 {
		input = json.RawMessage(`{}`)
	}
	a.toolIndex[id] = len(a.parts)
	a.parts = append(a.parts, types.Part{
		Type:       types.PartTypeDynamicTool,
		ToolName:   name,
		ToolCallID: id,
		State:      types.ToolStateInputAvailable,
		Input:      input,
	})
}

func (a *Accumulator) completeTool(id, name string, output json.RawMessage) {
	i, ok := a.toolIndex[id]
	if !ok {
		a.startTool(id, name, nil)
		i = a.toolIndex[id]
	}
	a.parts[i].State = types.ToolStateOutputAvailable
	a.parts[i].Output = output
}
