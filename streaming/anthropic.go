package streaming

import (
	"encoding/json"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

// AnthropicEventStream is the shape of the stream returned by
// anthropic.MessageService.NewStreaming.
type AnthropicEventStream interface {
	Next() bool
	Current() anthropic.MessageStreamEventUnion
	Err() error
	Close() error
}

// AnthropicChunkStream converts Anthropic streaming events into chunks.
// Text deltas are forwarded as they arrive; tool calls are emitted once their
// content block stops; a failure of the source becomes a final ErrorChunk.
type AnthropicChunkStream struct {
	src     AnthropicEventStream
	decoder *anthropicDecoder
	current Chunk
	done    bool
}

// anthropicDecoder turns Anthropic events into chunks. It buffers tool input
// until the tool's content block stops.
type anthropicDecoder struct {
	blocks     map[int64]*toolBlock
	stopReason string
}

type toolBlock struct {
	id    string
	name  string
	input strings.Builder
}

// NewAnthropicChunkStream adapts an Anthropic event stream
func NewAnthropicChunkStream(src AnthropicEventStream) *AnthropicChunkStream {
	return &AnthropicChunkStream{
		src:     src,
		decoder: newAnthropicDecoder(),
	}
}

func newAnthropicDecoder() *anthropicDecoder {
	return &anthropicDecoder{blocks: make(map[int64]*toolBlock)}
}

func (s *AnthropicChunkStream) Next() bool {
	if s.done {
		s.current = nil
		return false
	}

	for s.src.Next() {
		if chunk := s.decoder.decode(s.src.Current()); chunk != nil {
			s.current = chunk
			return true
		}
	}

	s.done = true
	if err := s.src.Err(); err != nil {
		s.current = &ErrorChunk{Err: err}
		return true
	}
	s.current = nil
	return false
}

func (d *anthropicDecoder) decode(event anthropic.MessageStreamEventUnion) Chunk {
	switch e := event.AsAny().(type) {
	case anthropic.ContentBlockStartEvent:
		if block, ok := e.ContentBlock.AsAny().(anthropic.ToolUseBlock); ok {
			d.blocks[e.Index] = &toolBlock{id: block.ID, name: block.Name}
		}

	case anthropic.ContentBlockDeltaEvent:
		switch delta := e.Delta.AsAny().(type) {
		case anthropic.TextDelta:
			if delta.Text != "" {
				return &TextDeltaChunk{Text: delta.Text}
			}
		case anthropic.InputJSONDelta:
			if block, ok := d.blocks[e.Index]; ok {
				block.input.WriteString(delta.PartialJSON)
			}
		}

	case anthropic.ContentBlockStopEvent:
		block, ok := d.blocks[e.Index]
		if !ok {
			return nil
		}
		delete(d.blocks, e.Index)

		// Tools without arguments stream no input deltas
		input := block.input.String()
		if input == "" {
			input = "{}"
		}
		return &ToolCallChunk{
			ToolCallID: block.id,
			ToolName:   block.name,
			Input:      json.RawMessage(input),
		}

	case anthropic.MessageDeltaEvent:
		d.stopReason = string(e.Delta.StopReason)

	case anthropic.MessageStopEvent:
		return &FinishChunk{Reason: finishReason(d.stopReason)}

	default:
		// Ignore unknown events
	}
	return nil
}

func (s *AnthropicChunkStream) Current() Chunk {
	return s.current
}

func (s *AnthropicChunkStream) Err() error {
	return s.src.Err()
}

func (s *AnthropicChunkStream) Close() error {
	return s.src.Close()
}

// finishReason maps an Anthropic stop reason onto the chunk finish reasons.
func finishReason(stopReason string) string {
	switch stopReason {
	case "tool_use":
		return FinishReasonToolCalls
	case "end_turn", "stop_sequence":
		return "stop"
	case "max_tokens":
		return "length"
	case "":
		return "unknown"
	default:
		return stopReason
	}
}
