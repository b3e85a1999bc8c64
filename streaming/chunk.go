package streaming

import (
	"encoding/json"
)

// ChunkType represents the type of a token-level stream item
type ChunkType string

const (
	// ChunkTypeTextDelta carries a piece of generated text
	ChunkTypeTextDelta ChunkType = "text-delta"

	// ChunkTypeToolCall carries a complete tool call issued by the model
	ChunkTypeToolCall ChunkType = "tool-call"

	// ChunkTypeToolResult carries the result of a tool call
	ChunkTypeToolResult ChunkType = "tool-result"

	// ChunkTypeFinish ends the turn
	ChunkTypeFinish ChunkType = "finish"

	// ChunkTypeError carries a model-call failure
	ChunkTypeError ChunkType = "error"
)

// FinishReasonToolCalls is the finish reason of a turn that ended with tool calls.
const FinishReasonToolCalls = "tool-calls"

// Chunk is a single item of the token-level output stream of a model call
type Chunk interface {
	Type() ChunkType
}

// TextDeltaChunk is emitted when text content arrives
type TextDeltaChunk struct {
	Text string
}

func (c *TextDeltaChunk) Type() ChunkType {
	return ChunkTypeTextDelta
}

// ToolCallChunk is emitted when the model has finished issuing a tool call
type ToolCallChunk struct {
	ToolCallID string
	ToolName   string
	Input      json.RawMessage
}

func (c *ToolCallChunk) Type() ChunkType {
	return ChunkTypeToolCall
}

// ToolResultChunk is emitted when a tool call has a result
type ToolResultChunk struct {
	ToolCallID string
	ToolName   string
	Output     json.RawMessage
}

func (c *ToolResultChunk) Type() ChunkType {
	return ChunkTypeToolResult
}

// FinishChunk is emitted when the turn ends
type FinishChunk struct {
	Reason string
}

func (c *FinishChunk) Type() ChunkType {
	return ChunkTypeFinish
}

// ErrorChunk is emitted when the model call fails mid-stream
type ErrorChunk struct {
	Err error
}

func (c *ErrorChunk) Type() ChunkType {
	return ChunkTypeError
}

// ChunkStream is a pull-based stream of chunks. It has the shape of the
// provider SDK streams: call Next until it returns false, then check Err.
type ChunkStream interface {
	Next() bool
	Current() Chunk
	Err() error
	Close() error
}

// SliceChunkStream replays a fixed list of chunks, optionally ending with err.
type SliceChunkStream struct {
	chunks []Chunk
	err    error
	pos    int
	closed bool
}

// NewSliceChunkStream creates a ChunkStream over chunks that fails with err
// (if non-nil) once they are exhausted.
func NewSliceChunkStream(chunks []Chunk, err error) *SliceChunkStream {
	return &SliceChunkStream{chunks: chunks, err: err, pos: -1}
}

func (s *SliceChunkStream) Next() bool {
	if s.closed || s.pos+1 >= len(s.chunks) {
		s.pos = len(s.chunks)
		return false
	}
	s.pos++
	return true
}

func (s *SliceChunkStream) Current() Chunk {
	if s.pos < 0 || s.pos >= len(s.chunks) {
		return nil
	}
	return s.chunks[s.pos]
}

func (s *SliceChunkStream) Err() error {
	if s.closed || s.pos < len(s.chunks) {
		return nil
	}
	return s.err
}

func (s *SliceChunkStream) Close() error {
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *SliceChunkStream) Closed() bool {
	return s.closed
}
