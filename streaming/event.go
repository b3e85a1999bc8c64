package streaming

import (
	"encoding/json"
)

// UIEventType represents the type of a UI-level stream event
type UIEventType string

const (
	// UIEventStart indicates the message has started
	UIEventStart UIEventType = "start"

	// UIEventStartStep indicates a model step has started
	UIEventStartStep UIEventType = "start-step"

	// UIEventTextStart indicates a text part has started
	UIEventTextStart UIEventType = "text-start"

	// UIEventTextDelta indicates new text in the current text part
	UIEventTextDelta UIEventType = "text-delta"

	// UIEventTextEnd indicates a text part has ended
	UIEventTextEnd UIEventType = "text-end"

	// UIEventToolInputAvailable indicates a tool call with complete input
	UIEventToolInputAvailable UIEventType = "tool-input-available"

	// UIEventToolOutputAvailable indicates a tool call produced output
	UIEventToolOutputAvailable UIEventType = "tool-output-available"

	// UIEventToolOutputError indicates a tool call failed
	UIEventToolOutputError UIEventType = "tool-output-error"

	// UIEventFinishStep indicates a model step has ended
	UIEventFinishStep UIEventType = "finish-step"

	// UIEventFinish indicates the message has ended
	UIEventFinish UIEventType = "finish"

	// UIEventError carries an error message from the model call
	UIEventError UIEventType = "error"
)

// UIEvent is one event of the message stream delivered to a UI. It is the
// JSON shape written on the wire, one event per line or SSE frame.
type UIEvent struct {
	Type         UIEventType     `json:"type"`
	ID           string          `json:"id,omitempty"`
	Delta        string          `json:"delta,omitempty"`
	ToolCallID   string          `json:"toolCallId,omitempty"`
	ToolName     string          `json:"toolName,omitempty"`
	Dynamic      bool            `json:"dynamic,omitempty"`
	Input        json.RawMessage `json:"input,omitempty"`
	Output       json.RawMessage `json:"output,omitempty"`
	ErrorText    string          `json:"errorText,omitempty"`
	FinishReason string          `json:"finishReason,omitempty"`
}

// UIStream is a pull-based stream of UI events
type UIStream interface {
	Next() bool
	Current() UIEvent
	Err() error
	Close() error
}

// SliceUIStream replays a fixed list of events, optionally ending with err.
type SliceUIStream struct {
	events []UIEvent
	err    error
	pos    int
	closed bool
}

// NewSliceUIStream creates a UIStream over events that fails with err (if
// non-nil) once they are exhausted.
func NewSliceUIStream(events []UIEvent, err error) *SliceUIStream {
	return &SliceUIStream{events: events, err: err, pos: -1}
}

func (s *SliceUIStream) Next() bool {
	if s.closed || s.pos+1 >= len(s.events) {
		s.pos = len(s.events)
		return false
	}
	s.pos++
	return true
}

func (s *SliceUIStream) Current() UIEvent {
	if s.pos < 0 || s.pos >= len(s.events) {
		return UIEvent{}
	}
	return s.events[s.pos]
}

func (s *SliceUIStream) Err() error {
	if s.closed || s.pos < len(s.events) {
		return nil
	}
	return s.err
}

func (s *SliceUIStream) Close() error {
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *SliceUIStream) Closed() bool {
	return s.closed
}
