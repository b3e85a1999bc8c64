package streaming

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youssefsiam38/ctxcompact/compaction"
)

func drainUI(s UIStream) []UIEvent {
	var out []UIEvent
	for s.Next() {
		out = append(out, s.Current())
	}
	return out
}

func markerUIEvents(id string) []UIEvent {
	output, _ := json.Marshal(compaction.MarkerOutput)
	return []UIEvent{
		{Type: UIEventToolInputAvailable, ToolCallID: id, ToolName: compaction.MarkerToolName, Dynamic: true, Input: json.RawMessage(`{}`)},
		{Type: UIEventToolOutputAvailable, ToolCallID: id, Output: output},
		{Type: UIEventFinish, FinishReason: FinishReasonToolCalls},
	}
}

func TestInterceptUIStream_PassThrough(t *testing.T) {
	events := []UIEvent{
		{Type: UIEventStart},
		{Type: UIEventTextStart, ID: "t1"},
		{Type: UIEventTextDelta, ID: "t1", Delta: "hi"},
		{Type: UIEventTextEnd, ID: "t1"},
		{Type: UIEventError, ErrorText: "upstream timed out"},
		{Type: UIEventFinish, FinishReason: "stop"},
	}
	src := NewSliceUIStream(events, nil)
	s := InterceptUIStream(src)

	assert.Equal(t, events, drainUI(s))
	assert.NoError(t, s.Err())
	assert.False(t, s.Injected())
	assert.Same(t, src, s.Unwrap())
}

func TestInterceptUIStream_ErrorEventOverflow(t *testing.T) {
	rec := newMarkerRecorder()
	src := NewSliceUIStream([]UIEvent{
		{Type: UIEventStart},
		{Type: UIEventError, ErrorText: "This model's maximum context length is 128000 tokens."},
		{Type: UIEventFinish, FinishReason: "error"},
	}, nil)

	s := InterceptUIStream(src, fixedID("compaction-ui"), WithOnMarker(rec.record))
	got := drainUI(s)

	want := append([]UIEvent{{Type: UIEventStart}}, markerUIEvents("compaction-ui")...)
	assert.Equal(t, want, got)
	assert.NoError(t, s.Err())
	assert.True(t, src.Closed())

	require.True(t, rec.wait(time.Second), "marker callback not invoked")
	events := rec.snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, ModePostHoc, events[0].Mode)
	assert.EqualError(t, events[0].Cause, "This model's maximum context length is 128000 tokens.")
}

func TestInterceptUIStream_AbortOverflow(t *testing.T) {
	src := NewSliceUIStream([]UIEvent{{Type: UIEventStart}}, newOverflowError())
	s := InterceptUIStream(src, fixedID("compaction-abort"))

	got := drainUI(s)
	assert.Equal(t, append([]UIEvent{{Type: UIEventStart}}, markerUIEvents("compaction-abort")...), got)
	assert.NoError(t, s.Err())
	assert.True(t, s.Injected())
}

func TestInterceptUIStream_AbortOtherError(t *testing.T) {
	cause := errors.New("connection reset")
	s := InterceptUIStream(NewSliceUIStream([]UIEvent{{Type: UIEventStart}}, cause))

	assert.Len(t, drainUI(s), 1)
	assert.ErrorIs(t, s.Err(), cause)
	assert.False(t, s.Injected())
}

func TestInterceptUIStream_CloseIsIdempotent(t *testing.T) {
	src := NewSliceUIStream([]UIEvent{{Type: UIEventError, ErrorText: "context_length_exceeded"}}, nil)
	s := InterceptUIStream(src)

	drainUI(s)
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

func TestAccumulator_UIEvents(t *testing.T) {
	output, _ := json.Marshal(compaction.MarkerOutput)
	acc := NewAccumulator()
	for _, ev := range []UIEvent{
		{Type: UIEventStart},
		{Type: UIEventTextDelta, Delta: "Reading "},
		{Type: UIEventTextDelta, Delta: "files"},
		{Type: UIEventTextEnd},
		{Type: UIEventToolInputAvailable, ToolCallID: "c1", ToolName: "read_file", Input: json.RawMessage(`{"path":"a.go"}`)},
		{Type: UIEventToolOutputError, ToolCallID: "c1", ErrorText: "not found"},
		{Type: UIEventToolInputAvailable, ToolCallID: "m1", ToolName: compaction.MarkerToolName},
		{Type: UIEventToolOutputAvailable, ToolCallID: "m1", Output: output},
		{Type: UIEventFinish, FinishReason: FinishReasonToolCalls},
	} {
		acc.ProcessUIEvent(ev)
	}

	msg := acc.Message()
	require.Len(t, msg.Parts, 3)
	assert.Equal(t, "Reading files", msg.Parts[0].Text)
	assert.Equal(t, "not found", msg.Parts[1].ErrorText)
	assert.JSONEq(t, `{}`, string(msg.Parts[2].Input))
	assert.True(t, compaction.IsMarkerMessage(msg))
	assert.Equal(t, FinishReasonToolCalls, acc.FinishReason())
}
