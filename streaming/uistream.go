package streaming

import (
	"github.com/youssefsiam38/ctxcompact/compaction"
)

// InterceptUIStream wraps a UI event stream so that a context-overflow
// failure is replaced by a completed compaction marker.
//
// An error event whose text matches the overflow patterns, or a stream
// failure the classifier accepts, is replaced by three events: the marker's
// tool-input-available and tool-output-available events and a finish event
// with reason "tool-calls". The source is then closed. Every other event and
// method is forwarded to the source unchanged.
func InterceptUIStream(src UIStream, opts ...Option) *InterceptedUIStream {
	return &InterceptedUIStream{UIStream: src, opts: newOptions(opts)}
}

// InterceptedUIStream is the UIStream returned by InterceptUIStream. It embeds
// the source so methods not listed here keep their original behavior.
type InterceptedUIStream struct {
	UIStream

	opts *options

	pending  []UIEvent
	current  UIEvent
	done     bool
	injected bool
	closed   bool
}

func (s *InterceptedUIStream) Next() bool {
	if len(s.pending) > 0 {
		s.current = s.pending[0]
		s.pending = s.pending[1:]
		return true
	}
	if s.done {
		s.current = UIEvent{}
		return false
	}

	if !s.UIStream.Next() {
		s.done = true
		if err := s.UIStream.Err(); err != nil && s.opts.classifier.IsContextOverflow(err) {
			s.inject(err)
			return s.Next()
		}
		s.current = UIEvent{}
		return false
	}

	event := s.UIStream.Current()
	if event.Type == UIEventError && s.opts.classifier.MatchText(event.ErrorText) {
		s.done = true
		s.inject(&uiError{text: event.ErrorText})
		return s.Next()
	}

	s.current = event
	return true
}

func (s *InterceptedUIStream) inject(cause error) {
	id := s.opts.newID()
	marker := compaction.NewMarkerPartWithID(id)

	s.pending = []UIEvent{
		{
			Type:       UIEventToolInputAvailable,
			ToolCallID: id,
			ToolName:   compaction.MarkerToolName,
			Dynamic:    true,
			Input:      marker.Input,
		},
		{
			Type:       UIEventToolOutputAvailable,
			ToolCallID: id,
			Output:     marker.Output,
		},
		{
			Type:         UIEventFinish,
			FinishReason: FinishReasonToolCalls,
		},
	}
	s.injected = true
	s.closeSource()

	s.opts.notify(MarkerEvent{
		ToolCallID: id,
		Mode:       ModePostHoc,
		Cause:      cause,
		InjectedAt: s.opts.now(),
	})
}

func (s *InterceptedUIStream) Current() UIEvent {
	return s.current
}

// Err returns the source error, or nil once a marker has been injected.
func (s *InterceptedUIStream) Err() error {
	if s.injected {
		return nil
	}
	return s.UIStream.Err()
}

func (s *InterceptedUIStream) Close() error {
	return s.closeSource()
}

// Injected reports whether the stream substituted a marker for an overflow.
func (s *InterceptedUIStream) Injected() bool {
	return s.injected
}

// Unwrap returns the source stream.
func (s *InterceptedUIStream) Unwrap() UIStream {
	return s.UIStream
}

func (s *InterceptedUIStream) closeSource() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.UIStream.Close(); err != nil {
		s.opts.logger.Debug("closing source stream failed", "error", err)
		return err
	}
	return nil
}

// uiError carries the text of an error event as the marker cause.
type uiError struct {
	text string
}

func (e *uiError) Error() string {
	return e.text
}
