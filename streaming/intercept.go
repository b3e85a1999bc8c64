package streaming

import (
	"github.com/youssefsiam38/ctxcompact/compaction"
)

// InterceptChunks wraps a chunk stream so that a context-overflow failure
// becomes a completed compaction marker instead of an error.
//
// Chunks pass through unchanged until the source yields an ErrorChunk or
// fails with an error the classifier accepts. At that point the source is
// closed and the stream emits, in order, a tool call for the marker, its
// result and a finish chunk with reason "tool-calls", then ends with a nil
// Err. Any other failure is passed through untouched.
func InterceptChunks(src ChunkStream, opts ...Option) *InterceptedChunkStream {
	return &InterceptedChunkStream{src: src, opts: newOptions(opts)}
}

// InterceptedChunkStream is the ChunkStream returned by InterceptChunks
type InterceptedChunkStream struct {
	src  ChunkStream
	opts *options

	pending  []Chunk
	current  Chunk
	done     bool
	injected bool
	closed   bool
}

func (s *InterceptedChunkStream) Next() bool {
	if len(s.pending) > 0 {
		s.current = s.pending[0]
		s.pending = s.pending[1:]
		return true
	}
	if s.done {
		s.current = nil
		return false
	}

	if !s.src.Next() {
		s.done = true
		if err := s.src.Err(); err != nil && s.opts.classifier.IsContextOverflow(err) {
			s.inject(err)
			return s.Next()
		}
		s.current = nil
		return false
	}

	chunk := s.src.Current()
	if ec, ok := chunk.(*ErrorChunk); ok && ec.Err != nil && s.opts.classifier.IsContextOverflow(ec.Err) {
		s.done = true
		s.inject(ec.Err)
		return s.Next()
	}

	s.current = chunk
	return true
}

func (s *InterceptedChunkStream) inject(cause error) {
	id := s.opts.newID()
	marker := compaction.NewMarkerPartWithID(id)

	s.pending = []Chunk{
		&ToolCallChunk{ToolCallID: id, ToolName: compaction.MarkerToolName, Input: marker.Input},
		&ToolResultChunk{ToolCallID: id, ToolName: compaction.MarkerToolName, Output: marker.Output},
		&FinishChunk{Reason: FinishReasonToolCalls},
	}
	s.injected = true
	s.closeSource()

	s.opts.notify(MarkerEvent{
		ToolCallID: id,
		Mode:       ModeMidStream,
		Cause:      cause,
		InjectedAt: s.opts.now(),
	})
}

func (s *InterceptedChunkStream) Current() Chunk {
	return s.current
}

// Err returns the source error, or nil once a marker has been injected.
func (s *InterceptedChunkStream) Err() error {
	if s.injected {
		return nil
	}
	return s.src.Err()
}

func (s *InterceptedChunkStream) Close() error {
	return s.closeSource()
}

// Injected reports whether the stream substituted a marker for an overflow.
func (s *InterceptedChunkStream) Injected() bool {
	return s.injected
}

func (s *InterceptedChunkStream) closeSource() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.src.Close(); err != nil {
		s.opts.logger.Debug("closing source stream failed", "error", err)
		return err
	}
	return nil
}
