package streaming

import (
	"context"
	"sync"
	"time"
)

// overflowError mimics a provider error that exposes its response body.
type overflowError struct {
	body string
}

func (e *overflowError) Error() string        { return "provider request failed" }
func (e *overflowError) ResponseBody() string { return e.body }

func newOverflowError() error {
	return &overflowError{body: `{"type":"error","error":{"type":"invalid_request_error","message":"prompt is too long: 210000 tokens > 200000 maximum"}}`}
}

// markerRecorder collects marker events delivered on the callback goroutine.
type markerRecorder struct {
	mu     sync.Mutex
	events []MarkerEvent
	done   chan struct{}
}

func newMarkerRecorder() *markerRecorder {
	return &markerRecorder{done: make(chan struct{}, 8)}
}

func (r *markerRecorder) record(ctx context.Context, ev MarkerEvent) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	r.done <- struct{}{}
}

func (r *markerRecorder) wait(timeout time.Duration) bool {
	select {
	case <-r.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (r *markerRecorder) snapshot() []MarkerEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]MarkerEvent(nil), r.events...)
}

func fixedID(id string) Option {
	return WithMarkerID(func() string { return id })
}
