package streaming

import (
	"context"
	"time"

	"github.com/youssefsiam38/ctxcompact/compaction"
)

// InjectionMode identifies which interceptor injected a marker
type InjectionMode string

const (
	// ModeMidStream is used when the overflow surfaced inside the chunk stream
	ModeMidStream InjectionMode = "mid-stream"

	// ModePostHoc is used when the overflow surfaced in the UI stream
	ModePostHoc InjectionMode = "post-hoc"
)

// MarkerEvent describes an injected compaction marker
type MarkerEvent struct {
	ToolCallID string
	Mode       InjectionMode
	Cause      error
	InjectedAt time.Time
}

// MarkerFunc is notified after a marker was injected. It runs on its own
// goroutine; the stream does not wait for it.
type MarkerFunc func(ctx context.Context, event MarkerEvent)

// Option configures an interceptor
type Option func(*options)

type options struct {
	ctx        context.Context
	classifier *compaction.Classifier
	onMarker   MarkerFunc
	logger     compaction.Logger
	now        func() time.Time
	newID      func() string
}

func newOptions(opts []Option) *options {
	o := &options{
		ctx:        context.Background(),
		classifier: compaction.DefaultClassifier(),
		logger:     noopLogger{},
		now:        time.Now,
		newID:      func() string { return compaction.NewMarkerPart().ToolCallID },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithContext sets the context passed to the marker callback
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}

// WithClassifier replaces the default overflow classifier
func WithClassifier(c *compaction.Classifier) Option {
	return func(o *options) {
		if c != nil {
			o.classifier = c
		}
	}
}

// WithOnMarker registers a callback run after a marker is injected
func WithOnMarker(fn MarkerFunc) Option {
	return func(o *options) {
		o.onMarker = fn
	}
}

// WithLogger sets the logger used by the interceptor
func WithLogger(l compaction.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMarkerID fixes the tool call id generator. Mostly useful in tests.
func WithMarkerID(fn func() string) Option {
	return func(o *options) {
		if fn != nil {
			o.newID = fn
		}
	}
}

type noopLogger struct{}

func (noopLogger) Debug(msg string, args ...any) {}
func (noopLogger) Info(msg string, args ...any)  {}
func (noopLogger) Warn(msg string, args ...any)  {}
func (noopLogger) Error(msg string, args ...any) {}

// notify runs the marker callback without blocking the stream. A panicking
// callback is logged and otherwise ignored.
func (o *options) notify(event MarkerEvent) {
	o.logger.Warn("context overflow intercepted, compaction marker injected",
		"mode", event.Mode,
		"tool_call_id", event.ToolCallID,
		"error", event.Cause,
	)
	if o.onMarker == nil {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				o.logger.Error("marker callback panicked", "panic", r)
			}
		}()
		o.onMarker(o.ctx, event)
	}()
}
