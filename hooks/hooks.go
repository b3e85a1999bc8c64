package hooks

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/youssefsiam38/ctxcompact/compaction"
	"github.com/youssefsiam38/ctxcompact/streaming"
	"github.com/youssefsiam38/ctxcompact/types"
)

// BeforeReduceHook is called before history is reduced. A non-nil error
// aborts the reduction.
type BeforeReduceHook func(ctx context.Context, history []*types.Message) error

// ReducedHook is called after every successful reduction
type ReducedHook func(result *compaction.Result)

// CompactionFailedHook is called when a reduction fails with a CompactionError
type CompactionFailedHook func(err *compaction.CompactionError)

// MarkerInjectedHook is called after a stream interceptor injected a marker
type MarkerInjectedHook func(ctx context.Context, event streaming.MarkerEvent)

// ToolCallHook is called when a tool is executed
// Parameters: ctx, toolName, input, output, error
type ToolCallHook func(ctx context.Context, toolName string, input json.RawMessage, output string, err error) error

// Registry holds all registered hooks. It implements compaction.Observer so
// it can be installed on a Reducer directly.
type Registry struct {
	mu             sync.RWMutex
	beforeReduce   []BeforeReduceHook
	reduced        []ReducedHook
	failed         []CompactionFailedHook
	markerInjected []MarkerInjectedHook
	toolCall       []ToolCallHook
}

var _ compaction.Observer = (*Registry)(nil)

// NewRegistry creates a new hook registry
func NewRegistry() *Registry {
	return &Registry{}
}

// OnBeforeReduce registers a hook to be called before reducing history
func (r *Registry) OnBeforeReduce(hook BeforeReduceHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beforeReduce = append(r.beforeReduce, hook)
}

// OnReduced registers a hook to be called after a successful reduction
func (r *Registry) OnReduced(hook ReducedHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reduced = append(r.reduced, hook)
}

// OnCompactionFailed registers a hook to be called when compaction fails
func (r *Registry) OnCompactionFailed(hook CompactionFailedHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, hook)
}

// OnMarkerInjected registers a hook to be called when a marker is injected
func (r *Registry) OnMarkerInjected(hook MarkerInjectedHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markerInjected = append(r.markerInjected, hook)
}

// OnToolCall registers a hook to be called when a tool is executed
func (r *Registry) OnToolCall(hook ToolCallHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toolCall = append(r.toolCall, hook)
}

// TriggerBeforeReduce calls all registered before-reduce hooks, stopping at
// the first error
func (r *Registry) TriggerBeforeReduce(ctx context.Context, history []*types.Message) error {
	r.mu.RLock()
	hooks := make([]BeforeReduceHook, len(r.beforeReduce))
	copy(hooks, r.beforeReduce)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, history); err != nil {
			return err
		}
	}
	return nil
}

// Reduced calls all registered reduced hooks
func (r *Registry) Reduced(result *compaction.Result) {
	r.mu.RLock()
	hooks := make([]ReducedHook, len(r.reduced))
	copy(hooks, r.reduced)
	r.mu.RUnlock()

	for _, hook := range hooks {
		hook(result)
	}
}

// Failed calls all registered compaction-failed hooks
func (r *Registry) Failed(err *compaction.CompactionError) {
	r.mu.RLock()
	hooks := make([]CompactionFailedHook, len(r.failed))
	copy(hooks, r.failed)
	r.mu.RUnlock()

	for _, hook := range hooks {
		hook(err)
	}
}

// TriggerMarkerInjected calls all registered marker-injected hooks
func (r *Registry) TriggerMarkerInjected(ctx context.Context, event streaming.MarkerEvent) {
	r.mu.RLock()
	hooks := make([]MarkerInjectedHook, len(r.markerInjected))
	copy(hooks, r.markerInjected)
	r.mu.RUnlock()

	for _, hook := range hooks {
		hook(ctx, event)
	}
}

// MarkerFunc returns a callback for streaming.WithOnMarker that triggers the
// marker-injected hooks.
func (r *Registry) MarkerFunc() streaming.MarkerFunc {
	return r.TriggerMarkerInjected
}

// TriggerToolCall calls all registered tool-call hooks
func (r *Registry) TriggerToolCall(ctx context.Context, toolName string, input json.RawMessage, output string, err error) error {
	r.mu.RLock()
	hooks := make([]ToolCallHook, len(r.toolCall))
	copy(hooks, r.toolCall)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if hookErr := hook(ctx, toolName, input, output, err); hookErr != nil {
			return hookErr
		}
	}
	return nil
}
