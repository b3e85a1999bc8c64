package ctxcompact

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/youssefsiam38/ctxcompact/compaction"
	"github.com/youssefsiam38/ctxcompact/hooks"
	internalanthropic "github.com/youssefsiam38/ctxcompact/internal/anthropic"
	"github.com/youssefsiam38/ctxcompact/streaming"
	"github.com/youssefsiam38/ctxcompact/tool"
	"github.com/youssefsiam38/ctxcompact/types"
)

// Guard wires the compaction subsystem around a model-calling loop. It is
// safe for concurrent use across chats; calls for one chat must be sequential.
type Guard struct {
	config     *compaction.Config
	reducer    *compaction.Reducer
	classifier *compaction.Classifier
	hooks      *hooks.Registry
	tools      *tool.Registry
	logger     compaction.Logger
}

// New creates a Guard. A nil cfg uses DefaultConfig. The configuration is
// copied; later changes to cfg have no effect.
func New(cfg *compaction.Config, opts ...Option) (*Guard, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	} else {
		copied := *cfg
		cfg = &copied
	}

	ic := &internalConfig{}
	for _, opt := range opts {
		if err := opt(ic); err != nil {
			return nil, err
		}
	}

	if ic.model != "" {
		cfg.MaxTokensForModel = GetModelInfo(ic.model).MaxContextTokens
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, NewGuardError("New", err)
	}

	classifier := ic.classifier
	if classifier == nil {
		c, err := cfg.Classifier()
		if err != nil {
			return nil, NewGuardError("New", err)
		}
		classifier = c
	}

	hookReg := ic.hookReg
	if hookReg == nil {
		hookReg = hooks.NewRegistry()
	}

	logger := ic.logger
	if logger == nil {
		logger = hooks.NewZapLogger(nil)
	}

	tools := tool.NewRegistry()
	if _, err := compaction.RegisterTool(tools, cfg); err != nil {
		return nil, NewGuardError("New", err)
	}
	for _, t := range ic.tools {
		if err := tools.Register(t); err != nil {
			return nil, NewGuardError("New", errors.Join(ErrInvalidToolSchema, err)).WithContext("tool", t.Name())
		}
	}

	reducer := compaction.NewReducer(cfg, logger)
	reducer.SetObserver(hookReg)

	return &Guard{
		config:     cfg,
		reducer:    reducer,
		classifier: classifier,
		hooks:      hookReg,
		tools:      tools,
		logger:     logger,
	}, nil
}

// Reduce returns the history to submit to the model. A *CompactionError
// means the turn must be aborted and the reason shown to the user.
func (g *Guard) Reduce(ctx context.Context, history []*types.Message) ([]*types.Message, error) {
	result, err := g.ReduceDetailed(ctx, history)
	if err != nil {
		return nil, err
	}
	return result.Messages, nil
}

// ReduceDetailed is Reduce with a description of what was done.
func (g *Guard) ReduceDetailed(ctx context.Context, history []*types.Message) (*compaction.Result, error) {
	if err := g.hooks.TriggerBeforeReduce(ctx, history); err != nil {
		return nil, NewGuardError("Reduce", errors.Join(ErrHookRejected, err))
	}
	return g.reducer.ReduceDetailed(history)
}

// PrepareAnthropic reduces history and converts it to Anthropic message
// parameters, along with the system prompt found in history.
func (g *Guard) PrepareAnthropic(ctx context.Context, history []*types.Message) ([]anthropic.MessageParam, []anthropic.TextBlockParam, error) {
	reduced, err := g.Reduce(ctx, history)
	if err != nil {
		return nil, nil, err
	}

	var system []anthropic.TextBlockParam
	if prompt := internalanthropic.SystemPrompt(reduced); prompt != "" {
		system = internalanthropic.BuildSystemPrompt(prompt)
	}
	messages, err := internalanthropic.ConvertToAnthropicMessages(reduced)
	if err != nil {
		return nil, nil, NewGuardError("PrepareAnthropic", err)
	}
	return messages, system, nil
}

// ConvertAnthropicResponse converts a non-streaming Anthropic response into
// the assistant message to persist.
func (g *Guard) ConvertAnthropicResponse(resp *anthropic.Message) (*types.Message, error) {
	return internalanthropic.ConvertResponse(resp)
}

// WrapChunkStream intercepts context-overflow failures of a model call.
func (g *Guard) WrapChunkStream(ctx context.Context, src streaming.ChunkStream) *streaming.InterceptedChunkStream {
	return streaming.InterceptChunks(src, g.streamOptions(ctx)...)
}

// WrapAnthropicStream adapts an Anthropic stream and intercepts its
// context-overflow failures.
func (g *Guard) WrapAnthropicStream(ctx context.Context, src streaming.AnthropicEventStream) *streaming.InterceptedChunkStream {
	return g.WrapChunkStream(ctx, streaming.NewAnthropicChunkStream(src))
}

// WrapUIStream intercepts context-overflow failures surfacing in a UI stream.
func (g *Guard) WrapUIStream(ctx context.Context, src streaming.UIStream) *streaming.InterceptedUIStream {
	return streaming.InterceptUIStream(src, g.streamOptions(ctx)...)
}

func (g *Guard) streamOptions(ctx context.Context) []streaming.Option {
	return []streaming.Option{
		streaming.WithContext(ctx),
		streaming.WithClassifier(g.classifier),
		streaming.WithLogger(g.logger),
		streaming.WithOnMarker(g.hooks.MarkerFunc()),
	}
}

// ExecuteTool runs a registered tool and reports the call to the tool hooks.
func (g *Guard) ExecuteTool(ctx context.Context, name string, input json.RawMessage) (string, error) {
	output, err := g.tools.Execute(ctx, name, input)
	if hookErr := g.hooks.TriggerToolCall(ctx, name, input, output, err); hookErr != nil {
		g.logger.Warn("tool hook failed", "tool", name, "error", hookErr)
	}
	return output, err
}

// IsContextOverflow reports whether err means the model input was too large.
func (g *Guard) IsContextOverflow(err error) bool {
	return g.classifier.IsContextOverflow(err)
}

// Tools returns the tool registry, holding the compaction tool when enabled.
func (g *Guard) Tools() *tool.Registry {
	return g.tools
}

// Hooks returns the hook registry.
func (g *Guard) Hooks() *hooks.Registry {
	return g.hooks
}

// Config returns the effective compaction configuration.
func (g *Guard) Config() *compaction.Config {
	return g.config
}
