// Package ctxcompact keeps long-running chat agents inside their model's
// context window.
//
// A model call that fails because its input is too large does not end the
// conversation. The failure is turned into a marker in the assistant turn; on
// the next turn the history is truncated and the model is asked to summarize
// it with the compaction tool; once the summary exists it replaces the older
// history and the turns set aside are restored.
//
// # Key Features
//
//   - Context-overflow classification for Anthropic, OpenAI and custom provider errors
//   - Stream interceptors that turn an overflow into a persisted marker
//   - A pure history reducer that applies summaries and requests new ones
//   - A loop guard that aborts the turn instead of retrying forever
//   - Hooks for logging and metrics
//
// # Quick Start
//
//	guard, err := ctxcompact.New(nil, ctxcompact.WithModel("claude-sonnet-4-5-20250929"))
//
//	messages, system, err := guard.PrepareAnthropic(ctx, history)
//	if ce, ok := ctxcompact.IsCompactionError(err); ok {
//	    return ce.Reason // show to the user
//	}
//
//	stream := client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
//	    Model:    "claude-sonnet-4-5-20250929",
//	    System:   system,
//	    Messages: messages,
//	    Tools:    guard.Tools().ToAnthropicTools(),
//	})
//
//	chunks := guard.WrapAnthropicStream(ctx, stream)
//	acc := streaming.NewAccumulator()
//	for chunks.Next() {
//	    acc.ProcessChunk(chunks.Current())
//	}
//	if err := chunks.Err(); err != nil {
//	    return err
//	}
//	history = append(history, acc.Message()) // persist, marker included
//
// Tool calls are executed with Guard.ExecuteTool. The compaction tool only
// echoes the summary; it takes effect on the next Reduce.
//
// # Hooks
//
// Observe compaction with a hooks.Registry:
//
//	reg := hooks.NewRegistry()
//	hooks.NewLoggingHooks(hooks.NewZapLogger(zapLogger)).Register(reg)
//	guard, err := ctxcompact.New(cfg, ctxcompact.WithHooks(reg))
package ctxcompact
