// Package compaction keeps a growing conversation inside a model's context window.
//
// When a model call fails because its input was too large, the streaming
// layer records a marker in the assistant turn instead of failing. On the next
// turn the Reducer sees the marker, sets aside the most recent turn and asks
// the model to call the compaction tool with a summary of everything else.
// Once a summary exists, the Reducer replaces the history before it with the
// summary and restores the turns that were set aside.
//
// # Markers and summaries
//
// A marker is a completed part of the reserved tool MarkerToolName. A summary
// is a completed part of the compaction tool ToolName whose output holds the
// model-authored text. Both live in the persisted history; nothing is deleted.
// The most recent summary supersedes all earlier ones.
//
// # Usage
//
//	reducer := compaction.NewReducer(&compaction.Config{Enabled: true}, logger)
//
//	messages, err := reducer.Reduce(history)
//	if ce, ok := compaction.IsCompactionError(err); ok {
//	    // Surface ce.Reason to the user; retrying will not help.
//	}
//
// Register the tool so the model can answer a compaction request:
//
//	registry := tool.NewRegistry()
//	_, err := compaction.RegisterTool(registry, cfg)
//
// # Termination
//
// Every retry sets aside one more turn. When no earlier turn is left, or when
// MaxConsecutiveAttempts assistant turns in a row engaged the compaction
// tool, Reduce returns a *CompactionError and the turn must be aborted.
//
// # Classification
//
// IsContextOverflow decides whether a provider error means the input was too
// large. It inspects Anthropic and OpenAI SDK errors and any error
// implementing ProviderError; other errors are never classified as overflow.
package compaction
