// Package streaming turns context-window overflows in model output streams
// into compaction markers.
//
// Two interceptors cover the two places an overflow can surface. InterceptChunks
// wraps the token-level stream of a model call; InterceptUIStream wraps the
// event stream delivered to a UI after the call. Both replace the overflow
// with a completed marker tool call and a "tool-calls" finish, so the turn
// ends normally and the marker is persisted with the assistant message. The
// next compaction.Reduce sees the marker and asks the model to summarize.
//
// Use an Accumulator to build the assistant message from either stream.
package streaming
