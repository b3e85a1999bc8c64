package compaction

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/youssefsiam38/ctxcompact/types"
)

func user(text string) *types.Message {
	return types.NewUserMessage(text)
}

func assistant(text string) *types.Message {
	return types.NewAssistantMessage(types.NewTextPart(text))
}

func marker() *types.Message {
	return NewMarkerMessage()
}

func summaryMessage(t *testing.T, text string) *types.Message {
	t.Helper()
	part, err := types.NewToolPart(ToolName, "call-"+text, types.ToolStateOutputAvailable,
		map[string]string{"summary": text},
		SummaryOutput{Summary: text, CompactedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Message: ToolAcknowledgement},
	)
	if err != nil {
		t.Fatalf("NewToolPart: %v", err)
	}
	return types.NewAssistantMessage(part)
}

// pendingCompaction is an assistant message with an unanswered compaction call.
func pendingCompaction(t *testing.T) *types.Message {
	t.Helper()
	part, err := types.NewToolPart(ToolName, "call-pending", types.ToolStateInputAvailable,
		map[string]string{"summary": "partial"}, nil)
	if err != nil {
		t.Fatalf("NewToolPart: %v", err)
	}
	return types.NewAssistantMessage(part)
}

// staticPart builds a tool part in the statically named encoding.
func staticPart(t *testing.T, name string, state types.ToolState, output any) types.Part {
	t.Helper()
	raw, err := json.Marshal(output)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return types.Part{
		Type:       types.StaticToolType(name),
		ToolCallID: "static-" + name,
		State:      state,
		Input:      json.RawMessage(`{}`),
		Output:     raw,
	}
}

// describe renders messages as "role:text" for compact assertions.
func describe(messages []*types.Message) []string {
	out := make([]string, len(messages))
	for i, m := range messages {
		switch {
		case IsMarkerMessage(m):
			out[i] = "marker"
		case IsSummaryMessage(m):
			out[i] = "summary"
		default:
			out[i] = string(m.Role) + ":" + m.Text()
		}
	}
	return out
}

type recordingLogger struct {
	entries []string
}

func (l *recordingLogger) Debug(msg string, args ...any) { l.entries = append(l.entries, "debug:"+msg) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.entries = append(l.entries, "info:"+msg) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.entries = append(l.entries, "warn:"+msg) }
func (l *recordingLogger) Error(msg string, args ...any) { l.entries = append(l.entries, "error:"+msg) }

type recordingObserver struct {
	reduced []*Result
	failed  []*CompactionError
}

func (o *recordingObserver) Reduced(r *Result)          { o.reduced = append(o.reduced, r) }
func (o *recordingObserver) Failed(e *CompactionError) { o.failed = append(o.failed, e) }
