package compaction

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/youssefsiam38/ctxcompact/types"
)

const (
	// ToolName is the reserved name of the compaction tool. A completed part
	// with this name carries the model-authored summary.
	ToolName = "compact_conversation"

	// MarkerToolName is the reserved name of the synthetic part recording a
	// compaction attempt that failed because the input was too large.
	MarkerToolName = "compaction_marker"

	// MarkerOutput is the fixed output of every marker part.
	MarkerOutput = "Context window exceeded. The conversation will be compacted before the next turn."
)

// SummaryOutput is the output of a completed compaction tool call.
type SummaryOutput struct {
	Summary     string    `json:"summary"`
	CompactedAt time.Time `json:"compacted_at"`
	Message     string    `json:"message,omitempty"`
}

// NewMarkerPart creates a completed marker part with a fresh tool call id.
func NewMarkerPart() types.Part {
	return NewMarkerPartWithID("compaction-" + uuid.New().String())
}

// NewMarkerPartWithID creates a completed marker part for the given tool call id.
func NewMarkerPartWithID(toolCallID string) types.Part {
	output, _ := json.Marshal(MarkerOutput)
	return types.Part{
		Type:       types.PartTypeDynamicTool,
		ToolName:   MarkerToolName,
		ToolCallID: toolCallID,
		State:      types.ToolStateOutputAvailable,
		Input:      json.RawMessage(`{}`),
		Output:     output,
	}
}

// NewMarkerMessage creates an assistant message holding a single marker part.
func NewMarkerMessage() *types.Message {
	return types.NewAssistantMessage(NewMarkerPart())
}

// IsMarkerPart reports whether the part is a compaction marker.
func IsMarkerPart(p types.Part) bool {
	name, ok := p.ToolNameOf()
	return ok && name == MarkerToolName
}

// IsMarkerMessage reports whether the message contains a marker part. Such a
// message counts entirely as a marker, whatever else it holds.
func IsMarkerMessage(m *types.Message) bool {
	if m == nil {
		return false
	}
	for _, p := range m.Parts {
		if IsMarkerPart(p) {
			return true
		}
	}
	return false
}

// IsSummaryPart reports whether the part is a completed compaction tool call.
func IsSummaryPart(p types.Part) bool {
	name, ok := p.ToolNameOf()
	return ok && name == ToolName && p.State == types.ToolStateOutputAvailable
}

// IsSummaryMessage reports whether the message is an assistant message with a
// completed compaction tool call.
func IsSummaryMessage(m *types.Message) bool {
	if m == nil || m.Role != types.RoleAssistant {
		return false
	}
	for _, p := range m.Parts {
		if IsSummaryPart(p) {
			return true
		}
	}
	return false
}

// EngagesCompaction reports whether an assistant message touched the
// compaction tool in any state, or carries a marker.
func EngagesCompaction(m *types.Message) bool {
	if m == nil || m.Role != types.RoleAssistant {
		return false
	}
	for _, p := range m.Parts {
		name, ok := p.ToolNameOf()
		if ok && (name == ToolName || name == MarkerToolName) {
			return true
		}
	}
	return false
}

// SummaryOf extracts the summary from the last completed compaction part of m.
func SummaryOf(m *types.Message) (SummaryOutput, error) {
	for i := len(m.Parts) - 1; i >= 0; i-- {
		p := m.Parts[i]
		if !IsSummaryPart(p) {
			continue
		}
		var out SummaryOutput
		if err := json.Unmarshal(p.Output, &out); err != nil {
			return SummaryOutput{}, fmt.Errorf("%w: message %s: compaction output: %v", ErrInvalidHistory, m.ID, err)
		}
		return out, nil
	}
	return SummaryOutput{}, fmt.Errorf("%w: message %s has no compaction summary", ErrInvalidHistory, m.ID)
}

// StripMarkers returns history without marker messages. A message holding a
// marker part is dropped whole, whatever else it contains; every other
// message is kept as the same pointer. Applying it twice yields the same
// result as applying it once.
func StripMarkers(history []*types.Message) []*types.Message {
	out := make([]*types.Message, 0, len(history))
	for _, m := range history {
		if IsMarkerMessage(m) {
			continue
		}
		out = append(out, m)
	}
	return out
}
