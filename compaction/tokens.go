package compaction

import (
	"github.com/youssefsiam38/ctxcompact/types"
)

// messageOverheadTokens approximates the per-message framing cost.
const messageOverheadTokens = 4

// ApproximateTokens provides fast estimation without API call
func ApproximateTokens(content string) int {
	// Claude tokenizes roughly 3.5 characters per token for English text
	return len(content) * 10 / 35
}

// EstimateMessageTokens approximates the tokens a message costs in a request.
func EstimateMessageTokens(m *types.Message) int {
	total := messageOverheadTokens
	for _, p := range m.Parts {
		switch {
		case p.Type == types.PartTypeText:
			total += ApproximateTokens(p.Text)
		case p.IsTool():
			// Tool calls add overhead
			name, _ := p.ToolNameOf()
			total += 20 + ApproximateTokens(name) + ApproximateTokens(string(p.Input)) +
				ApproximateTokens(string(p.Output)) + ApproximateTokens(p.ErrorText)
		}
	}
	return total
}

// SumTokens estimates the total tokens across messages
func SumTokens(messages []*types.Message) int {
	total := 0
	for _, m := range messages {
		total += EstimateMessageTokens(m)
	}
	return total
}

// usagePercent returns the estimated share of the context window used by
// history, or 0 when maxTokens is not set.
func usagePercent(history []*types.Message, maxTokens int) int {
	if maxTokens <= 0 {
		return 0
	}
	return SumTokens(history) * 100 / maxTokens
}
