package compaction

import (
	"fmt"
)

// SummaryBanner introduces the summary text in the synthetic user message
// that replaces compacted history.
const SummaryBanner = "## Previous Conversation Summary\n\nThe earlier part of this conversation was compacted to fit the context window. The summary below is the only record of it:"

// SummaryAcknowledgement is the synthetic assistant reply following the
// summary message. Some providers reject two consecutive user messages.
const SummaryAcknowledgement = "Understood. I have the summary of our previous conversation and will continue from there."

// ToolAcknowledgement is returned to the model when the compaction tool runs.
const ToolAcknowledgement = "Conversation compacted. The summary replaces the earlier messages from the next turn on."

// ToolDescription instructs the model how to write the summary. The summary
// is the only information retained from the compacted turns.
const ToolDescription = `Compact the conversation when the context window is full. Call this tool immediately when asked to compact.

Write a summary that will REPLACE the entire conversation so far. Anything you leave out is lost. Be exhaustive and specific, covering:

1. **Topics and Intent**: what the user asked for, constraints and requirements, preferences expressed
2. **Decisions**: design and technical decisions made, alternatives rejected and why
3. **File Changes**: files created, modified or deleted, with paths and the purpose of each change
4. **Open Tasks**: pending work, follow-ups, and the immediate next step
5. **Errors and Resolutions**: errors encountered, their exact messages, and how they were fixed

Use bullet points. Include exact names (files, functions, commands, error messages). Do not add information that was not in the conversation.`

// SummaryFieldDescription documents the summary input field.
const SummaryFieldDescription = "Exhaustive summary of the conversation so far. It replaces all earlier messages."

// BuildSummaryPrompt creates the text of the synthetic user message that
// carries the summary.
func BuildSummaryPrompt(summary string) string {
	return SummaryBanner + "\n\n<summary>\n" + summary + "\n</summary>"
}

// BuildCompactionRequest creates the text of the synthetic user message that
// asks the model to call the compaction tool. usagePct is omitted when <= 0.
func BuildCompactionRequest(usagePct int) string {
	prompt := "The conversation has exceeded the model's context window"
	if usagePct > 0 {
		prompt += fmt.Sprintf(" (~%d%% of the context window used)", usagePct)
	}
	prompt += ". The most recent messages were set aside and will be restored after compaction.\n\n" +
		"Call the `" + ToolName + "` tool immediately with an exhaustive summary of the conversation above. " +
		"Do not answer any pending request and do not call any other tool."
	return prompt
}
