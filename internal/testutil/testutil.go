// Package testutil provides test utilities for ctxcompact
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/youssefsiam38/ctxcompact/compaction"
	"github.com/youssefsiam38/ctxcompact/internal/convert"
	"github.com/youssefsiam38/ctxcompact/types"
)

// History builds a persisted chat history for tests
type History struct {
	t        *testing.T
	messages []*types.Message
}

// NewHistory starts an empty history
func NewHistory(t *testing.T) *History {
	t.Helper()
	return &History{t: t}
}

// User appends a user message
func (h *History) User(text string) *History {
	h.messages = append(h.messages, types.NewUserMessage(text))
	return h
}

// Assistant appends an assistant text message
func (h *History) Assistant(text string) *History {
	h.messages = append(h.messages, types.NewAssistantMessage(types.NewTextPart(text)))
	return h
}

// Marker appends an assistant message holding a compaction marker
func (h *History) Marker() *History {
	h.messages = append(h.messages, compaction.NewMarkerMessage())
	return h
}

// Summary appends an assistant message with a completed compaction call
func (h *History) Summary(text string) *History {
	h.t.Helper()
	part, err := types.NewToolPart(compaction.ToolName, "call-"+text, types.ToolStateOutputAvailable,
		map[string]string{"summary": text},
		compaction.SummaryOutput{Summary: text, CompactedAt: time.Now().UTC(), Message: compaction.ToolAcknowledgement},
	)
	if err != nil {
		h.t.Fatalf("build summary part: %v", err)
	}
	h.messages = append(h.messages, types.NewAssistantMessage(part))
	return h
}

// PendingCompaction appends an assistant message with an unanswered compaction call
func (h *History) PendingCompaction() *History {
	h.t.Helper()
	part, err := types.NewToolPart(compaction.ToolName, "call-pending", types.ToolStateInputAvailable,
		map[string]string{"summary": "..."}, nil)
	if err != nil {
		h.t.Fatalf("build pending part: %v", err)
	}
	h.messages = append(h.messages, types.NewAssistantMessage(part))
	return h
}

// Messages returns the built history
func (h *History) Messages() []*types.Message {
	return h.messages
}

// WriteFile writes the history as JSON to a temporary file and returns its path
func (h *History) WriteFile() string {
	h.t.Helper()
	path := filepath.Join(h.t.TempDir(), "history.json")
	f, err := os.Create(path)
	if err != nil {
		h.t.Fatalf("create history file: %v", err)
	}
	defer f.Close()

	if err := convert.EncodeHistory(f, h.messages); err != nil {
		h.t.Fatalf("write history file: %v", err)
	}
	return path
}
